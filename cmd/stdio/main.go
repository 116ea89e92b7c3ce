package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rxtech-lab/deployment-tracker/internal/api"
	"github.com/rxtech-lab/deployment-tracker/internal/config"
	"github.com/rxtech-lab/deployment-tracker/internal/log"
	"github.com/rxtech-lab/deployment-tracker/internal/mcp"
	"github.com/rxtech-lab/deployment-tracker/internal/server"
	"github.com/rxtech-lab/deployment-tracker/internal/services"
)

// Build information (set via ldflags)
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildTime  = "unknown"
)

func configureAndStartServer(ctx context.Context, cfg *config.Config, dbService services.DBService, port int) (*api.APIServer, int, error) {
	registry := prometheus.NewRegistry()
	svc := server.InitializeServices(cfg, dbService.GetDB(), registry)
	if err := server.SeedChain(ctx, cfg, svc.Chains); err != nil {
		log.L(ctx).WithError(err).Warn("Failed to configure chain from environment")
	}

	// Local API server (health, metrics and the tracking routes), no MCP mount
	apiServer := api.NewAPIServer(svc.Tracking, svc.Relay, svc.Chains, api.WithGatherer(registry))

	var portPtr *int
	if port != 0 {
		portPtr = &port
	}
	startedPort, err := apiServer.Start(portPtr)
	if err != nil {
		return nil, 0, err
	}

	apiServer.SetMCPServer(mcp.NewMCPServer(svc.Tracking, svc.Relay, svc.Chains))
	return apiServer, startedPort, nil
}

func printHelp() {
	fmt.Fprintf(os.Stderr, "Deployment Tracker MCP Server\n\n")
	fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Options:\n")
	fmt.Fprintf(os.Stderr, "  --version    Show version information\n")
	fmt.Fprintf(os.Stderr, "  --help       Show this help message\n")
	fmt.Fprintf(os.Stderr, "  --log        Enable logging output (stderr)\n\n")
	fmt.Fprintf(os.Stderr, "Description:\n")
	fmt.Fprintf(os.Stderr, "  Records deployments, their Ethereum transactions and receipts in the\n")
	fmt.Fprintf(os.Stderr, "  deployment tracking service. Provides 7 MCP tools.\n\n")
	fmt.Fprintf(os.Stderr, "Environment:\n")
	fmt.Fprintf(os.Stderr, "  TRACKER_API_URL  Tracking service base URL (default %s)\n", "https://api.superblocks.com/v1")
	fmt.Fprintf(os.Stderr, "  ETH_RPC_URL      RPC endpoint used by relay_transaction\n")
	fmt.Fprintf(os.Stderr, "  DB_PATH          Chain registry (default ~/%s, SQLite)\n", config.DefaultDBFile)
}

func main() {
	// Command line flags
	var showVersion = flag.Bool("version", false, "Show version information")
	var showHelp = flag.Bool("help", false, "Show help information")
	var enableLog = flag.Bool("log", false, "Enable logging output")
	flag.Parse()

	if *showVersion {
		fmt.Fprintf(os.Stderr, "Deployment Tracker MCP Server\n")
		fmt.Fprintf(os.Stderr, "Version: %s\n", Version)
		fmt.Fprintf(os.Stderr, "Commit: %s\n", CommitHash)
		fmt.Fprintf(os.Stderr, "Built: %s\n", BuildTime)
		return
	}

	if *showHelp {
		printHelp()
		return
	}

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// stdout is the MCP channel: log to stderr, and only when asked to
	logConfig := cfg.LogConfig()
	logConfig.Output = "stderr"
	if !*enableLog {
		logConfig.Output = "discard"
	}
	log.InitConfig(logConfig)

	dbService, err := server.OpenDatabase(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer dbService.Close()

	apiServer, port, err := configureAndStartServer(ctx, cfg, dbService, 0) // 0 for random port
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start API server: %v\n", err)
		os.Exit(1)
	}

	log.L(ctx).Infof("API server started on port %d", port)

	mcpServer := apiServer.GetMCPServer()
	if mcpServer == nil {
		fmt.Fprintln(os.Stderr, "MCP server not found")
		os.Exit(1)
	}

	// Set up graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	serveErr := waitForShutdown(mcpServer.StartStdioServer, c)

	log.L(ctx).Info("Shutting down servers...")

	if err := apiServer.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "Error shutting down API server: %v\n", err)
	}

	if serveErr != nil {
		fmt.Fprintf(os.Stderr, "MCP server stopped: %v\n", serveErr)
		dbService.Close()
		os.Exit(1)
	}
	log.L(ctx).Info("Servers shut down successfully")
}

// waitForShutdown serves MCP until the client closes stdin or a signal arrives
func waitForShutdown(serve func() error, signals <-chan os.Signal) error {
	done := make(chan error, 1)
	go func() {
		done <- serve()
	}()

	select {
	case err := <-done:
		return err
	case sig := <-signals:
		log.L(context.Background()).Infof("Received %s", sig)
		return nil
	}
}
