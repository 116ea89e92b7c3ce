package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload" // Automatically load .env file if present
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rxtech-lab/deployment-tracker/internal/api"
	"github.com/rxtech-lab/deployment-tracker/internal/config"
	"github.com/rxtech-lab/deployment-tracker/internal/log"
	"github.com/rxtech-lab/deployment-tracker/internal/mcp"
	"github.com/rxtech-lab/deployment-tracker/internal/server"
	"github.com/rxtech-lab/deployment-tracker/internal/services"
)

func configureAndStartServer(ctx context.Context, cfg *config.Config, dbService services.DBService, registry *prometheus.Registry) (*api.APIServer, int, error) {
	svc := server.InitializeServices(cfg, dbService.GetDB(), registry)
	if err := server.SeedChain(ctx, cfg, svc.Chains); err != nil {
		log.L(ctx).WithError(err).Warn("Failed to configure chain from environment")
	}

	mcpServer := mcp.NewMCPServer(svc.Tracking, svc.Relay, svc.Chains)
	apiServer := api.NewAPIServer(svc.Tracking, svc.Relay, svc.Chains, api.WithGatherer(registry))
	apiServer.SetMCPServer(mcpServer)
	if err := apiServer.EnableStreamableHttp(); err != nil {
		return nil, 0, err
	}

	port := cfg.Port
	startedPort, err := apiServer.Start(&port)
	if err != nil {
		return nil, 0, err
	}
	return apiServer, startedPort, nil
}

func main() {
	ctx := context.Background()

	cfg, err := config.FromEnv()
	if err != nil {
		log.L(ctx).Fatalf("Invalid configuration: %v", err)
	}
	log.InitConfig(cfg.LogConfig())

	// Create database service wrapper
	dbService, err := server.OpenDatabase(cfg)
	if err != nil {
		log.L(ctx).Fatalf("Failed to initialize database service: %v", err)
	}
	defer dbService.Close()

	registry := prometheus.NewRegistry()
	apiServer, startedPort, err := configureAndStartServer(ctx, cfg, dbService, registry)
	if err != nil {
		log.L(ctx).Fatalf("Failed to start API server: %v", err)
	}

	log.L(ctx).Infof("API server started on port %d", startedPort)

	// Set up graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.L(ctx).Info("Shutting down server...")

	if err := apiServer.Shutdown(); err != nil {
		log.L(ctx).Errorf("Error shutting down API server: %v", err)
	}

	log.L(ctx).Info("Server shut down successfully")
}
