package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rxtech-lab/deployment-tracker/internal/api"
	"github.com/rxtech-lab/deployment-tracker/internal/config"
	"github.com/rxtech-lab/deployment-tracker/internal/log"
	"github.com/rxtech-lab/deployment-tracker/internal/mcp"
	"github.com/rxtech-lab/deployment-tracker/internal/server"
)

var (
	apiServer *api.APIServer
	initOnce  sync.Once
	initErr   error
)

// Handler is the main Vercel function handler
func Handler(w http.ResponseWriter, r *http.Request) {
	initOnce.Do(func() {
		initErr = initializeAPIServer()
	})
	if initErr != nil {
		log.L(r.Context()).Errorf("Failed to initialize API server: %v", initErr)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	adaptor.FiberApp(apiServer.GetFiberApp())(w, r)
}

func initializeAPIServer() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	// In Vercel only /tmp is writable
	if os.Getenv("VERCEL") == "1" && !cfg.UsePostgres() {
		cfg.DBPath = "/tmp/deployment-tracker.db"
	}
	log.InitConfig(cfg.LogConfig())

	dbService, err := server.OpenDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	svc := server.InitializeServices(cfg, dbService.GetDB(), prometheus.DefaultRegisterer)
	if err := server.SeedChain(context.Background(), cfg, svc.Chains); err != nil {
		log.L(context.Background()).WithError(err).Warn("Failed to configure chain from environment")
	}

	apiServer = api.NewAPIServer(svc.Tracking, svc.Relay, svc.Chains)
	apiServer.SetMCPServer(mcp.NewMCPServer(svc.Tracking, svc.Relay, svc.Chains))
	if err := apiServer.EnableStreamableHttp(); err != nil {
		return err
	}

	// Add a root route for Vercel
	apiServer.GetFiberApp().Get("/", func(c *fiber.Ctx) error {
		return c.JSON(map[string]interface{}{
			"message": "Deployment Tracker API",
			"status":  "running",
			"version": mcp.ServerVersion,
		})
	})

	return nil
}
