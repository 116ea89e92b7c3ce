package api

import (
	"context"
	"fmt"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rxtech-lab/deployment-tracker/internal/api/middleware"
	"github.com/rxtech-lab/deployment-tracker/internal/log"
	"github.com/rxtech-lab/deployment-tracker/internal/mcp"
	"github.com/rxtech-lab/deployment-tracker/internal/services"
)

type APIServer struct {
	app             *fiber.App
	trackingService services.DeploymentTrackingService
	relayService    services.RelayService
	chainService    services.ChainService
	mcpServer       *mcp.MCPServer
	gatherer        prometheus.Gatherer
	port            int
}

type Option func(*APIServer)

// WithGatherer serves /metrics from the given gatherer instead of the default registry
func WithGatherer(gatherer prometheus.Gatherer) Option {
	return func(s *APIServer) {
		s.gatherer = gatherer
	}
}

func NewAPIServer(trackingService services.DeploymentTrackingService, relayService services.RelayService, chainService services.ChainService, opts ...Option) *APIServer {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	// Add middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, " + middleware.ProjectTokenHeader,
	}))
	app.Use(middleware.RequestLogMiddleware())

	server := &APIServer{
		app:             app,
		trackingService: trackingService,
		relayService:    relayService,
		chainService:    chainService,
		gatherer:        prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(server)
	}
	server.setupRoutes()
	return server
}

func (s *APIServer) setupRoutes() {
	// Health check
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	api := s.app.Group("/api")
	api.Get("/chains", s.handleListChains)

	// Tracking routes forward the caller's project token
	tracked := api.Group("", middleware.ProjectTokenMiddleware())
	tracked.Post("/projects/:project_id/deployments", s.handleCreateDeployment)
	tracked.Post("/deployments/:deployment_id/transactions", s.handleSendEthTransaction)
	tracked.Put("/deployments/:deployment_id/transactions/:tx_id", s.handleAddTransactionReceipt)
	tracked.Post("/deployments/:deployment_id/relay", s.handleRelayTransaction)
}

// EnableStreamableHttp mounts the MCP server on /mcp
func (s *APIServer) EnableStreamableHttp() error {
	if s.mcpServer == nil {
		return fmt.Errorf("MCP server is not set")
	}
	handler := adaptor.HTTPHandler(s.mcpServer.StreamableHTTPHandler())
	s.app.All("/mcp", handler)
	s.app.All("/mcp/*", handler)
	return nil
}

// Start listens on the given port, or on a random available port when port is nil
func (s *APIServer) Start(port *int) (int, error) {
	addr := ":0"
	if port != nil {
		addr = fmt.Sprintf(":%d", *port)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return 0, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.port = listener.Addr().(*net.TCPAddr).Port

	go func() {
		if err := s.app.Listener(listener); err != nil {
			log.L(context.Background()).Errorf("Error starting API server: %v", err)
		}
	}()

	return s.port, nil
}

func (s *APIServer) Shutdown() error {
	return s.app.Shutdown()
}

func (s *APIServer) GetPort() int {
	return s.port
}

// GetFiberApp returns the underlying fiber app
func (s *APIServer) GetFiberApp() *fiber.App {
	return s.app
}

// SetMCPServer sets the MCP server instance served by EnableStreamableHttp
func (s *APIServer) SetMCPServer(mcpServer *mcp.MCPServer) {
	s.mcpServer = mcpServer
}

// GetMCPServer returns the MCP server instance
func (s *APIServer) GetMCPServer() *mcp.MCPServer {
	return s.mcpServer
}
