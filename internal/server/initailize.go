package server

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rxtech-lab/deployment-tracker/internal/config"
	"github.com/rxtech-lab/deployment-tracker/internal/log"
	"github.com/rxtech-lab/deployment-tracker/internal/metrics"
	"github.com/rxtech-lab/deployment-tracker/internal/models"
	"github.com/rxtech-lab/deployment-tracker/internal/services"
	"github.com/rxtech-lab/deployment-tracker/internal/transport"
	"github.com/rxtech-lab/deployment-tracker/internal/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Services groups everything the MCP and HTTP servers are built from
type Services struct {
	Tracking services.DeploymentTrackingService
	Relay    services.RelayService
	Chains   services.ChainService
}

// OpenDatabase opens the chain registry: postgres when POSTGRES_URL is set,
// sqlite otherwise
func OpenDatabase(cfg *config.Config) (services.DBService, error) {
	if cfg.UsePostgres() {
		return services.NewPostgresDBService(cfg.PostgresURL)
	}
	return services.NewSqliteDBService(cfg.DBPath)
}

// InitializeServices wires the tracking client, relay and chain registry.
// The tracking client resolves TRACKER_API_URL on every call.
func InitializeServices(cfg *config.Config, db *gorm.DB, registry prometheus.Registerer) *Services {
	trackerMetrics := metrics.NewNoopMetrics()
	if registry != nil {
		trackerMetrics = metrics.InitMetrics(registry)
	}

	trackingService := services.NewDeploymentTrackingService(
		transport.NewRestyTransport(cfg.TransportConfig()),
		utils.GetApiBaseUrl,
		services.WithTrackingMetrics(trackerMetrics),
	)
	chainService := services.NewChainService(db)
	relayService := services.NewRelayService(
		trackingService,
		chainService,
		services.DialChain,
		services.WithMineTimeout(cfg.MineTimeout),
		services.WithRelayMetrics(trackerMetrics),
	)

	return &Services{
		Tracking: trackingService,
		Relay:    relayService,
		Chains:   chainService,
	}
}

// SeedChain registers the chain from ETH_RPC_URL, asking the node for its
// chain ID when ETH_CHAIN_ID is not set. It does nothing without ETH_RPC_URL.
func SeedChain(ctx context.Context, cfg *config.Config, chainService services.ChainService) error {
	if cfg.EthRPCURL == "" {
		return nil
	}

	chainID := cfg.EthChainID
	if chainID == "" {
		detected, err := services.DetectChainID(ctx, cfg.EthRPCURL)
		if err != nil {
			return fmt.Errorf("failed to detect chain ID of ETH_RPC_URL: %w", err)
		}
		chainID = detected
	}

	chain := &models.Chain{
		ChainType: models.TransactionChainTypeEthereum,
		RPC:       cfg.EthRPCURL,
		NetworkID: chainID,
		Name:      cfg.EthChainName,
	}
	if err := chainService.EnsureChain(chain); err != nil {
		return fmt.Errorf("failed to seed chain: %w", err)
	}

	log.L(ctx).WithFields(logrus.Fields{
		"chain_id": chain.NetworkID,
		"name":     chain.Name,
		"active":   chain.IsActive,
	}).Info("chain configured from environment")
	return nil
}
