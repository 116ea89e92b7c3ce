package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rxtech-lab/deployment-tracker/internal/models"
	"gorm.io/gorm"
)

// ChainService handles chain-related operations
type ChainService interface {
	CreateChain(chain *models.Chain) error
	GetActiveChain() (*models.Chain, error)
	GetChainByID(id uint) (*models.Chain, error)
	SetActiveChainByID(chainID uint) error
	ListChains() ([]models.Chain, error)
	EnsureChain(chain *models.Chain) error
}

type chainService struct {
	db *gorm.DB
}

// NewChainService creates a new ChainService
func NewChainService(db *gorm.DB) ChainService {
	return &chainService{db: db}
}

// CreateChain creates a new chain
func (s *chainService) CreateChain(chain *models.Chain) error {
	return s.db.Create(chain).Error
}

// GetActiveChain returns the currently active chain
func (s *chainService) GetActiveChain() (*models.Chain, error) {
	var chain models.Chain
	err := s.db.Where("is_active = ?", true).First(&chain).Error
	if err != nil {
		return nil, err
	}
	return &chain, nil
}

// GetChainByID returns a chain by its ID
func (s *chainService) GetChainByID(id uint) (*models.Chain, error) {
	var chain models.Chain
	err := s.db.First(&chain, id).Error
	if err != nil {
		return nil, err
	}
	return &chain, nil
}

// SetActiveChainByID sets a chain as active by chain ID
func (s *chainService) SetActiveChainByID(chainID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var chain models.Chain
		if err := tx.First(&chain, chainID).Error; err != nil {
			return err
		}

		// Deactivate all chains
		if err := tx.Model(&models.Chain{}).Where("is_active = ?", true).Update("is_active", false).Error; err != nil {
			return err
		}

		return tx.Model(&models.Chain{}).Where("id = ?", chainID).Update("is_active", true).Error
	})
}

// ListChains returns all chains
func (s *chainService) ListChains() ([]models.Chain, error) {
	var chains []models.Chain
	err := s.db.Find(&chains).Error
	return chains, err
}

// EnsureChain creates the chain unless one with the same type and network ID
// exists, in which case its RPC and name are updated. The chain becomes
// active when no other chain is.
func (s *chainService) EnsureChain(chain *models.Chain) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Chain
		err := tx.Where("chain_type = ? AND chain_id = ?", chain.ChainType, chain.NetworkID).First(&existing).Error
		switch {
		case err == nil:
			existing.RPC = chain.RPC
			existing.Name = chain.Name
			if err := tx.Model(&models.Chain{}).Where("id = ?", existing.ID).Updates(map[string]interface{}{
				"rpc":  existing.RPC,
				"name": existing.Name,
			}).Error; err != nil {
				return err
			}
			*chain = existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(chain).Error; err != nil {
				return err
			}
		default:
			return err
		}

		var activeCount int64
		if err := tx.Model(&models.Chain{}).Where("is_active = ?", true).Count(&activeCount).Error; err != nil {
			return err
		}
		if activeCount == 0 {
			chain.IsActive = true
			return tx.Model(&models.Chain{}).Where("id = ?", chain.ID).Update("is_active", true).Error
		}
		return nil
	})
}

// DetectChainID asks the node behind rpc for its chain ID
func DetectChainID(ctx context.Context, rpc string) (string, error) {
	client, err := ethclient.DialContext(ctx, rpc)
	if err != nil {
		return "", fmt.Errorf("failed to connect to %s: %w", rpc, err)
	}
	defer client.Close()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get chain ID: %w", err)
	}
	return chainID.String(), nil
}
