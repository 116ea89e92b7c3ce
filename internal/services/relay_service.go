package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rxtech-lab/deployment-tracker/internal/log"
	"github.com/rxtech-lab/deployment-tracker/internal/metrics"
	"github.com/rxtech-lab/deployment-tracker/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const DefaultMineTimeout = 5 * time.Minute

// EthBackend is the part of an Ethereum client the relay needs
type EthBackend interface {
	bind.DeployBackend
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	Close()
}

// BackendDialer connects to the RPC endpoint of a chain
type BackendDialer func(ctx context.Context, chain *models.Chain) (EthBackend, error)

type RelayResult struct {
	Transaction *models.Transaction      `json:"transaction"`
	Receipt     *types.Receipt           `json:"receipt"`
	Status      models.TransactionStatus `json:"status"`
}

// RelayService submits already-signed transactions to the active chain and
// records them in the tracking service: the transaction is registered first,
// then broadcast, and its hash is attached once it has been mined.
type RelayService interface {
	Relay(ctx context.Context, deploymentID, token string, signedTx *types.Transaction) (*RelayResult, error)
}

type relayService struct {
	tracking    DeploymentTrackingService
	chains      ChainService
	dial        BackendDialer
	mineTimeout time.Duration
	metrics     metrics.TrackerMetrics
}

type RelayOption func(*relayService)

func WithMineTimeout(timeout time.Duration) RelayOption {
	return func(s *relayService) {
		if timeout > 0 {
			s.mineTimeout = timeout
		}
	}
}

func WithRelayMetrics(m metrics.TrackerMetrics) RelayOption {
	return func(s *relayService) {
		s.metrics = m
	}
}

// NewRelayService creates a new RelayService
func NewRelayService(tracking DeploymentTrackingService, chains ChainService, dial BackendDialer, opts ...RelayOption) RelayService {
	s := &relayService{
		tracking:    tracking,
		chains:      chains,
		dial:        dial,
		mineTimeout: DefaultMineTimeout,
		metrics:     metrics.NewNoopMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DialChain is the BackendDialer backed by go-ethereum's ethclient
func DialChain(ctx context.Context, chain *models.Chain) (EthBackend, error) {
	client, err := ethclient.DialContext(ctx, chain.RPC)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain %s: %w", chain.Name, err)
	}
	return client, nil
}

// Relay registers, broadcasts and waits for a signed transaction, then
// attaches its receipt. Nothing is retried; failures after registration name
// the tracked transaction so the caller can reconcile.
func (s *relayService) Relay(ctx context.Context, deploymentID, token string, signedTx *types.Transaction) (*RelayResult, error) {
	if signedTx == nil {
		return nil, fmt.Errorf("%w: signed transaction is required", ErrInvalidArguments)
	}

	chain, err := s.chains.GetActiveChain()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: use select_chain or set_chain first", ErrNoActiveChain)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active chain: %w", err)
	}
	if signedTx.Protected() && chain.NetworkID != "" && signedTx.ChainId().String() != chain.NetworkID {
		return nil, fmt.Errorf("%w: chain ID mismatch: transaction is signed for %s but active chain is %s", ErrInvalidArguments, signedTx.ChainId(), chain.NetworkID)
	}

	params, err := TransactionParamsFromSigned(signedTx)
	if err != nil {
		return nil, err
	}

	ctx = log.WithLogField(ctx, "deployment_id", deploymentID)
	logger := log.L(ctx).WithFields(logrus.Fields{
		"tx_hash": params.String(models.TxParamHash),
		"chain":   chain.Name,
	})

	backend, err := s.dial(ctx, chain)
	if err != nil {
		return nil, err
	}
	defer backend.Close()

	record, err := s.tracking.SendEthTransaction(ctx, deploymentID, token, params)
	if err != nil {
		return nil, err
	}
	logger = logger.WithField("tx_id", record.ID)

	if err := backend.SendTransaction(ctx, signedTx); err != nil {
		s.metrics.RecordRelay(string(models.TransactionStatusFailed))
		return nil, fmt.Errorf("failed to broadcast transaction %s (tracked as %s): %w", params.String(models.TxParamHash), record.ID, err)
	}
	logger.Info("transaction broadcast, waiting to be mined")

	mineCtx, cancel := context.WithTimeout(ctx, s.mineTimeout)
	defer cancel()
	receipt, err := bind.WaitMined(mineCtx, backend, signedTx)
	if err != nil {
		status := string(models.TransactionStatusFailed)
		if errors.Is(err, context.DeadlineExceeded) {
			status = "timeout"
		}
		s.metrics.RecordRelay(status)
		return nil, fmt.Errorf("failed waiting for transaction %s (tracked as %s) to be mined: %w", params.String(models.TxParamHash), record.ID, err)
	}

	if err := s.tracking.AddTransactionReceipt(ctx, deploymentID, token, record.ID, receipt.TxHash.Hex()); err != nil {
		return nil, fmt.Errorf("transaction %s mined but receipt could not be attached to %s: %w", receipt.TxHash.Hex(), record.ID, err)
	}

	status := models.TransactionStatusConfirmed
	if receipt.Status != types.ReceiptStatusSuccessful {
		status = models.TransactionStatusFailed
	}
	s.metrics.RecordRelay(string(status))
	logger.WithFields(logrus.Fields{
		"block":  receipt.BlockNumber,
		"status": status,
	}).Info("transaction mined and receipt attached")

	return &RelayResult{
		Transaction: record,
		Receipt:     receipt,
		Status:      status,
	}, nil
}

// TransactionParamsFromSigned describes a signed transaction in the form the
// tracking service stores
func TransactionParamsFromSigned(tx *types.Transaction) (models.TransactionParams, error) {
	var signer types.Signer = types.HomesteadSigner{}
	if tx.Protected() {
		signer = types.LatestSignerForChainID(tx.ChainId())
	}
	from, err := types.Sender(signer, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to recover transaction sender: %w", err)
	}

	params := models.TransactionParams{
		models.TxParamFrom:  from.Hex(),
		models.TxParamValue: tx.Value().String(),
		models.TxParamGas:   strconv.FormatUint(tx.Gas(), 10),
		models.TxParamNonce: strconv.FormatUint(tx.Nonce(), 10),
		models.TxParamHash:  tx.Hash().Hex(),
	}
	if len(tx.Data()) > 0 {
		params[models.TxParamData] = hexutil.Encode(tx.Data())
	}
	if tx.To() != nil {
		params[models.TxParamTo] = tx.To().Hex()
	}
	if tx.Protected() {
		params[models.TxParamChainID] = tx.ChainId().String()
	}

	switch tx.Type() {
	case types.LegacyTxType, types.AccessListTxType:
		params[models.TxParamGasPrice] = tx.GasPrice().String()
	default:
		params[models.TxParamMaxFeePerGas] = tx.GasFeeCap().String()
		params[models.TxParamMaxPriorityFeePerGas] = tx.GasTipCap().String()
	}

	return params, nil
}

// DecodeSignedTransaction decodes a 0x-prefixed raw signed transaction
func DecodeSignedTransaction(raw string) (*types.Transaction, error) {
	data, err := hexutil.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid signed transaction hex: %w", ErrInvalidArguments, err)
	}

	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("%w: invalid signed transaction: %w", ErrInvalidArguments, err)
	}
	return tx, nil
}
