package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rxtech-lab/deployment-tracker/internal/log"
	"github.com/rxtech-lab/deployment-tracker/internal/metrics"
	"github.com/rxtech-lab/deployment-tracker/internal/models"
	"github.com/rxtech-lab/deployment-tracker/internal/transport"
	"github.com/rxtech-lab/deployment-tracker/internal/utils"
	"github.com/sirupsen/logrus"
)

// DeploymentTrackingService records deployments, their transactions and the
// transactions' receipts in the remote tracking service. It keeps no state:
// callers must create the deployment before registering transactions, and
// register a transaction before attaching its receipt.
type DeploymentTrackingService interface {
	CreateDeployment(ctx context.Context, projectID, token, environment string, metadata models.Metadata) (*models.Deployment, error)
	SendEthTransaction(ctx context.Context, deploymentID, token string, tx models.TransactionParams) (*models.Transaction, error)
	AddTransactionReceipt(ctx context.Context, deploymentID, token, txID, txHash string) error
}

type trackingService struct {
	transport transport.Transport
	baseURL   utils.BaseURLResolver
	validator *validator.Validate
	metrics   metrics.TrackerMetrics
}

type TrackingOption func(*trackingService)

// WithTrackingMetrics records every request in the given metrics
func WithTrackingMetrics(m metrics.TrackerMetrics) TrackingOption {
	return func(s *trackingService) {
		s.metrics = m
	}
}

// NewDeploymentTrackingService creates a new DeploymentTrackingService
func NewDeploymentTrackingService(t transport.Transport, baseURL utils.BaseURLResolver, opts ...TrackingOption) DeploymentTrackingService {
	s := &trackingService{
		transport: t,
		baseURL:   baseURL,
		validator: validator.New(),
		metrics:   metrics.NewNoopMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateDeployment creates a deployment of type ethereum for the project
func (s *trackingService) CreateDeployment(ctx context.Context, projectID, token, environment string, metadata models.Metadata) (*models.Deployment, error) {
	if err := s.validate(CreateDeploymentArgs{ProjectID: projectID, Token: token, Environment: environment}); err != nil {
		return nil, err
	}

	body := models.CreateDeploymentRequest{
		Environment: environment,
		Type:        models.TransactionChainTypeEthereum,
		Metadata:    metadata,
	}
	path := fmt.Sprintf("/build-configs/%s/deployments", url.PathEscape(projectID))
	resp, err := s.do(ctx, OperationCreateDeployment, http.MethodPost, path, token, body)
	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return nil, &RemoteOperationFailedError{
			Operation:  OperationCreateDeployment,
			ProjectID:  projectID,
			StatusCode: resp.StatusCode,
			Body:       resp.Text(),
		}
	}

	var deployment models.Deployment
	if err := json.Unmarshal(resp.Body, &deployment); err != nil {
		return nil, fmt.Errorf("failed to decode deployment: %w", err)
	}

	log.L(ctx).WithFields(logrus.Fields{
		"deployment_id": deployment.ID,
		"project_id":    projectID,
		"environment":   environment,
	}).Info("deployment created")
	if log.IsDebugEnabled() {
		pretty, _ := json.MarshalIndent(deployment, "", "    ")
		log.L(ctx).Debugf("deployment created:\n\n%s", pretty)
	}

	return &deployment, nil
}

// SendEthTransaction registers a transaction against an existing deployment.
// The transaction parameters are forwarded as-is.
func (s *trackingService) SendEthTransaction(ctx context.Context, deploymentID, token string, tx models.TransactionParams) (*models.Transaction, error) {
	if err := s.validate(SendEthTransactionArgs{DeploymentID: deploymentID, Token: token}); err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/deployments/%s/transactions", url.PathEscape(deploymentID))
	resp, err := s.do(ctx, OperationSendEthTransaction, http.MethodPost, path, token, tx)
	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return nil, &RemoteOperationFailedError{
			Operation:    OperationSendEthTransaction,
			DeploymentID: deploymentID,
			StatusCode:   resp.StatusCode,
			Body:         resp.Text(),
		}
	}

	var transaction models.Transaction
	if err := json.Unmarshal(resp.Body, &transaction); err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}

	log.L(ctx).WithFields(logrus.Fields{
		"deployment_id": deploymentID,
		"tx_id":         transaction.ID,
	}).Debug("transaction registered")

	return &transaction, nil
}

// AddTransactionReceipt attaches the mined transaction hash to a registered transaction
func (s *trackingService) AddTransactionReceipt(ctx context.Context, deploymentID, token, txID, txHash string) error {
	if err := s.validate(AddTransactionReceiptArgs{DeploymentID: deploymentID, Token: token, TxID: txID, TxHash: txHash}); err != nil {
		return err
	}

	path := fmt.Sprintf("/deployments/%s/transactions/%s", url.PathEscape(deploymentID), url.PathEscape(txID))
	resp, err := s.do(ctx, OperationAddTransactionReceipt, http.MethodPut, path, token, models.TransactionReceiptRequest{TxHash: txHash})
	if err != nil {
		return err
	}

	if !resp.IsSuccess() {
		return &RemoteOperationFailedError{
			Operation:    OperationAddTransactionReceipt,
			DeploymentID: deploymentID,
			TxID:         txID,
			StatusCode:   resp.StatusCode,
			Body:         resp.Text(),
		}
	}

	log.L(ctx).WithFields(logrus.Fields{
		"deployment_id": deploymentID,
		"tx_id":         txID,
		"tx_hash":       txHash,
	}).Debug("transaction receipt attached")

	return nil
}

func (s *trackingService) validate(args any) error {
	if err := s.validator.Struct(args); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArguments, err)
	}
	return nil
}

// do sends one request. Errors from the transport are returned unmodified.
func (s *trackingService) do(ctx context.Context, operation, method, path, token string, body any) (*transport.Response, error) {
	baseURL, err := s.baseURL()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tracking service URL: %w", err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	requestID := uuid.New().String()
	req := &transport.Request{
		Method: method,
		URL:    baseURL + path,
		Header: map[string]string{
			"Content-Type":     "application/json",
			projectTokenHeader: token,
			"X-Request-Id":     requestID,
		},
		Body: payload,
	}

	logger := log.L(ctx).WithFields(logrus.Fields{
		"operation":  operation,
		"request_id": requestID,
	})
	logger.Tracef("%s %s", method, req.URL)

	start := time.Now()
	resp, err := s.transport.Do(ctx, req)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordRequest(operation, metrics.ResultError, duration)
		logger.Errorf("request failed after %s: %s", duration, err)
		return nil, err
	}
	if resp == nil {
		s.metrics.RecordRequest(operation, metrics.ResultError, duration)
		return nil, fmt.Errorf("transport returned no response for %s %s", method, req.URL)
	}

	if resp.IsSuccess() {
		s.metrics.RecordRequest(operation, metrics.ResultSuccess, duration)
	} else {
		s.metrics.RecordRequest(operation, metrics.ResultRemoteFailed, duration)
		logger.Warnf("tracking service returned status %d after %s", resp.StatusCode, duration)
	}
	return resp, nil
}
