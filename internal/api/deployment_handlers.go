package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rxtech-lab/deployment-tracker/internal/api/middleware"
	"github.com/rxtech-lab/deployment-tracker/internal/log"
	"github.com/rxtech-lab/deployment-tracker/internal/models"
	"github.com/rxtech-lab/deployment-tracker/internal/services"
)

type createDeploymentRequest struct {
	Environment string          `json:"environment"`
	Metadata    models.Metadata `json:"metadata"`
}

type relayTransactionRequest struct {
	SignedTransaction string `json:"signedTransaction"`
}

// errorHandler maps service errors to status codes: invalid arguments are the
// caller's fault, a relay without an active chain is a conflict, tracking
// service rejections are a bad gateway.
func errorHandler(c *fiber.Ctx, err error) error {
	var remoteErr *services.RemoteOperationFailedError
	var fiberErr *fiber.Error

	switch {
	case errors.As(err, &fiberErr):
		return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
	case errors.Is(err, services.ErrInvalidArguments):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrNoActiveChain):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &remoteErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":         err.Error(),
			"remote_status": remoteErr.StatusCode,
		})
	default:
		log.L(c.UserContext()).WithError(err).Error("request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if len(c.Body()) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Request body is required")
	}
	if !strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEApplicationJSON) {
		c.Request().Header.SetContentType(fiber.MIMEApplicationJSON)
	}
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	return nil
}

// handleCreateDeployment handles POST /api/projects/:project_id/deployments
func (s *APIServer) handleCreateDeployment(c *fiber.Ctx) error {
	var body createDeploymentRequest
	if err := parseBody(c, &body); err != nil {
		return err
	}

	deployment, err := s.trackingService.CreateDeployment(c.UserContext(), c.Params("project_id"), middleware.GetProjectToken(c), body.Environment, body.Metadata)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(deployment)
}

// handleSendEthTransaction handles POST /api/deployments/:deployment_id/transactions
func (s *APIServer) handleSendEthTransaction(c *fiber.Ctx) error {
	var body models.TransactionParams
	if err := parseBody(c, &body); err != nil {
		return err
	}
	if body == nil {
		return fiber.NewError(fiber.StatusBadRequest, "Transaction parameters must be a JSON object")
	}

	transaction, err := s.trackingService.SendEthTransaction(c.UserContext(), c.Params("deployment_id"), middleware.GetProjectToken(c), body)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(transaction)
}

// handleAddTransactionReceipt handles PUT /api/deployments/:deployment_id/transactions/:tx_id
func (s *APIServer) handleAddTransactionReceipt(c *fiber.Ctx) error {
	var body models.TransactionReceiptRequest
	if err := parseBody(c, &body); err != nil {
		return err
	}

	if err := s.trackingService.AddTransactionReceipt(c.UserContext(), c.Params("deployment_id"), middleware.GetProjectToken(c), c.Params("tx_id"), body.TxHash); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleRelayTransaction handles POST /api/deployments/:deployment_id/relay
func (s *APIServer) handleRelayTransaction(c *fiber.Ctx) error {
	var body relayTransactionRequest
	if err := parseBody(c, &body); err != nil {
		return err
	}

	signedTx, err := services.DecodeSignedTransaction(body.SignedTransaction)
	if err != nil {
		return err
	}

	result, err := s.relayService.Relay(c.UserContext(), c.Params("deployment_id"), middleware.GetProjectToken(c), signedTx)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// handleListChains handles GET /api/chains
func (s *APIServer) handleListChains(c *fiber.Ctx) error {
	chains, err := s.chainService.ListChains()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"chains": chains,
		"total":  len(chains),
	})
}
