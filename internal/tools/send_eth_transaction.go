package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/deployment-tracker/internal/models"
	"github.com/rxtech-lab/deployment-tracker/internal/services"
)

type sendEthTransactionTool struct {
	trackingService services.DeploymentTrackingService
}

type SendEthTransactionArguments struct {
	DeploymentID string                   `json:"deployment_id" validate:"required"`
	ProjectToken string                   `json:"project_token" validate:"required"`
	Transaction  models.TransactionParams `json:"transaction" validate:"required"`
}

func NewSendEthTransactionTool(trackingService services.DeploymentTrackingService) *sendEthTransactionTool {
	return &sendEthTransactionTool{
		trackingService: trackingService,
	}
}

func (s *sendEthTransactionTool) GetTool() mcp.Tool {
	tool := mcp.NewTool("send_eth_transaction",
		mcp.WithDescription("Register an Ethereum transaction under a deployment before it is broadcast. The transaction is stored as given; use the returned id with add_transaction_receipt once the transaction has a hash."),
		mcp.WithString("deployment_id",
			mcp.Required(),
			mcp.Description("ID of the deployment returned by create_deployment"),
		),
		mcp.WithString("project_token",
			mcp.Required(),
			mcp.Description("Project token used to authenticate with the tracking service"),
		),
		mcp.WithObject("transaction",
			mcp.Required(),
			mcp.Description("Transaction parameters, forwarded to the tracking service as given. The listed fields are the usual ones; any other field is kept."),
			mcp.Properties(map[string]any{
				"from":                 map[string]any{"type": "string", "description": "Sender address"},
				"to":                   map[string]any{"type": "string", "description": "Recipient address, empty for contract creation"},
				"value":                map[string]any{"type": "string", "description": "Value in wei"},
				"data":                 map[string]any{"type": "string", "description": "Call data or contract bytecode"},
				"gas":                  map[string]any{"type": "string", "description": "Gas limit"},
				"gasPrice":             map[string]any{"type": "string", "description": "Gas price in wei (legacy transactions)"},
				"maxFeePerGas":         map[string]any{"type": "string", "description": "EIP-1559 max fee per gas in wei"},
				"maxPriorityFeePerGas": map[string]any{"type": "string", "description": "EIP-1559 priority fee per gas in wei"},
				"nonce":                map[string]any{"type": "string", "description": "Sender nonce"},
				"chainId":              map[string]any{"type": "string", "description": "Chain ID"},
			}),
		),
	)

	return tool
}

func (s *sendEthTransactionTool) GetHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args SendEthTransactionArguments
		if err := request.BindArguments(&args); err != nil {
			return nil, fmt.Errorf("failed to bind arguments: %w", err)
		}

		if err := validator.New().Struct(args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		transaction, err := s.trackingService.SendEthTransaction(ctx, args.DeploymentID, args.ProjectToken, args.Transaction)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to send transaction: %v", err)), nil
		}

		resultJSON, _ := json.Marshal(transaction)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent("Transaction registered successfully: "),
				mcp.NewTextContent(string(resultJSON)),
			},
		}, nil
	}
}
