package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/deployment-tracker/internal/services"
)

type addTransactionReceiptTool struct {
	trackingService services.DeploymentTrackingService
}

type AddTransactionReceiptArguments struct {
	DeploymentID string `json:"deployment_id" validate:"required"`
	ProjectToken string `json:"project_token" validate:"required"`
	TxID         string `json:"tx_id" validate:"required"`
	TxHash       string `json:"tx_hash" validate:"required"`
}

func NewAddTransactionReceiptTool(trackingService services.DeploymentTrackingService) *addTransactionReceiptTool {
	return &addTransactionReceiptTool{
		trackingService: trackingService,
	}
}

func (a *addTransactionReceiptTool) GetTool() mcp.Tool {
	tool := mcp.NewTool("add_transaction_receipt",
		mcp.WithDescription("Attach the on-chain hash to a transaction previously registered with send_eth_transaction."),
		mcp.WithString("deployment_id",
			mcp.Required(),
			mcp.Description("ID of the deployment the transaction belongs to"),
		),
		mcp.WithString("project_token",
			mcp.Required(),
			mcp.Description("Project token used to authenticate with the tracking service"),
		),
		mcp.WithString("tx_id",
			mcp.Required(),
			mcp.Description("ID of the transaction record returned by send_eth_transaction"),
		),
		mcp.WithString("tx_hash",
			mcp.Required(),
			mcp.Description("Transaction hash (e.g., 0xabc...)"),
		),
	)

	return tool
}

func (a *addTransactionReceiptTool) GetHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args AddTransactionReceiptArguments
		if err := request.BindArguments(&args); err != nil {
			return nil, fmt.Errorf("failed to bind arguments: %w", err)
		}

		if err := validator.New().Struct(args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		if err := a.trackingService.AddTransactionReceipt(ctx, args.DeploymentID, args.ProjectToken, args.TxID, args.TxHash); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to add transaction receipt: %v", err)), nil
		}

		result := map[string]interface{}{
			"deployment_id": args.DeploymentID,
			"tx_id":         args.TxID,
			"tx_hash":       args.TxHash,
		}

		resultJSON, _ := json.Marshal(result)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent("Transaction receipt added successfully: "),
				mcp.NewTextContent(string(resultJSON)),
			},
		}, nil
	}
}
