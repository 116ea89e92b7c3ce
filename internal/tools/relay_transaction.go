package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/deployment-tracker/internal/services"
)

type relayTransactionTool struct {
	relayService services.RelayService
}

type RelayTransactionArguments struct {
	DeploymentID      string `json:"deployment_id" validate:"required"`
	ProjectToken      string `json:"project_token" validate:"required"`
	SignedTransaction string `json:"signed_transaction" validate:"required,hexadecimal"`
}

func NewRelayTransactionTool(relayService services.RelayService) *relayTransactionTool {
	return &relayTransactionTool{
		relayService: relayService,
	}
}

func (r *relayTransactionTool) GetTool() mcp.Tool {
	tool := mcp.NewTool("relay_transaction",
		mcp.WithDescription("Register a signed Ethereum transaction under a deployment, broadcast it to the active chain, wait until it is mined and attach its hash. Use select_chain or set_chain to choose the chain first."),
		mcp.WithString("deployment_id",
			mcp.Required(),
			mcp.Description("ID of the deployment returned by create_deployment"),
		),
		mcp.WithString("project_token",
			mcp.Required(),
			mcp.Description("Project token used to authenticate with the tracking service"),
		),
		mcp.WithString("signed_transaction",
			mcp.Required(),
			mcp.Description("Raw signed transaction as 0x-prefixed hex"),
		),
	)

	return tool
}

func (r *relayTransactionTool) GetHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args RelayTransactionArguments
		if err := request.BindArguments(&args); err != nil {
			return nil, fmt.Errorf("failed to bind arguments: %w", err)
		}

		if err := validator.New().Struct(args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		signedTx, err := services.DecodeSignedTransaction(args.SignedTransaction)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid signed_transaction: %v", err)), nil
		}

		relayed, err := r.relayService.Relay(ctx, args.DeploymentID, args.ProjectToken, signedTx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to relay transaction: %v", err)), nil
		}

		result := map[string]interface{}{
			"tx_id":        relayed.Transaction.ID,
			"tx_hash":      relayed.Receipt.TxHash.Hex(),
			"status":       relayed.Status,
			"block_number": relayed.Receipt.BlockNumber.String(),
			"gas_used":     relayed.Receipt.GasUsed,
		}
		if relayed.Receipt.ContractAddress != (common.Address{}) {
			result["contract_address"] = relayed.Receipt.ContractAddress.Hex()
		}

		resultJSON, _ := json.Marshal(result)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(fmt.Sprintf("Transaction relayed (%s): ", relayed.Status)),
				mcp.NewTextContent(string(resultJSON)),
			},
		}, nil
	}
}
