package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/deployment-tracker/internal/models"
	"github.com/rxtech-lab/deployment-tracker/internal/services"
)

// ChainIDDetector asks an RPC endpoint for its chain ID
type ChainIDDetector func(ctx context.Context, rpc string) (string, error)

// DefaultChainName names well-known Ethereum networks
func DefaultChainName(chainID string) string {
	switch chainID {
	case "1":
		return "Ethereum Mainnet"
	case "11155111":
		return "Ethereum Sepolia"
	case "17000":
		return "Ethereum Holesky"
	case "31337":
		return "Anvil"
	default:
		return fmt.Sprintf("Ethereum Chain %s", chainID)
	}
}

func NewSetChainTool(chainService services.ChainService, detect ChainIDDetector) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("set_chain",
		mcp.WithDescription("Configure an Ethereum RPC endpoint for relay_transaction. Creates the chain configuration or updates the one with the same chain ID."),
		mcp.WithString("rpc",
			mcp.Required(),
			mcp.Description("The RPC endpoint URL"),
		),
		mcp.WithString("chain_id",
			mcp.Description("The chain ID (e.g., '1' for Ethereum mainnet, '11155111' for Sepolia). If not provided, will be auto-detected from RPC endpoint."),
		),
		mcp.WithString("name",
			mcp.Description("Optional name for the chain configuration"),
		),
		mcp.WithBoolean("activate",
			mcp.Description("Make this the active chain. Defaults to false; the first configured chain is always active."),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rpc, err := request.RequireString("rpc")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		chainID := request.GetString("chain_id", "")
		detected := false
		if chainID == "" {
			chainID, err = detect(ctx, rpc)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Could not auto-detect chain ID from RPC: %v. Please provide chain_id parameter.", err)), nil
			}
			detected = true
		}
		if _, err := strconv.ParseUint(chainID, 10, 64); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid chain_id %q: must be a decimal number", chainID)), nil
		}

		name := request.GetString("name", "")
		if name == "" {
			name = DefaultChainName(chainID)
		}

		chain := &models.Chain{
			ChainType: models.TransactionChainTypeEthereum,
			RPC:       rpc,
			NetworkID: chainID,
			Name:      name,
		}
		if err := chainService.EnsureChain(chain); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error saving chain configuration: %v", err)), nil
		}

		if request.GetBool("activate", false) && !chain.IsActive {
			if err := chainService.SetActiveChainByID(chain.ID); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Error setting active chain: %v", err)), nil
			}
			chain.IsActive = true
		}

		message := fmt.Sprintf("Successfully configured %s", name)
		if detected {
			message += fmt.Sprintf(" (auto-detected chain ID: %s)", chainID)
		}

		result := map[string]interface{}{
			"chain":   newChainView(chain),
			"message": message,
		}

		resultJSON, _ := json.Marshal(result)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent("Success message: "),
				mcp.NewTextContent(string(resultJSON)),
			},
		}, nil
	}

	return tool, handler
}
