package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/deployment-tracker/internal/services"
	"gorm.io/gorm"
)

func NewSelectChainTool(chainService services.ChainService) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("select_chain",
		mcp.WithDescription("Select the chain relay_transaction broadcasts to. Takes the id shown by list_chains."),
		mcp.WithString("chain_id",
			mcp.Required(),
			mcp.Description("The id of the chain configuration from list_chains (not the network chain ID)"),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		chainIDStr, err := request.RequireString("chain_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		id, err := strconv.ParseUint(chainIDStr, 10, 32)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid chain_id: %v", err)), nil
		}

		if err := chainService.SetActiveChainByID(uint(id)); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return mcp.NewToolResultError(fmt.Sprintf("Chain %d not found", id)), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("Error setting active chain: %v", err)), nil
		}

		activeChain, err := chainService.GetActiveChain()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error getting active chain: %v", err)), nil
		}

		result := map[string]interface{}{
			"chain":   newChainView(activeChain),
			"message": fmt.Sprintf("Successfully selected %s (ID: %d)", activeChain.Name, activeChain.ID),
		}

		resultJSON, _ := json.Marshal(result)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(string(resultJSON)),
			},
		}, nil
	}

	return tool, handler
}
