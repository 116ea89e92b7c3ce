package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/deployment-tracker/internal/models"
	"github.com/rxtech-lab/deployment-tracker/internal/services"
)

type chainView struct {
	ID        uint                        `json:"id"`
	Name      string                      `json:"name"`
	ChainType models.TransactionChainType `json:"chain_type"`
	RPC       string                      `json:"rpc"`
	ChainID   string                      `json:"chain_id"`
	IsActive  bool                        `json:"is_active"`
}

func newChainView(chain *models.Chain) chainView {
	return chainView{
		ID:        chain.ID,
		Name:      chain.Name,
		ChainType: chain.ChainType,
		RPC:       chain.RPC,
		ChainID:   chain.NetworkID,
		IsActive:  chain.IsActive,
	}
}

func NewListChainsTool(chainService services.ChainService) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("list_chains",
		mcp.WithDescription("List the chains transactions can be relayed to. The active chain is the one relay_transaction broadcasts to."),
		mcp.WithString("chain_type",
			mcp.Description("Filter by chain type (ethereum). Optional."),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		chainType := request.GetString("chain_type", "")

		chains, err := chainService.ListChains()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error listing chains: %v", err)), nil
		}

		views := make([]chainView, 0, len(chains))
		var active *chainView
		for i := range chains {
			if chainType != "" && string(chains[i].ChainType) != chainType {
				continue
			}
			view := newChainView(&chains[i])
			views = append(views, view)
			if view.IsActive {
				active = &view
			}
		}

		response := map[string]interface{}{
			"chains": views,
			"total":  len(views),
		}
		if active != nil {
			response["active_chain"] = active
		}

		responseJSON, _ := json.MarshalIndent(response, "", "  ")
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(string(responseJSON)),
			},
		}, nil
	}

	return tool, handler
}
