package mcp

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/deployment-tracker/internal/services"
	"github.com/rxtech-lab/deployment-tracker/internal/tools"
)

const (
	ServerName    = "Deployment Tracker MCP Server"
	ServerVersion = "1.0.0"
)

type MCPServer struct {
	server *server.MCPServer
}

func NewMCPServer(trackingService services.DeploymentTrackingService, relayService services.RelayService, chainService services.ChainService) *MCPServer {
	mcpServer := &MCPServer{}
	mcpServer.InitializeTools(trackingService, relayService, chainService)
	return mcpServer
}

func (s *MCPServer) InitializeTools(trackingService services.DeploymentTrackingService, relayService services.RelayService, chainService services.ChainService) {
	srv := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(true),
		server.WithPromptCapabilities(true),
	)

	srv.AddPrompt(mcp.NewPrompt("deployment-tracker-usage",
		mcp.WithPromptDescription("Instructions and guidance for using the deployment tracker MCP tools"),
		mcp.WithArgument("tool_category",
			mcp.ArgumentDescription("Category of tools to get instructions for (tracking, chain, or all)"),
			mcp.RequiredArgument(),
		),
	), func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		category := request.Params.Arguments["tool_category"]
		if category == "" {
			return nil, fmt.Errorf("tool_category is required")
		}

		return mcp.NewGetPromptResult(
			fmt.Sprintf("Deployment Tracker MCP Tools - %s", category),
			[]mcp.PromptMessage{
				mcp.NewPromptMessage(
					mcp.RoleUser,
					mcp.NewTextContent(getToolInstructions(category)),
				),
			},
		), nil
	})

	// Tracking Tools
	createDeploymentTool := tools.NewCreateDeploymentTool(trackingService)
	srv.AddTool(createDeploymentTool.GetTool(), createDeploymentTool.GetHandler())

	sendEthTransactionTool := tools.NewSendEthTransactionTool(trackingService)
	srv.AddTool(sendEthTransactionTool.GetTool(), sendEthTransactionTool.GetHandler())

	addTransactionReceiptTool := tools.NewAddTransactionReceiptTool(trackingService)
	srv.AddTool(addTransactionReceiptTool.GetTool(), addTransactionReceiptTool.GetHandler())

	relayTransactionTool := tools.NewRelayTransactionTool(relayService)
	srv.AddTool(relayTransactionTool.GetTool(), relayTransactionTool.GetHandler())

	// Chain Management Tools
	listChainsTool, listChainsHandler := tools.NewListChainsTool(chainService)
	srv.AddTool(listChainsTool, listChainsHandler)

	selectChainTool, selectChainHandler := tools.NewSelectChainTool(chainService)
	srv.AddTool(selectChainTool, selectChainHandler)

	setChainTool, setChainHandler := tools.NewSetChainTool(chainService, services.DetectChainID)
	srv.AddTool(setChainTool, setChainHandler)

	s.server = srv
}

func getToolInstructions(category string) string {
	switch category {
	case "tracking":
		return `Deployment Tracking Tools:

1. create_deployment - Register a deployment of a project in an environment
   Usage: Call first; keep the returned deployment id

2. send_eth_transaction - Register a transaction under a deployment
   Usage: Call before the transaction is broadcast; keep the returned transaction id

3. add_transaction_receipt - Attach the transaction hash to a registered transaction
   Usage: Call once the transaction has been broadcast

4. relay_transaction - Register, broadcast and confirm a signed transaction in one step
   Usage: Pass a raw signed transaction; it is sent to the active chain

Every call takes the project token. It is never stored by the server.`

	case "chain":
		return `Chain Management Tools:

1. list_chains - List configured chains and the active one

2. select_chain - Select the chain relay_transaction broadcasts to
   Usage: Pass the id from list_chains

3. set_chain - Configure an Ethereum RPC endpoint
   Usage: The chain ID is detected from the RPC endpoint when omitted`

	case "all":
		return `Deployment Tracker MCP Tools Overview:

TRACKING (4 tools):
- create_deployment: Register a deployment
- send_eth_transaction: Register a transaction
- add_transaction_receipt: Attach a transaction hash
- relay_transaction: Broadcast a signed transaction and track it

CHAIN MANAGEMENT (3 tools):
- list_chains: View configured chains
- select_chain: Choose the active chain
- set_chain: Configure an RPC endpoint

The order is always create_deployment, then send_eth_transaction, then
add_transaction_receipt. No private keys are handled by the server.`

	default:
		return `Invalid category. Available categories: tracking, chain, all`
	}
}

// StartStdioServer serves MCP over stdin/stdout until stdin closes
func (s *MCPServer) StartStdioServer() error {
	return server.ServeStdio(s.server)
}

// StreamableHTTPHandler serves MCP over streamable HTTP
func (s *MCPServer) StreamableHTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(s.server)
}

// GetServer returns the underlying mcp-go server
func (s *MCPServer) GetServer() *server.MCPServer {
	return s.server
}
