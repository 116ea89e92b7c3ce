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

type createDeploymentTool struct {
	trackingService services.DeploymentTrackingService
}

type CreateDeploymentArguments struct {
	// Required fields
	ProjectID    string `json:"project_id" validate:"required"`
	ProjectToken string `json:"project_token" validate:"required"`
	Environment  string `json:"environment" validate:"required"`

	// Optional fields
	Metadata map[string]any `json:"metadata,omitempty"`
}

func NewCreateDeploymentTool(trackingService services.DeploymentTrackingService) *createDeploymentTool {
	return &createDeploymentTool{
		trackingService: trackingService,
	}
}

func (c *createDeploymentTool) GetTool() mcp.Tool {
	tool := mcp.NewTool("create_deployment",
		mcp.WithDescription("Register a new deployment of a project in the deployment tracking service. Returns the deployment record whose id is used by send_eth_transaction, add_transaction_receipt and relay_transaction."),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("ID of the project (build config) the deployment belongs to"),
		),
		mcp.WithString("project_token",
			mcp.Required(),
			mcp.Description("Project token used to authenticate with the tracking service"),
		),
		mcp.WithString("environment",
			mcp.Required(),
			mcp.Description("Target environment name (e.g., staging, production)"),
		),
		mcp.WithObject("metadata",
			mcp.Description("Free-form JSON object attached to the deployment (e.g., {\"branch\": \"main\", \"commit\": \"a1b2c3\"})"),
		),
	)

	return tool
}

func (c *createDeploymentTool) GetHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args CreateDeploymentArguments
		if err := request.BindArguments(&args); err != nil {
			return nil, fmt.Errorf("failed to bind arguments: %w", err)
		}

		if err := validator.New().Struct(args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		var metadata models.Metadata
		if args.Metadata != nil {
			metadata = args.Metadata
		}

		deployment, err := c.trackingService.CreateDeployment(ctx, args.ProjectID, args.ProjectToken, args.Environment, metadata)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to create deployment: %v", err)), nil
		}

		resultJSON, _ := json.Marshal(deployment)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent("Deployment created successfully: "),
				mcp.NewTextContent(string(resultJSON)),
			},
		}, nil
	}
}
