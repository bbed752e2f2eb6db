// Package mcpserver exposes the console's collections as MCP tools so
// coding agents and assistants can drive the platform through the same
// session-aware client the CLI uses.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/baikal-ai/baikalctl/internal/platform"
	"github.com/baikal-ai/baikalctl/internal/runview"
)

// AutomationSource is the slice of the automation collection the tools
// need. *platform.Automations satisfies it.
type AutomationSource interface {
	List(ctx context.Context) ([]platform.AutomationDefinition, error)
	Runs(ctx context.Context, id string) ([]platform.AutomationRun, error)
	TriggerRun(ctx context.Context, id string) error
}

// DocumentSource generates documents. *platform.Documents satisfies it.
type DocumentSource interface {
	Generate(ctx context.Context, docType platform.DocType, title, contentPrompt string) (platform.DocumentRecord, error)
}

// AssistantSource dispatches single chat turns. *platform.Assistant
// satisfies it.
type AssistantSource interface {
	Chat(ctx context.Context, message string, history []platform.TurnMessage) (string, error)
}

// Deps holds the tool dependencies.
type Deps struct {
	Automations AutomationSource
	Documents   DocumentSource
	Assistant   AssistantSource
}

// New creates an MCP server with all console tools registered.
func New(deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"baikalctl",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("baikalctl — management console for the Baikal RPA + AI platform: automations, runs, documents, assistant."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("list_automations",
			mcp.WithDescription("List all configured automations with their type and schedule."),
		),
		listAutomations(deps),
	)

	s.AddTool(
		mcp.NewTool("automation_stats",
			mcp.WithDescription("Return run statistics (total, success, failed, success rate) for one automation."),
			mcp.WithString("automation_id", mcp.Description("Automation id"), mcp.Required()),
		),
		automationStats(deps),
	)

	s.AddTool(
		mcp.NewTool("trigger_run",
			mcp.WithDescription("Start a new run of an automation. The run settles asynchronously; poll automation_stats for the outcome."),
			mcp.WithString("automation_id", mcp.Description("Automation id"), mcp.Required()),
		),
		triggerRun(deps),
	)

	s.AddTool(
		mcp.NewTool("generate_document",
			mcp.WithDescription("Generate a document (report, official, or email) from a content prompt."),
			mcp.WithString("doc_type", mcp.Description("One of report, official, email"), mcp.Required()),
			mcp.WithString("title", mcp.Description("Document title"), mcp.Required()),
			mcp.WithString("content_prompt", mcp.Description("What the document should contain"), mcp.Required()),
		),
		generateDocument(deps),
	)

	s.AddTool(
		mcp.NewTool("ask_assistant",
			mcp.WithDescription("Ask the platform's AI assistant a single question."),
			mcp.WithString("message", mcp.Description("The question"), mcp.Required()),
		),
		askAssistant(deps),
	)

	return s
}

func listAutomations(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		defs, err := deps.Automations.List(ctx)
		if err != nil {
			return mcpError(fmt.Sprintf("listing automations failed: %v", err)), nil
		}

		type entry struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Type     string `json:"type"`
			Schedule string `json:"schedule"`
		}
		out := make([]entry, len(defs))
		for i, d := range defs {
			schedule := "manual"
			if d.ScheduleEnabled && d.ScheduleCron != nil {
				schedule = *d.ScheduleCron
			}
			out[i] = entry{ID: d.ID, Name: d.Name, Type: string(d.Type), Schedule: schedule}
		}

		b, err := json.Marshal(out)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal automations: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func automationStats(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("automation_id")
		if err != nil {
			return mcpError("automation_id is required"), nil
		}

		runs, err := deps.Automations.Runs(ctx, id)
		if err != nil {
			return mcpError(fmt.Sprintf("loading runs failed: %v", err)), nil
		}

		stats := runview.ComputeStatistics(runs)
		result := map[string]any{
			"total":         stats.Total,
			"success_count": stats.SuccessCount,
			"failed_count":  stats.FailedCount,
			"success_rate":  stats.SuccessRate,
		}
		if len(runs) > 0 {
			result["latest_status"] = string(runs[0].Status)
		}

		b, err := json.Marshal(result)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal statistics: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func triggerRun(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("automation_id")
		if err != nil {
			return mcpError("automation_id is required"), nil
		}
		if err := deps.Automations.TriggerRun(ctx, id); err != nil {
			return mcpError(fmt.Sprintf("trigger failed: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Run queued for automation %s", id)), nil
	}
}

func generateDocument(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		docType, err := req.RequireString("doc_type")
		if err != nil {
			return mcpError("doc_type is required"), nil
		}
		title, err := req.RequireString("title")
		if err != nil {
			return mcpError("title is required"), nil
		}
		prompt, err := req.RequireString("content_prompt")
		if err != nil {
			return mcpError("content_prompt is required"), nil
		}

		doc, err := deps.Documents.Generate(ctx, platform.DocType(docType), title, prompt)
		if err != nil {
			return mcpError(fmt.Sprintf("generation failed: %v", err)), nil
		}

		b, err := json.Marshal(doc)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal document: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func askAssistant(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}
		reply, err := deps.Assistant.Chat(ctx, message, nil)
		if err != nil {
			return mcpError(fmt.Sprintf("assistant failed: %v", err)), nil
		}
		return mcpText(reply), nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
