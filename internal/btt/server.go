package btt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server exposes the BetterTouchTool bridge as MCP tools over stdio.
type Server struct {
	mcp       *server.MCPServer
	commander *Commander
}

// NewServer creates the MCP server with all bridge tools registered.
func NewServer(commander *Commander) *Server {
	s := &Server{commander: commander}

	s.mcp = server.NewMCPServer(
		"BTTBridge",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("add_btt_trigger",
		mcp.WithDescription("Create a brand-new BTT trigger from its full JSON definition "+
			"(e.g. as copied via BTT's 'Copy JSON')."),
		mcp.WithString("triggerJson", mcp.Required(), mcp.Description("Full JSON trigger definition")),
	), s.addTrigger)

	s.mcp.AddTool(mcp.NewTool("update_btt_trigger",
		mcp.WithDescription("Update an existing trigger identified by its UUID."),
		mcp.WithString("uuid", mcp.Required(), mcp.Description("UUID of the existing trigger")),
		mcp.WithString("patchJson", mcp.Required(), mcp.Description("JSON patch with the fields to change")),
	), s.updateTrigger)

	s.mcp.AddTool(mcp.NewTool("delete_btt_trigger",
		mcp.WithDescription("Delete a trigger by UUID."),
		mcp.WithString("uuid", mcp.Required(), mcp.Description("UUID of the trigger to delete")),
	), s.deleteTrigger)

	s.mcp.AddTool(mcp.NewTool("list_btt_triggers",
		mcp.WithDescription("Return the current trigger list, optionally filtered to one app."),
		mcp.WithString("appBundleId", mcp.Description("Filter to this bundle id (e.g. com.apple.Safari)")),
	), s.listTriggers)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) addTrigger(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	triggerJSON, err := req.RequireString("triggerJson")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.commander.AddTrigger(ctx, triggerJSON); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("trigger added"), nil
}

func (s *Server) updateTrigger(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uuid, err := req.RequireString("uuid")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	patchJSON, err := req.RequireString("patchJson")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.commander.UpdateTrigger(ctx, uuid, patchJSON); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("trigger %s updated", uuid)), nil
}

func (s *Server) deleteTrigger(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uuid, err := req.RequireString("uuid")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.commander.DeleteTrigger(ctx, uuid); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("trigger %s deleted", uuid)), nil
}

func (s *Server) listTriggers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	triggers, err := s.commander.ListTriggers(ctx, req.GetString("appBundleId", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(triggers, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
