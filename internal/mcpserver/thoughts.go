package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aidanlowrie/MCP-Servers/internal/embedding"
	"github.com/aidanlowrie/MCP-Servers/internal/parser"
	"github.com/aidanlowrie/MCP-Servers/internal/vault"
)

func (s *Server) searchByContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.semanticSearch(ctx, req, false)
}

func (s *Server) searchByTitle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.semanticSearch(ctx, req, true)
}

func (s *Server) semanticSearch(ctx context.Context, req mcp.CallToolRequest, byTitle bool) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	maxResults := req.GetInt("maxResults", 5)

	results, err := s.index.Search(ctx, query, maxResults, byTitle)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no matches"), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) keywordSearch(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	matches, err := s.notes.KeywordSearch(query, vault.SearchOptions{
		CaseSensitive: req.GetBool("caseSensitive", false),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(matches) == 0 {
		return mcp.NewToolResultText("no matches"), nil
	}
	out, _ := json.MarshalIndent(matches, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getThoughtContent(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.notes.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) compareThoughts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path1, err := req.RequireString("path1")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path2, err := req.RequireString("path2")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	vec1, err := s.embedBody(ctx, path1)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	vec2, err := s.embedBody(ctx, path2)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, _ := json.MarshalIndent(map[string]any{
		"path1":      path1,
		"path2":      path2,
		"similarity": embedding.Cosine(vec1, vec2),
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) embedBody(ctx context.Context, path string) ([]float64, error) {
	data, err := s.notes.Read(path)
	if err != nil {
		return nil, fmt.Errorf("not found: %s", path)
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %v", path, err)
	}
	return s.embedder.Embed(ctx, res.Body)
}

func (s *Server) listRecentThoughts(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes, err := s.notes.ListRecent(req.GetInt("limit", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(notes, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) writeNote(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content := req.GetString("content", "")
	folder := req.GetString("folder", "")

	var frontmatter map[string]any
	if fm, ok := req.GetArguments()["frontmatter"].(map[string]any); ok {
		frontmatter = fm
	}

	path, err := s.notes.WriteNote(title, content, frontmatter, folder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", path)), nil
}

func (s *Server) buildThoughtEmbeddings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	embedded, err := s.builder.Rebuild(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("rebuild failed after %d notes: %v", embedded, err)), nil
	}
	if err := s.index.Load(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("snapshots written but reload failed: %v", err)), nil
	}
	titles, bodies := s.index.Counts()
	return mcp.NewToolResultText(fmt.Sprintf("embedded %d notes (%d titles, %d bodies indexed)", embedded, titles, bodies)), nil
}
