package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aidanlowrie/MCP-Servers/internal/srstore"
)

func (s *Server) listSRDecks(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	decks, err := s.cards.ListDecks()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	selected, _ := s.settings.SelectedDeckID()
	out, _ := json.MarshalIndent(map[string]any{
		"decks":    decks,
		"selected": selected,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createSRDeck(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id, err := s.cards.EnsureDeckByName(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if children := stringSlice(req.GetArguments()["children"]); len(children) > 0 {
		if err := s.cards.SetDeckChildren(id, children); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	deck, err := s.cards.GetDeck(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(deck, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) deleteSRDeck(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	deckID, err := req.RequireString("deckId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	reassignTo := req.GetString("reassignTo", "")

	target, err := s.cards.DeleteDeck(deckID, reassignTo)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if target == deckID {
		return mcp.NewToolResultText(fmt.Sprintf("deck %s is the reassignment target; nothing deleted", deckID)), nil
	}

	// Deselect the deck if it was the card-creation default.
	if selected, sErr := s.settings.SelectedDeckID(); sErr == nil && selected == deckID {
		_ = s.settings.SetSelectedDeckID("")
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted deck %s; cards and note links moved to %s", deckID, target)), nil
}

func (s *Server) selectSRDeck(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	deckID := req.GetString("deckId", "")
	deckName := req.GetString("deck", "")

	switch {
	case deckID != "":
		if _, err := s.cards.GetDeck(deckID); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	case deckName != "":
		id, err := s.cards.FindDeckByName(deckName)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		deckID = id
	default:
		return mcp.NewToolResultError("provide deckId or deck"), nil
	}

	if err := s.settings.SetSelectedDeckID(deckID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("selected deck %s", deckID)), nil
}

func (s *Server) linkSRNoteToDeck(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notePath, err := req.RequireString("notePath")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.cards.LinkNoteToDeck(srstore.LinkRequest{
		NotePath:        notePath,
		DeckID:          req.GetString("deckId", ""),
		DeckName:        req.GetString("deck", ""),
		AllowMultiple:   req.GetBool("allowMultiple", true),
		CreateIfMissing: req.GetBool("createIfMissing", true),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) unlinkSRNoteFromDeck(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notePath, err := req.RequireString("notePath")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	remaining, err := s.cards.UnlinkNoteFromDeck(notePath, req.GetString("deckId", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]any{
		"notePath":    srstore.NormalizeNotePath(notePath),
		"linkedDecks": remaining,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
