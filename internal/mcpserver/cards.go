package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aidanlowrie/MCP-Servers/internal/srstore"
)

// createSRCards upserts a batch of flashcards. Inputs arrive from LLMs and
// are normalized leniently before the store validates them strictly: "answer"
// aliases "back", bare-string choices get positional ids, and a correct
// choice given as answer text is matched back to its id.
func (s *Server) createSRCards(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	rawCards, ok := args["cards"].([]any)
	if !ok || len(rawCards) == 0 {
		return mcp.NewToolResultError("cards must be a non-empty array"), nil
	}

	defaultDeckID := req.GetString("deckId", "")
	defaultDeckName := req.GetString("deck", "")
	if defaultDeckID == "" && defaultDeckName == "" {
		// Fall back to the plugin's selected deck, when one is set.
		if selected, err := s.settings.SelectedDeckID(); err == nil {
			defaultDeckID = selected
		}
	}

	type cardOutcome struct {
		srstore.UpsertResult
		Error string `json:"error,omitempty"`
	}
	outcomes := make([]cardOutcome, 0, len(rawCards))
	created, updated, failed := 0, 0, 0

	for i, raw := range rawCards {
		obj, ok := raw.(map[string]any)
		if !ok {
			outcomes = append(outcomes, cardOutcome{Error: fmt.Sprintf("card %d is not an object", i)})
			failed++
			continue
		}
		input, err := normalizeCard(obj)
		if err != nil {
			outcomes = append(outcomes, cardOutcome{Error: err.Error()})
			failed++
			continue
		}
		if input.DeckID == "" && input.DeckName == "" && len(input.DeckIDs) == 0 {
			input.DeckID = defaultDeckID
			input.DeckName = defaultDeckName
		}

		res, err := s.cards.UpsertCard(*input)
		if err != nil {
			outcomes = append(outcomes, cardOutcome{Error: err.Error()})
			failed++
			continue
		}
		if res.IsNew {
			created++
		} else {
			updated++
		}
		outcomes = append(outcomes, cardOutcome{UpsertResult: *res})

		if res.NotePath != "" {
			// Keep the note attached to every deck its cards live in.
			for _, deckID := range res.DeckIDs {
				_, err := s.cards.LinkNoteToDeck(srstore.LinkRequest{
					NotePath:      res.NotePath,
					DeckID:        deckID,
					AllowMultiple: true,
				})
				if err != nil {
					outcomes[len(outcomes)-1].Error = fmt.Sprintf("card saved but note link failed: %v", err)
					break
				}
			}
		}
	}

	out, _ := json.MarshalIndent(map[string]any{
		"created": created,
		"updated": updated,
		"failed":  failed,
		"cards":   outcomes,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

// normalizeCard massages one raw card object into a CardInput.
func normalizeCard(obj map[string]any) (*srstore.CardInput, error) {
	card := make(map[string]any, len(obj))
	for k, v := range obj {
		card[k] = v
	}

	if _, ok := card["back"]; !ok {
		if answer, ok := card["answer"].(string); ok {
			card["back"] = answer
		}
	}
	delete(card, "answer")

	choices := normalizeChoices(card["choices"])
	if choices != nil {
		card["choices"] = choices

		if id, ok := card["correctChoiceId"].(string); ok {
			card["correctChoiceId"] = matchChoiceID(choices, id)
		}
		if rawIDs, ok := card["correctChoiceIds"].([]any); ok {
			ids := make([]string, 0, len(rawIDs))
			for _, v := range rawIDs {
				if id, ok := v.(string); ok {
					ids = append(ids, matchChoiceID(choices, id))
				}
			}
			card["correctChoiceIds"] = ids
			if _, ok := card["multiSelect"]; !ok && len(ids) > 1 {
				card["multiSelect"] = true
			}
		}
		if _, ok := card["shuffleChoices"]; !ok {
			card["shuffleChoices"] = true
		}
		if _, ok := card["type"]; !ok {
			card["type"] = srstore.TypeMultipleChoice
		}
	}

	encoded, err := json.Marshal(card)
	if err != nil {
		return nil, fmt.Errorf("invalid card payload: %v", err)
	}
	var input srstore.CardInput
	if err := json.Unmarshal(encoded, &input); err != nil {
		return nil, fmt.Errorf("invalid card payload: %v", err)
	}
	return &input, nil
}

// normalizeChoices accepts either bare strings or {id, text} objects and
// returns a uniform choice list, or nil when the card has no choices.
func normalizeChoices(raw any) []srstore.Choice {
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	choices := make([]srstore.Choice, 0, len(list))
	for i, v := range list {
		switch c := v.(type) {
		case string:
			choices = append(choices, srstore.Choice{ID: strconv.Itoa(i), Text: c})
		case map[string]any:
			id, _ := c["id"].(string)
			if id == "" {
				id = strconv.Itoa(i)
			}
			text, _ := c["text"].(string)
			choices = append(choices, srstore.Choice{ID: id, Text: text})
		}
	}
	return choices
}

// matchChoiceID resolves a correct-choice reference that may be an id or the
// answer text itself. Unresolvable references pass through unchanged so the
// store reports them.
func matchChoiceID(choices []srstore.Choice, ref string) string {
	for _, c := range choices {
		if c.ID == ref {
			return ref
		}
	}
	want := strings.ToLower(strings.TrimSpace(ref))
	for _, c := range choices {
		if strings.ToLower(strings.TrimSpace(c.Text)) == want {
			return c.ID
		}
	}
	return ref
}

func (s *Server) deleteSRCards(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := stringSlice(req.GetArguments()["ids"])
	deckID := req.GetString("deckId", "")
	if len(ids) == 0 && deckID == "" {
		return mcp.NewToolResultError("provide card ids, a deckId, or both"), nil
	}

	deleted, err := s.cards.DeleteCards(ids, deckID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted %d cards", deleted)), nil
}

func (s *Server) inspectSRCards(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := srstore.InspectOptions{
		IDs:            stringSlice(req.GetArguments()["ids"]),
		DeckID:         req.GetString("deckId", ""),
		Limit:          req.GetInt("limit", 0),
		IncludeReviews: req.GetBool("includeReviews", false),
		IncludeSchema:  req.GetBool("includeSchema", false),
	}
	inspection, err := s.cards.InspectCards(opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(inspection, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

// stringSlice converts a JSON array argument to []string, skipping
// non-string entries.
func stringSlice(raw any) []string {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
