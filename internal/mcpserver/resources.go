package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) readStatsResource(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	decks, err := s.cards.ListDecks()
	if err != nil {
		return nil, err
	}
	totalCards := 0
	for _, d := range decks {
		totalCards += d.Count
	}
	titles, bodies := s.index.Counts()
	selected, _ := s.settings.SelectedDeckID()

	out, _ := json.MarshalIndent(map[string]any{
		"decks":           decks,
		"deckCount":       len(decks),
		"cardCount":       totalCards,
		"selectedDeck":    selected,
		"embeddingsReady": s.index.Ready(),
		"titleEmbeddings": titles,
		"bodyEmbeddings":  bodies,
	}, "", "  ")

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "thoughts://stats",
			MIMEType: "application/json",
			Text:     string(out),
		},
	}, nil
}

func (s *Server) readHelpResource(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "thoughts://help",
			MIMEType: "text/markdown",
			Text:     usageGuide,
		},
	}, nil
}

// usageGuide explains how the thought and flashcard tools fit together.
const usageGuide = `# Thoughts & Flashcards Usage Guide

The server works on an Obsidian vault of Markdown "thoughts" plus a SQLite
store of spaced-repetition flashcards organized into decks.

## Finding thoughts

- ` + "`search_by_content`" + ` / ` + "`search_by_title`" + ` — semantic search over embeddings.
  Run ` + "`build_thought_embeddings`" + ` first if the stats resource reports the
  index is not ready.
- ` + "`keyword_search`" + ` — exact substring search with highlighted context.
- ` + "`list_recent_thoughts`" + ` — most recently modified notes.
- ` + "`get_thought_content`" + ` — read one note in full.
- ` + "`compare_thoughts`" + ` — cosine similarity of two note bodies.

## Writing thoughts

` + "`write_note`" + ` creates a new Markdown note. The title becomes both the
frontmatter title and the filename; an ` + "`ai_generated: true`" + ` marker is always
added. Custom frontmatter may carry any keys except the vault-reserved
` + "`tags`" + `, ` + "`topics`" + ` and ` + "`aliases`" + `.

## Flashcards

Cards live in decks. A deck is named (case-insensitively unique) and has a
stable slug id. Cards that name no deck go to the selected deck
(` + "`select_sr_deck`" + `) or, failing that, the Default deck.

Card shapes accepted by ` + "`create_sr_cards`" + `:

` + "```" + `json
{"front": "capital of France?", "back": "Paris"}
{"type": "multiple-choice", "front": "2+2?", "choices": ["3", "4"], "correctChoiceId": "4"}
{"type": "open-ended", "front": "Explain CAP theorem", "back": "..."}
` + "```" + `

- ` + "`back`" + ` may be spelled ` + "`answer`" + `; a missing back becomes ` + "`...`" + `.
- Choices may be bare strings; the correct choice may be given by id or by
  its answer text.
- Card ids are content-derived, so re-sending the same card updates it
  instead of duplicating it.

Notes referenced by a card's ` + "`notePath`" + ` are linked to the card's deck
automatically; manage links directly with ` + "`link_sr_note_to_deck`" + ` and
` + "`unlink_sr_note_from_deck`" + `.

Deleting a deck never orphans cards: they move to the Default deck or the
deck named in ` + "`reassignTo`" + `.
`
