package srstore

import (
	"fmt"
	"path"
	"strings"

	"github.com/aidanlowrie/MCP-Servers/internal/apperr"
)

// NormalizeNotePath canonicalizes a vault-relative note path: backslashes
// become forward slashes, the path is cleaned, and a leading "./" is
// dropped. Normalizing an already-normalized path returns it unchanged.
func NormalizeNotePath(p string) string {
	trimmed := strings.TrimSpace(strings.ReplaceAll(p, `\`, "/"))
	if trimmed == "" {
		return ""
	}
	cleaned := path.Clean(trimmed)
	if cleaned == "." {
		return ""
	}
	return cleaned
}

// LinkRequest names the deck a note should be linked to. DeckID wins over
// DeckName; with neither set the default deck is used. When AllowMultiple
// is false all existing links for the note are replaced by the new one.
// CreateIfMissing only applies to DeckName resolution.
type LinkRequest struct {
	NotePath        string
	DeckID          string
	DeckName        string
	AllowMultiple   bool
	CreateIfMissing bool
}

// LinkResult reports the deck that was linked and the note's full link set.
type LinkResult struct {
	NotePath string   `json:"notePath"`
	DeckID   string   `json:"deckId"`
	DeckName string   `json:"deckName"`
	DeckIDs  []string `json:"linkedDecks"`
}

// LinkNoteToDeck attaches a note to a deck and returns the note's current
// linked deck ids in insertion order.
func (s *Store) LinkNoteToDeck(req LinkRequest) (*LinkResult, error) {
	notePath := NormalizeNotePath(req.NotePath)
	if notePath == "" {
		return nil, fmt.Errorf("srstore: %w: note path is empty", apperr.ErrInvalidInput)
	}

	tx, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	var target string
	switch {
	case strings.TrimSpace(req.DeckID) != "":
		target, err = ensureDeck(tx, req.DeckID, "")
	case strings.TrimSpace(req.DeckName) != "":
		target, err = findDeckByName(tx, req.DeckName)
		if err == nil && target == "" {
			if !req.CreateIfMissing {
				return nil, fmt.Errorf("srstore: deck %q: %w", req.DeckName, apperr.ErrNotFound)
			}
			target, err = ensureDeckByName(tx, req.DeckName)
		}
	default:
		target, err = ensureDeck(tx, DefaultDeckID, DefaultDeckName)
	}
	if err != nil {
		return nil, err
	}

	if !req.AllowMultiple {
		if _, err := tx.Exec(`DELETE FROM note_deck_links WHERE note_path = ?`, notePath); err != nil {
			return nil, fmt.Errorf("srstore: clear note links: %w", err)
		}
	}
	if _, err := tx.Exec(`
		INSERT OR IGNORE INTO note_deck_links (note_path, deck_id) VALUES (?, ?)
	`, notePath, target); err != nil {
		return nil, fmt.Errorf("srstore: link note: %w", err)
	}

	linked, err := linkedDeckIDs(tx, notePath)
	if err != nil {
		return nil, err
	}
	deck, err := getDeck(tx, target)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("srstore: commit link: %w", err)
	}
	return &LinkResult{NotePath: notePath, DeckID: target, DeckName: deck.Name, DeckIDs: linked}, nil
}

// UnlinkNoteFromDeck removes one association when deckID is given, or all
// of the note's associations otherwise. Returns the remaining linked ids.
func (s *Store) UnlinkNoteFromDeck(notePathRaw, deckID string) ([]string, error) {
	notePath := NormalizeNotePath(notePathRaw)
	if notePath == "" {
		return nil, fmt.Errorf("srstore: %w: note path is empty", apperr.ErrInvalidInput)
	}

	if deckID != "" {
		_, err := s.conn.Exec(`DELETE FROM note_deck_links WHERE note_path = ? AND deck_id = ?`, notePath, deckID)
		if err != nil {
			return nil, fmt.Errorf("srstore: unlink note: %w", err)
		}
	} else {
		if _, err := s.conn.Exec(`DELETE FROM note_deck_links WHERE note_path = ?`, notePath); err != nil {
			return nil, fmt.Errorf("srstore: unlink note: %w", err)
		}
	}
	return linkedDeckIDs(s.conn, notePath)
}

// linkedDeckIDs returns the note's deck ids ordered by original insertion.
func linkedDeckIDs(q querier, notePath string) ([]string, error) {
	rows, err := q.Query(`SELECT deck_id FROM note_deck_links WHERE note_path = ? ORDER BY rowid`, notePath)
	if err != nil {
		return nil, fmt.Errorf("srstore: linked decks: %w", err)
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var did string
		if err := rows.Scan(&did); err != nil {
			return nil, fmt.Errorf("srstore: scan linked deck: %w", err)
		}
		out = append(out, did)
	}
	return out, rows.Err()
}
