package srstore

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/aidanlowrie/MCP-Servers/internal/apperr"
)

// EnsureDeck returns id unchanged when the deck exists; otherwise it creates
// the deck with the given name (or the id itself when name is empty).
// An empty id resolves to the default deck.
func (s *Store) EnsureDeck(id, name string) (string, error) {
	return ensureDeck(s.conn, id, name)
}

// EnsureDeckByName looks the name up case-insensitively and creates the deck
// on a miss, deriving the id from the name with numeric collision suffixes.
func (s *Store) EnsureDeckByName(name string) (string, error) {
	return ensureDeckByName(s.conn, name)
}

// FindDeckByName returns the id of the deck whose name matches
// case-insensitively, or ErrNotFound.
func (s *Store) FindDeckByName(name string) (string, error) {
	id, err := findDeckByName(s.conn, name)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("srstore: deck %q: %w", name, apperr.ErrNotFound)
	}
	return id, nil
}

// GetDeck returns the deck with its ordered composite children, or
// ErrNotFound.
func (s *Store) GetDeck(id string) (*Deck, error) {
	return getDeck(s.conn, id)
}

// SetDeckChildren replaces the ordered child list of a composite deck and
// marks the parent composite. Children are created on first reference.
// A parent listed among its own children is rejected; wider cycles are not
// checked here.
func (s *Store) SetDeckChildren(parentID string, childIDs []string) error {
	children := sanitizeDeckIDs(childIDs)
	for _, child := range children {
		if child == parentID {
			return fmt.Errorf("srstore: deck %q cannot contain itself: %w", parentID, apperr.ErrInvalidInput)
		}
	}

	tx, err := s.begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if !deckExists(tx, parentID) {
		return fmt.Errorf("srstore: deck %q: %w", parentID, apperr.ErrNotFound)
	}
	for _, child := range children {
		if _, err := ensureDeck(tx, child, ""); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`DELETE FROM deck_children WHERE parent_id = ?`, parentID); err != nil {
		return fmt.Errorf("srstore: clear deck children: %w", err)
	}
	for position, child := range children {
		if _, err := tx.Exec(`
			INSERT INTO deck_children (parent_id, child_id, position) VALUES (?, ?, ?)
		`, parentID, child, position); err != nil {
			return fmt.Errorf("srstore: insert deck child: %w", err)
		}
	}
	if _, err := tx.Exec(`UPDATE decks SET is_composite = 1 WHERE id = ?`, parentID); err != nil {
		return fmt.Errorf("srstore: mark composite: %w", err)
	}
	return tx.Commit()
}

// DeleteDeck removes a deck, reassigning every card association and note
// link that referenced it onto the target deck ("default" when reassignTo
// is empty). Deleting a deck onto itself is a no-op. Runs as a single
// transaction so no card or note link is ever left without a deck.
func (s *Store) DeleteDeck(id, reassignTo string) (string, error) {
	tx, err := s.begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback() //nolint:errcheck

	if !deckExists(tx, id) {
		return "", fmt.Errorf("srstore: deck %q: %w", id, apperr.ErrNotFound)
	}
	targetID := reassignTo
	if strings.TrimSpace(targetID) == "" {
		targetID = DefaultDeckID
	}
	target, err := ensureDeck(tx, targetID, DefaultDeckName)
	if err != nil {
		return "", err
	}
	if id == target {
		return target, tx.Commit()
	}

	if err := reassignCards(tx, id, target); err != nil {
		return "", err
	}
	if err := reassignNoteLinks(tx, id, target); err != nil {
		return "", err
	}
	// Cascades remove remaining card_decks and deck_children rows.
	if _, err := tx.Exec(`DELETE FROM decks WHERE id = ?`, id); err != nil {
		return "", fmt.Errorf("srstore: delete deck: %w", err)
	}
	return target, tx.Commit()
}

// reassignCards rewrites the deck list of every card linked to from: the
// deleted deck is removed and the target appended when absent, preserving
// the remaining order.
func reassignCards(tx querier, from, target string) error {
	rows, err := tx.Query(`SELECT DISTINCT card_id FROM card_decks WHERE deck_id = ?`, from)
	if err != nil {
		return fmt.Errorf("srstore: cards for deck: %w", err)
	}
	var cardIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("srstore: scan card id: %w", err)
		}
		cardIDs = append(cardIDs, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("srstore: cards for deck: %w", err)
	}
	rows.Close()

	for _, cardID := range cardIDs {
		current, err := deckIDsForCard(tx, cardID)
		if err != nil {
			return err
		}
		next := make([]string, 0, len(current)+1)
		hasTarget := false
		for _, did := range current {
			if did == from {
				continue
			}
			if did == target {
				hasTarget = true
			}
			next = append(next, did)
		}
		if !hasTarget {
			next = append(next, target)
		}
		if err := replaceCardDecks(tx, cardID, sanitizeDeckIDs(next)); err != nil {
			return err
		}
	}
	return nil
}

func reassignNoteLinks(tx querier, from, target string) error {
	rows, err := tx.Query(`SELECT note_path FROM note_deck_links WHERE deck_id = ?`, from)
	if err != nil {
		return fmt.Errorf("srstore: notes for deck: %w", err)
	}
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return fmt.Errorf("srstore: scan note path: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("srstore: notes for deck: %w", err)
	}
	rows.Close()

	for _, p := range paths {
		if _, err := tx.Exec(`DELETE FROM note_deck_links WHERE note_path = ? AND deck_id = ?`, p, from); err != nil {
			return fmt.Errorf("srstore: unlink note: %w", err)
		}
		if _, err := tx.Exec(`
			INSERT OR IGNORE INTO note_deck_links (note_path, deck_id) VALUES (?, ?)
		`, p, target); err != nil {
			return fmt.Errorf("srstore: relink note: %w", err)
		}
	}
	return nil
}

func deckExists(q querier, id string) bool {
	var one int
	err := q.QueryRow(`SELECT 1 FROM decks WHERE id = ? LIMIT 1`, id).Scan(&one)
	return err == nil
}

func ensureDeck(q querier, id, name string) (string, error) {
	did := strings.TrimSpace(id)
	if did == "" {
		did = DefaultDeckID
	}
	if deckExists(q, did) {
		return did, nil
	}
	deckName := strings.TrimSpace(name)
	if deckName == "" {
		if did == DefaultDeckID {
			deckName = DefaultDeckName
		} else {
			deckName = did
		}
	}
	_, err := q.Exec(`
		INSERT INTO decks (id, name, created_at, folder_path, is_composite) VALUES (?, ?, ?, '', 0)
	`, did, deckName, time.Now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("srstore: create deck %q: %w", did, err)
	}
	return did, nil
}

func findDeckByName(q querier, name string) (string, error) {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return "", nil
	}
	var id string
	err := q.QueryRow(`SELECT id FROM decks WHERE name = ? COLLATE NOCASE LIMIT 1`, clean).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("srstore: find deck by name: %w", err)
	}
	return id, nil
}

func ensureDeckByName(q querier, name string) (string, error) {
	clean := strings.TrimSpace(name)
	if clean == "" {
		clean = "Deck"
	}
	if existing, err := findDeckByName(q, clean); err != nil {
		return "", err
	} else if existing != "" {
		return existing, nil
	}
	id, err := generateDeckID(q, clean)
	if err != nil {
		return "", err
	}
	return ensureDeck(q, id, clean)
}

// generateDeckID slugifies the name and appends -2, -3, ... until the id is
// free.
func generateDeckID(q querier, name string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "deck"
	}
	candidate := base
	for suffix := 2; deckExists(q, candidate); suffix++ {
		candidate = fmt.Sprintf("%s-%d", base, suffix)
	}
	return candidate, nil
}

func getDeck(q querier, id string) (*Deck, error) {
	d := &Deck{}
	var composite int
	err := q.QueryRow(`
		SELECT id, name, folder_path, is_composite FROM decks WHERE id = ? LIMIT 1
	`, id).Scan(&d.ID, &d.Name, &d.FolderPath, &composite)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("srstore: deck %q: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("srstore: get deck: %w", err)
	}
	d.IsComposite = composite != 0
	if d.IsComposite {
		children, err := compositeChildren(q, id)
		if err != nil {
			return nil, err
		}
		d.Children = children
	}
	return d, nil
}

func compositeChildren(q querier, id string) ([]string, error) {
	rows, err := q.Query(`SELECT child_id FROM deck_children WHERE parent_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("srstore: deck children: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var child string
		if err := rows.Scan(&child); err != nil {
			return nil, fmt.Errorf("srstore: scan deck child: %w", err)
		}
		out = append(out, child)
	}
	return out, rows.Err()
}

// sanitizeDeckIDs trims, drops blanks, and de-duplicates preserving
// first-seen order.
func sanitizeDeckIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		clean := strings.TrimSpace(id)
		if clean == "" {
			continue
		}
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		out = append(out, clean)
	}
	return out
}
