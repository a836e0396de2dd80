package srstore

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/aidanlowrie/MCP-Servers/internal/apperr"
)

// CardID derives the deterministic content-addressed card id. Identical
// (primary deck, type, front, back) tuples always map to the same id, which
// makes repeated imports idempotent.
func CardID(primaryDeck, cardType, front, back string) string {
	sum := sha256.Sum256([]byte(primaryDeck + "\n" + cardType + "\n" + front + "\n" + back))
	return "card_" + hex.EncodeToString(sum[:8])
}

// validateInput checks the card payload as a tagged union over the three
// card types before anything is written.
func validateInput(in *CardInput) error {
	cardType := in.Type
	if cardType == "" {
		cardType = TypeBasic
	}
	err := validation.Errors{
		"type":  validation.Validate(cardType, validation.In(TypeBasic, TypeMultipleChoice, TypeOpenEnded)),
		"front": validation.Validate(strings.TrimSpace(in.Front), validation.Required),
	}.Filter()
	if err != nil {
		return fmt.Errorf("srstore: %w: %v", apperr.ErrInvalidInput, err)
	}

	switch cardType {
	case TypeMultipleChoice:
		if len(in.Choices) == 0 {
			return fmt.Errorf("srstore: %w: multiple-choice card has no choices", apperr.ErrInvalidInput)
		}
		choiceIDs := make(map[string]struct{}, len(in.Choices))
		for _, c := range in.Choices {
			if strings.TrimSpace(c.Text) == "" {
				return fmt.Errorf("srstore: %w: choice %q has empty text", apperr.ErrInvalidInput, c.ID)
			}
			choiceIDs[c.ID] = struct{}{}
		}
		if in.CorrectChoiceID != "" {
			if _, ok := choiceIDs[in.CorrectChoiceID]; !ok {
				return fmt.Errorf("srstore: %w: correctChoiceId %q is not a choice", apperr.ErrInvalidInput, in.CorrectChoiceID)
			}
		}
		for _, id := range in.CorrectChoiceIDs {
			if _, ok := choiceIDs[id]; !ok {
				return fmt.Errorf("srstore: %w: correctChoiceIds entry %q is not a choice", apperr.ErrInvalidInput, id)
			}
		}
	default:
		if len(in.Choices) > 0 || in.CorrectChoiceID != "" || len(in.CorrectChoiceIDs) > 0 {
			return fmt.Errorf("srstore: %w: choices are only valid on multiple-choice cards", apperr.ErrInvalidInput)
		}
		if cardType == TypeOpenEnded && (in.Irreversible || len(in.Examples) > 0) {
			return fmt.Errorf("srstore: %w: irreversible/examples are only valid on basic cards", apperr.ErrInvalidInput)
		}
	}
	return nil
}

// UpsertCard validates the payload, resolves its decks, and writes the card
// together with its ordered deck associations in one transaction. An update
// by the same id keeps the original createdAt.
func (s *Store) UpsertCard(in CardInput) (*UpsertResult, error) {
	if err := validateInput(&in); err != nil {
		return nil, err
	}

	tx, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	deckIDs, err := resolveDecks(tx, &in)
	if err != nil {
		return nil, err
	}
	primary := deckIDs[0]

	cardType := in.Type
	if cardType == "" {
		cardType = TypeBasic
	}
	front := strings.TrimSpace(in.Front)
	back := strings.TrimSpace(in.Back)
	if back == "" {
		back = "..."
	}
	notePath := NormalizeNotePath(in.NotePath)

	id := in.ID
	if id == "" {
		id = CardID(primary, cardType, front, back)
	}

	var existingCreated sql.NullInt64
	err = tx.QueryRow(`SELECT created_at FROM cards WHERE id = ? LIMIT 1`, id).Scan(&existingCreated.Int64)
	switch {
	case err == sql.ErrNoRows:
		existingCreated.Valid = false
	case err != nil:
		return nil, fmt.Errorf("srstore: look up card: %w", err)
	default:
		existingCreated.Valid = true
	}

	now := time.Now().UnixMilli()
	createdAt := in.CreatedAt
	if createdAt <= 0 {
		if existingCreated.Valid {
			createdAt = existingCreated.Int64
		} else {
			createdAt = now
		}
	}
	updatedAt := in.UpdatedAt
	if updatedAt <= 0 {
		updatedAt = now
	}

	_, err = tx.Exec(`
		INSERT INTO cards (
			id, note_path, block_id, type, front, back, irreversible, examples_json,
			choices_json, correct_choice_id, correct_choice_ids_json, shuffle_choices,
			multi_select, ease, interval, repetitions, lapses, due, suspended,
			fsrs_stability, fsrs_difficulty, fsrs_card_json, reviews_json,
			verb_stats_json, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			note_path               = excluded.note_path,
			block_id                = excluded.block_id,
			type                    = excluded.type,
			front                   = excluded.front,
			back                    = excluded.back,
			irreversible            = excluded.irreversible,
			examples_json           = excluded.examples_json,
			choices_json            = excluded.choices_json,
			correct_choice_id       = excluded.correct_choice_id,
			correct_choice_ids_json = excluded.correct_choice_ids_json,
			shuffle_choices         = excluded.shuffle_choices,
			multi_select            = excluded.multi_select,
			ease                    = excluded.ease,
			interval                = excluded.interval,
			repetitions             = excluded.repetitions,
			lapses                  = excluded.lapses,
			due                     = excluded.due,
			suspended               = excluded.suspended,
			fsrs_stability          = excluded.fsrs_stability,
			fsrs_difficulty         = excluded.fsrs_difficulty,
			fsrs_card_json          = excluded.fsrs_card_json,
			reviews_json            = excluded.reviews_json,
			verb_stats_json         = excluded.verb_stats_json,
			updated_at              = excluded.updated_at
	`,
		id, notePath, nullString(in.BlockID), cardType, front, back,
		boolInt(in.Irreversible), marshalJSON(in.Examples), marshalJSON(in.Choices),
		nullString(in.CorrectChoiceID), marshalJSON(in.CorrectChoiceIDs),
		boolInt(in.ShuffleChoices), boolInt(in.MultiSelect),
		floatOr(in.Ease, 2.5), floatOr(in.Interval, 0),
		intOr(in.Repetitions, 0), intOr(in.Lapses, 0), int64Or(in.Due, now),
		boolInt(in.Suspended), nullFloat(in.FSRSStability), nullFloat(in.FSRSDifficulty),
		rawJSON(in.FSRSCard), rawJSON(in.Reviews), rawJSON(in.VerbPrepositionStats),
		createdAt, updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("srstore: upsert card: %w", err)
	}

	if err := replaceCardDecks(tx, id, deckIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("srstore: commit upsert: %w", err)
	}

	return &UpsertResult{
		ID:       id,
		DeckIDs:  deckIDs,
		NotePath: notePath,
		IsNew:    !existingCreated.Valid,
	}, nil
}

// resolveDecks turns the input's deck references into a sanitized non-empty
// id list, creating decks on first reference.
func resolveDecks(tx querier, in *CardInput) ([]string, error) {
	var candidates []string
	for _, raw := range in.DeckIDs {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		id, err := ensureDeck(tx, raw, "")
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, id)
	}
	if len(candidates) == 0 && strings.TrimSpace(in.DeckID) != "" {
		id, err := ensureDeck(tx, in.DeckID, "")
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, id)
	}
	if len(candidates) == 0 && strings.TrimSpace(in.DeckName) != "" {
		id, err := ensureDeckByName(tx, in.DeckName)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, id)
	}
	candidates = sanitizeDeckIDs(candidates)
	if len(candidates) == 0 {
		id, err := ensureDeck(tx, DefaultDeckID, DefaultDeckName)
		if err != nil {
			return nil, err
		}
		candidates = []string{id}
	}
	return candidates, nil
}

// replaceCardDecks atomically swaps the card's deck associations for the
// given ordered list.
func replaceCardDecks(tx querier, cardID string, deckIDs []string) error {
	if _, err := tx.Exec(`DELETE FROM card_decks WHERE card_id = ?`, cardID); err != nil {
		return fmt.Errorf("srstore: clear card decks: %w", err)
	}
	for position, did := range deckIDs {
		if _, err := tx.Exec(`
			INSERT INTO card_decks (card_id, deck_id, position) VALUES (?, ?, ?)
		`, cardID, did, position); err != nil {
			return fmt.Errorf("srstore: insert card deck: %w", err)
		}
	}
	return nil
}

func deckIDsForCard(q querier, cardID string) ([]string, error) {
	rows, err := q.Query(`SELECT deck_id FROM card_decks WHERE card_id = ? ORDER BY position`, cardID)
	if err != nil {
		return nil, fmt.Errorf("srstore: decks for card: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var did string
		if err := rows.Scan(&did); err != nil {
			return nil, fmt.Errorf("srstore: scan deck id: %w", err)
		}
		out = append(out, did)
	}
	return out, rows.Err()
}

// DeleteCards removes the union of the explicitly listed ids and, when
// deckID is set, every card associated with that deck. Returns the number
// of card rows actually removed; associations go with them via cascade.
func (s *Store) DeleteCards(ids []string, deckID string) (int, error) {
	tx, err := s.begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback() //nolint:errcheck

	targets := make(map[string]struct{})
	if deckID != "" {
		rows, err := tx.Query(`SELECT card_id FROM card_decks WHERE deck_id = ?`, deckID)
		if err != nil {
			return 0, fmt.Errorf("srstore: cards for deck: %w", err)
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return 0, fmt.Errorf("srstore: scan card id: %w", err)
			}
			targets[id] = struct{}{}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return 0, fmt.Errorf("srstore: cards for deck: %w", err)
		}
		rows.Close()
	}
	for _, id := range ids {
		clean := strings.TrimSpace(id)
		if clean != "" {
			targets[clean] = struct{}{}
		}
	}

	removed := 0
	for id := range targets {
		res, err := tx.Exec(`DELETE FROM cards WHERE id = ?`, id)
		if err != nil {
			return 0, fmt.Errorf("srstore: delete card: %w", err)
		}
		n, _ := res.RowsAffected()
		removed += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("srstore: commit delete: %w", err)
	}
	return removed, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func floatOr(f *float64, def float64) float64 {
	if f == nil {
		return def
	}
	return *f
}

func intOr(i *int, def int) int {
	if i == nil {
		return def
	}
	return *i
}

func int64Or(i *int64, def int64) int64 {
	if i == nil {
		return def
	}
	return *i
}
