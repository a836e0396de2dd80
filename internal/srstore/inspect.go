package srstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// ListDecks returns every deck with its card count, ordered by name
// case-insensitively. Decks without cards are included with count 0.
func (s *Store) ListDecks() ([]DeckSummary, error) {
	rows, err := s.conn.Query(`
		SELECT d.id, d.name, COUNT(cd.card_id) AS count
		FROM decks d
		LEFT JOIN card_decks cd ON cd.deck_id = d.id
		GROUP BY d.id
		ORDER BY d.name COLLATE NOCASE
	`)
	if err != nil {
		return nil, fmt.Errorf("srstore: list decks: %w", err)
	}
	defer rows.Close()

	out := []DeckSummary{}
	for rows.Next() {
		var d DeckSummary
		if err := rows.Scan(&d.ID, &d.Name, &d.Count); err != nil {
			return nil, fmt.Errorf("srstore: scan deck summary: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

const cardColumns = `
	id, note_path, block_id, type, front, back, irreversible, examples_json,
	choices_json, correct_choice_id, correct_choice_ids_json, shuffle_choices,
	multi_select, ease, interval, repetitions, lapses, due, suspended,
	fsrs_stability, fsrs_difficulty, fsrs_card_json, reviews_json,
	verb_stats_json, created_at, updated_at`

// InspectCards materializes card rows joined with their ordered deck lists.
// Explicit ids win over a deck filter; with neither, the most recently
// updated cards are returned up to opts.Limit.
func (s *Store) InspectCards(opts InspectOptions) (*Inspection, error) {
	limit := opts.Limit
	if limit < 1 {
		limit = 20
	}

	var (
		rows *sql.Rows
		err  error
	)
	switch {
	case len(opts.IDs) > 0:
		ids := sanitizeDeckIDs(opts.IDs) // same trim/dedupe rules as deck ids
		if len(ids) == 0 {
			return &Inspection{Cards: []Card{}, Schema: schemaIf(opts.IncludeSchema)}, nil
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
		args := make([]any, len(ids))
		for i, id := range ids {
			args[i] = id
		}
		rows, err = s.conn.Query(fmt.Sprintf(
			`SELECT %s FROM cards WHERE id IN (%s) ORDER BY updated_at DESC`, cardColumns, placeholders), args...)
	case opts.DeckID != "":
		rows, err = s.conn.Query(fmt.Sprintf(`
			SELECT %s FROM cards c
			INNER JOIN card_decks cd ON cd.card_id = c.id
			WHERE cd.deck_id = ?
			ORDER BY c.updated_at DESC
			LIMIT ?`, prefixColumns("c", cardColumns)), opts.DeckID, limit)
	default:
		rows, err = s.conn.Query(fmt.Sprintf(
			`SELECT %s FROM cards ORDER BY updated_at DESC LIMIT ?`, cardColumns), limit)
	}
	if err != nil {
		return nil, fmt.Errorf("srstore: inspect cards: %w", err)
	}
	defer rows.Close()

	cards := []Card{}
	for rows.Next() {
		card, err := scanCard(rows, opts.IncludeReviews)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("srstore: inspect cards: %w", err)
	}
	rows.Close()

	for i := range cards {
		deckIDs, err := deckIDsForCard(s.conn, cards[i].ID)
		if err != nil {
			return nil, err
		}
		cards[i].DeckIDs = deckIDs
		if len(deckIDs) > 0 {
			cards[i].DeckID = deckIDs[0]
		}
	}
	return &Inspection{Cards: cards, Schema: schemaIf(opts.IncludeSchema)}, nil
}

func prefixColumns(alias, cols string) string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func scanCard(rows *sql.Rows, includeReviews bool) (*Card, error) {
	var (
		c                                  Card
		blockID, correctID                 sql.NullString
		examples, choices, correctIDs      *string
		fsrsCard, reviews, verbStats       *string
		irreversible, shuffle, multi, susp int
		stability, difficulty              sql.NullFloat64
	)
	err := rows.Scan(
		&c.ID, &c.NotePath, &blockID, &c.Type, &c.Front, &c.Back, &irreversible,
		&examples, &choices, &correctID, &correctIDs, &shuffle, &multi,
		&c.Ease, &c.Interval, &c.Repetitions, &c.Lapses, &c.Due, &susp,
		&stability, &difficulty, &fsrsCard, &reviews, &verbStats,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("srstore: scan card: %w", err)
	}

	c.BlockID = blockID.String
	c.Irreversible = irreversible != 0
	c.ShuffleChoices = shuffle != 0
	c.MultiSelect = multi != 0
	c.Suspended = susp != 0
	c.CorrectChoiceID = correctID.String
	if stability.Valid {
		v := stability.Float64
		c.FSRSStability = &v
	}
	if difficulty.Valid {
		v := difficulty.Float64
		c.FSRSDifficulty = &v
	}
	if raw := parseRaw(examples); raw != nil {
		_ = json.Unmarshal(raw, &c.Examples)
	}
	if raw := parseRaw(choices); raw != nil {
		_ = json.Unmarshal(raw, &c.Choices)
	}
	if raw := parseRaw(correctIDs); raw != nil {
		_ = json.Unmarshal(raw, &c.CorrectChoiceIDs)
	}
	c.FSRSCard = parseRaw(fsrsCard)
	c.VerbPrepositionStats = parseRaw(verbStats)
	if includeReviews {
		c.Reviews = parseRaw(reviews)
	}
	return &c, nil
}

func schemaIf(include bool) map[string]map[string]string {
	if !include {
		return nil
	}
	return CardSchema()
}

// CardSchema describes the card shape for external documentation. It is
// static and independent of any stored row.
func CardSchema() map[string]map[string]string {
	return map[string]map[string]string{
		"Card": {
			"id":                    "string",
			"deckIds":               "string[] (all decks the card belongs to; first entry is the primary deck)",
			"deckId?":               "string (primary deck alias)",
			"notePath":              "string",
			"blockId?":              "string",
			"type":                  "'basic'|'multiple-choice'|'open-ended'",
			"front":                 "string",
			"back":                  "string",
			"irreversible?":         "boolean",
			"examples?":             "string[]",
			"choices?":              "{id:string, text:string}[]",
			"correctChoiceId?":      "string",
			"correctChoiceIds?":     "string[]",
			"multiSelect?":          "boolean",
			"shuffleChoices?":       "boolean",
			"ease":                  "number",
			"interval":              "number",
			"repetitions":           "number",
			"lapses":                "number",
			"due":                   "number",
			"suspended":             "boolean",
			"fsrsStability?":        "number",
			"fsrsDifficulty?":       "number",
			"fsrsCard?":             "object",
			"verbPrepositionStats?": "object",
			"reviews?":              "ReviewLog[]",
			"createdAt":             "number",
			"updatedAt":             "number",
		},
		"ReviewLog": {
			"t":                  "number",
			"rating":             "'again'|'hard'|'good'|'easy'",
			"interval":           "number",
			"due":                "number",
			"deckId":             "string",
			"scheduler":          "'fsrs'|'sm2'",
			"selectedChoiceIds?": "string[]",
			"correct?":           "boolean",
			"durationMs?":        "number",
		},
	}
}
