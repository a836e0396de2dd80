package srstore

import "encoding/json"

// Card types.
const (
	TypeBasic          = "basic"
	TypeMultipleChoice = "multiple-choice"
	TypeOpenEnded      = "open-ended"
)

// The deck every card falls back to when no deck is resolvable.
const (
	DefaultDeckID   = "default"
	DefaultDeckName = "Default"
)

// Choice is one answer option on a multiple-choice card.
type Choice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Card is a stored flashcard joined with its ordered deck list.
// The JSON-blob fields (FSRSCard, Reviews, VerbPrepositionStats) are
// caller-opaque: the store persists them verbatim and never inspects them.
type Card struct {
	ID                   string          `json:"id"`
	DeckIDs              []string        `json:"deckIds"`
	DeckID               string          `json:"deckId,omitempty"` // primary deck alias
	NotePath             string          `json:"notePath"`
	BlockID              string          `json:"blockId,omitempty"`
	Type                 string          `json:"type"`
	Front                string          `json:"front"`
	Back                 string          `json:"back"`
	Irreversible         bool            `json:"irreversible"`
	Examples             []string        `json:"examples,omitempty"`
	Choices              []Choice        `json:"choices,omitempty"`
	CorrectChoiceID      string          `json:"correctChoiceId,omitempty"`
	CorrectChoiceIDs     []string        `json:"correctChoiceIds,omitempty"`
	ShuffleChoices       bool            `json:"shuffleChoices"`
	MultiSelect          bool            `json:"multiSelect"`
	Ease                 float64         `json:"ease"`
	Interval             float64         `json:"interval"`
	Repetitions          int             `json:"repetitions"`
	Lapses               int             `json:"lapses"`
	Due                  int64           `json:"due"`
	Suspended            bool            `json:"suspended"`
	FSRSStability        *float64        `json:"fsrsStability,omitempty"`
	FSRSDifficulty       *float64        `json:"fsrsDifficulty,omitempty"`
	FSRSCard             json.RawMessage `json:"fsrsCard,omitempty"`
	Reviews              json.RawMessage `json:"reviews,omitempty"`
	VerbPrepositionStats json.RawMessage `json:"verbPrepositionStats,omitempty"`
	CreatedAt            int64           `json:"createdAt"`
	UpdatedAt            int64           `json:"updatedAt"`
}

// CardInput is the payload accepted by UpsertCard. Deck resolution
// precedence: DeckIDs, then DeckID, then DeckName, then the default deck.
// Zero-valued scheduling pointers take the store defaults.
type CardInput struct {
	ID                   string          `json:"id,omitempty"`
	DeckIDs              []string        `json:"deckIds,omitempty"`
	DeckID               string          `json:"deckId,omitempty"`
	DeckName             string          `json:"deck,omitempty"`
	NotePath             string          `json:"notePath,omitempty"`
	BlockID              string          `json:"blockId,omitempty"`
	Type                 string          `json:"type,omitempty"`
	Front                string          `json:"front"`
	Back                 string          `json:"back,omitempty"`
	Irreversible         bool            `json:"irreversible,omitempty"`
	Examples             []string        `json:"examples,omitempty"`
	Choices              []Choice        `json:"choices,omitempty"`
	CorrectChoiceID      string          `json:"correctChoiceId,omitempty"`
	CorrectChoiceIDs     []string        `json:"correctChoiceIds,omitempty"`
	ShuffleChoices       bool            `json:"shuffleChoices,omitempty"`
	MultiSelect          bool            `json:"multiSelect,omitempty"`
	Ease                 *float64        `json:"ease,omitempty"`
	Interval             *float64        `json:"interval,omitempty"`
	Repetitions          *int            `json:"repetitions,omitempty"`
	Lapses               *int            `json:"lapses,omitempty"`
	Due                  *int64          `json:"due,omitempty"`
	Suspended            bool            `json:"suspended,omitempty"`
	FSRSStability        *float64        `json:"fsrsStability,omitempty"`
	FSRSDifficulty       *float64        `json:"fsrsDifficulty,omitempty"`
	FSRSCard             json.RawMessage `json:"fsrsCard,omitempty"`
	Reviews              json.RawMessage `json:"reviews,omitempty"`
	VerbPrepositionStats json.RawMessage `json:"verbPrepositionStats,omitempty"`
	CreatedAt            int64           `json:"createdAt,omitempty"`
	UpdatedAt            int64           `json:"updatedAt,omitempty"`
}

// UpsertResult reports the outcome of UpsertCard.
type UpsertResult struct {
	ID       string   `json:"id"`
	DeckIDs  []string `json:"deckIds"`
	NotePath string   `json:"notePath"`
	IsNew    bool     `json:"isNew"`
}

// Deck is a deck row with its ordered composite children.
type Deck struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	FolderPath  string   `json:"folderPath"`
	IsComposite bool     `json:"isComposite"`
	Children    []string `json:"children,omitempty"`
}

// DeckSummary is one entry in the deck listing.
type DeckSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// InspectOptions selects which cards InspectCards materializes.
// IDs wins over DeckID; with neither set the most recently updated cards
// are returned up to Limit.
type InspectOptions struct {
	IDs            []string
	DeckID         string
	Limit          int
	IncludeReviews bool
	IncludeSchema  bool
}

// Inspection is the result of InspectCards.
type Inspection struct {
	Schema map[string]map[string]string `json:"schema,omitempty"`
	Cards  []Card                       `json:"cards"`
}
