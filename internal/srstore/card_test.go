package srstore

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/aidanlowrie/MCP-Servers/internal/apperr"
)

func TestUpsertCardIsIdempotent(t *testing.T) {
	s := testStore(t)

	in := CardInput{DeckID: "vocab", Front: "ubiquitous", Back: "present everywhere"}
	first, err := s.UpsertCard(in)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if !first.IsNew {
		t.Error("first upsert not reported as new")
	}

	second, err := s.UpsertCard(in)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.IsNew {
		t.Error("second upsert reported as new")
	}
	if first.ID != second.ID {
		t.Errorf("ids differ: %q vs %q", first.ID, second.ID)
	}

	insp, err := s.InspectCards(InspectOptions{IDs: []string{first.ID}})
	if err != nil {
		t.Fatal(err)
	}
	if len(insp.Cards) != 1 {
		t.Fatalf("cards = %d, want 1", len(insp.Cards))
	}
}

func TestUpsertPreservesCreatedAt(t *testing.T) {
	s := testStore(t)

	first, err := s.UpsertCard(CardInput{DeckID: "d", Front: "q", Back: "a", CreatedAt: 1111})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpsertCard(CardInput{DeckID: "d", Front: "q", Back: "a", UpdatedAt: 9999}); err != nil {
		t.Fatal(err)
	}

	insp, err := s.InspectCards(InspectOptions{IDs: []string{first.ID}})
	if err != nil {
		t.Fatal(err)
	}
	card := insp.Cards[0]
	if card.CreatedAt != 1111 {
		t.Errorf("createdAt = %d, want 1111", card.CreatedAt)
	}
	if card.UpdatedAt != 9999 {
		t.Errorf("updatedAt = %d, want 9999", card.UpdatedAt)
	}
}

func TestUpsertDefaultDeckFallback(t *testing.T) {
	s := testStore(t)

	res, err := s.UpsertCard(CardInput{Front: "orphan", Back: "card"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.DeckIDs) != 1 || res.DeckIDs[0] != DefaultDeckID {
		t.Errorf("deckIds = %v, want [default]", res.DeckIDs)
	}
	deck, err := s.GetDeck(DefaultDeckID)
	if err != nil {
		t.Fatal(err)
	}
	if deck.Name != DefaultDeckName {
		t.Errorf("deck name = %q, want %q", deck.Name, DefaultDeckName)
	}
}

func TestUpsertDeckPrecedence(t *testing.T) {
	s := testStore(t)

	res, err := s.UpsertCard(CardInput{
		DeckIDs:  []string{"a", " b ", "a", ""},
		DeckID:   "ignored",
		DeckName: "Ignored Too",
		Front:    "q",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.DeckIDs) != 2 || res.DeckIDs[0] != "a" || res.DeckIDs[1] != "b" {
		t.Errorf("deckIds = %v, want [a b]", res.DeckIDs)
	}

	named, err := s.UpsertCard(CardInput{DeckName: "Irregular Verbs", Front: "go"})
	if err != nil {
		t.Fatal(err)
	}
	if len(named.DeckIDs) != 1 || named.DeckIDs[0] != "irregular-verbs" {
		t.Errorf("deckIds = %v, want [irregular-verbs]", named.DeckIDs)
	}
}

func TestUpsertRejectsEmptyFront(t *testing.T) {
	s := testStore(t)

	_, err := s.UpsertCard(CardInput{Front: "   ", Back: "x"})
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}

	insp, err := s.InspectCards(InspectOptions{Limit: 100})
	if err != nil {
		t.Fatal(err)
	}
	if len(insp.Cards) != 0 {
		t.Errorf("rejected upsert left %d rows", len(insp.Cards))
	}
}

func TestUpsertDefaultsBackToPlaceholder(t *testing.T) {
	s := testStore(t)

	res, err := s.UpsertCard(CardInput{Front: "question only"})
	if err != nil {
		t.Fatal(err)
	}
	insp, err := s.InspectCards(InspectOptions{IDs: []string{res.ID}})
	if err != nil {
		t.Fatal(err)
	}
	if insp.Cards[0].Back != "..." {
		t.Errorf("back = %q, want %q", insp.Cards[0].Back, "...")
	}
}

func TestMultipleChoiceRoundTrip(t *testing.T) {
	s := testStore(t)

	res, err := s.UpsertCard(CardInput{
		Type:            TypeMultipleChoice,
		Front:           "Capital of France?",
		Choices:         []Choice{{ID: "0", Text: "Paris"}},
		CorrectChoiceID: "0",
		ShuffleChoices:  true,
	})
	if err != nil {
		t.Fatal(err)
	}

	insp, err := s.InspectCards(InspectOptions{IDs: []string{res.ID}})
	if err != nil {
		t.Fatal(err)
	}
	card := insp.Cards[0]
	if len(card.Choices) != 1 || card.Choices[0].ID != "0" || card.Choices[0].Text != "Paris" {
		t.Errorf("choices = %+v", card.Choices)
	}
	if card.CorrectChoiceID != "0" {
		t.Errorf("correctChoiceId = %q, want %q", card.CorrectChoiceID, "0")
	}
	if !card.ShuffleChoices {
		t.Error("shuffleChoices lost")
	}
}

func TestMultipleChoiceValidation(t *testing.T) {
	s := testStore(t)

	_, err := s.UpsertCard(CardInput{Type: TypeMultipleChoice, Front: "q"})
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("no choices: err = %v, want ErrInvalidInput", err)
	}

	_, err = s.UpsertCard(CardInput{
		Type:            TypeMultipleChoice,
		Front:           "q",
		Choices:         []Choice{{ID: "0", Text: "a"}},
		CorrectChoiceID: "7",
	})
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("dangling correct id: err = %v, want ErrInvalidInput", err)
	}

	_, err = s.UpsertCard(CardInput{Type: TypeBasic, Front: "q", Choices: []Choice{{ID: "0", Text: "a"}}})
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("choices on basic: err = %v, want ErrInvalidInput", err)
	}
}

func TestOpaqueBlobsStoredVerbatim(t *testing.T) {
	s := testStore(t)

	fsrsCard := json.RawMessage(`{"stability":1.5,"state":"review"}`)
	reviews := json.RawMessage(`[{"t":1,"rating":"good"}]`)
	res, err := s.UpsertCard(CardInput{
		Front:    "q",
		Back:     "a",
		FSRSCard: fsrsCard,
		Reviews:  reviews,
	})
	if err != nil {
		t.Fatal(err)
	}

	insp, err := s.InspectCards(InspectOptions{IDs: []string{res.ID}, IncludeReviews: true})
	if err != nil {
		t.Fatal(err)
	}
	card := insp.Cards[0]
	if string(card.FSRSCard) != string(fsrsCard) {
		t.Errorf("fsrsCard = %s, want %s", card.FSRSCard, fsrsCard)
	}
	if string(card.Reviews) != string(reviews) {
		t.Errorf("reviews = %s, want %s", card.Reviews, reviews)
	}

	without, err := s.InspectCards(InspectOptions{IDs: []string{res.ID}})
	if err != nil {
		t.Fatal(err)
	}
	if without.Cards[0].Reviews != nil {
		t.Error("reviews returned without IncludeReviews")
	}
}

func TestExplicitIDWins(t *testing.T) {
	s := testStore(t)

	res, err := s.UpsertCard(CardInput{ID: "card_custom", Front: "q", Back: "a"})
	if err != nil {
		t.Fatal(err)
	}
	if res.ID != "card_custom" {
		t.Errorf("id = %q, want %q", res.ID, "card_custom")
	}
}

func TestDeleteCardsUnion(t *testing.T) {
	s := testStore(t)

	a, err := s.UpsertCard(CardInput{DeckID: "d1", Front: "a"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpsertCard(CardInput{DeckID: "d1", Front: "b"}); err != nil {
		t.Fatal(err)
	}
	c, err := s.UpsertCard(CardInput{DeckID: "d2", Front: "c"})
	if err != nil {
		t.Fatal(err)
	}

	removed, err := s.DeleteCards([]string{c.ID, "missing"}, "d1")
	if err != nil {
		t.Fatal(err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}
	insp, err := s.InspectCards(InspectOptions{Limit: 100})
	if err != nil {
		t.Fatal(err)
	}
	if len(insp.Cards) != 0 {
		t.Errorf("%d cards remain", len(insp.Cards))
	}
	_ = a
}

func TestCardIDDeterministic(t *testing.T) {
	one := CardID("deck", "basic", "front", "back")
	two := CardID("deck", "basic", "front", "back")
	if one != two {
		t.Errorf("ids differ: %q vs %q", one, two)
	}
	if CardID("other", "basic", "front", "back") == one {
		t.Error("different deck produced the same id")
	}
	if len(one) != len("card_")+16 {
		t.Errorf("id length = %d, want %d", len(one), len("card_")+16)
	}
}
