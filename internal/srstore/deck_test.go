package srstore

import (
	"errors"
	"testing"

	"github.com/aidanlowrie/MCP-Servers/internal/apperr"
)

func TestEnsureDeckByNameIsCaseInsensitive(t *testing.T) {
	s := testStore(t)

	first, err := s.EnsureDeckByName("Spaced Repetition")
	if err != nil {
		t.Fatalf("EnsureDeckByName: %v", err)
	}
	second, err := s.EnsureDeckByName("spaced repetition")
	if err != nil {
		t.Fatalf("EnsureDeckByName: %v", err)
	}
	if first != second {
		t.Errorf("ids differ: %q vs %q", first, second)
	}
	if first != "spaced-repetition" {
		t.Errorf("slug id = %q, want %q", first, "spaced-repetition")
	}
}

func TestGenerateDeckIDCollisionSuffix(t *testing.T) {
	s := testStore(t)

	// Occupy the slug with a deck of a different name.
	if _, err := s.EnsureDeck("math", "Mathematics"); err != nil {
		t.Fatal(err)
	}
	id, err := s.EnsureDeckByName("Math")
	if err != nil {
		t.Fatalf("EnsureDeckByName: %v", err)
	}
	if id != "math-2" {
		t.Errorf("collision id = %q, want %q", id, "math-2")
	}
}

func TestEnsureDeckKeepsExistingName(t *testing.T) {
	s := testStore(t)

	if _, err := s.EnsureDeck("lang", "Languages"); err != nil {
		t.Fatal(err)
	}
	// A second ensure with a different name must not rename.
	if _, err := s.EnsureDeck("lang", "Other"); err != nil {
		t.Fatal(err)
	}
	deck, err := s.GetDeck("lang")
	if err != nil {
		t.Fatal(err)
	}
	if deck.Name != "Languages" {
		t.Errorf("name = %q, want %q", deck.Name, "Languages")
	}
}

func TestFindDeckByNameMiss(t *testing.T) {
	s := testStore(t)
	_, err := s.FindDeckByName("nope")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSetDeckChildrenOrderAndSelfReference(t *testing.T) {
	s := testStore(t)

	if _, err := s.EnsureDeck("all", "All Subjects"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetDeckChildren("all", []string{"algebra", "geometry", "algebra", ""}); err != nil {
		t.Fatalf("SetDeckChildren: %v", err)
	}
	deck, err := s.GetDeck("all")
	if err != nil {
		t.Fatal(err)
	}
	if !deck.IsComposite {
		t.Error("deck not marked composite")
	}
	if len(deck.Children) != 2 || deck.Children[0] != "algebra" || deck.Children[1] != "geometry" {
		t.Errorf("children = %v, want [algebra geometry]", deck.Children)
	}

	err = s.SetDeckChildren("all", []string{"all"})
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("self-reference err = %v, want ErrInvalidInput", err)
	}
}

func TestDeleteDeckReassignsCardsAndNotes(t *testing.T) {
	s := testStore(t)

	if _, err := s.EnsureDeck("algebra", "Algebra"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.EnsureDeck("math", "Math"); err != nil {
		t.Fatal(err)
	}
	res, err := s.UpsertCard(CardInput{DeckID: "algebra", Front: "2+2", Back: "4"})
	if err != nil {
		t.Fatalf("UpsertCard: %v", err)
	}
	if _, err := s.LinkNoteToDeck(LinkRequest{NotePath: "note.md", DeckID: "algebra", AllowMultiple: true}); err != nil {
		t.Fatalf("LinkNoteToDeck: %v", err)
	}

	target, err := s.DeleteDeck("algebra", "math")
	if err != nil {
		t.Fatalf("DeleteDeck: %v", err)
	}
	if target != "math" {
		t.Errorf("target = %q, want %q", target, "math")
	}

	insp, err := s.InspectCards(InspectOptions{IDs: []string{res.ID}})
	if err != nil {
		t.Fatal(err)
	}
	if len(insp.Cards) != 1 {
		t.Fatalf("card missing after reassignment")
	}
	if got := insp.Cards[0].DeckIDs; len(got) != 1 || got[0] != "math" {
		t.Errorf("card decks = %v, want [math]", got)
	}

	linked, err := s.UnlinkNoteFromDeck("note.md", "algebra")
	if err != nil {
		t.Fatal(err)
	}
	if len(linked) != 1 || linked[0] != "math" {
		t.Errorf("note links = %v, want [math]", linked)
	}
	if _, err := s.GetDeck("algebra"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("deleted deck still resolvable: %v", err)
	}
	decks, err := s.ListDecks()
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range decks {
		if d.ID == "algebra" {
			t.Error("algebra still listed after deletion")
		}
	}
}

func TestDeleteDeckNoteLinkMovesToTarget(t *testing.T) {
	s := testStore(t)

	if _, err := s.EnsureDeck("algebra", "Algebra"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LinkNoteToDeck(LinkRequest{NotePath: "note.md", DeckID: "algebra", AllowMultiple: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.DeleteDeck("algebra", "math"); err != nil {
		t.Fatalf("DeleteDeck: %v", err)
	}

	res, err := s.LinkNoteToDeck(LinkRequest{NotePath: "note.md", DeckID: "math", AllowMultiple: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.DeckIDs) != 1 || res.DeckIDs[0] != "math" {
		t.Errorf("linked decks = %v, want [math]", res.DeckIDs)
	}
}

func TestDeleteDeckOntoItselfIsNoOp(t *testing.T) {
	s := testStore(t)

	if _, err := s.EnsureDeck("keep", "Keep"); err != nil {
		t.Fatal(err)
	}
	target, err := s.DeleteDeck("keep", "keep")
	if err != nil {
		t.Fatalf("DeleteDeck: %v", err)
	}
	if target != "keep" {
		t.Errorf("target = %q, want %q", target, "keep")
	}
	if _, err := s.GetDeck("keep"); err != nil {
		t.Errorf("deck removed by self-reassign: %v", err)
	}
}

func TestDeleteDeckMissing(t *testing.T) {
	s := testStore(t)
	_, err := s.DeleteDeck("ghost", "")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListDecksIncludesEmptyDecks(t *testing.T) {
	s := testStore(t)

	if _, err := s.EnsureDeck("zebra", "Zebra"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.EnsureDeck("apple", "apple"); err != nil {
		t.Fatal(err)
	}
	decks, err := s.ListDecks()
	if err != nil {
		t.Fatal(err)
	}
	if len(decks) != 3 {
		t.Fatalf("deck count = %d, want 3", len(decks))
	}
	// Case-insensitive name order: apple, Default, Zebra.
	if decks[0].ID != "apple" || decks[1].ID != "default" || decks[2].ID != "zebra" {
		t.Errorf("order = [%s %s %s]", decks[0].ID, decks[1].ID, decks[2].ID)
	}
	for _, d := range decks {
		if d.Count != 0 {
			t.Errorf("deck %s count = %d, want 0", d.ID, d.Count)
		}
	}
}
