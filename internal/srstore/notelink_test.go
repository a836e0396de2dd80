package srstore

import (
	"errors"
	"testing"

	"github.com/aidanlowrie/MCP-Servers/internal/apperr"
)

func TestNormalizeNotePath(t *testing.T) {
	cases := []struct{ in, want string }{
		{"./notes/a.md", "notes/a.md"},
		{`notes\sub\a.md`, "notes/sub/a.md"},
		{"  notes/a.md  ", "notes/a.md"},
		{"notes//a.md", "notes/a.md"},
		{"", ""},
		{".", ""},
	}
	for _, c := range cases {
		got := NormalizeNotePath(c.in)
		if got != c.want {
			t.Errorf("NormalizeNotePath(%q) = %q, want %q", c.in, got, c.want)
		}
		// Idempotent: a second pass returns an identical string.
		if again := NormalizeNotePath(got); again != got {
			t.Errorf("not idempotent: %q -> %q", got, again)
		}
	}
}

func TestLinkNoteExclusive(t *testing.T) {
	s := testStore(t)

	if _, err := s.LinkNoteToDeck(LinkRequest{NotePath: "note.md", DeckID: "a", AllowMultiple: true}); err != nil {
		t.Fatal(err)
	}
	res, err := s.LinkNoteToDeck(LinkRequest{NotePath: "note.md", DeckID: "b", AllowMultiple: false})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.DeckIDs) != 1 || res.DeckIDs[0] != "b" {
		t.Errorf("linked decks = %v, want [b]", res.DeckIDs)
	}
}

func TestLinkNoteAllowMultiple(t *testing.T) {
	s := testStore(t)

	if _, err := s.LinkNoteToDeck(LinkRequest{NotePath: "note.md", DeckID: "a", AllowMultiple: true}); err != nil {
		t.Fatal(err)
	}
	res, err := s.LinkNoteToDeck(LinkRequest{NotePath: "note.md", DeckID: "b", AllowMultiple: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.DeckIDs) != 2 || res.DeckIDs[0] != "a" || res.DeckIDs[1] != "b" {
		t.Errorf("linked decks = %v, want [a b] in insertion order", res.DeckIDs)
	}

	// Duplicate insert is ignored.
	res, err = s.LinkNoteToDeck(LinkRequest{NotePath: "note.md", DeckID: "a", AllowMultiple: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.DeckIDs) != 2 {
		t.Errorf("duplicate link changed set: %v", res.DeckIDs)
	}
}

func TestLinkNoteByName(t *testing.T) {
	s := testStore(t)

	res, err := s.LinkNoteToDeck(LinkRequest{
		NotePath:        "note.md",
		DeckName:        "Spanish Verbs",
		AllowMultiple:   true,
		CreateIfMissing: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.DeckID != "spanish-verbs" || res.DeckName != "Spanish Verbs" {
		t.Errorf("resolved deck = %q/%q", res.DeckID, res.DeckName)
	}

	_, err = s.LinkNoteToDeck(LinkRequest{
		NotePath:      "note.md",
		DeckName:      "Missing Deck",
		AllowMultiple: true,
	})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLinkNoteDefaultsToDefaultDeck(t *testing.T) {
	s := testStore(t)

	res, err := s.LinkNoteToDeck(LinkRequest{NotePath: "note.md", AllowMultiple: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.DeckID != DefaultDeckID {
		t.Errorf("deck = %q, want %q", res.DeckID, DefaultDeckID)
	}
}

func TestLinkNoteEmptyPath(t *testing.T) {
	s := testStore(t)
	_, err := s.LinkNoteToDeck(LinkRequest{NotePath: "  ", DeckID: "a"})
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestUnlinkNote(t *testing.T) {
	s := testStore(t)

	for _, deck := range []string{"a", "b", "c"} {
		if _, err := s.LinkNoteToDeck(LinkRequest{NotePath: "note.md", DeckID: deck, AllowMultiple: true}); err != nil {
			t.Fatal(err)
		}
	}

	remaining, err := s.UnlinkNoteFromDeck("note.md", "b")
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 2 || remaining[0] != "a" || remaining[1] != "c" {
		t.Errorf("remaining = %v, want [a c]", remaining)
	}

	remaining, err = s.UnlinkNoteFromDeck("note.md", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 0 {
		t.Errorf("remaining = %v, want []", remaining)
	}
}
