package vault

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aidanlowrie/MCP-Servers/internal/apperr"
)

func testVault(t *testing.T) *FS {
	t.Helper()
	f, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestSafePathRejectsEscape(t *testing.T) {
	f := testVault(t)

	for _, p := range []string{"../outside.md", "sub/../../outside.md", "/etc/passwd"} {
		if _, err := f.safePath(p); !errors.Is(err, apperr.ErrPathEscape) {
			t.Errorf("safePath(%q) err = %v, want ErrPathEscape", p, err)
		}
	}
	if _, err := f.safePath("folder/inside.md"); err != nil {
		t.Errorf("safePath(inside) err = %v", err)
	}
}

func TestWriteNoteFrontmatter(t *testing.T) {
	f := testVault(t)

	rel, err := f.WriteNote("Pareto Principle", "80/20 everywhere.", map[string]any{
		"tags":   []string{"dropped"},
		"source": "conversation",
	}, "Concepts")
	if err != nil {
		t.Fatalf("WriteNote: %v", err)
	}
	if rel != "Concepts/Pareto Principle.md" {
		t.Errorf("rel = %q", rel)
	}

	data, err := f.Read(rel)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "---\n") {
		t.Error("missing frontmatter block")
	}
	if strings.Contains(content, "tags:") {
		t.Error("reserved frontmatter key not dropped")
	}
	if !strings.Contains(content, "ai_generated: true") {
		t.Error("ai_generated stamp missing")
	}
	if !strings.Contains(content, "title: Pareto Principle") {
		t.Error("title missing from frontmatter")
	}
	if !strings.Contains(content, "80/20 everywhere.\n") {
		t.Error("body missing or without trailing newline")
	}
}

func TestWriteNoteEscapingFolderRejected(t *testing.T) {
	f := testVault(t)

	_, err := f.WriteNote("Evil", "body", nil, "../outside")
	if !errors.Is(err, apperr.ErrPathEscape) {
		t.Fatalf("err = %v, want ErrPathEscape", err)
	}
	// Nothing may have been written anywhere under the root.
	entries, _ := os.ReadDir(f.Root())
	if len(entries) != 0 {
		t.Errorf("vault root not empty after rejected write: %v", entries)
	}
}

func TestFilenameFromTitle(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Decision Making", "Decision Making.md"},
		{"A/B: Testing", "A B Testing.md"},
		{`Weird <"chars">?`, "Weird chars.md"},
	}
	for _, c := range cases {
		if got := filenameFromTitle(c.in); got != c.want {
			t.Errorf("filenameFromTitle(%q) = %q, want %q", c.in, got, c.want)
		}
	}
	if got := filenameFromTitle(""); !strings.HasPrefix(got, "ai-generated-") || !strings.HasSuffix(got, ".md") {
		t.Errorf("fallback filename = %q", got)
	}
}

func TestListRecentOrdersByModTime(t *testing.T) {
	f := testVault(t)

	older := filepath.Join(f.Root(), "older.md")
	newer := filepath.Join(f.Root(), "newer.md")
	if err := os.WriteFile(older, []byte("# Older\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(newer, []byte("# Newer\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatal(err)
	}

	notes, err := f.ListRecent(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 2 {
		t.Fatalf("notes = %d, want 2", len(notes))
	}
	if notes[0].Path != "newer.md" || notes[1].Path != "older.md" {
		t.Errorf("order = [%s %s]", notes[0].Path, notes[1].Path)
	}
	if notes[0].Title != "Newer" {
		t.Errorf("title = %q, want %q", notes[0].Title, "Newer")
	}

	limited, err := f.ListRecent(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 || limited[0].Path != "newer.md" {
		t.Errorf("limited = %v", limited)
	}
}

func TestKeywordSearch(t *testing.T) {
	f := testVault(t)

	if err := os.WriteFile(filepath.Join(f.Root(), "hit.md"),
		[]byte("# Memory\nSpaced Repetition beats cramming.\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(f.Root(), "miss.md"),
		[]byte("# Other\nNothing relevant.\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	matches, err := f.KeywordSearch("spaced repetition", SearchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(matches))
	}
	m := matches[0]
	if m.Path != "hit.md" || m.Title != "Memory" {
		t.Errorf("match = %+v", m)
	}
	if !strings.Contains(m.Context, "**Spaced Repetition**") {
		t.Errorf("context = %q, want highlighted original-case match", m.Context)
	}

	// Case-sensitive search must miss the lowercase query.
	matches, err = f.KeywordSearch("spaced repetition", SearchOptions{CaseSensitive: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("case-sensitive matches = %d, want 0", len(matches))
	}
}
