package vault

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aidanlowrie/MCP-Servers/internal/parser"
)

// List returns metadata for every note under folder (vault-relative, empty
// for the whole vault). Unreadable files are skipped and logged, not fatal.
func (f *FS) List(folder string) ([]NoteMeta, error) {
	return f.walkNotes(folder)
}

// ListRecent returns metadata for the most recently modified notes, newest
// first.
func (f *FS) ListRecent(limit int) ([]NoteMeta, error) {
	if limit < 1 {
		limit = 5
	}
	notes, err := f.walkNotes("")
	if err != nil {
		return nil, err
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].ModifiedAt.After(notes[j].ModifiedAt) })
	if len(notes) > limit {
		notes = notes[:limit]
	}
	return notes, nil
}

// Match is one keyword search hit with the text surrounding the match.
type Match struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Context string `json:"matchContext"`
}

// SearchOptions control KeywordSearch. Folder limits the scan to a
// subdirectory of the vault root.
type SearchOptions struct {
	MaxResults    int
	CaseSensitive bool
	Folder        string
}

// contextWindow is the number of bytes shown on each side of a match.
const contextWindow = 100

// KeywordSearch scans every note for an exact substring match. It is the
// non-semantic fallback; similarity search lives in the embedding package.
func (f *FS) KeywordSearch(query string, opts SearchOptions) ([]Match, error) {
	maxResults := opts.MaxResults
	if maxResults < 1 {
		maxResults = 10
	}
	needle := query
	if !opts.CaseSensitive {
		needle = strings.ToLower(query)
	}

	notes, err := f.walkNotes(opts.Folder)
	if err != nil {
		return nil, err
	}

	matches := []Match{}
	for _, note := range notes {
		data, err := f.Read(note.Path)
		if err != nil {
			slog.Warn("keyword search: skipping unreadable note",
				slog.String("path", note.Path), slog.String("error", err.Error()))
			continue
		}
		content := string(data)
		haystack := content
		if !opts.CaseSensitive {
			haystack = strings.ToLower(content)
		}
		idx := strings.Index(haystack, needle)
		if idx < 0 {
			continue
		}
		matches = append(matches, Match{
			Path:    note.Path,
			Title:   note.Title,
			Context: highlightContext(content, idx, len(needle)),
		})
		if len(matches) >= maxResults {
			break
		}
	}
	return matches, nil
}

// highlightContext extracts the window around a match and bolds the matched
// text, preserving its original case.
func highlightContext(content string, idx, length int) string {
	start := idx - contextWindow
	if start < 0 {
		start = 0
	}
	end := idx + length + contextWindow
	if end > len(content) {
		end = len(content)
	}
	matched := content[idx : idx+length]
	window := content[start:idx] + "**" + matched + "**" + content[idx+length:end]
	if start > 0 {
		window = "..." + window
	}
	if end < len(content) {
		window += "..."
	}
	return window
}

// walkNotes lists every .md file under dir (vault-relative) with its title.
func (f *FS) walkNotes(dir string) ([]NoteMeta, error) {
	base, err := f.safePath(strings.Trim(strings.TrimSpace(dir), "/"))
	if err != nil {
		return nil, err
	}

	var out []NoteMeta
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			slog.Warn("vault walk: skipping entry", slog.String("path", p), slog.String("error", walkErr.Error()))
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			slog.Warn("vault walk: stat failed", slog.String("path", p), slog.String("error", err.Error()))
			return nil
		}
		rel, err := filepath.Rel(f.root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		out = append(out, NoteMeta{
			Path:       rel,
			Title:      f.noteTitle(rel),
			ModifiedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return []NoteMeta{}, nil
		}
		return nil, err
	}
	return out, nil
}

// noteTitle extracts a display title from frontmatter or the first heading,
// falling back to the filename stem.
func (f *FS) noteTitle(rel string) string {
	data, err := f.Read(rel)
	if err != nil {
		return stem(rel)
	}
	res, err := parser.Parse(data)
	if err != nil || res.Title == "" {
		return stem(rel)
	}
	return res.Title
}

func stem(rel string) string {
	base := filepath.Base(rel)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
