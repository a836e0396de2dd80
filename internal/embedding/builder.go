package embedding

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aidanlowrie/MCP-Servers/internal/parser"
	"github.com/aidanlowrie/MCP-Servers/internal/vault"
)

// Builder regenerates the title and body embedding snapshots from the
// vault contents.
type Builder struct {
	store     *vault.FS
	client    *Client
	titlePath string
	bodyPath  string
}

// NewBuilder creates a builder writing snapshots to the given paths.
func NewBuilder(store *vault.FS, client *Client, titlePath, bodyPath string) *Builder {
	return &Builder{store: store, client: client, titlePath: titlePath, bodyPath: bodyPath}
}

// Rebuild embeds every vault note and rewrites both snapshot files,
// returning the number of notes embedded. A note whose embedding fails is
// skipped and logged; the rebuild continues.
func (b *Builder) Rebuild(ctx context.Context) (int, error) {
	notes, err := b.store.List("")
	if err != nil {
		return 0, err
	}

	type row struct{ path, vec string }
	var titleRows, bodyRows []row

	embedded := 0
	for _, note := range notes {
		if ctx.Err() != nil {
			return embedded, ctx.Err()
		}
		data, err := b.store.Read(note.Path)
		if err != nil {
			slog.Warn("rebuild: skipping unreadable note",
				slog.String("path", note.Path), slog.String("error", err.Error()))
			continue
		}
		res, err := parser.Parse(data)
		if err != nil {
			slog.Warn("rebuild: skipping unparsable note",
				slog.String("path", note.Path), slog.String("error", err.Error()))
			continue
		}

		titleVec, err := b.client.Embed(ctx, note.Title)
		if err != nil {
			return embedded, err // upstream down: stop rather than emit a partial snapshot
		}
		bodyVec, err := b.client.Embed(ctx, res.Body)
		if err != nil {
			return embedded, err
		}

		if titleVec != nil {
			titleRows = append(titleRows, row{note.Path, encodeVector(titleVec)})
		}
		if bodyVec != nil {
			bodyRows = append(bodyRows, row{note.Path, encodeVector(bodyVec)})
		}
		embedded++
	}

	write := func(path string, rows []row) error {
		records := make([][]string, 0, len(rows)+1)
		records = append(records, []string{"file_path", "embedding"})
		for _, r := range rows {
			records = append(records, []string{r.path, r.vec})
		}
		return writeSnapshot(path, records)
	}
	if err := write(b.titlePath, titleRows); err != nil {
		return embedded, err
	}
	if err := write(b.bodyPath, bodyRows); err != nil {
		return embedded, err
	}
	return embedded, nil
}

func encodeVector(vec []float64) string {
	data, _ := json.Marshal(vec)
	return string(data)
}

// writeSnapshot writes a CSV atomically: tmp file, then rename.
func writeSnapshot(path string, records [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("embedding: mkdir snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-tmp-*")
	if err != nil {
		return fmt.Errorf("embedding: create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("embedding: write snapshot: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("embedding: flush snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("embedding: close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("embedding: rename snapshot: %w", err)
	}
	success = true
	return nil
}
