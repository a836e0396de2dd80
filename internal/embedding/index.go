package embedding

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/aidanlowrie/MCP-Servers/internal/apperr"
)

// Standard snapshot filenames inside the embeddings directory.
const (
	TitleSnapshotFile = "title_embeddings.csv"
	BodySnapshotFile  = "thought_embeddings.csv"
)

// entry is one embedded note. Entries keep their CSV order so similarity
// ties rank by original enumeration.
type entry struct {
	path string
	vec  []float64
}

// Result is one similarity hit.
type Result struct {
	Path       string  `json:"path"`
	Similarity float64 `json:"similarity"`
}

// Index holds the title and body embedding snapshots in memory and answers
// similarity queries against them. Reloads are checksum-gated so an
// unchanged snapshot file is not re-parsed.
type Index struct {
	client    *Client
	titlePath string
	bodyPath  string

	mu       sync.RWMutex
	titles   []entry
	bodies   []entry
	titleSum string
	bodySum  string
}

// NewIndex creates an index over the two snapshot files. Call Load before
// the first Search.
func NewIndex(client *Client, titlePath, bodyPath string) *Index {
	return &Index{client: client, titlePath: titlePath, bodyPath: bodyPath}
}

// Ready reports whether at least one snapshot has been loaded with at
// least one entry.
func (ix *Index) Ready() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.titles) > 0 || len(ix.bodies) > 0
}

// Counts returns the number of loaded title and body embeddings.
func (ix *Index) Counts() (titles, bodies int) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.titles), len(ix.bodies)
}

// Load (re)reads both snapshot files. A file that has not changed since the
// last load is skipped. Missing files leave the corresponding set empty.
func (ix *Index) Load() error {
	titles, titleSum, err := ix.loadFile(ix.titlePath, ix.currentSum(true))
	if err != nil {
		return err
	}
	bodies, bodySum, err := ix.loadFile(ix.bodyPath, ix.currentSum(false))
	if err != nil {
		return err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if titles != nil {
		ix.titles = titles
		ix.titleSum = titleSum
	}
	if bodies != nil {
		ix.bodies = bodies
		ix.bodySum = bodySum
	}
	return nil
}

func (ix *Index) currentSum(title bool) string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if title {
		return ix.titleSum
	}
	return ix.bodySum
}

// loadFile parses one snapshot CSV. It returns (nil, prevSum, nil) when the
// file is unchanged, and an empty set when the file does not exist.
func (ix *Index) loadFile(path, prevSum string) ([]entry, string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return []entry{}, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("embedding: read snapshot %s: %w", path, err)
	}
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])
	if digest == prevSum && prevSum != "" {
		return nil, prevSum, nil
	}

	entries, err := parseSnapshot(path, data)
	if err != nil {
		return nil, "", err
	}
	return entries, digest, nil
}

func parseSnapshot(path string, data []byte) ([]entry, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	// Header row.
	if _, err := r.Read(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("embedding: parse snapshot %s: %w", path, err)
	}

	var out []entry
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.Warn("embedding: skipping malformed snapshot row",
				slog.String("file", path), slog.String("error", err.Error()))
			continue
		}
		if len(record) != 2 {
			continue
		}
		var vec []float64
		if err := json.Unmarshal([]byte(record[1]), &vec); err != nil {
			slog.Warn("embedding: skipping row with invalid vector",
				slog.String("file", path), slog.String("path", record[0]))
			continue
		}
		out = append(out, entry{path: record[0], vec: vec})
	}
	return out, nil
}

// Search embeds the query and returns up to maxResults entries ranked by
// cosine similarity descending, ties broken by snapshot order.
func (ix *Index) Search(ctx context.Context, query string, maxResults int, byTitle bool) ([]Result, error) {
	if maxResults < 1 {
		maxResults = 5
	}

	ix.mu.RLock()
	entries := ix.bodies
	if byTitle {
		entries = ix.titles
	}
	ix.mu.RUnlock()

	if len(entries) == 0 {
		return nil, fmt.Errorf("embedding: no snapshot loaded: %w", apperr.ErrNotFound)
	}

	queryVec, err := ix.client.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(entries))
	for _, e := range entries {
		results = append(results, Result{Path: e.path, Similarity: Cosine(queryVec, e.vec)})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Similarity > results[j].Similarity })
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}
