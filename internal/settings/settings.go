// Package settings persists plugin-level state, currently the selected
// spaced-repetition deck. The store is injected so tests can substitute an
// in-memory implementation.
package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"
)

// Store reads and writes the selected deck id.
type Store interface {
	SelectedDeckID() (string, error)
	SetSelectedDeckID(id string) error
}

// FileStore keeps settings in the plugin's data.json. The file is edited by
// the Obsidian plugin as well, so unknown keys are preserved and parsing
// tolerates comments and trailing commas.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a FileStore over the given settings file. The file
// may not exist yet; it is created on the first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

type srSection struct {
	SelectedDeckID string `json:"selectedDeckId,omitempty"`
}

func (s *FileStore) load() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("settings: read %s: %w", s.path, err)
	}
	standard, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("settings: parse %s: %w", s.path, err)
	}
	out := map[string]json.RawMessage{}
	if err := json.Unmarshal(standard, &out); err != nil {
		return nil, fmt.Errorf("settings: decode %s: %w", s.path, err)
	}
	return out, nil
}

// SelectedDeckID returns the selected deck id, or empty when unset.
func (s *FileStore) SelectedDeckID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	root, err := s.load()
	if err != nil {
		return "", err
	}
	raw, ok := root["spacedRepetition"]
	if !ok {
		return "", nil
	}
	var section srSection
	if err := json.Unmarshal(raw, &section); err != nil {
		return "", fmt.Errorf("settings: decode spacedRepetition: %w", err)
	}
	return section.SelectedDeckID, nil
}

// SetSelectedDeckID writes the selected deck id, preserving every other key
// in the file. The write is atomic.
func (s *FileStore) SetSelectedDeckID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	root, err := s.load()
	if err != nil {
		return err
	}

	var section map[string]any
	if raw, ok := root["spacedRepetition"]; ok {
		if err := json.Unmarshal(raw, &section); err != nil {
			section = nil
		}
	}
	if section == nil {
		section = map[string]any{}
	}
	section["selectedDeckId"] = id

	encoded, err := json.Marshal(section)
	if err != nil {
		return fmt.Errorf("settings: encode spacedRepetition: %w", err)
	}
	root["spacedRepetition"] = encoded

	out, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return fmt.Errorf("settings: encode settings: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(out)); err != nil {
		return fmt.Errorf("settings: write %s: %w", s.path, err)
	}
	return nil
}

// Memory is an in-process Store for tests.
type Memory struct {
	mu   sync.Mutex
	deck string
}

// SelectedDeckID returns the stored deck id.
func (m *Memory) SelectedDeckID() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deck, nil
}

// SetSelectedDeckID stores the deck id.
func (m *Memory) SetSelectedDeckID(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deck = id
	return nil
}
