// Package embedding generates text embeddings through a local Ollama
// instance and ranks vault notes by cosine similarity against CSV-backed
// embedding snapshots.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aidanlowrie/MCP-Servers/internal/apperr"
)

// Client calls the Ollama embeddings API.
type Client struct {
	baseURL string
	model   string
	http    *http.Client
}

// NewClient creates an embeddings client. baseURL is the Ollama root
// (e.g. http://localhost:11434).
func NewClient(baseURL, model string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed returns the embedding vector for text, or nil for blank text
// without calling the API. An unreachable or malformed upstream surfaces
// as ErrUpstream.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	body, err := json.Marshal(embedRequest{Model: c.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("embedding: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embedding: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding: %w: %v", apperr.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding: %w: status %d", apperr.ErrUpstream, resp.StatusCode)
	}
	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("embedding: %w: decode response: %v", apperr.ErrUpstream, err)
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("embedding: %w: no embedding in response", apperr.ErrUpstream)
	}
	return out.Embedding, nil
}
