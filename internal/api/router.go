package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/aidanlowrie/MCP-Servers/internal/embedding"
	"github.com/aidanlowrie/MCP-Servers/internal/settings"
	"github.com/aidanlowrie/MCP-Servers/internal/srstore"
	"github.com/aidanlowrie/MCP-Servers/internal/vault"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(cards *srstore.Store, notes *vault.FS, index *embedding.Index, st settings.Store, authEnabled bool, token string) chi.Router {
	h := NewHandler(cards, notes, index, st)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Decks and cards.
	r.Get("/decks", h.ListDecks)
	r.Get("/decks/{id}", h.GetDeck)
	r.Get("/cards", h.ListCards)
	r.Get("/cards/schema", h.CardSchema)

	// Vault notes.
	r.Get("/notes", h.ListNotes)
	r.Get("/notes/*", h.GetNote)

	// Search and health.
	r.Get("/search", h.Search)
	r.Get("/status", h.Status)

	return r
}
