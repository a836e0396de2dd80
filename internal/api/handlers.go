package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aidanlowrie/MCP-Servers/internal/apperr"
	"github.com/aidanlowrie/MCP-Servers/internal/embedding"
	"github.com/aidanlowrie/MCP-Servers/internal/settings"
	"github.com/aidanlowrie/MCP-Servers/internal/srstore"
	"github.com/aidanlowrie/MCP-Servers/internal/vault"
)

// Handler holds the read-only API route handlers. Writes go through the MCP
// tools; this surface exists for dashboards and debugging.
type Handler struct {
	cards    *srstore.Store
	notes    *vault.FS
	index    *embedding.Index
	settings settings.Store
}

// NewHandler creates a new Handler.
func NewHandler(cards *srstore.Store, notes *vault.FS, index *embedding.Index, st settings.Store) *Handler {
	return &Handler{cards: cards, notes: notes, index: index, settings: st}
}

// notePath extracts the note path from the URL (everything after /notes/).
// Supports encoded slashes from OpenAPI clients (e.g. topics%2Fnote.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListDecks handles GET /decks.
//
//	@Summary		List decks with card counts
//	@Tags			decks
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Security		BearerAuth
//	@Router			/decks [get]
func (h *Handler) ListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := h.cards.ListDecks()
	if err != nil {
		slog.Error("list decks failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	selected, _ := h.settings.SelectedDeckID()
	writeJSON(w, http.StatusOK, map[string]any{
		"decks":    decks,
		"selected": selected,
	})
}

// GetDeck handles GET /decks/{id}.
//
//	@Summary		Get one deck with its composite children
//	@Tags			decks
//	@Produce		json
//	@Param			id	path		string	true	"Deck id"
//	@Success		200	{object}	srstore.Deck
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/decks/{id} [get]
func (h *Handler) GetDeck(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	deck, err := h.cards.GetDeck(id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get deck failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, deck)
}

// ListCards handles GET /cards.
//
//	@Summary		Inspect cards by id, deck, or recency
//	@Tags			cards
//	@Produce		json
//	@Param			ids				query		string	false	"Comma-separated card ids"
//	@Param			deck			query		string	false	"Deck id"
//	@Param			limit			query		int		false	"Max cards"
//	@Param			includeReviews	query		bool	false	"Include review history"
//	@Success		200				{object}	srstore.Inspection
//	@Security		BearerAuth
//	@Router			/cards [get]
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	var ids []string
	if raw := q.Get("ids"); raw != "" {
		ids = strings.Split(raw, ",")
	}

	inspection, err := h.cards.InspectCards(srstore.InspectOptions{
		IDs:            ids,
		DeckID:         q.Get("deck"),
		Limit:          limit,
		IncludeReviews: q.Get("includeReviews") == "true",
	})
	if err != nil {
		slog.Error("inspect cards failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, inspection)
}

// CardSchema handles GET /cards/schema.
//
//	@Summary		Describe the stored card and review-log fields
//	@Tags			cards
//	@Produce		json
//	@Success		200	{object}	map[string]map[string]string
//	@Security		BearerAuth
//	@Router			/cards/schema [get]
func (h *Handler) CardSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, srstore.CardSchema())
}

// ListNotes handles GET /notes.
//
//	@Summary		List vault notes, optionally by folder
//	@Tags			notes
//	@Produce		json
//	@Param			folder	query		string	false	"Folder to list"
//	@Success		200		{object}	map[string]any
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	metas, err := h.notes.List(r.URL.Query().Get("folder"))
	if err != nil {
		slog.Error("list notes failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notes": metas,
		"total": len(metas),
	})
}

// GetNote handles GET /notes/*.
//
//	@Summary		Read a note's raw content
//	@Tags			notes
//	@Produce		plain
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{string}	string
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{path} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	data, err := h.notes.Read(path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrPathEscape) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get note failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write(data)
}

// Search handles GET /search.
//
//	@Summary		Search notes by keyword or embedding similarity
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			mode	query		string	false	"Search mode"	Enums(keyword, content, title)
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	map[string]any
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	mode := r.URL.Query().Get("mode")
	switch mode {
	case "", "keyword":
		matches, err := h.notes.KeywordSearch(q, vault.SearchOptions{})
		if err != nil {
			slog.Error("keyword search failed", slog.String("query", q), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
			return
		}
		if limit > 0 && len(matches) > limit {
			matches = matches[:limit]
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": matches})

	case "content", "title":
		results, err := h.index.Search(r.Context(), q, limit, mode == "title")
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				writeJSON(w, http.StatusServiceUnavailable, errorBody("embedding index not built"))
			} else {
				slog.Error("semantic search failed", slog.String("query", q), slog.String("error", err.Error()))
				writeJSON(w, http.StatusBadGateway, errorBody("embedding backend unavailable"))
			}
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": results})

	default:
		writeJSON(w, http.StatusBadRequest, errorBody("mode must be keyword, content, or title"))
	}
}

// Status handles GET /status.
//
//	@Summary		Report store and embedding index health
//	@Tags			status
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Security		BearerAuth
//	@Router			/status [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	decks, err := h.cards.ListDecks()
	if err != nil {
		slog.Error("status failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	cardCount := 0
	for _, d := range decks {
		cardCount += d.Count
	}
	titles, bodies := h.index.Counts()
	writeJSON(w, http.StatusOK, map[string]any{
		"decks":           len(decks),
		"cards":           cardCount,
		"embeddingsReady": h.index.Ready(),
		"titleEmbeddings": titles,
		"bodyEmbeddings":  bodies,
	})
}
