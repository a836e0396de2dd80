package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/aidanlowrie/MCP-Servers/internal/embedding"
	"github.com/aidanlowrie/MCP-Servers/internal/settings"
	"github.com/aidanlowrie/MCP-Servers/internal/srstore"
	"github.com/aidanlowrie/MCP-Servers/internal/testutil"
	"github.com/aidanlowrie/MCP-Servers/internal/vault"
)

// testEnv sets up a temp vault, SQLite store, and router for testing.
// An empty authToken means auth is disabled.
func testEnv(t *testing.T, authToken string) (*srstore.Store, *vault.FS, http.Handler) {
	t.Helper()

	_, notes := testutil.TestVault(t)
	cards := testutil.TestStore(t)

	snapDir := t.TempDir()
	client := embedding.NewClient("http://127.0.0.1:0", "test-model")
	index := embedding.NewIndex(client,
		filepath.Join(snapDir, embedding.TitleSnapshotFile),
		filepath.Join(snapDir, embedding.BodySnapshotFile))

	router := NewRouter(cards, notes, index, &settings.Memory{}, authToken != "", authToken)
	return cards, notes, router
}

func doGet(t *testing.T, router http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	_, _, router := testEnv(t, "secret")

	if rec := doGet(t, router, "/decks", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}
	if rec := doGet(t, router, "/decks", "wrong"); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", rec.Code)
	}
	if rec := doGet(t, router, "/decks", "secret"); rec.Code != http.StatusOK {
		t.Errorf("good token: status = %d, want 200", rec.Code)
	}
}

func TestListDecks(t *testing.T) {
	cards, _, router := testEnv(t, "")
	if _, err := cards.EnsureDeckByName("Spanish"); err != nil {
		t.Fatal(err)
	}

	rec := doGet(t, router, "/decks", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Decks []srstore.DeckSummary `json:"decks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Decks) != 2 { // Default + Spanish
		t.Errorf("decks = %d, want 2", len(body.Decks))
	}
}

func TestGetDeckNotFound(t *testing.T) {
	_, _, router := testEnv(t, "")
	if rec := doGet(t, router, "/decks/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestListCardsByDeck(t *testing.T) {
	cards, _, router := testEnv(t, "")
	_, err := cards.UpsertCard(srstore.CardInput{Front: "hola", Back: "hello", DeckName: "Spanish"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = cards.UpsertCard(srstore.CardInput{Front: "chat", Back: "cat", DeckName: "French"})
	if err != nil {
		t.Fatal(err)
	}

	rec := doGet(t, router, "/cards?deck=spanish", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body srstore.Inspection
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Cards) != 1 || body.Cards[0].Front != "hola" {
		t.Errorf("cards = %+v", body.Cards)
	}
}

func TestCardSchema(t *testing.T) {
	_, _, router := testEnv(t, "")
	rec := doGet(t, router, "/cards/schema", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var schema map[string]map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &schema); err != nil {
		t.Fatal(err)
	}
	if _, ok := schema["Card"]; !ok {
		t.Error("schema missing Card section")
	}
}

func TestGetNote(t *testing.T) {
	_, notes, router := testEnv(t, "")
	if _, err := notes.WriteNote("Hello World", "body text", nil, ""); err != nil {
		t.Fatal(err)
	}

	rec := doGet(t, router, "/notes/Hello%20World.md", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); got == "" {
		t.Error("empty note body")
	}

	if rec := doGet(t, router, "/notes/missing.md", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing note: status = %d, want 404", rec.Code)
	}
}

func TestGetNoteRejectsEscape(t *testing.T) {
	_, _, router := testEnv(t, "")
	rec := doGet(t, router, "/notes/..%2F..%2Fetc%2Fpasswd", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSearchKeyword(t *testing.T) {
	_, notes, router := testEnv(t, "")
	if _, err := notes.WriteNote("Gardening", "Tomatoes need sun.", nil, ""); err != nil {
		t.Fatal(err)
	}

	rec := doGet(t, router, "/search?q=tomatoes", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Results []vault.Match `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Results) != 1 {
		t.Errorf("results = %d, want 1", len(body.Results))
	}
}

func TestSearchSemanticUnavailable(t *testing.T) {
	_, _, router := testEnv(t, "")
	rec := doGet(t, router, "/search?q=anything&mode=content", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 without snapshots", rec.Code)
	}
}

func TestSearchBadMode(t *testing.T) {
	_, _, router := testEnv(t, "")
	if rec := doGet(t, router, "/search?q=x&mode=psychic", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestStatus(t *testing.T) {
	cards, _, router := testEnv(t, "")
	if _, err := cards.UpsertCard(srstore.CardInput{Front: "q", Back: "a"}); err != nil {
		t.Fatal(err)
	}

	rec := doGet(t, router, "/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Cards           int  `json:"cards"`
		EmbeddingsReady bool `json:"embeddingsReady"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Cards != 1 {
		t.Errorf("cards = %d, want 1", body.Cards)
	}
	if body.EmbeddingsReady {
		t.Error("embeddings reported ready without snapshots")
	}
}
