// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the spaced-repetition store and thought vault as tools for LLM
// integration via stdio transport.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aidanlowrie/MCP-Servers/internal/embedding"
	"github.com/aidanlowrie/MCP-Servers/internal/settings"
	"github.com/aidanlowrie/MCP-Servers/internal/srstore"
	"github.com/aidanlowrie/MCP-Servers/internal/vault"
)

// Server wraps the MCP server with all thought and flashcard tools.
type Server struct {
	mcp      *server.MCPServer
	cards    *srstore.Store
	notes    *vault.FS
	index    *embedding.Index
	embedder *embedding.Client
	builder  *embedding.Builder
	settings settings.Store
}

// New creates an MCP server with every tool registered.
func New(cards *srstore.Store, notes *vault.FS, index *embedding.Index, embedder *embedding.Client, builder *embedding.Builder, st settings.Store) *Server {
	s := &Server{
		cards:    cards,
		notes:    notes,
		index:    index,
		embedder: embedder,
		builder:  builder,
		settings: st,
	}

	s.mcp = server.NewMCPServer(
		"ObsidianThoughts",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	// Spaced-repetition tools.
	s.mcp.AddTool(mcp.NewTool("create_sr_cards",
		mcp.WithDescription("Create or update spaced-repetition flashcards. Each card needs at "+
			"least a front; type is basic, multiple-choice or open-ended (default basic). "+
			"Multiple-choice cards need choices and a correct choice. Cards with a notePath "+
			"are linked to their deck automatically."),
		mcp.WithArray("cards", mcp.Required(), mcp.Description("Card objects to upsert")),
		mcp.WithString("deckId", mcp.Description("Deck id applied to cards that name no deck")),
		mcp.WithString("deck", mcp.Description("Deck name applied to cards that name no deck (created if missing)")),
	), s.createSRCards)

	s.mcp.AddTool(mcp.NewTool("list_sr_decks",
		mcp.WithDescription("List all flashcard decks with their card counts."),
	), s.listSRDecks)

	s.mcp.AddTool(mcp.NewTool("create_sr_deck",
		mcp.WithDescription("Create a flashcard deck by name. Returns the existing deck when "+
			"the name is already taken (names are case-insensitive). An optional children "+
			"list turns the deck into a composite of other decks."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Human-readable deck name")),
		mcp.WithArray("children", mcp.Description("Deck ids this composite deck aggregates, in study order")),
	), s.createSRDeck)

	s.mcp.AddTool(mcp.NewTool("delete_sr_deck",
		mcp.WithDescription("Delete a deck. Its cards and note links move to another deck "+
			"(the default deck unless reassignTo is given). Deleting a deck onto itself "+
			"is a no-op."),
		mcp.WithString("deckId", mcp.Required(), mcp.Description("Deck id to delete")),
		mcp.WithString("reassignTo", mcp.Description("Deck id that receives the orphaned cards")),
	), s.deleteSRDeck)

	s.mcp.AddTool(mcp.NewTool("delete_sr_cards",
		mcp.WithDescription("Delete flashcards by id and/or every card in a deck."),
		mcp.WithArray("ids", mcp.Description("Card ids to delete")),
		mcp.WithString("deckId", mcp.Description("Delete all cards belonging to this deck")),
	), s.deleteSRCards)

	s.mcp.AddTool(mcp.NewTool("inspect_sr_cards",
		mcp.WithDescription("Inspect stored flashcards: by id, by deck, or most recently "+
			"updated. Optionally include review logs and the card field schema."),
		mcp.WithArray("ids", mcp.Description("Card ids to fetch")),
		mcp.WithString("deckId", mcp.Description("Fetch cards in this deck")),
		mcp.WithNumber("limit", mcp.Description("Maximum cards returned (default 20)")),
		mcp.WithBoolean("includeReviews", mcp.Description("Include per-card review history")),
		mcp.WithBoolean("includeSchema", mcp.Description("Include the card field schema")),
	), s.inspectSRCards)

	s.mcp.AddTool(mcp.NewTool("link_sr_note_to_deck",
		mcp.WithDescription("Link a vault note to a deck so cards generated from it land "+
			"there. Existing links are kept unless allowMultiple is set to false."),
		mcp.WithString("notePath", mcp.Required(), mcp.Description("Vault-relative note path")),
		mcp.WithString("deckId", mcp.Description("Deck id to link to")),
		mcp.WithString("deck", mcp.Description("Deck name to link to")),
		mcp.WithBoolean("allowMultiple", mcp.Description("Keep existing links (default true); false replaces them")),
		mcp.WithBoolean("createIfMissing", mcp.Description("Create the named deck when it does not exist (default true)")),
	), s.linkSRNoteToDeck)

	s.mcp.AddTool(mcp.NewTool("unlink_sr_note_from_deck",
		mcp.WithDescription("Remove the link between a note and a deck, or every link the "+
			"note has when no deck is given."),
		mcp.WithString("notePath", mcp.Required(), mcp.Description("Vault-relative note path")),
		mcp.WithString("deckId", mcp.Description("Deck id to unlink from (omit to unlink from all decks)")),
	), s.unlinkSRNoteFromDeck)

	s.mcp.AddTool(mcp.NewTool("select_sr_deck",
		mcp.WithDescription("Select the deck new cards default into when they name no deck."),
		mcp.WithString("deckId", mcp.Description("Deck id to select")),
		mcp.WithString("deck", mcp.Description("Deck name to select")),
	), s.selectSRDeck)

	// Thought vault tools.
	s.mcp.AddTool(mcp.NewTool("search_by_content",
		mcp.WithDescription("Semantic search over thought bodies using embeddings."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Natural-language query")),
		mcp.WithNumber("maxResults", mcp.Description("Maximum results (default 5)")),
	), s.searchByContent)

	s.mcp.AddTool(mcp.NewTool("search_by_title",
		mcp.WithDescription("Semantic search over thought titles using embeddings."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Natural-language query")),
		mcp.WithNumber("maxResults", mcp.Description("Maximum results (default 5)")),
	), s.searchByTitle)

	s.mcp.AddTool(mcp.NewTool("keyword_search",
		mcp.WithDescription("Exact keyword search through thought contents, with highlighted context."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Keyword or phrase")),
		mcp.WithBoolean("caseSensitive", mcp.Description("Match case exactly (default false)")),
	), s.keywordSearch)

	s.mcp.AddTool(mcp.NewTool("get_thought_content",
		mcp.WithDescription("Read the full content of a thought note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative note path")),
	), s.getThoughtContent)

	s.mcp.AddTool(mcp.NewTool("compare_thoughts",
		mcp.WithDescription("Compare two thoughts by cosine similarity of their body embeddings."),
		mcp.WithString("path1", mcp.Required(), mcp.Description("First note path")),
		mcp.WithString("path2", mcp.Required(), mcp.Description("Second note path")),
	), s.compareThoughts)

	s.mcp.AddTool(mcp.NewTool("list_recent_thoughts",
		mcp.WithDescription("List the most recently modified thoughts."),
		mcp.WithNumber("limit", mcp.Description("Maximum notes returned (default 5)")),
	), s.listRecentThoughts)

	s.mcp.AddTool(mcp.NewTool("write_note",
		mcp.WithDescription("Write a new AI-generated note into the vault. The note gets YAML "+
			"frontmatter with the title and an ai_generated marker; reserved keys (tags, "+
			"topics, aliases) are dropped from custom frontmatter."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title, also used for the filename")),
		mcp.WithString("content", mcp.Description("Markdown body")),
		mcp.WithObject("frontmatter", mcp.Description("Extra frontmatter key/value pairs")),
		mcp.WithString("folder", mcp.Description("Vault-relative folder to write into")),
	), s.writeNote)

	s.mcp.AddTool(mcp.NewTool("build_thought_embeddings",
		mcp.WithDescription("Re-embed every thought in the vault and rewrite the embedding "+
			"snapshots. Slow: one embedding call per note title and body."),
	), s.buildThoughtEmbeddings)

	// Resources.
	s.mcp.AddResource(
		mcp.NewResource("thoughts://stats", "Vault Statistics",
			mcp.WithResourceDescription("Deck, card and embedding counts."),
			mcp.WithMIMEType("application/json"),
		),
		s.readStatsResource,
	)
	s.mcp.AddResource(
		mcp.NewResource("thoughts://help", "Usage Guide",
			mcp.WithResourceDescription("How the thought and flashcard tools fit together."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readHelpResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}
