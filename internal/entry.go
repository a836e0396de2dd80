// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/aidanlowrie/MCP-Servers/internal/api"
	"github.com/aidanlowrie/MCP-Servers/internal/embedding"
	"github.com/aidanlowrie/MCP-Servers/internal/mcpserver"
	"github.com/aidanlowrie/MCP-Servers/internal/settings"
	"github.com/aidanlowrie/MCP-Servers/internal/srstore"
	"github.com/aidanlowrie/MCP-Servers/internal/vault"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Structured JSON logger on stderr; stdout is the MCP transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("embeddings_dir", cfg.Embeddings.Dir),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return fmt.Errorf("create vault dir: %w", err)
	}

	notes, err := vault.New(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init vault: %w", err)
	}

	cards, err := srstore.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init card store: %w", err)
	}
	defer cards.Close()

	st := app.settings
	if st == nil {
		if cfg.Settings.Path != "" {
			st = settings.NewFileStore(cfg.Settings.Path)
		} else {
			st = &settings.Memory{}
		}
	}

	// Embedding index over the snapshot CSVs, loaded best-effort: semantic
	// search reports not-ready until a rebuild produces snapshots.
	if err := os.MkdirAll(cfg.Embeddings.Dir, 0o755); err != nil {
		return fmt.Errorf("create embeddings dir: %w", err)
	}
	embedder := embedding.NewClient(cfg.Embeddings.OllamaURL, cfg.Embeddings.Model)
	titlePath := filepath.Join(cfg.Embeddings.Dir, embedding.TitleSnapshotFile)
	bodyPath := filepath.Join(cfg.Embeddings.Dir, embedding.BodySnapshotFile)
	ix := embedding.NewIndex(embedder, titlePath, bodyPath)
	if err := ix.Load(); err != nil {
		logger.Warn("embedding snapshots not loaded", slog.String("error", err.Error()))
	}
	builder := embedding.NewBuilder(notes, embedder, titlePath, bodyPath)

	mcpSrv := mcpserver.New(cards, notes, ix, embedder, builder, st)

	// The process lives as long as its stdio transport: closing stdin is
	// the host's way of stopping an MCP server.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		logger.Info("Starting MCP server on stdio")
		if err := mcpSrv.ServeStdio(); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("mcp server error: %w", err)
		}
		logger.Info("MCP stdio transport closed")
		return nil
	})

	// Reload the index when the Obsidian plugin rewrites a snapshot.
	g.Go(func() error {
		return embedding.Watch(gCtx, ix, cfg.Embeddings.Dir, logger)
	})

	var httpServer *http.Server
	if cfg.App.HTTP.Enabled() {
		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.RealIP)
		r.Use(middleware.Recoverer)

		// Health check endpoints (unauthenticated).
		r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})

		r.Mount("/api", api.NewRouter(cards, notes, ix, st, cfg.Auth.AuthEnabled(), cfg.Auth.Token))

		httpServer = &http.Server{
			Addr:    cfg.App.HTTP.Address(),
			Handler: r,
		}
		g.Go(func() error {
			logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("HTTP server error: %w", err)
			}
			return nil
		})
	}

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		if httpServer != nil {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancelShutdown()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
			}
		}
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
