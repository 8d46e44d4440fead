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
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/api"
	"github.com/starford/ansuz/internal/cache"
	"github.com/starford/ansuz/internal/engine"
	"github.com/starford/ansuz/internal/logseq"
	"github.com/starford/ansuz/internal/mcpserver"
	"github.com/starford/ansuz/internal/oplog"
	"github.com/starford/ansuz/internal/resolver"
	"github.com/starford/ansuz/internal/templates"
	"github.com/starford/ansuz/internal/watch"
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

	// Structured JSON logger on stderr: stdout carries the MCP transport.
	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("logseq_api_url", cfg.Logseq.APIURL),
		slog.String("graph_path", cfg.Graph.Path),
		slog.String("templates_path", cfg.Templates.Path),
		slog.Duration("cache_ttl", cfg.Cache.TTL()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	client := logseq.NewClient(cfg.Logseq.APIURL, cfg.Logseq.Token)

	// Explicitly owned cache instances, created once at startup.
	pagesCache := cache.NewWithTTL[[]logseq.Page](cfg.Cache.TTL())
	graphCache := cache.NewWithTTL[*logseq.Graph](cfg.Cache.TTL())
	templateCache := cache.NewWithTTL[map[string]templates.Template](cfg.Cache.TTL())

	tmplStore := templates.NewStore(cfg.Templates.Path, templateCache)

	// The resolver is optional: without a graph path the filesystem-backed
	// tools report graph_path_not_configured instead of blocking startup.
	var res *resolver.Resolver
	if cfg.Graph.Path != "" {
		r, err := resolver.New(cfg.Graph.Path)
		if err != nil {
			return fmt.Errorf("init resolver: %w", err)
		}
		res = r
	} else {
		logger.Warn("graph.path not set; statistics and file metadata are unavailable")
	}

	var log *oplog.Log
	if cfg.Oplog.Path != "" {
		l, err := oplog.Open(cfg.Oplog.Path)
		if err != nil {
			return fmt.Errorf("init oplog: %w", err)
		}
		defer l.Close()
		log = l
	}

	eng := engine.New(client, tmplStore, logger)

	srv := mcpserver.New(mcpserver.Deps{
		API:       client,
		Engine:    eng,
		Templates: tmplStore,
		Resolver:  res,
		Log:       log,
		Pages:     pagesCache,
		Graph:     graphCache,
	})

	g, gCtx := errgroup.WithContext(ctx)

	// MCP stdio transport is the primary surface.
	g.Go(func() error {
		logger.Info("Starting MCP stdio server")
		if err := srv.ServeStdio(); err != nil {
			return fmt.Errorf("mcp server error: %w", err)
		}
		return nil
	})

	// External edits to graph files invalidate the caches.
	if res != nil {
		g.Go(func() error {
			return watch.Watch(gCtx, res.Root(), logger, func() {
				pagesCache.InvalidateAll()
				graphCache.InvalidateAll()
			})
		})
	}

	// Optional loopback admin server.
	var httpServer *http.Server
	if cfg.App.HTTP.Enabled() {
		h := api.NewHandler(client, res, pagesCache, log)
		apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token)

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)

		r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		r.Mount("/api", apiRouter)

		httpServer = &http.Server{
			Addr:    cfg.App.HTTP.Address(),
			Handler: r,
		}
		g.Go(func() error {
			logger.Info("Starting admin HTTP server", slog.String("address", cfg.App.HTTP.Address()))
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
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
			}
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped")
	return nil
}
