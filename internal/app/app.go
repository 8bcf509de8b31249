package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/blueprintgo/internal/backend"
	"github.com/specialistvlad/blueprintgo/internal/catalog"
	"github.com/specialistvlad/blueprintgo/internal/catalogcache"
	"github.com/specialistvlad/blueprintgo/internal/ctxlog"
	"github.com/specialistvlad/blueprintgo/internal/editor"
	"github.com/specialistvlad/blueprintgo/internal/graph"
	"github.com/specialistvlad/blueprintgo/internal/hcl"
	"github.com/specialistvlad/blueprintgo/internal/livechannel"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	ctx    context.Context

	editor   *editor.Editor
	catalogs *catalog.Fallback
	backend  *backend.Client
	cache    *catalogcache.Store
	live     *livechannel.Channel

	httpServer *http.Server
}

// NewApp builds the application. Command output goes to outW and logs to
// logW. Nothing is fetched until Run.
func NewApp(outW, logW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	a := &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		ctx:    ctxlog.WithLogger(context.Background(), logger),
	}

	opts := []editor.Option{
		editor.WithObserver(graph.NewLoggingObserver(logger.With("component", "graph"))),
	}
	if cfg.Backend != "" {
		a.backend = backend.New(cfg.Backend)
		opts = append(opts, editor.WithSubmitter(a.backend))
	}
	if cfg.CatalogCache != "" {
		store, err := catalogcache.Open(cfg.CatalogCache)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.cache = store
	}
	if cfg.Live != "" {
		a.live = livechannel.New(livechannel.Config{
			URL:       cfg.Live,
			Transport: cfg.LiveTransport,
			ClientID:  cfg.ClientID,
		})
	}
	a.editor = editor.New(opts...)
	a.catalogs = a.catalogChain()

	logger.Debug("Application wired.",
		"backend", cfg.Backend != "",
		"catalog_cache", cfg.CatalogCache != "",
		"manifest", cfg.CatalogPath != "",
		"live", cfg.Live != "",
	)
	return a, nil
}

// catalogChain orders the catalog sources: backend, then cache, then HCL
// manifests. The cache is refreshed only from the backend.
func (a *App) catalogChain() *catalog.Fallback {
	var sink catalog.Sink
	if a.backend != nil && a.cache != nil {
		sink = a.cache
	}
	fb := catalog.NewFallback(sink)
	if a.backend != nil {
		fb.Add("backend", a.backend)
	}
	if a.cache != nil {
		fb.Add("cache", a.cache)
	}
	if a.config.CatalogPath != "" {
		fb.Add("manifest", hcl.NewManifestSource(a.config.CatalogPath))
	}
	return fb
}

// Editor returns the application's editor. This is primarily for testing.
func (a *App) Editor() *editor.Editor {
	return a.editor
}

// Close releases every resource the app opened. It is safe to call more
// than once.
func (a *App) Close() error {
	var errs []error
	if a.live != nil {
		a.live.Close()
	}
	if err := a.closeHealthCheckServer(); err != nil {
		errs = append(errs, err)
	}
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			errs = append(errs, err)
		}
		a.backend = nil
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			errs = append(errs, err)
		}
		a.cache = nil
	}
	return errors.Join(errs...)
}
