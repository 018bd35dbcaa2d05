// Package cmd provides the CLI commands for codelens.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/codelens-dev/codelens/internal/applog"
	"github.com/codelens-dev/codelens/internal/chunker"
	"github.com/codelens-dev/codelens/internal/config"
	"github.com/codelens-dev/codelens/internal/fsscan"
	"github.com/codelens-dev/codelens/internal/ingest"
	"github.com/codelens-dev/codelens/internal/parser"
	"github.com/codelens-dev/codelens/internal/query"
	"github.com/codelens-dev/codelens/internal/querycache"
	"github.com/codelens-dev/codelens/internal/store"
)

// app bundles the collaborators every subcommand needs against one
// project, opened fresh for each invocation.
type app struct {
	Root     string
	Config   *config.Config
	Store    *store.Store
	Registry *parser.Registry
	Filter   *fsscan.Filter
	Pipeline *ingest.Pipeline
	Router   *query.Router
	Cache    *querycache.Cache[[]query.SearchResult]

	logCleanup func()
}

// openApp resolves the project root from path, loads configuration, and
// opens the store plus the collaborators built on top of it.
func openApp(path string) (*app, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path %q: %w", path, err)
	}

	root, err := config.FindProjectRoot(absPath)
	if err != nil {
		root = absPath
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	dataDir := filepath.Join(root, ".codelens")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	_, cleanup, logErr := applog.Setup(applog.DefaultConfig(dataDir))
	if logErr != nil {
		cleanup = func() {}
	}

	registry, err := parser.DefaultRegistry()
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("build parser registry: %w", err)
	}
	for lang, settings := range cfg.Languages {
		if !settings.Enabled {
			registry.Deregister(lang)
		}
	}

	filter := fsscan.NewFilter(cfg.Indexing.ExcludePatterns, cfg.Indexing.MaxFileSize, registry.RecognizedExtensions())

	dbPath := cfg.Database.Path
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(root, dbPath)
	}
	st, err := store.Open(dbPath, cfg.Database.WAL)
	if err != nil {
		cleanup()
		return nil, err
	}

	pipeline := ingest.New(st, registry, filter, chunker.DefaultOptions())
	pipeline.Concurrency = cfg.Indexing.Concurrency

	router := query.New(st)

	var cache *querycache.Cache[[]query.SearchResult]
	if cfg.Performance.EnableCache {
		ttl := time.Duration(cfg.Performance.CacheTTLMs) * time.Millisecond
		cache = querycache.New[[]query.SearchResult](cfg.Performance.CacheMaxSize, ttl)
	}

	return &app{
		Root:       root,
		Config:     cfg,
		Store:      st,
		Registry:   registry,
		Filter:     filter,
		Pipeline:   pipeline,
		Router:     router,
		Cache:      cache,
		logCleanup: cleanup,
	}, nil
}

// Close releases the store and flushes the log file.
func (a *app) Close() {
	if a.Store != nil {
		_ = a.Store.Close()
	}
	if a.logCleanup != nil {
		a.logCleanup()
	}
}

// searchLimits derives query.Limits from the app's configuration.
func (a *app) searchLimits() query.Limits {
	return query.Limits{
		DefaultLimit: a.Config.Search.DefaultLimit,
		MaxLimit:     a.Config.Search.MaxLimit,
	}
}

// exitCodeErr lets a RunE function signal a specific process exit code
// without cobra rendering its own "Error: <nil>" text for deliberate,
// errorless nonzero exits (lint's "hits found" case, index's cancellation).
type exitCodeErr struct {
	code int
	err  error
}

func (e *exitCodeErr) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *exitCodeErr) Unwrap() error { return e.err }

// withExitCode wraps err so Execute reports code as the process exit
// status. withExitCode(0, nil) collapses to nil.
func withExitCode(code int, err error) error {
	if code == 0 && err == nil {
		return nil
	}
	return &exitCodeErr{code: code, err: err}
}

// exitCodeOf maps a command's returned error to a process exit code.
func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var ec *exitCodeErr
	if errors.As(err, &ec) {
		return ec.code
	}
	return 1
}
