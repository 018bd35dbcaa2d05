// Package ingest implements the Batch Ingest Pipeline: it walks a
// directory, decides which files changed, and drives the parser, chunker,
// and store to keep the index in lockstep with the tree.
package ingest

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/codelens-dev/codelens/internal/chunker"
	"github.com/codelens-dev/codelens/internal/clerr"
	"github.com/codelens-dev/codelens/internal/fsscan"
	"github.com/codelens-dev/codelens/internal/parser"
	"github.com/codelens-dev/codelens/internal/store"
)

// maxWorkers caps the ingest pipeline's worker pool at
// min(runtime.NumCPU(), 8).
const maxWorkers = 8

// ReindexOutcome classifies what reindexing a single path did.
type ReindexOutcome string

const (
	OutcomeUnchanged ReindexOutcome = "unchanged"
	OutcomeUpdated   ReindexOutcome = "updated"
	OutcomeCreated   ReindexOutcome = "created"
	OutcomeRemoved   ReindexOutcome = "removed"
)

// FileError records an I/O error tallied against one path without
// aborting the batch.
type FileError struct {
	Path string
	Err  error
}

// IndexReport summarizes one index_paths run.
type IndexReport struct {
	Created   int
	Updated   int
	Unchanged int
	Removed   int
	Errors    []FileError

	// ElapsedMs is the wall-clock duration of the run, in milliseconds.
	ElapsedMs int64

	// ByLanguage tallies created+updated+unchanged files per language,
	// keyed by the parser registry's language name.
	ByLanguage map[string]int

	// Cancelled is true when the run was cut short by its context. The
	// counts above then cover only the files committed before the stop.
	Cancelled bool
}

// Pipeline ties the path filter, parser registry, chunker, and store
// together into the ingest contract.
type Pipeline struct {
	Store       *store.Store
	Registry    *parser.Registry
	Filter      *fsscan.Filter
	ChunkerOpts chunker.Options

	// Concurrency overrides the worker pool size used by IndexPaths,
	// capped at maxWorkers. Zero keeps the min(runtime.NumCPU(),
	// maxWorkers) default.
	Concurrency int
}

// New builds a Pipeline from its collaborators.
func New(st *store.Store, reg *parser.Registry, filter *fsscan.Filter, chunkerOpts chunker.Options) *Pipeline {
	return &Pipeline{Store: st, Registry: reg, Filter: filter, ChunkerOpts: chunkerOpts}
}

type walkResult struct {
	relPath string
	size    int64
}

// IndexPaths walks root and brings the store in sync with its tree:
// unchanged files are skipped (idempotent re-runs issue zero writes),
// changed or new files are parsed/chunked/ingested, and files present in
// the store but absent from the walk are removed.
func (p *Pipeline) IndexPaths(ctx context.Context, root string) (IndexReport, error) {
	start := time.Now()

	seen, err := p.walkAndProcess(ctx, root)
	if err != nil {
		seen.report.Cancelled = ctx.Err() != nil
		seen.report.ElapsedMs = time.Since(start).Milliseconds()
		return seen.report, err
	}

	storedPaths, err := p.Store.AllPaths()
	if err != nil {
		seen.report.ElapsedMs = time.Since(start).Milliseconds()
		return seen.report, err
	}
	for _, path := range storedPaths {
		if seen.paths[path] {
			continue
		}
		if err := p.Store.DeleteFile(path); err != nil {
			seen.report.Errors = append(seen.report.Errors, FileError{Path: path, Err: err})
			continue
		}
		seen.report.Removed++
	}

	seen.report.ElapsedMs = time.Since(start).Milliseconds()
	return seen.report, nil
}

type walkOutcome struct {
	report IndexReport
	paths  map[string]bool
}

func (p *Pipeline) walkAndProcess(ctx context.Context, root string) (walkOutcome, error) {
	paths := make(chan walkResult, maxWorkers*4)
	walkErrCh := make(chan error, 1)

	go func() {
		defer close(paths)
		walkErrCh <- filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil {
				return nil
			}
			if d.IsDir() {
				return nil
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return nil
			}
			rel = filepath.ToSlash(rel)
			info, infoErr := d.Info()
			if infoErr != nil {
				return nil
			}
			if !p.Filter.ShouldIndex(rel, info.Size()) {
				return nil
			}
			select {
			case paths <- walkResult{relPath: rel, size: info.Size()}:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})
	}()

	workers := p.Concurrency
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}
	if workers < 1 {
		workers = 1
	}

	var mu sync.Mutex
	out := walkOutcome{report: IndexReport{ByLanguage: make(map[string]int)}, paths: make(map[string]bool)}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for wr := range paths {
				outcome, ferr := p.reindexRelPath(root, wr.relPath)
				mu.Lock()
				out.paths[wr.relPath] = true
				switch {
				case ferr != nil:
					out.report.Errors = append(out.report.Errors, FileError{Path: wr.relPath, Err: ferr})
				case outcome == OutcomeCreated:
					out.report.Created++
					out.report.ByLanguage[p.Registry.LanguageForExtension(filepath.Ext(wr.relPath))]++
				case outcome == OutcomeUpdated:
					out.report.Updated++
					out.report.ByLanguage[p.Registry.LanguageForExtension(filepath.Ext(wr.relPath))]++
				case outcome == OutcomeUnchanged:
					out.report.Unchanged++
					out.report.ByLanguage[p.Registry.LanguageForExtension(filepath.Ext(wr.relPath))]++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if err := <-walkErrCh; err != nil && err != ctx.Err() {
		return out, clerr.Wrap(clerr.IoError, err)
	}
	return out, ctx.Err()
}

// ReindexPath reindexes a single path relative to root, returning how it
// was classified. A path no longer on disk is treated as a removal.
func (p *Pipeline) ReindexPath(root, relPath string) (ReindexOutcome, error) {
	absPath := filepath.Join(root, relPath)
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		existing, lookupErr := p.Store.FileByPath(relPath)
		if lookupErr != nil {
			return "", lookupErr
		}
		if existing == nil {
			return OutcomeUnchanged, nil
		}
		if err := p.Store.DeleteFile(relPath); err != nil {
			return "", err
		}
		return OutcomeRemoved, nil
	}
	return p.reindexRelPath(root, relPath)
}

func (p *Pipeline) reindexRelPath(root, relPath string) (ReindexOutcome, error) {
	absPath := filepath.Join(root, relPath)
	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", clerr.Wrap(clerr.IoError, err).WithPath(relPath)
	}

	hash := fsscan.HashBytes(content)

	existing, err := p.Store.FileByPath(relPath)
	if err != nil {
		return "", err
	}
	if existing != nil && existing.Hash == hash {
		return OutcomeUnchanged, nil
	}

	ext := filepath.Ext(relPath)
	language := p.Registry.LanguageForExtension(ext)

	var symbols []parser.Symbol
	if pr, ok := p.Registry.ParserForExtension(ext); ok {
		result := pr.Parse(string(content))
		symbols = result.Symbols
	}

	chunks := chunker.Chunk(string(content), symbols, p.ChunkerOpts)

	storeSymbols := make([]store.Symbol, len(symbols))
	for i, s := range symbols {
		storeSymbols[i] = store.Symbol{
			Name:      s.Name,
			Kind:      s.Kind,
			StartLine: s.StartLine,
			EndLine:   s.EndLine,
			Column:    s.Column,
			Metadata:  s.Metadata,
		}
	}

	if _, err := p.Store.IngestFile(relPath, string(content), hash, language, storeSymbols, chunks); err != nil {
		return "", err
	}

	if existing == nil {
		return OutcomeCreated, nil
	}
	return OutcomeUpdated, nil
}
