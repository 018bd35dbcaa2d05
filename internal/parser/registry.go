package parser

import (
	"fmt"
	"strings"
	"sync"
)

// Registry maps file extensions to the Parser that claims them.
// Populated once at startup and read-only afterward; the mutex keeps
// Register safe to call from tests or a dynamic bootstrap path.
type Registry struct {
	mu         sync.RWMutex
	byExt      map[string]Parser
	byLanguage map[string]Parser
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byExt:      make(map[string]Parser),
		byLanguage: make(map[string]Parser),
	}
}

// Register adds p, claiming every extension it declares. Registering a
// parser whose extensions overlap an already-registered one is a fatal
// configuration error, returned rather than panicked so the caller (the
// registry constructor, or a grammar-ABI-mismatch path) can decide how to
// react.
func (r *Registry) Register(p Parser) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	exts := p.Extensions()
	if len(exts) == 0 {
		return fmt.Errorf("parser %q declares no extensions", p.Language())
	}
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if existing, ok := r.byExt[ext]; ok {
			return fmt.Errorf("extension %q already claimed by %q, cannot register %q",
				ext, existing.Language(), p.Language())
		}
	}
	for _, ext := range exts {
		r.byExt[strings.ToLower(ext)] = p
	}
	r.byLanguage[p.Language()] = p
	return nil
}

// Deregister removes the parser registered under language, releasing the
// extensions it claimed so they are treated as unsupported for the rest
// of the session. Used when a language is disabled in configuration or a
// parser fails initialization. Deregistering an unknown language is a
// no-op.
func (r *Registry) Deregister(language string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byLanguage[language]
	if !ok {
		return
	}
	delete(r.byLanguage, language)
	for _, ext := range p.Extensions() {
		delete(r.byExt, strings.ToLower(ext))
	}
}

// ParserForExtension returns the Parser claiming ext (case-insensitive,
// dot-optional), or (nil, false) if none is registered. Lookup is O(1).
func (r *Registry) ParserForExtension(ext string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ext = normalizeExt(ext)
	p, ok := r.byExt[ext]
	return p, ok
}

// ParserForLanguage returns the Parser registered under language name, or
// (nil, false) if none is registered.
func (r *Registry) ParserForLanguage(language string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byLanguage[language]
	return p, ok
}

// RecognizedExtensions returns every extension claimed by a registered
// parser, lowercase and dot-prefixed.
func (r *Registry) RecognizedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	return exts
}

// LanguageForExtension returns the language name claimed for ext, or "" if
// unrecognized. Used by the ingest pipeline to tag File.Language.
func (r *Registry) LanguageForExtension(ext string) string {
	if p, ok := r.ParserForExtension(ext); ok {
		return p.Language()
	}
	return ""
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
