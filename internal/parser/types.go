// Package parser implements the Parser Registry and the Language Parser:
// it dispatches a file's extension to a language-specific adapter and
// extracts a flat, ordered list of Symbols from the file's text.
package parser

import "github.com/codelens-dev/codelens/internal/store"

// Symbol is a construct a Parser extracted from one file. It carries only
// primitive fields (no AST node references) so it outlives the parse call
// that produced it, per the "tree walking without a shared runtime" design
// note: a parser never holds a node pointer past the scope of one Parse.
type Symbol struct {
	Name      string
	Kind      store.SymbolKind
	StartLine int
	EndLine   int // 0 means unset
	Column    int // 0 means unset
	Metadata  map[string]string
}

// Metadata keys for the framework-detection advisory tags.
const (
	MetaReactComponent = "isReactComponent"
	MetaHook           = "isHook"
)

// ParseError is a non-fatal issue recorded against one file's parse.
type ParseError struct {
	Message string
	Line    int
}

func (e ParseError) Error() string { return e.Message }

// ParseResult is what a Parser returns for one file: the symbols it
// extracted, plus zero or more non-fatal errors. A ParseResult is always
// returned even on malformed input — parsing never fails the whole ingest.
type ParseResult struct {
	Symbols []Symbol
	Errors  []ParseError
}

// Parser is a per-language adapter over a concrete syntax tree (or, for
// languages without a compiled-in grammar, a line-based fallback). Parse
// must be deterministic: the same input always produces the same output,
// with no wall-clock or environment dependency.
type Parser interface {
	// Language is the name this parser reports as each symbol's owning
	// language and the key used for languages.<lang>.enabled config.
	Language() string
	// Extensions lists the file extensions (lowercase, dot-prefixed) this
	// parser claims.
	Extensions() []string
	// Parse extracts symbols from text. It never returns an error for
	// malformed input; parse problems go in ParseResult.Errors instead.
	Parse(text string) ParseResult
}
