package parser

import (
	"regexp"
	"strings"

	"github.com/codelens-dev/codelens/internal/store"
)

// lineRule matches one construct kind on a single line of source, used
// by the line-based fallback parser for languages with no compiled-in
// tree-sitter grammar. A regex scan over lines still yields a flat
// symbol list, just without nesting-aware method qualification.
type lineRule struct {
	kind    store.SymbolKind
	pattern *regexp.Regexp
	// indentedKind, if set, is used instead of kind when the line has
	// leading whitespace (a heuristic stand-in for "nested in a type").
	indentedKind store.SymbolKind
}

// lineParser is a Parser for languages without a compiled-in grammar
// (Rust, C++, Swift). It never builds a CST; each line is matched
// independently against an ordered rule list, so it terminates in time
// linear in file size regardless of cyclic imports.
type lineParser struct {
	language   string
	extensions []string
	rules      []lineRule
}

func (p *lineParser) Language() string    { return p.language }
func (p *lineParser) Extensions() []string { return p.extensions }

func (p *lineParser) Parse(text string) ParseResult {
	var symbols []Symbol
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		indented := trimmed != line
		for _, rule := range p.rules {
			m := rule.pattern.FindStringSubmatch(trimmed)
			if m == nil {
				continue
			}
			kind := rule.kind
			if indented && rule.indentedKind != "" {
				kind = rule.indentedKind
			}
			symbols = append(symbols, Symbol{
				Name:      m[1],
				Kind:      kind,
				StartLine: i + 1,
				EndLine:   i + 1,
			})
			break
		}
	}
	return ParseResult{Symbols: symbols}
}

// NewRustParser is the optional, config-gated fallback for Rust:
// constructs are recognized line-by-line rather than through a compiled
// grammar binding.
func NewRustParser() Parser {
	return &lineParser{
		language:   "rust",
		extensions: []string{".rs"},
		rules: []lineRule{
			{kind: store.KindInterface, pattern: regexp.MustCompile(`^(?:pub\s+)?trait\s+(\w+)`)},
			{kind: store.KindStruct, pattern: regexp.MustCompile(`^(?:pub\s+)?struct\s+(\w+)`)},
			{kind: store.KindEnum, pattern: regexp.MustCompile(`^(?:pub\s+)?enum\s+(\w+)`)},
			{kind: store.KindType, pattern: regexp.MustCompile(`^(?:pub\s+)?type\s+(\w+)`)},
			{kind: store.KindModule, pattern: regexp.MustCompile(`^(?:pub\s+)?mod\s+(\w+)`)},
			{kind: store.KindConstant, pattern: regexp.MustCompile(`^(?:pub\s+)?const\s+(\w+)`)},
			{kind: store.KindVariable, pattern: regexp.MustCompile(`^(?:pub\s+)?static\s+(?:mut\s+)?(\w+)`)},
			{kind: store.KindFunction, indentedKind: store.KindMethod, pattern: regexp.MustCompile(`^(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?fn\s+(\w+)`)},
		},
	}
}

// NewCppParser is the fallback for C++, including the C++20 module
// declaration forms (`module Name;` / `export module Name;`).
func NewCppParser() Parser {
	return &lineParser{
		language:   "cpp",
		extensions: []string{".cpp", ".hpp", ".cc", ".cxx", ".h"},
		rules: []lineRule{
			{kind: store.KindModule, pattern: regexp.MustCompile(`^(?:export\s+)?module\s+([\w.]+)\s*;`)},
			{kind: store.KindModule, pattern: regexp.MustCompile(`^namespace\s+(\w+)`)},
			{kind: store.KindEnum, pattern: regexp.MustCompile(`^enum(?:\s+class)?\s+(\w+)`)},
			{kind: store.KindStruct, pattern: regexp.MustCompile(`^struct\s+(\w+)`)},
			{kind: store.KindClass, pattern: regexp.MustCompile(`^class\s+(\w+)`)},
			{kind: store.KindConstant, pattern: regexp.MustCompile(`^(?:static\s+)?constexpr\s+[\w:<>,\s\*&]+\s+(\w+)\s*=`)},
			{kind: store.KindFunction, indentedKind: store.KindMethod,
				pattern: regexp.MustCompile(`^(?:[\w:]+[\w:<>,\s\*&]*\s+)?(\w+)\s*\([^;{]*\)\s*(?:const\s*)?\{`)},
		},
	}
}

// NewSwiftParser is the fallback for Swift.
func NewSwiftParser() Parser {
	return &lineParser{
		language:   "swift",
		extensions: []string{".swift"},
		rules: []lineRule{
			{kind: store.KindInterface, pattern: regexp.MustCompile(`^(?:public\s+)?protocol\s+(\w+)`)},
			{kind: store.KindStruct, pattern: regexp.MustCompile(`^(?:public\s+)?struct\s+(\w+)`)},
			{kind: store.KindEnum, pattern: regexp.MustCompile(`^(?:public\s+)?enum\s+(\w+)`)},
			{kind: store.KindClass, pattern: regexp.MustCompile(`^(?:public\s+)?(?:final\s+)?class\s+(\w+)`)},
			{kind: store.KindType, pattern: regexp.MustCompile(`^(?:public\s+)?typealias\s+(\w+)`)},
			{kind: store.KindConstant, pattern: regexp.MustCompile(`^(?:public\s+)?let\s+(\w+)`)},
			{kind: store.KindVariable, pattern: regexp.MustCompile(`^(?:public\s+)?var\s+(\w+)`)},
			{kind: store.KindFunction, indentedKind: store.KindMethod, pattern: regexp.MustCompile(`^(?:public\s+)?(?:static\s+)?func\s+(\w+)`)},
		},
	}
}
