package parser

// DefaultRegistry builds and returns the Registry wired with every parser
// codelens ships: the compiled-in tree-sitter grammars first, then the
// line-based fallbacks for languages without one. A Register collision
// here is a programmer error in this function, not user input, but it is
// still surfaced rather than panicked so callers (cmd/codelens's startup
// path) can report it as a config/init failure per clerr.ParserInitError.
func DefaultRegistry() (*Registry, error) {
	r := NewRegistry()

	parsers := []Parser{
		NewGoParser(),
		NewTypeScriptParser(),
		NewTSXParser(),
		NewJavaScriptParser(),
		NewJSXParser(),
		NewPythonParser(),
		NewRustParser(),
		NewCppParser(),
		NewSwiftParser(),
	}

	for _, p := range parsers {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}
