package parser

import "github.com/codelens-dev/codelens/internal/store"

// LanguageSpec declares, for one language, which CST node types map to
// which closed Symbol kind, plus the small set of per-language
// hooks the generic walker needs: name extraction, method-receiver/
// container naming, and any construct the type-table can't express on its
// own (JS/TS's `const f = () => {}`).
type LanguageSpec struct {
	Name       string
	Extensions []string

	FunctionTypes  []string
	MethodTypes    []string
	ClassTypes     []string
	StructTypes    []string
	InterfaceTypes []string
	EnumTypes      []string
	TypeDefTypes   []string
	ConstantTypes  []string
	VariableTypes  []string

	// MethodsNestInClass is true for languages (Python) whose grammar has
	// no distinct method node type: a FunctionTypes match directly inside
	// a class body is a method, not a function.
	MethodsNestInClass bool

	// ScopeTypes are node types that introduce a nested scope (function
	// and class bodies). ModuleScopeOnly node types are only classified
	// as symbols when no ScopeTypes ancestor encloses them — Python's
	// bare "assignment" would otherwise fire on every local variable.
	ScopeTypes      []string
	ModuleScopeOnly []string

	// JSXFamily enables the React-component/hook metadata bag for
	// function and class symbols.
	JSXFamily bool

	ExtractName     func(n *node, source []byte) string
	ExtractReceiver func(n *node, source []byte) string
	ExtractSpecial  func(n *node, source []byte) (Symbol, bool)

	// Classify overrides the generic type-table lookup for node types
	// whose CST shape alone doesn't determine the kind (Go's
	// type_declaration wraps struct/interface/alias uniformly; the
	// override inspects the type_spec's value node to split them).
	Classify func(n *node, source []byte) (store.SymbolKind, bool)
}

// classify resolves n's symbol kind, preferring spec's Classify override
// when present before falling back to the generic type-table lookup.
func (s *LanguageSpec) classify(n *node, source []byte) (store.SymbolKind, bool) {
	if s.Classify != nil {
		if kind, ok := s.Classify(n, source); ok {
			return kind, true
		}
	}
	return s.kindFor(n.Type)
}

// kindFor classifies a node type against spec's tables, returning the
// mapped SymbolKind or ("", false) if n isn't a symbol-defining node.
func (s *LanguageSpec) kindFor(t string) (store.SymbolKind, bool) {
	switch {
	case contains(s.FunctionTypes, t):
		return store.KindFunction, true
	case contains(s.MethodTypes, t):
		return store.KindMethod, true
	case contains(s.StructTypes, t):
		return store.KindStruct, true
	case contains(s.ClassTypes, t):
		return store.KindClass, true
	case contains(s.InterfaceTypes, t):
		return store.KindInterface, true
	case contains(s.EnumTypes, t):
		return store.KindEnum, true
	case contains(s.TypeDefTypes, t):
		return store.KindType, true
	case contains(s.ConstantTypes, t):
		return store.KindConstant, true
	case contains(s.VariableTypes, t):
		return store.KindVariable, true
	default:
		return "", false
	}
}

// isContainer reports whether n introduces a naming scope (class/struct)
// that nested methods qualify against as "<Container>.<member>".
func (s *LanguageSpec) isContainer(t string) bool {
	return contains(s.ClassTypes, t) || contains(s.StructTypes, t) || contains(s.InterfaceTypes, t)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
