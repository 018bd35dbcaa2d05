package parser

import (
	"context"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codelens-dev/codelens/internal/store"
)

// hookName matches the framework-detection rule for React hooks: an
// identifier of the form use[A-Z]\w*.
var hookName = regexp.MustCompile(`^use[A-Z]\w*$`)

var jsxNodeTypes = map[string]bool{
	"jsx_element":             true,
	"jsx_self_closing_element": true,
	"jsx_fragment":            true,
	"jsx_opening_element":     true,
}

// treesitterParser is the shared Language Parser implementation for every
// compiled-in grammar: it converts tree-sitter's output into our own node
// tree once per Parse, then walks it against a LanguageSpec's type tables.
type treesitterParser struct {
	spec   *LanguageSpec
	tsLang *sitter.Language
}

func newTreesitterParser(spec *LanguageSpec, tsLang *sitter.Language) *treesitterParser {
	return &treesitterParser{spec: spec, tsLang: tsLang}
}

func (p *treesitterParser) Language() string     { return p.spec.Name }
func (p *treesitterParser) Extensions() []string  { return p.spec.Extensions }

// Parse is deterministic and error-tolerant: a malformed file still yields
// whatever symbols the walk could extract, plus the tree-sitter ERROR
// nodes recorded as non-fatal ParseErrors.
func (p *treesitterParser) Parse(text string) ParseResult {
	source := []byte(text)

	sp := sitter.NewParser()
	defer sp.Close()
	sp.SetLanguage(p.tsLang)

	tsTree, err := sp.ParseCtx(context.Background(), nil, source)
	if err != nil || tsTree == nil {
		return ParseResult{Errors: []ParseError{{Message: "parse failed", Line: 1}}}
	}
	defer tsTree.Close()

	root := convertNode(tsTree.RootNode())
	if root == nil {
		return ParseResult{}
	}

	var symbols []Symbol
	if p.spec.Name == "go" {
		if pkg := root.childByType("package_clause"); pkg != nil {
			if id := pkg.descendantByType("package_identifier"); id != nil {
				if name := id.content(source); name != "" {
					symbols = append(symbols, Symbol{
						Name:      name,
						Kind:      store.KindModule,
						StartLine: int(pkg.StartPoint.Row) + 1,
						EndLine:   int(pkg.EndPoint.Row) + 1,
					})
				}
			}
		}
	}

	walkSymbols(root, source, p.spec, nil, 0, &symbols)

	var errs []ParseError
	if root.HasError {
		collectErrorNodes(root, &errs, 10)
	}

	return ParseResult{Symbols: symbols, Errors: errs}
}

func collectErrorNodes(n *node, out *[]ParseError, limit int) {
	if len(*out) >= limit {
		return
	}
	if n.Type == "ERROR" {
		*out = append(*out, ParseError{Message: "syntax error", Line: int(n.StartPoint.Row) + 1})
	}
	for _, c := range n.Children {
		if len(*out) >= limit {
			return
		}
		collectErrorNodes(c, out, limit)
	}
}

// walkSymbols recursively classifies n and its descendants, threading
// classStack (the names of enclosing class/struct/interface nodes) down so
// methods can qualify as "<Container>.<member>".
func walkSymbols(n *node, source []byte, spec *LanguageSpec, classStack []string, scopeDepth int, out *[]Symbol) {
	emitted := false

	// The special-case hook runs before the type tables, which would
	// otherwise classify JS/TS's `const f = () => {}` as a constant.
	if spec.ExtractSpecial != nil {
		if sym, ok := spec.ExtractSpecial(n, source); ok {
			attachFrameworkMeta(&sym, n, source, spec, sym.Kind)
			*out = append(*out, sym)
			emitted = true
		}
	}

	moduleOnly := contains(spec.ModuleScopeOnly, n.Type)
	if kind, ok := spec.classify(n, source); !emitted && ok && !(moduleOnly && scopeDepth > 0) {
		if kind == store.KindFunction && spec.MethodsNestInClass && len(classStack) > 0 {
			kind = store.KindMethod
		}
		name := spec.ExtractName(n, source)
		if name != "" {
			sym := Symbol{
				Name:      qualifyName(name, kind, n, source, classStack, spec),
				Kind:      kind,
				StartLine: int(n.StartPoint.Row) + 1,
				EndLine:   int(n.EndPoint.Row) + 1,
			}
			attachFrameworkMeta(&sym, n, source, spec, kind)
			*out = append(*out, sym)
			emitted = true
		}
	}

	nextStack := classStack
	if spec.isContainer(n.Type) {
		if name := spec.ExtractName(n, source); name != "" {
			nextStack = append(append([]string{}, classStack...), name)
		}
	}
	nextDepth := scopeDepth
	if contains(spec.ScopeTypes, n.Type) {
		nextDepth++
	}
	for _, c := range n.Children {
		walkSymbols(c, source, spec, nextStack, nextDepth, out)
	}
}

func qualifyName(name string, kind store.SymbolKind, n *node, source []byte, classStack []string, spec *LanguageSpec) string {
	if kind != store.KindMethod {
		return name
	}
	if len(classStack) > 0 {
		return classStack[len(classStack)-1] + "." + name
	}
	if spec.ExtractReceiver != nil {
		if recv := spec.ExtractReceiver(n, source); recv != "" {
			return recv + "." + name
		}
	}
	return name
}

// attachFrameworkMeta tags JSX-family symbols with advisory metadata:
// isReactComponent for a function/class whose body yields JSX or that
// extends a Component-family base, isHook for a use[A-Z]\w* identifier.
func attachFrameworkMeta(sym *Symbol, n *node, source []byte, spec *LanguageSpec, kind store.SymbolKind) {
	if !spec.JSXFamily {
		return
	}
	name := sym.Name
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}

	switch kind {
	case store.KindFunction, store.KindMethod:
		if hookName.MatchString(name) {
			setMeta(sym, MetaHook, "true")
		}
		if n.hasDescendantType(jsxNodeTypes) {
			setMeta(sym, MetaReactComponent, "true")
		}
	case store.KindClass:
		if n.hasDescendantType(jsxNodeTypes) {
			setMeta(sym, MetaReactComponent, "true")
		}
		if heritage := n.descendantByType("class_heritage"); heritage != nil {
			text := heritage.content(source)
			if strings.Contains(text, "Component") {
				setMeta(sym, MetaReactComponent, "true")
			}
		}
	}
}

func setMeta(sym *Symbol, key, value string) {
	if sym.Metadata == nil {
		sym.Metadata = make(map[string]string)
	}
	sym.Metadata[key] = value
}
