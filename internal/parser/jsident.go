package parser

import "github.com/codelens-dev/codelens/internal/store"

// jsFamilyName extracts a declaration's identifier for the JS/TS/JSX/TSX
// grammars, which share the same handful of name-bearing child node
// types (the smacker javascript/typescript/tsx grammars all use these).
func jsFamilyName(n *node, source []byte) string {
	switch n.Type {
	case "lexical_declaration", "variable_declaration":
		if decl := n.childByType("variable_declarator"); decl != nil {
			return jsFamilyName(decl, source)
		}
		return ""
	}

	for _, childType := range []string{"identifier", "type_identifier", "property_identifier", "private_property_identifier"} {
		if c := n.childByType(childType); c != nil {
			return c.content(source)
		}
	}
	return ""
}

// jsExtractSpecial handles `const f = () => {}` / `const f = function(){}`:
// the declaration node itself (lexical_declaration/variable_declaration)
// sits in the constant/variable type tables, since most const/let/var
// declarations are plain bindings, so walkSymbols consults this hook
// first and a function-valued binding is reported as a function.
func jsExtractSpecial(n *node, source []byte) (Symbol, bool) {
	if n.Type != "lexical_declaration" && n.Type != "variable_declaration" {
		return Symbol{}, false
	}
	decl := n.childByType("variable_declarator")
	if decl == nil {
		return Symbol{}, false
	}
	var name string
	var isFunc bool
	for _, c := range decl.Children {
		switch c.Type {
		case "identifier":
			name = c.content(source)
		case "arrow_function", "function", "function_expression":
			isFunc = true
		}
	}
	if name == "" || !isFunc {
		return Symbol{}, false
	}
	return Symbol{
		Name:      name,
		Kind:      store.KindFunction,
		StartLine: int(n.StartPoint.Row) + 1,
		EndLine:   int(n.EndPoint.Row) + 1,
	}, true
}
