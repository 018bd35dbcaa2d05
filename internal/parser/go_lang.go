package parser

import (
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/codelens-dev/codelens/internal/store"
)

// NewGoParser builds the Language Parser for Go. Go's type_declaration
// is disambiguated into struct/interface/type by inspecting the
// type_spec's value node.
func NewGoParser() Parser {
	spec := &LanguageSpec{
		Name:            "go",
		Extensions:      []string{".go"},
		FunctionTypes:   []string{"function_declaration"},
		MethodTypes:     []string{"method_declaration"},
		TypeDefTypes:    []string{"type_declaration"},
		ConstantTypes:   []string{"const_declaration"},
		VariableTypes:   []string{"var_declaration"},
		ExtractName:     goExtractName,
		ExtractReceiver: goExtractReceiver,
		Classify:        goClassify,
	}
	return newTreesitterParser(spec, golang.GetLanguage())
}

// goClassify splits Go's single type_declaration node into struct,
// interface, or type (alias) by inspecting the type_spec's value node.
func goClassify(n *node, source []byte) (store.SymbolKind, bool) {
	if n.Type != "type_declaration" {
		return "", false
	}
	spec := n.childByType("type_spec")
	if spec == nil {
		return store.KindType, true
	}
	if spec.childByType("struct_type") != nil {
		return store.KindStruct, true
	}
	if spec.childByType("interface_type") != nil {
		return store.KindInterface, true
	}
	return store.KindType, true
}

func goExtractName(n *node, source []byte) string {
	switch n.Type {
	case "function_declaration":
		if id := n.childByType("identifier"); id != nil {
			return id.content(source)
		}
	case "method_declaration":
		if id := n.childByType("field_identifier"); id != nil {
			return id.content(source)
		}
	case "type_declaration":
		for _, specType := range []string{"type_spec", "type_alias"} {
			if spec := n.childByType(specType); spec != nil {
				if id := spec.childByType("type_identifier"); id != nil {
					return id.content(source)
				}
			}
		}
	case "const_declaration":
		if spec := n.childByType("const_spec"); spec != nil {
			if id := spec.childByType("identifier"); id != nil {
				return id.content(source)
			}
		}
	case "var_declaration":
		if spec := n.childByType("var_spec"); spec != nil {
			if id := spec.childByType("identifier"); id != nil {
				return id.content(source)
			}
		}
	}
	return ""
}

// goExtractReceiver pulls the receiver type name from a
// method_declaration so methods qualify as "<Receiver>.<member>".
func goExtractReceiver(n *node, source []byte) string {
	if n.Type != "method_declaration" {
		return ""
	}
	recv := n.childByType("parameter_list")
	if recv == nil {
		return ""
	}
	for _, param := range recv.Children {
		if param.Type != "parameter_declaration" {
			continue
		}
		for _, c := range param.Children {
			switch c.Type {
			case "type_identifier":
				return c.content(source)
			case "pointer_type":
				if id := c.childByType("type_identifier"); id != nil {
					return id.content(source)
				}
			}
		}
	}
	return ""
}
