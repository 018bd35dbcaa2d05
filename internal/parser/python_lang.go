package parser

import "github.com/smacker/go-tree-sitter/python"

// NewPythonParser builds the Language Parser for Python. Python has no
// distinct method node type (MethodsNestInClass) and no const keyword,
// so all module-level assignments classify as `variable`.
func NewPythonParser() Parser {
	spec := &LanguageSpec{
		Name:               "python",
		Extensions:         []string{".py", ".pyi"},
		FunctionTypes:      []string{"function_definition"},
		ClassTypes:         []string{"class_definition"},
		VariableTypes:      []string{"assignment"},
		MethodsNestInClass: true,
		ScopeTypes:         []string{"function_definition", "class_definition"},
		ModuleScopeOnly:    []string{"assignment"},
		ExtractName:        pythonExtractName,
	}
	return newTreesitterParser(spec, python.GetLanguage())
}

func pythonExtractName(n *node, source []byte) string {
	switch n.Type {
	case "function_definition", "class_definition":
		if id := n.childByType("identifier"); id != nil {
			return id.content(source)
		}
	case "assignment":
		if id := n.childByType("identifier"); id != nil {
			return id.content(source)
		}
	}
	return ""
}
