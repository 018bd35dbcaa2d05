package parser

import "github.com/smacker/go-tree-sitter/javascript"

func jsSpec(name string, extensions []string) *LanguageSpec {
	return &LanguageSpec{
		Name:          name,
		Extensions:    extensions,
		FunctionTypes: []string{"function_declaration", "function"},
		MethodTypes:   []string{"method_definition"},
		ClassTypes:    []string{"class_declaration"},
		ConstantTypes: []string{"lexical_declaration"},
		VariableTypes: []string{"variable_declaration"},
		JSXFamily:     true,
		ExtractName:    jsFamilyName,
		ExtractSpecial: jsExtractSpecial,
	}
}

// NewJavaScriptParser builds the Language Parser for .js/.mjs.
func NewJavaScriptParser() Parser {
	return newTreesitterParser(jsSpec("javascript", []string{".js", ".mjs"}), javascript.GetLanguage())
}

// NewJSXParser builds the Language Parser for .jsx, reusing the plain
// JavaScript grammar (JSX is a syntax extension the same grammar parses).
func NewJSXParser() Parser {
	return newTreesitterParser(jsSpec("jsx", []string{".jsx"}), javascript.GetLanguage())
}
