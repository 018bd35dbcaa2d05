package parser

import (
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

func tsSpec(name string, extensions []string) *LanguageSpec {
	return &LanguageSpec{
		Name:           name,
		Extensions:     extensions,
		FunctionTypes:  []string{"function_declaration"},
		MethodTypes:    []string{"method_definition"},
		ClassTypes:     []string{"class_declaration"},
		InterfaceTypes: []string{"interface_declaration"},
		EnumTypes:      []string{"enum_declaration"},
		TypeDefTypes:   []string{"type_alias_declaration"},
		ConstantTypes:  []string{"lexical_declaration"},
		VariableTypes:  []string{"variable_declaration"},
		JSXFamily:      true,
		ExtractName:    jsFamilyName,
		ExtractSpecial: jsExtractSpecial,
	}
}

// NewTypeScriptParser builds the Language Parser for plain .ts files.
// .mts/.cts are aliased onto the same grammar rather than given a
// grammar of their own.
func NewTypeScriptParser() Parser {
	return newTreesitterParser(tsSpec("typescript", []string{".ts", ".mts", ".cts"}), typescript.GetLanguage())
}

// NewTSXParser builds the Language Parser for .tsx files.
func NewTSXParser() Parser {
	return newTreesitterParser(tsSpec("tsx", []string{".tsx"}), tsx.GetLanguage())
}
