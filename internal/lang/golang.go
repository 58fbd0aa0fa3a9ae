package lang

import (
	"strings"
	"unicode"

	"github.com/jward/lattice/internal/index"
)

// Go returns the adapter for .go files.
func Go() *Adapter {
	return &Adapter{
		ID:          "go",
		Extensions:  []string{".go"},
		Symbols:     goSymbolRules(),
		References:  goReferenceRules(),
		ParseParams: parseGoParams,
		IsExported:  goExported,
	}
}

func goSymbolRules() []SymbolRule {
	return []SymbolRule{
		{
			ID:    "function-declaration",
			Query: `(function_declaration name: (identifier) @name parameters: (parameter_list) @params) @def`,
			Kind:  index.KindFunction,
			Extract: func(m Match) (Fields, error) {
				return Fields{
					Name:      m.Capture("name"),
					Signature: Signature(m.Text),
					Params:    parseGoParams(trimParens(m.Capture("params"))),
				}, nil
			},
		},
		{
			ID:    "method-declaration",
			Query: `(method_declaration name: (field_identifier) @name parameters: (parameter_list) @params) @def`,
			Kind:  index.KindMethod,
			Extract: func(m Match) (Fields, error) {
				return Fields{
					Name:      m.Capture("name"),
					Signature: Signature(m.Text),
					Params:    parseGoParams(trimParens(m.Capture("params"))),
				}, nil
			},
		},
		{
			ID:    "struct-declaration",
			Query: `(type_declaration (type_spec name: (type_identifier) @name type: (struct_type)) @def)`,
			Kind:  index.KindStruct,
		},
		{
			ID:    "interface-declaration",
			Query: `(type_declaration (type_spec name: (type_identifier) @name type: (interface_type)) @def)`,
			Kind:  index.KindInterface,
		},
		{
			// Catches aliases and named types; struct and interface names
			// are already claimed by the two rules above.
			ID:    "type-declaration",
			Query: `(type_declaration (type_spec name: (type_identifier) @name) @def)`,
			Kind:  index.KindType,
		},
		{
			ID:    "const-declaration",
			Query: `(const_declaration (const_spec name: (identifier) @name) @def)`,
			Kind:  index.KindConstant,
		},
		{
			ID:    "var-declaration",
			Query: `(var_declaration (var_spec name: (identifier) @name) @def)`,
			Kind:  index.KindVariable,
		},
	}
}

func goReferenceRules() []ReferenceRule {
	return []ReferenceRule{
		{
			ID:    "import-spec",
			Query: `(import_spec path: (interpreted_string_literal) @module)`,
			Type:  index.RefImport,
			Extract: func(m Match) (RefFields, error) {
				return RefFields{Module: unquote(m.Capture("module"))}, nil
			},
		},
		{
			ID:    "function-call",
			Query: `(call_expression function: (identifier) @fn arguments: (argument_list) @args)`,
			Type:  index.RefCall,
			Extract: func(m Match) (RefFields, error) {
				return RefFields{Func: m.Capture("fn"), Args: countArgs(m.Capture("args"))}, nil
			},
		},
		{
			ID:    "selector-call",
			Query: `(call_expression function: (selector_expression field: (field_identifier) @fn) arguments: (argument_list) @args)`,
			Type:  index.RefCall,
			Extract: func(m Match) (RefFields, error) {
				return RefFields{Func: m.Capture("fn"), Args: countArgs(m.Capture("args"))}, nil
			},
		},
	}
}

// parseGoParams handles grouped parameters ("a, b int") by taking the first
// word of each comma part.
func parseGoParams(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var names []string
	for _, part := range splitTopLevel(text) {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}
		if fields := strings.Fields(p); len(fields) > 0 {
			names = append(names, fields[0])
		}
	}
	return names
}

func goExported(name, fileText string) bool {
	if name == "" {
		return false
	}
	return unicode.IsUpper([]rune(name)[0])
}
