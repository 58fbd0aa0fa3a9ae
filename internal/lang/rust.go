package lang

import (
	"regexp"
	"strings"

	"github.com/jward/lattice/internal/index"
)

// Rust returns the adapter for .rs files.
func Rust() *Adapter {
	return &Adapter{
		ID:          "rust",
		Extensions:  []string{".rs"},
		Symbols:     rustSymbolRules(),
		References:  rustReferenceRules(),
		ParseParams: parseRustParams,
		IsExported:  rustExported,
	}
}

func rustSymbolRules() []SymbolRule {
	return []SymbolRule{
		{
			ID:    "function-item",
			Query: `(function_item name: (identifier) @name parameters: (parameters) @params) @def`,
			Kind:  index.KindFunction,
			Extract: func(m Match) (Fields, error) {
				return Fields{
					Name:      m.Capture("name"),
					Signature: Signature(m.Text),
					Params:    parseRustParams(trimParens(m.Capture("params"))),
				}, nil
			},
		},
		{
			ID:    "struct-item",
			Query: `(struct_item name: (type_identifier) @name) @def`,
			Kind:  index.KindStruct,
		},
		{
			ID:    "enum-item",
			Query: `(enum_item name: (type_identifier) @name) @def`,
			Kind:  index.KindEnum,
		},
		{
			ID:    "trait-item",
			Query: `(trait_item name: (type_identifier) @name) @def`,
			Kind:  index.KindTrait,
		},
		{
			ID:    "type-item",
			Query: `(type_item name: (type_identifier) @name) @def`,
			Kind:  index.KindType,
		},
		{
			ID:    "const-item",
			Query: `(const_item name: (identifier) @name) @def`,
			Kind:  index.KindConstant,
		},
		{
			ID:    "static-item",
			Query: `(static_item name: (identifier) @name) @def`,
			Kind:  index.KindVariable,
		},
	}
}

func rustReferenceRules() []ReferenceRule {
	return []ReferenceRule{
		{
			ID:    "use-declaration",
			Query: `(use_declaration argument: (scoped_identifier) @module)`,
			Type:  index.RefImport,
		},
		{
			ID:    "use-declaration-simple",
			Query: `(use_declaration argument: (identifier) @module)`,
			Type:  index.RefImport,
		},
		{
			ID:    "function-call",
			Query: `(call_expression function: (identifier) @fn arguments: (arguments) @args)`,
			Type:  index.RefCall,
			Extract: func(m Match) (RefFields, error) {
				return RefFields{Func: m.Capture("fn"), Args: countArgs(m.Capture("args"))}, nil
			},
		},
		{
			ID:    "method-call",
			Query: `(call_expression function: (field_expression field: (field_identifier) @fn) arguments: (arguments) @args)`,
			Type:  index.RefCall,
			Extract: func(m Match) (RefFields, error) {
				return RefFields{Func: m.Capture("fn"), Args: countArgs(m.Capture("args"))}, nil
			},
		},
	}
}

// parseRustParams keeps receiver forms as "self" and strips type annotations
// from the rest.
func parseRustParams(text string) []string {
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
		if strings.HasSuffix(p, "self") {
			names = append(names, "self")
			continue
		}
		if i := topLevelIndex(p, ':'); i >= 0 {
			p = strings.TrimSpace(p[:i])
		}
		p = strings.TrimPrefix(p, "mut ")
		if p != "" {
			names = append(names, p)
		}
	}
	return names
}

// rustExported looks for a pub modifier on a declaration of this name
// anywhere in the file.
func rustExported(name, fileText string) bool {
	re, err := regexp.Compile(
		`\bpub\s*(?:\([^)]*\))?\s+(?:async\s+)?(?:unsafe\s+)?(?:fn|struct|enum|trait|const|static|type|mod)\s+` +
			regexp.QuoteMeta(name) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(fileText)
}
