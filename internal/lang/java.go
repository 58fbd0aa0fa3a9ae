package lang

import (
	"regexp"
	"strings"

	"github.com/jward/lattice/internal/index"
)

// Java returns the adapter for .java files.
func Java() *Adapter {
	return &Adapter{
		ID:          "java",
		Extensions:  []string{".java"},
		Symbols:     javaSymbolRules(),
		References:  javaReferenceRules(),
		ParseParams: parseJavaParams,
		InferKind:   inferJavaKind,
		IsExported:  javaExported,
	}
}

func javaSymbolRules() []SymbolRule {
	return []SymbolRule{
		{
			ID:    "class-with-superclass",
			Query: `(class_declaration name: (identifier) @name superclass: (superclass (type_identifier) @extends)) @def`,
			Kind:  index.KindClass,
			Extract: func(m Match) (Fields, error) {
				return Fields{
					Name:      m.Capture("name"),
					Signature: Signature(m.Text),
					Extends:   m.Capture("extends"),
				}, nil
			},
		},
		{
			ID:    "class-declaration",
			Query: `(class_declaration name: (identifier) @name) @def`,
			Kind:  index.KindClass,
		},
		{
			ID:    "interface-declaration",
			Query: `(interface_declaration name: (identifier) @name) @def`,
			Kind:  index.KindInterface,
		},
		{
			ID:    "enum-declaration",
			Query: `(enum_declaration name: (identifier) @name) @def`,
			Kind:  index.KindEnum,
		},
		{
			ID:    "method-declaration",
			Query: `(method_declaration name: (identifier) @name parameters: (formal_parameters) @params) @def`,
			Kind:  index.KindMethod,
			Extract: func(m Match) (Fields, error) {
				return Fields{
					Name:      m.Capture("name"),
					Signature: Signature(m.Text),
					Params:    parseJavaParams(trimParens(m.Capture("params"))),
				}, nil
			},
		},
		{
			ID:    "constructor-declaration",
			Query: `(constructor_declaration name: (identifier) @name parameters: (formal_parameters) @params) @def`,
			Kind:  index.KindMethod,
			Extract: func(m Match) (Fields, error) {
				return Fields{
					Name:      m.Capture("name"),
					Signature: Signature(m.Text),
					Params:    parseJavaParams(trimParens(m.Capture("params"))),
				}, nil
			},
		},
		{
			ID:    "field-declaration",
			Query: `(field_declaration declarator: (variable_declarator name: (identifier) @name)) @def`,
			Kind:  index.KindVariable,
		},
	}
}

func javaReferenceRules() []ReferenceRule {
	return []ReferenceRule{
		{
			ID:    "import-declaration",
			Query: `(import_declaration (scoped_identifier) @module)`,
			Type:  index.RefImport,
		},
		{
			ID:    "method-invocation",
			Query: `(method_invocation name: (identifier) @fn arguments: (argument_list) @args)`,
			Type:  index.RefCall,
			Extract: func(m Match) (RefFields, error) {
				return RefFields{Func: m.Capture("fn"), Args: countArgs(m.Capture("args"))}, nil
			},
		},
	}
}

// parseJavaParams takes the trailing identifier of each "Type name" pair.
func parseJavaParams(text string) []string {
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
			names = append(names, strings.TrimPrefix(fields[len(fields)-1], "..."))
		}
	}
	return names
}

func inferJavaKind(name, kind string) string {
	if kind == index.KindVariable && isAllCaps(name) {
		return index.KindConstant
	}
	return kind
}

// javaExported looks for a public modifier ahead of a declaration of this
// name somewhere in the file.
func javaExported(name, fileText string) bool {
	re, err := regexp.Compile(`\bpublic\b[^;{}()]*\b` + regexp.QuoteMeta(name) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(fileText)
}
