package lang

import (
	"regexp"
	"strings"

	"github.com/jward/lattice/internal/index"
)

// Python returns the adapter for .py files.
func Python() *Adapter {
	return &Adapter{
		ID:          "python",
		Extensions:  []string{".py"},
		Symbols:     pySymbolRules(),
		References:  pyReferenceRules(),
		ParseParams: parsePyParams,
		InferKind:   inferPyKind,
		IsExported:  pyExported,
	}
}

func pySymbolRules() []SymbolRule {
	return []SymbolRule{
		{
			ID:    "function-definition",
			Query: `(function_definition name: (identifier) @name parameters: (parameters) @params) @def`,
			Kind:  index.KindFunction,
			Extract: func(m Match) (Fields, error) {
				return Fields{
					Name:      m.Capture("name"),
					Signature: Signature(m.Text),
					Params:    parsePyParams(trimParens(m.Capture("params"))),
				}, nil
			},
		},
		{
			ID:    "class-with-bases",
			Query: `(class_definition name: (identifier) @name superclasses: (argument_list (identifier) @extends)) @def`,
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
			// Safety net behind class-with-bases for bare classes (and for
			// grammar versions without the superclasses field).
			ID:    "class-definition",
			Query: `(class_definition name: (identifier) @name) @def`,
			Kind:  index.KindClass,
		},
		{
			ID:    "module-assignment",
			Query: `(module (expression_statement (assignment left: (identifier) @name) @def))`,
			Kind:  index.KindVariable,
		},
	}
}

func pyReferenceRules() []ReferenceRule {
	return []ReferenceRule{
		{
			ID:    "import-statement",
			Query: `(import_statement name: (dotted_name) @module)`,
			Type:  index.RefImport,
		},
		{
			ID:    "import-aliased",
			Query: `(import_statement name: (aliased_import name: (dotted_name) @module))`,
			Type:  index.RefImport,
		},
		{
			ID:    "import-from",
			Query: `(import_from_statement module_name: (dotted_name) @module)`,
			Type:  index.RefImport,
		},
		{
			ID:    "import-from-relative",
			Query: `(import_from_statement module_name: (relative_import) @module)`,
			Type:  index.RefImport,
		},
		{
			ID:    "function-call",
			Query: `(call function: (identifier) @fn arguments: (argument_list) @args)`,
			Type:  index.RefCall,
			Extract: func(m Match) (RefFields, error) {
				return RefFields{Func: m.Capture("fn"), Args: countArgs(m.Capture("args"))}, nil
			},
		},
		{
			ID:    "method-call",
			Query: `(call function: (attribute attribute: (identifier) @fn) arguments: (argument_list) @args)`,
			Type:  index.RefCall,
			Extract: func(m Match) (RefFields, error) {
				return RefFields{Func: m.Capture("fn"), Args: countArgs(m.Capture("args"))}, nil
			},
		},
	}
}

// parsePyParams strips annotations, defaults, and star markers. Bare * and /
// separators are dropped.
func parsePyParams(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var names []string
	for _, part := range splitTopLevel(text) {
		p := strings.TrimSpace(part)
		if p == "" || p == "*" || p == "/" {
			continue
		}
		if i := topLevelIndex(p, ':'); i >= 0 {
			p = strings.TrimSpace(p[:i])
		}
		if i := strings.Index(p, "="); i >= 0 {
			p = strings.TrimSpace(p[:i])
		}
		p = strings.TrimPrefix(p, "**")
		p = strings.TrimPrefix(p, "*")
		if p != "" {
			names = append(names, p)
		}
	}
	return names
}

func inferPyKind(name, kind string) string {
	if kind == index.KindVariable && isAllCaps(name) {
		return index.KindConstant
	}
	return kind
}

// pyExported follows the underscore convention, with __all__ membership as
// an explicit override in either direction when the list is present.
func pyExported(name, fileText string) bool {
	if all := pyAllList(fileText); all != nil {
		for _, entry := range all {
			if entry == name {
				return true
			}
		}
		return false
	}
	return !strings.HasPrefix(name, "_")
}

var pyAllPattern = regexp.MustCompile(`__all__\s*=\s*[\[(]([^\])]*)[\])]`)
var pyAllEntry = regexp.MustCompile(`['"]([^'"]+)['"]`)

func pyAllList(fileText string) []string {
	m := pyAllPattern.FindStringSubmatch(fileText)
	if m == nil {
		return nil
	}
	names := []string{}
	for _, e := range pyAllEntry.FindAllStringSubmatch(m[1], -1) {
		names = append(names, e[1])
	}
	return names
}
