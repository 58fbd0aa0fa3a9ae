package lang

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/jward/lattice/internal/index"
)

// JavaScript returns the adapter for .js/.jsx/.mjs/.cjs files. JSX parses
// under the plain javascript grammar, so all four extensions share one
// language ID.
func JavaScript() *Adapter {
	return &Adapter{
		ID:          "javascript",
		Extensions:  []string{".js", ".jsx", ".mjs", ".cjs"},
		Symbols:     jsSymbolRules(),
		References:  jsReferenceRules(),
		ParseParams: parseJSParams,
		InferKind:   inferJSKind,
		IsExported:  jsExported,
	}
}

func jsSymbolRules() []SymbolRule {
	return []SymbolRule{
		{
			ID:    "function-declaration",
			Query: `(function_declaration name: (identifier) @name parameters: (formal_parameters) @params) @def`,
			Kind:  index.KindFunction,
			Extract: func(m Match) (Fields, error) {
				return Fields{
					Name:      m.Capture("name"),
					Signature: Signature(m.Text),
					Params:    parseJSParams(trimParens(m.Capture("params"))),
				}, nil
			},
		},
		{
			ID:    "generator-function-declaration",
			Query: `(generator_function_declaration name: (identifier) @name parameters: (formal_parameters) @params) @def`,
			Kind:  index.KindFunction,
			Extract: func(m Match) (Fields, error) {
				return Fields{
					Name:      m.Capture("name"),
					Signature: Signature(m.Text),
					Params:    parseJSParams(trimParens(m.Capture("params"))),
				}, nil
			},
		},
		{
			ID:    "arrow-function-variable",
			Query: `(variable_declarator name: (identifier) @name value: (arrow_function)) @def`,
			Kind:  index.KindFunction,
			Extract: func(m Match) (Fields, error) {
				return Fields{
					Name:      m.Capture("name"),
					Signature: Signature(m.Text),
					Params:    parseJSParams(arrowParams(m.Text)),
				}, nil
			},
		},
		{
			ID:    "class-with-heritage",
			Query: `(class_declaration name: (identifier) @name (class_heritage (identifier) @extends)) @def`,
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
			// Safety net behind class-with-heritage: also matches classes
			// with a heritage clause, but those names are already claimed.
			ID:    "class-declaration",
			Query: `(class_declaration name: (identifier) @name) @def`,
			Kind:  index.KindClass,
		},
		{
			ID:    "method-definition",
			Query: `(method_definition name: (property_identifier) @name parameters: (formal_parameters) @params) @def`,
			Kind:  index.KindMethod,
			Extract: func(m Match) (Fields, error) {
				name := m.Capture("name")
				if name == "constructor" {
					return Fields{}, ErrSkip
				}
				return Fields{
					Name:      name,
					Signature: Signature(m.Text),
					Params:    parseJSParams(trimParens(m.Capture("params"))),
				}, nil
			},
		},
		{
			ID:    "variable-declaration",
			Query: `(variable_declarator name: (identifier) @name) @def`,
			Kind:  index.KindVariable,
		},
	}
}

func jsReferenceRules() []ReferenceRule {
	return []ReferenceRule{
		{
			ID:    "import-statement",
			Query: `(import_statement source: (string) @module)`,
			Type:  index.RefImport,
			Extract: func(m Match) (RefFields, error) {
				return RefFields{Module: unquote(m.Capture("module"))}, nil
			},
		},
		{
			ID: "require-call",
			Query: `((call_expression
  function: (identifier) @fn
  arguments: (arguments (string) @module))
 (#eq? @fn "require"))`,
			Type: index.RefRequire,
			Extract: func(m Match) (RefFields, error) {
				return RefFields{Module: unquote(m.Capture("module"))}, nil
			},
		},
		{
			ID:    "function-call",
			Query: `(call_expression function: (identifier) @fn arguments: (arguments) @args)`,
			Type:  index.RefCall,
			Extract: func(m Match) (RefFields, error) {
				fn := m.Capture("fn")
				if fn == "require" {
					return RefFields{}, ErrSkip
				}
				return RefFields{Func: fn, Args: countArgs(m.Capture("args"))}, nil
			},
		},
		{
			ID:    "method-call",
			Query: `(call_expression function: (member_expression property: (property_identifier) @fn) arguments: (arguments) @args)`,
			Type:  index.RefCall,
			Extract: func(m Match) (RefFields, error) {
				return RefFields{Func: m.Capture("fn"), Args: countArgs(m.Capture("args"))}, nil
			},
		},
	}
}

// parseJSParams splits a formal parameter list into names: defaults and rest
// markers are stripped, destructuring patterns are kept as written.
func parseJSParams(text string) []string {
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
		if i := strings.Index(p, "="); i >= 0 {
			p = strings.TrimSpace(p[:i])
		}
		p = strings.TrimPrefix(p, "...")
		if p != "" {
			names = append(names, p)
		}
	}
	return names
}

// arrowParams pulls the parameter list out of a declarator text such as
// "helper = (a, b) => a + b" or "id = x => x".
func arrowParams(text string) string {
	arrow := strings.Index(text, "=>")
	if arrow < 0 {
		return ""
	}
	head := text[:arrow]
	if open := strings.Index(head, "("); open >= 0 {
		if close := strings.LastIndex(head, ")"); close > open {
			return head[open+1 : close]
		}
	}
	// Single bare parameter: everything after the assignment.
	if eq := strings.Index(head, "="); eq >= 0 {
		return strings.TrimSpace(head[eq+1:])
	}
	return strings.TrimSpace(head)
}

func trimParens(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "(")
	text = strings.TrimSuffix(text, ")")
	return text
}

// inferJSKind applies naming-convention overrides: useXxx functions are
// hooks, PascalCase functions are UI components, ALL_CAPS variables are
// constants.
func inferJSKind(name, kind string) string {
	switch kind {
	case index.KindFunction:
		if strings.HasPrefix(name, "use") && len(name) > 3 && unicode.IsUpper(rune(name[3])) {
			return index.KindHook
		}
		if isPascalCase(name) {
			return index.KindComponent
		}
	case index.KindVariable:
		if isAllCaps(name) {
			return index.KindConstant
		}
	}
	return kind
}

// jsExported checks the whole file text for any export form that names the
// symbol: an export-prefixed declaration, a named export list, a default
// export, or a CommonJS module.exports assignment.
func jsExported(name, fileText string) bool {
	q := regexp.QuoteMeta(name)
	forms := []string{
		`export\s+(?:default\s+)?(?:async\s+)?(?:function\s*\*?|class|const|let|var|interface|type|enum)\s+` + q + `\b`,
		`export\s*\{[^}]*\b` + q + `\b[^}]*\}`,
		`export\s+default\s+` + q + `\b`,
		`module\.exports\s*=\s*` + q + `\b`,
		`module\.exports\s*=\s*\{[^}]*\b` + q + `\b[^}]*\}`,
		`module\.exports\.` + q + `\s*=`,
		`exports\.` + q + `\s*=`,
	}
	for _, form := range forms {
		re, err := regexp.Compile(form)
		if err != nil {
			continue
		}
		if re.MatchString(fileText) {
			return true
		}
	}
	return false
}
