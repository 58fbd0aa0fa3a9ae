package lang

import (
	"strings"

	"github.com/jward/lattice/internal/index"
)

// TypeScript returns the adapter for .ts files. TSX shares the same rule
// tables under its own language ID because the two grammars differ.
func TypeScript() *Adapter { return tsAdapter("typescript", []string{".ts", ".mts", ".cts"}) }

// TSX returns the adapter for .tsx files.
func TSX() *Adapter { return tsAdapter("tsx", []string{".tsx"}) }

func tsAdapter(id string, exts []string) *Adapter {
	return &Adapter{
		ID:          id,
		Extensions:  exts,
		Symbols:     tsSymbolRules(),
		References:  jsReferenceRules(),
		ParseParams: parseTSParams,
		InferKind:   inferJSKind,
		IsExported:  jsExported,
	}
}

// tsSymbolRules extends the JavaScript rules with the TypeScript-only
// declaration forms. The TS grammar reuses the JS node names for everything
// the JS rules cover.
func tsSymbolRules() []SymbolRule {
	rules := []SymbolRule{
		{
			ID:    "interface-declaration",
			Query: `(interface_declaration name: (type_identifier) @name) @def`,
			Kind:  index.KindInterface,
		},
		{
			ID:    "type-alias-declaration",
			Query: `(type_alias_declaration name: (type_identifier) @name) @def`,
			Kind:  index.KindType,
		},
		{
			ID:    "enum-declaration",
			Query: `(enum_declaration name: (identifier) @name) @def`,
			Kind:  index.KindEnum,
		},
	}
	return append(rules, jsSymbolRules()...)
}

// parseTSParams strips TypeScript's extra surface from a parameter list:
// optional markers, type annotations, and constructor parameter modifiers.
func parseTSParams(text string) []string {
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
		if i := topLevelIndex(p, ':'); i >= 0 {
			p = strings.TrimSpace(p[:i])
		}
		if i := strings.Index(p, "="); i >= 0 {
			p = strings.TrimSpace(p[:i])
		}
		p = strings.TrimSuffix(p, "?")
		p = strings.TrimPrefix(p, "...")
		p = trimModifiers(p, "public", "private", "protected", "readonly", "override")
		if p != "" {
			names = append(names, p)
		}
	}
	return names
}

// topLevelIndex finds the first occurrence of sep outside brackets and
// quotes, or -1.
func topLevelIndex(text string, sep byte) int {
	depth := 0
	var quote byte
	for i := 0; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			if c == quote && (i == 0 || text[i-1] != '\\') {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}', '>':
			if depth > 0 {
				depth--
			}
		default:
			if c == sep && depth == 0 {
				return i
			}
		}
	}
	return -1
}

func trimModifiers(p string, modifiers ...string) string {
	for changed := true; changed; {
		changed = false
		for _, m := range modifiers {
			if strings.HasPrefix(p, m+" ") {
				p = strings.TrimSpace(strings.TrimPrefix(p, m+" "))
				changed = true
			}
		}
	}
	return p
}
