// Package lang holds the language adapter registry: per-language tables of
// symbol and reference extraction rules, parameter-list parsers, kind
// inference hooks, and export detection heuristics. The registry is pure
// configuration, loaded once and never mutated. Structural rules are
// tree-sitter query patterns kept as plain strings so this package stays
// independent of the parser bindings.
package lang

import (
	"errors"
	"sort"
	"strings"
	"unicode"
)

// ErrSkip is returned by extractors to discard a structural match without
// error: the rule matched, but a context constraint rules it out (for
// example a constructor method, or a call that is really a require).
var ErrSkip = errors.New("skip match")

// Capture is one named capture from a structural pattern match, reduced to
// plain text and 1-indexed line numbers.
type Capture struct {
	Text      string
	StartLine int
	EndLine   int
}

// Match is a single pattern match handed to an extractor: the full matched
// span plus its named captures.
type Match struct {
	Text      string
	StartLine int
	EndLine   int
	Captures  map[string]Capture
}

// Capture returns the named capture's text, or "" when absent.
func (m Match) Capture(name string) string {
	return m.Captures[name].Text
}

// Fields is the result of a symbol extractor.
type Fields struct {
	Name      string
	Signature string
	Params    []string
	Extends   string
}

// RefFields is the result of a reference extractor.
type RefFields struct {
	Module string
	Func   string
	Args   int
}

// SymbolRule describes one way to extract a symbol. Rules are applied in
// declared order; when two rules yield the same (file, name) the first match
// wins and later ones are discarded. Query is a tree-sitter pattern with a
// @name capture (and optionally @params, @extends). Extract may be nil, in
// which case the name capture and a truncated-text signature are used.
type SymbolRule struct {
	ID      string
	Query   string
	Kind    string
	Extract func(m Match) (Fields, error)
}

// ReferenceRule describes one way to extract a reference. Matches append to
// the reference log and are never de-duplicated.
type ReferenceRule struct {
	ID      string
	Query   string
	Type    string
	Extract func(m Match) (RefFields, error)
}

// Adapter is the extraction contract for one language. Multiple extensions
// may share one adapter, and two adapters may share rule tables (typescript
// and tsx do).
type Adapter struct {
	// ID is the canonical language name, matching a grammar known to the
	// structural parsing capability.
	ID         string
	Extensions []string
	Symbols    []SymbolRule
	References []ReferenceRule

	// ParseParams splits a raw parameter-list text (without surrounding
	// parentheses) into parameter names, stripping type annotations,
	// defaults, and modifier keywords for this language.
	ParseParams func(text string) []string

	// InferKind may override a rule's kind from naming conventions
	// (PascalCase function → component, ALL_CAPS variable → constant).
	// Nil means no overrides.
	InferKind func(name, kind string) string

	// IsExported reports whether the named symbol is exported, judged
	// against the whole file text (export statements may be far from the
	// declaration).
	IsExported func(name, fileText string) bool
}

// Registry is the immutable language table set, keyed by language ID and by
// file extension. Construct it once and share it; it is safe for concurrent
// reads.
type Registry struct {
	byID  map[string]*Adapter
	byExt map[string]*Adapter
}

// NewRegistry builds a registry from the given adapters. Later adapters do
// not displace earlier ones on extension collisions.
func NewRegistry(adapters ...*Adapter) *Registry {
	r := &Registry{
		byID:  make(map[string]*Adapter, len(adapters)),
		byExt: make(map[string]*Adapter),
	}
	for _, a := range adapters {
		if _, dup := r.byID[a.ID]; dup {
			continue
		}
		r.byID[a.ID] = a
		for _, ext := range a.Extensions {
			if _, dup := r.byExt[ext]; !dup {
				r.byExt[ext] = a
			}
		}
	}
	return r
}

// DefaultRegistry returns the built-in adapter set.
func DefaultRegistry() *Registry {
	return NewRegistry(
		JavaScript(),
		TypeScript(),
		TSX(),
		Python(),
		Go(),
		Rust(),
		Java(),
	)
}

// ForExtension resolves the adapter for a file extension (with leading dot,
// case-insensitive).
func (r *Registry) ForExtension(ext string) (*Adapter, bool) {
	a, ok := r.byExt[strings.ToLower(ext)]
	return a, ok
}

// ForLanguage resolves an adapter by its canonical ID.
func (r *Registry) ForLanguage(id string) (*Adapter, bool) {
	a, ok := r.byID[id]
	return a, ok
}

// Extensions returns every registered extension, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Languages returns every registered language ID, sorted.
func (r *Registry) Languages() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Restrict returns a registry limited to the given language IDs. Unknown IDs
// are ignored; an empty list returns the receiver unchanged.
func (r *Registry) Restrict(ids []string) *Registry {
	if len(ids) == 0 {
		return r
	}
	var kept []*Adapter
	for _, id := range ids {
		if a, ok := r.byID[id]; ok {
			kept = append(kept, a)
		}
	}
	return NewRegistry(kept...)
}

// Signature reduces a matched span to a one-line signature: first line,
// trailing open brace trimmed, capped at 120 characters.
func Signature(text string) string {
	line := text
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	line = strings.TrimSpace(strings.TrimSuffix(line, "{"))
	if len(line) > 120 {
		line = line[:117] + "..."
	}
	return line
}

// splitTopLevel splits text on commas that are not nested inside brackets,
// quotes, or generics. Used by the per-language parameter parsers.
func splitTopLevel(text string) []string {
	var parts []string
	depth := 0
	var quote byte
	start := 0
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
		case ',':
			if depth == 0 {
				parts = append(parts, text[start:i])
				start = i + 1
			}
		}
	}
	if start < len(text) {
		parts = append(parts, text[start:])
	}
	return parts
}

// unquote strips one layer of matching string quotes from a source literal.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') ||
			(s[0] == '\'' && s[len(s)-1] == '\'') ||
			(s[0] == '`' && s[len(s)-1] == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// countArgs counts the top-level entries of an argument list text (with or
// without surrounding parentheses).
func countArgs(text string) int {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "(")
	text = strings.TrimSuffix(text, ")")
	if strings.TrimSpace(text) == "" {
		return 0
	}
	n := 0
	for _, p := range splitTopLevel(text) {
		if strings.TrimSpace(p) != "" {
			n++
		}
	}
	return n
}

func isPascalCase(name string) bool {
	if name == "" {
		return false
	}
	r := rune(name[0])
	if !unicode.IsUpper(r) {
		return false
	}
	// ALL_CAPS identifiers are constants, not PascalCase names.
	return strings.ToUpper(name) != name || len(name) == 1
}

func isAllCaps(name string) bool {
	hasLetter := false
	for _, r := range name {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}
