//go:build cgo

package treesitter

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"

	"github.com/jward/lattice/internal/lang"
)

// Parser holds the loaded grammars and a compiled-query cache. The scan is
// single-threaded, so the caches need no locking; every TryParse builds its
// own sitter parser over the immutable grammars.
type Parser struct {
	grammars map[string]*sitter.Language
	queries  map[string]*sitter.Query
	broken   map[string]error
}

// New loads the built-in grammars.
func New() *Parser {
	return &Parser{
		grammars: map[string]*sitter.Language{
			"go":         golang.GetLanguage(),
			"javascript": javascript.GetLanguage(),
			"typescript": ts.GetLanguage(),
			"tsx":        tsx.GetLanguage(),
			"python":     python.GetLanguage(),
			"rust":       rust.GetLanguage(),
			"java":       java.GetLanguage(),
		},
		queries: map[string]*sitter.Query{},
		broken:  map[string]error{},
	}
}

// Available reports whether structural parsing is compiled in.
func (p *Parser) Available() bool { return true }

// Supports reports whether a grammar is loaded for the language.
func (p *Parser) Supports(language string) bool {
	_, ok := p.grammars[language]
	return ok
}

// TryParse parses source under the named grammar. A nil Tree with an error
// means this file falls back to regex extraction; it never aborts the scan.
func (p *Parser) TryParse(ctx context.Context, language string, src []byte) (*Tree, error) {
	grammar, ok := p.grammars[language]
	if !ok {
		return nil, fmt.Errorf("no grammar for language %q", language)
	}
	parser := sitter.NewParser()
	parser.SetLanguage(grammar)
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s source: %w", language, err)
	}
	if tree == nil || tree.RootNode() == nil {
		return nil, fmt.Errorf("parser produced no tree for %s source", language)
	}
	return &Tree{parser: p, language: language, grammar: grammar, tree: tree, src: src}, nil
}

// Tree is one parsed file, ready for pattern matching.
type Tree struct {
	parser   *Parser
	language string
	grammar  *sitter.Language
	tree     *sitter.Tree
	src      []byte
}

// Match executes one structural pattern against the tree and reduces every
// match to plain text captures with 1-indexed line spans. The match span is
// the outermost captured node, so symbol rules capture their whole
// declaration as @def. Patterns that fail to compile for this grammar are
// remembered and not retried on later files.
func (t *Tree) Match(pattern string) ([]lang.Match, error) {
	q, err := t.parser.compiled(t.language, t.grammar, pattern)
	if err != nil {
		return nil, err
	}

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(q, t.tree.RootNode())

	var out []lang.Match
	for {
		m, ok := cursor.NextMatch()
		if !ok {
			break
		}
		m = cursor.FilterPredicates(m, t.src)
		if len(m.Captures) == 0 {
			continue
		}

		match := lang.Match{Captures: make(map[string]lang.Capture, len(m.Captures))}
		var span *sitter.Node
		for _, c := range m.Captures {
			node := c.Node
			match.Captures[q.CaptureNameForId(c.Index)] = lang.Capture{
				Text:      node.Content(t.src),
				StartLine: int(node.StartPoint().Row) + 1,
				EndLine:   int(node.EndPoint().Row) + 1,
			}
			if span == nil ||
				node.StartByte() < span.StartByte() ||
				(node.StartByte() == span.StartByte() && node.EndByte() > span.EndByte()) {
				span = node
			}
		}
		match.Text = span.Content(t.src)
		match.StartLine = int(span.StartPoint().Row) + 1
		match.EndLine = int(span.EndPoint().Row) + 1
		out = append(out, match)
	}
	return out, nil
}

// compiled returns the cached query for (language, pattern), compiling it on
// first use. Compile failures are cached too: an incompatible pattern is
// skipped once per process, not once per file.
func (p *Parser) compiled(language string, grammar *sitter.Language, pattern string) (*sitter.Query, error) {
	key := language + "\x00" + pattern
	if err, bad := p.broken[key]; bad {
		return nil, err
	}
	if q, ok := p.queries[key]; ok {
		return q, nil
	}
	q, err := sitter.NewQuery([]byte(pattern), grammar)
	if err != nil {
		err = fmt.Errorf("compiling %s pattern: %w", language, err)
		p.broken[key] = err
		return nil, err
	}
	p.queries[key] = q
	return q, nil
}
