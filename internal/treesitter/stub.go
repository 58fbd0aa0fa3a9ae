//go:build !cgo

package treesitter

import (
	"context"

	"github.com/jward/lattice/internal/lang"
)

// Parser is the unavailable stub used when the binary is built without cgo.
type Parser struct{}

// New returns the stub parser.
func New() *Parser { return &Parser{} }

// Available reports whether structural parsing is compiled in.
func (p *Parser) Available() bool { return false }

// Supports always reports false without cgo.
func (p *Parser) Supports(language string) bool { return false }

// TryParse always fails without cgo; scans fall back to regex extraction.
func (p *Parser) TryParse(ctx context.Context, language string, src []byte) (*Tree, error) {
	return nil, ErrUnavailable
}

// Tree is never produced without cgo.
type Tree struct{}

// Match always fails without cgo.
func (t *Tree) Match(pattern string) ([]lang.Match, error) {
	return nil, ErrUnavailable
}
