package lattice

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jward/lattice/internal/index"
)

// QueryBuilder answers lookups over one completed index. It is constructed
// when an index is installed and carries four derived tables keyed off the
// raw symbol list: by-id, by-file, by-kind, and by-name, with extraction
// order preserved within buckets. All methods are read-only and safe for
// concurrent use.
type QueryBuilder struct {
	eng *Engine
	ix  *index.Index

	byID   map[string]int
	byFile map[string][]int
	byKind map[string][]int
	byName map[string][]int
}

func newQueryBuilder(e *Engine, ix *index.Index) *QueryBuilder {
	q := &QueryBuilder{
		eng:    e,
		ix:     ix,
		byID:   make(map[string]int, len(ix.Symbols)),
		byFile: make(map[string][]int),
		byKind: make(map[string][]int),
		byName: make(map[string][]int),
	}
	for i, s := range ix.Symbols {
		if _, dup := q.byID[s.ID]; !dup {
			q.byID[s.ID] = i
		}
		q.byFile[s.File] = append(q.byFile[s.File], i)
		q.byKind[s.Kind] = append(q.byKind[s.Kind], i)
		q.byName[s.Name] = append(q.byName[s.Name], i)
	}
	return q
}

// collect materializes a bucket of symbol positions.
func (q *QueryBuilder) collect(positions []int) []Symbol {
	out := make([]Symbol, 0, len(positions))
	for _, i := range positions {
		out = append(out, q.ix.Symbols[i])
	}
	return out
}

// Symbols returns every indexed symbol in extraction order.
func (q *QueryBuilder) Symbols() []Symbol {
	out := make([]Symbol, len(q.ix.Symbols))
	copy(out, q.ix.Symbols)
	return out
}

// References returns the full reference log in extraction order.
func (q *QueryBuilder) References() []Reference {
	out := make([]Reference, len(q.ix.References))
	copy(out, q.ix.References)
	return out
}

// FindByID returns the symbol with the given "file:name" ID, or nil when
// absent.
func (q *QueryBuilder) FindByID(id string) *Symbol {
	i, ok := q.byID[id]
	if !ok {
		return nil
	}
	s := q.ix.Symbols[i]
	return &s
}

// NameMatch controls FindByName. The zero value is an exact, case-sensitive
// match.
type NameMatch struct {
	Substring  bool
	IgnoreCase bool
}

// FindByName returns symbols whose name matches per opts, in extraction
// order.
func (q *QueryBuilder) FindByName(name string, opts NameMatch) []Symbol {
	if !opts.Substring && !opts.IgnoreCase {
		return q.collect(q.byName[name])
	}

	want := name
	if opts.IgnoreCase {
		want = strings.ToLower(want)
	}
	out := []Symbol{}
	for _, s := range q.ix.Symbols {
		have := s.Name
		if opts.IgnoreCase {
			have = strings.ToLower(have)
		}
		match := have == want
		if opts.Substring {
			match = strings.Contains(have, want)
		}
		if match {
			out = append(out, s)
		}
	}
	return out
}

// FindByKind returns symbols of one kind, in extraction order.
func (q *QueryBuilder) FindByKind(kind string) []Symbol {
	return q.collect(q.byKind[kind])
}

// FindByFile returns the symbols extracted from one file. The path is
// normalized to forward slashes before lookup.
func (q *QueryBuilder) FindByFile(file string) []Symbol {
	return q.collect(q.byFile[normalizePath(file)])
}

// FindExported returns every exported symbol in extraction order.
func (q *QueryBuilder) FindExported() []Symbol {
	out := []Symbol{}
	for _, s := range q.ix.Symbols {
		if s.Exported {
			out = append(out, s)
		}
	}
	return out
}

// SymbolFilter selects symbols for Search. Zero fields are not applied; set
// fields AND-combine.
type SymbolFilter struct {
	// Name matches as a case-insensitive substring of the symbol name.
	Name string
	// Kind matches exactly.
	Kind string
	// File matches as a substring of the symbol's file path.
	File string
	// Exported filters on the exported flag when non-nil.
	Exported *bool
	// Pattern is a regular expression tested against both the symbol name
	// and its file path; either hit keeps the symbol.
	Pattern string
}

// Pagination controls offset+limit paging on search results.
type Pagination struct {
	Offset int // skip this many results (default 0)
	Limit  int // max results to return (default 50, max 500)
}

const (
	defaultLimit = 50
	maxLimit     = 500
)

// normalize returns a Pagination with defaults applied and bounds enforced.
func (p Pagination) normalize() Pagination {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// SortField specifies how to order results.
type SortField string

const (
	SortByName SortField = "name"
	SortByKind SortField = "kind"
	SortByFile SortField = "file"
	SortByLine SortField = "line"
)

// SortOrder specifies ascending or descending.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Sort controls result ordering. The zero value keeps extraction order.
type Sort struct {
	Field SortField
	Order SortOrder
}

// PagedResult wraps a page of results with the total match count.
type PagedResult[T any] struct {
	Items      []T
	TotalCount int // total matching results (before pagination)
}

// Search AND-combines the filter's set fields over all symbols, then sorts
// and pages. An invalid regex pattern is the only error.
func (q *QueryBuilder) Search(filter SymbolFilter, s Sort, page Pagination) (*PagedResult[Symbol], error) {
	page = page.normalize()

	var re *regexp.Regexp
	if filter.Pattern != "" {
		var err error
		re, err = regexp.Compile(filter.Pattern)
		if err != nil {
			return nil, fmt.Errorf("search: compile pattern: %w", err)
		}
	}

	nameSub := strings.ToLower(filter.Name)
	fileSub := normalizePath(filter.File)

	var matched []Symbol
	for _, sym := range q.ix.Symbols {
		if filter.Kind != "" && sym.Kind != filter.Kind {
			continue
		}
		if nameSub != "" && !strings.Contains(strings.ToLower(sym.Name), nameSub) {
			continue
		}
		if fileSub != "" && !strings.Contains(sym.File, fileSub) {
			continue
		}
		if filter.Exported != nil && sym.Exported != *filter.Exported {
			continue
		}
		if re != nil && !re.MatchString(sym.Name) && !re.MatchString(sym.File) {
			continue
		}
		matched = append(matched, sym)
	}

	sortSymbols(matched, s)

	total := len(matched)
	start := page.Offset
	if start > total {
		start = total
	}
	end := start + page.Limit
	if end > total {
		end = total
	}
	items := matched[start:end]
	if items == nil {
		items = []Symbol{}
	}

	return &PagedResult[Symbol]{Items: items, TotalCount: total}, nil
}

// sortSymbols orders search results in place. The zero Sort keeps extraction
// order; ties always fall back to it (stable sort).
func sortSymbols(syms []Symbol, s Sort) {
	if s.Field == "" {
		return
	}
	less := func(a, b Symbol) bool { return a.Name < b.Name }
	switch s.Field {
	case SortByKind:
		less = func(a, b Symbol) bool { return a.Kind < b.Kind }
	case SortByFile:
		less = func(a, b Symbol) bool { return a.File < b.File }
	case SortByLine:
		less = func(a, b Symbol) bool {
			if a.File != b.File {
				return a.File < b.File
			}
			return a.StartLine < b.StartLine
		}
	}
	sort.SliceStable(syms, func(i, j int) bool {
		if s.Order == Desc {
			return less(syms[j], syms[i])
		}
		return less(syms[i], syms[j])
	})
}

// normalizePath converts backslash separators to the forward slashes used in
// index paths.
func normalizePath(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
