package lattice

import (
	"path"
	"sort"
	"strings"
)

// FileDependencies returns the import and require references recorded for
// one file, in extraction order.
func (q *QueryBuilder) FileDependencies(file string) []Reference {
	file = normalizePath(file)
	out := []Reference{}
	for _, r := range q.ix.References {
		if r.File == file && r.IsDependency() {
			out = append(out, r)
		}
	}
	return out
}

// FileDependents returns files whose recorded imports appear to target the
// given file, in reference order without duplicates. Matching is textual:
// a relative specifier that resolves to the file, or any specifier whose
// last segment equals the file's base name. Name collisions across
// directories produce false positives and re-exports hide real dependents.
func (q *QueryBuilder) FileDependents(file string) []string {
	file = normalizePath(file)
	base := stripExt(path.Base(file))

	seen := map[string]bool{}
	out := []string{}
	for _, r := range q.ix.References {
		if !r.IsDependency() || r.File == file || r.Module == "" {
			continue
		}
		hit := false
		if isRelativeModule(r.Module) {
			hit = q.resolveRelative(r.File, r.Module) == file
		}
		if !hit && moduleBase(r.Module) == base {
			hit = true
		}
		if hit && !seen[r.File] {
			seen[r.File] = true
			out = append(out, r.File)
		}
	}
	return out
}

// SymbolReferences returns references that appear to target the named
// symbol: call references invoking the name, and dependency references whose
// specifier mentions it. Same textual caveats as FileDependents.
func (q *QueryBuilder) SymbolReferences(name string) []Reference {
	out := []Reference{}
	if name == "" {
		return out
	}
	for _, r := range q.ix.References {
		switch {
		case r.Func == name:
			out = append(out, r)
		case r.Module != "" && strings.Contains(r.Module, name):
			out = append(out, r)
		}
	}
	return out
}

// DependencyGraph is the intra-project import graph: one node per indexed
// file, one edge per resolved relative import. Bare and absolute specifiers
// carry no edges; the graph models project structure, not the full
// dependency closure.
type DependencyGraph struct {
	Nodes []string    `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// GraphEdge is one resolved relative import.
type GraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// DependencyGraph builds the import graph for the whole index. Nodes are
// sorted; edges are deduplicated and follow reference order.
func (q *QueryBuilder) DependencyGraph() *DependencyGraph {
	nodes := make([]string, 0, len(q.ix.FileHashes))
	for f := range q.ix.FileHashes {
		nodes = append(nodes, f)
	}
	sort.Strings(nodes)

	seen := map[GraphEdge]bool{}
	edges := []GraphEdge{}
	for _, r := range q.ix.References {
		if !r.IsDependency() || !isRelativeModule(r.Module) {
			continue
		}
		to := q.resolveRelative(r.File, r.Module)
		if to == "" || to == r.File {
			continue
		}
		edge := GraphEdge{From: r.File, To: to}
		if seen[edge] {
			continue
		}
		seen[edge] = true
		edges = append(edges, edge)
	}

	return &DependencyGraph{Nodes: nodes, Edges: edges}
}

// Hotspot pairs a symbol with the number of references that appear to
// target it.
type Hotspot struct {
	Symbol   Symbol `json:"symbol"`
	RefCount int    `json:"refCount"`
}

// Hotspots returns the topN symbols with the most apparent references,
// descending, counted with the same textual matching as SymbolReferences.
// Symbols with zero hits are excluded; topN <= 0 returns an empty slice.
func (q *QueryBuilder) Hotspots(topN int) []Hotspot {
	out := []Hotspot{}
	if topN <= 0 {
		return out
	}
	for _, s := range q.ix.Symbols {
		if n := len(q.SymbolReferences(s.Name)); n > 0 {
			out = append(out, Hotspot{Symbol: s, RefCount: n})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RefCount > out[j].RefCount })
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// isRelativeModule reports whether a specifier is project-relative: a ./ or
// ../ path, or a Python-style leading-dot module.
func isRelativeModule(module string) bool {
	return strings.HasPrefix(module, ".")
}

// resolveRelative resolves a relative specifier against the importing file's
// directory and returns the indexed file it names, trying the literal path,
// every registered extension, index.<ext>, and __init__.py. Empty when
// nothing in the index matches.
func (q *QueryBuilder) resolveRelative(from, module string) string {
	dir := path.Dir(from)

	var target string
	switch {
	case strings.HasPrefix(module, "./") || strings.HasPrefix(module, "../"):
		target = path.Join(dir, module)
	case strings.HasPrefix(module, "."):
		// Python dotted form: one leading dot is the current package, each
		// extra dot climbs a directory.
		rest := strings.TrimLeft(module, ".")
		up := len(module) - len(rest) - 1
		target = dir
		for ; up > 0; up-- {
			target = path.Join(target, "..")
		}
		if rest != "" {
			target = path.Join(target, strings.ReplaceAll(rest, ".", "/"))
		}
	default:
		return ""
	}

	if q.indexed(target) {
		return target
	}
	for _, ext := range q.eng.registry.Extensions() {
		if cand := target + ext; q.indexed(cand) {
			return cand
		}
		if cand := path.Join(target, "index"+ext); q.indexed(cand) {
			return cand
		}
	}
	if cand := path.Join(target, "__init__.py"); q.indexed(cand) {
		return cand
	}
	return ""
}

func (q *QueryBuilder) indexed(file string) bool {
	_, ok := q.ix.FileHashes[file]
	return ok
}

// moduleBase extracts a specifier's final name component: the last path
// segment with any extension stripped, or the last dotted segment for
// module-path specifiers without slashes. "./lib/utils.js", "lib/utils",
// and "pkg.utils" all yield "utils".
func moduleBase(module string) string {
	module = strings.TrimSuffix(module, "/")
	if i := strings.LastIndexByte(module, '/'); i >= 0 {
		return stripExt(module[i+1:])
	}
	module = strings.TrimLeft(module, ".")
	if i := strings.LastIndexByte(module, '.'); i >= 0 {
		return module[i+1:]
	}
	return module
}

func stripExt(p string) string {
	return strings.TrimSuffix(p, path.Ext(p))
}
