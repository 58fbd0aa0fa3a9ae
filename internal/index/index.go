// Package index defines the serialized data model shared by the builder and
// the query engine: symbols, references, file hashes, and build stats, plus
// the JSON snapshot codec used by the persistent cache.
package index

import "time"

// Symbol kinds. Adapters may emit further language-specific kinds; these
// cover the common set the query engine and CLI know by name.
const (
	KindFunction  = "function"
	KindClass     = "class"
	KindMethod    = "method"
	KindVariable  = "variable"
	KindConstant  = "constant"
	KindComponent = "component"
	KindHook      = "hook"
	KindInterface = "interface"
	KindType      = "type"
	KindStruct    = "struct"
	KindEnum      = "enum"
	KindTrait     = "trait"
)

// Reference types.
const (
	RefImport  = "import"
	RefRequire = "require"
	RefCall    = "call"
)

// Symbol is a named, locatable code entity extracted from a source file.
// ID is "file:name" and is unique within an Index: when two patterns (or two
// declarations) produce the same ID during one scan, the first match wins and
// later ones are discarded.
type Symbol struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Kind        string   `json:"kind"`
	File        string   `json:"file"`
	StartLine   int      `json:"startLine"`
	EndLine     int      `json:"endLine"`
	Exported    bool     `json:"exported"`
	ContentHash string   `json:"contentHash"`
	Signature   string   `json:"signature,omitempty"`
	Params      []string `json:"params,omitempty"`
	Extends     string   `json:"extends,omitempty"`
}

// Reference records one occurrence of a symbol-consuming construct at a
// file:line location. References are an append-only log and are never
// de-duplicated: the same import seen twice is recorded twice.
type Reference struct {
	Type   string `json:"type"`
	File   string `json:"file"`
	Line   int    `json:"line"`
	Module string `json:"module,omitempty"`
	Func   string `json:"func,omitempty"`
	Args   int    `json:"args,omitempty"`
}

// IsDependency reports whether the reference contributes an edge to file
// dependency queries (import and require forms do, calls do not).
func (r Reference) IsDependency() bool {
	return r.Type == RefImport || r.Type == RefRequire
}

// Stats summarizes one build.
type Stats struct {
	TotalFiles      int            `json:"totalFiles"`
	TotalSymbols    int            `json:"totalSymbols"`
	TotalReferences int            `json:"totalReferences"`
	Languages       map[string]int `json:"languages,omitempty"`
	BuiltAt         time.Time      `json:"builtAt"`
	DurationMS      int64          `json:"durationMs"`
}

// Index is the complete product of a scan: the symbol list in extraction
// order, the reference log, the per-file content hashes used for change
// detection, and build stats. It is created by a full scan, updated by
// incremental scans, serialized as one JSON snapshot, and treated as
// read-only once handed to the query engine.
type Index struct {
	Symbols    []Symbol          `json:"symbols"`
	References []Reference       `json:"references"`
	FileHashes map[string]string `json:"fileHashes"`
	Stats      Stats             `json:"stats"`
}

// New returns an empty Index with initialized containers.
func New() *Index {
	return &Index{
		Symbols:    []Symbol{},
		References: []Reference{},
		FileHashes: map[string]string{},
	}
}

// Finalize fills in the derived stats counters. BuiltAt and DurationMS are
// the caller's to set.
func (ix *Index) Finalize() {
	ix.Stats.TotalFiles = len(ix.FileHashes)
	ix.Stats.TotalSymbols = len(ix.Symbols)
	ix.Stats.TotalReferences = len(ix.References)
}

// SymbolsForFile returns the symbols recorded for one file, in extraction
// order. The path must already be normalized (project-relative, forward
// slashes).
func (ix *Index) SymbolsForFile(file string) []Symbol {
	var out []Symbol
	for _, s := range ix.Symbols {
		if s.File == file {
			out = append(out, s)
		}
	}
	return out
}
