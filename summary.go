package lattice

import (
	"os"
	"path"
	"strings"
	"time"
)

// CodebaseSummary is the rolled-up view of one index.
type CodebaseSummary struct {
	Root            string         `json:"root"`
	TotalFiles      int            `json:"totalFiles"`
	TotalSymbols    int            `json:"totalSymbols"`
	TotalReferences int            `json:"totalReferences"`
	Languages       map[string]int `json:"languages"`   // language ID -> file count
	Kinds           map[string]int `json:"kinds"`       // symbol kind -> count
	Directories     map[string]int `json:"directories"` // top-level directory -> file count
	BuiltAt         time.Time      `json:"builtAt"`
}

// Summary rolls the index up: totals, per-language file counts, the kind
// distribution, and file counts per top-level directory. Files at the root
// are counted under ".".
func (q *QueryBuilder) Summary() *CodebaseSummary {
	sum := &CodebaseSummary{
		Root:            q.eng.root,
		TotalFiles:      q.ix.Stats.TotalFiles,
		TotalSymbols:    q.ix.Stats.TotalSymbols,
		TotalReferences: q.ix.Stats.TotalReferences,
		Languages:       map[string]int{},
		Kinds:           map[string]int{},
		Directories:     map[string]int{},
		BuiltAt:         q.ix.Stats.BuiltAt,
	}
	for l, n := range q.ix.Stats.Languages {
		sum.Languages[l] = n
	}
	for _, s := range q.ix.Symbols {
		sum.Kinds[s.Kind]++
	}
	for f := range q.ix.FileHashes {
		top := "."
		if i := strings.IndexByte(f, '/'); i >= 0 {
			top = f[:i]
		}
		sum.Directories[top]++
	}
	return sum
}

// FileSummary bundles one file's symbols, its recorded imports, and its
// apparent dependents.
type FileSummary struct {
	File       string      `json:"file"`
	Language   string      `json:"language"`
	Hash       string      `json:"hash"`
	Symbols    []Symbol    `json:"symbols"`
	Imports    []Reference `json:"imports"`
	Dependents []string    `json:"dependents"`
}

// FileSummary summarizes one indexed file, or nil when the file is not in
// the index.
func (q *QueryBuilder) FileSummary(file string) *FileSummary {
	file = normalizePath(file)
	hash, ok := q.ix.FileHashes[file]
	if !ok {
		return nil
	}
	language := ""
	if a, ok := q.eng.registry.ForExtension(path.Ext(file)); ok {
		language = a.ID
	}
	return &FileSummary{
		File:       file,
		Language:   language,
		Hash:       hash,
		Symbols:    q.FindByFile(file),
		Imports:    q.FileDependencies(file),
		Dependents: q.FileDependents(file),
	}
}

// SymbolContext is a symbol's source span plus surrounding lines.
type SymbolContext struct {
	Symbol    Symbol   `json:"symbol"`
	Before    []string `json:"before"`
	Code      []string `json:"code"`
	After     []string `json:"after"`
	FirstLine int      `json:"firstLine"` // 1-based line number of the first returned line
}

// SymbolContext returns the symbol's source span with up to before/after
// surrounding lines, read from disk at call time. A file that has moved or
// shrunk since indexing yields empty line slices, not an error. Nil when the
// ID is unknown.
func (q *QueryBuilder) SymbolContext(id string, before, after int) *SymbolContext {
	s := q.FindByID(id)
	if s == nil {
		return nil
	}
	if before < 0 {
		before = 0
	}
	if after < 0 {
		after = 0
	}

	sc := &SymbolContext{
		Symbol:    *s,
		Before:    []string{},
		Code:      []string{},
		After:     []string{},
		FirstLine: s.StartLine,
	}

	lines := q.fileLines(s.File)
	if lines == nil || s.StartLine < 1 || s.StartLine > len(lines) {
		return sc
	}
	n := len(lines)
	end := s.EndLine
	if end > n {
		end = n
	}
	if end < s.StartLine {
		end = s.StartLine
	}

	from := s.StartLine - before
	if from < 1 {
		from = 1
	}
	to := end + after
	if to > n {
		to = n
	}

	sc.FirstLine = from
	sc.Before = append(sc.Before, lines[from-1:s.StartLine-1]...)
	sc.Code = append(sc.Code, lines[s.StartLine-1:end]...)
	sc.After = append(sc.After, lines[end:to]...)
	return sc
}

// fileLines reads a project file and splits it into lines, nil when
// unreadable.
func (q *QueryBuilder) fileLines(file string) []string {
	content, err := os.ReadFile(q.eng.abs(file))
	if err != nil {
		return nil
	}
	return strings.Split(string(content), "\n")
}

// readSymbolCode returns the symbol's source span as one string, empty when
// the file is gone or the span falls outside it.
func (q *QueryBuilder) readSymbolCode(s Symbol) string {
	lines := q.fileLines(s.File)
	if lines == nil || s.StartLine < 1 || s.StartLine > len(lines) {
		return ""
	}
	end := s.EndLine
	if end > len(lines) {
		end = len(lines)
	}
	if end < s.StartLine {
		end = s.StartLine
	}
	return strings.Join(lines[s.StartLine-1:end], "\n")
}
