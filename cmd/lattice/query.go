package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jward/lattice"
	"github.com/spf13/cobra"
)

var (
	flagLimit  int
	flagOffset int
	flagSort   string
	flagOrder  string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the index snapshot",
	Long:  "Run queries against a built index. All line numbers are 1-based.",
}

func init() {
	queryCmd.PersistentFlags().IntVar(&flagLimit, "limit", 50, "pagination limit (max 500)")
	queryCmd.PersistentFlags().IntVar(&flagOffset, "offset", 0, "pagination offset")
	queryCmd.PersistentFlags().StringVar(&flagSort, "sort", "", "sort field: name|kind|file|line")
	queryCmd.PersistentFlags().StringVar(&flagOrder, "order", "asc", "sort order: asc|desc")

	queryCmd.AddCommand(symbolsCmd)
	queryCmd.AddCommand(searchCmd)
	queryCmd.AddCommand(symbolCmd)
	queryCmd.AddCommand(contextCmd)
	queryCmd.AddCommand(depsCmd)
	queryCmd.AddCommand(dependentsCmd)
	queryCmd.AddCommand(refsCmd)
	queryCmd.AddCommand(hotspotsCmd)
	queryCmd.AddCommand(topicCmd)
	queryCmd.AddCommand(semanticCmd)
	queryCmd.AddCommand(smartContextCmd)
	queryCmd.AddCommand(explainCmd)
	queryCmd.AddCommand(summaryCmd)
	queryCmd.AddCommand(fileSummaryCmd)
}

// --- Output helpers ---

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

// buildPagination creates a Pagination from CLI flags.
func buildPagination() lattice.Pagination {
	return lattice.Pagination{
		Limit:  flagLimit,
		Offset: flagOffset,
	}
}

// buildSort creates a Sort from CLI flags.
func buildSort() lattice.Sort {
	var field lattice.SortField
	switch flagSort {
	case "name":
		field = lattice.SortByName
	case "kind":
		field = lattice.SortByKind
	case "file":
		field = lattice.SortByFile
	case "line":
		field = lattice.SortByLine
	}

	order := lattice.Asc
	if flagOrder == "desc" {
		order = lattice.Desc
	}

	return lattice.Sort{Field: field, Order: order}
}

// --- Converters ---

func symbolToCLI(s lattice.Symbol) CLISymbol {
	return CLISymbol{
		ID:        s.ID,
		Name:      s.Name,
		Kind:      s.Kind,
		File:      s.File,
		StartLine: s.StartLine,
		EndLine:   s.EndLine,
		Exported:  s.Exported,
		Signature: s.Signature,
		Params:    s.Params,
		Extends:   s.Extends,
	}
}

func symbolsToCLI(syms []lattice.Symbol) []CLISymbol {
	out := make([]CLISymbol, len(syms))
	for i, s := range syms {
		out[i] = symbolToCLI(s)
	}
	return out
}

func scoredToCLI(scored []lattice.ScoredSymbol) []CLIScoredSymbol {
	out := make([]CLIScoredSymbol, len(scored))
	for i, ss := range scored {
		out[i] = CLIScoredSymbol{Symbol: symbolToCLI(ss.Symbol), Score: ss.Score}
	}
	return out
}

func referencesToCLI(refs []lattice.Reference) []CLIReference {
	out := make([]CLIReference, len(refs))
	for i, r := range refs {
		out[i] = CLIReference{
			Type:   r.Type,
			File:   r.File,
			Line:   r.Line,
			Module: r.Module,
			Func:   r.Func,
			Args:   r.Args,
		}
	}
	return out
}

func statsToCLI(stats lattice.Stats) CLIStats {
	return CLIStats{
		TotalFiles:      stats.TotalFiles,
		TotalSymbols:    stats.TotalSymbols,
		TotalReferences: stats.TotalReferences,
		Languages:       stats.Languages,
		BuiltAt:         stats.BuiltAt,
		DurationMS:      stats.DurationMS,
	}
}

func graphToCLI(g *lattice.DependencyGraph) CLIGraph {
	edges := make([]CLIGraphEdge, len(g.Edges))
	for i, e := range g.Edges {
		edges[i] = CLIGraphEdge{From: e.From, To: e.To}
	}
	return CLIGraph{Nodes: g.Nodes, Edges: edges}
}

func hotspotsToCLI(hotspots []lattice.Hotspot) []CLIHotspot {
	out := make([]CLIHotspot, len(hotspots))
	for i, h := range hotspots {
		out[i] = CLIHotspot{Symbol: symbolToCLI(h.Symbol), RefCount: h.RefCount}
	}
	return out
}

func summaryToCLI(sum *lattice.CodebaseSummary) CLISummary {
	return CLISummary{
		Root:            sum.Root,
		TotalFiles:      sum.TotalFiles,
		TotalSymbols:    sum.TotalSymbols,
		TotalReferences: sum.TotalReferences,
		Languages:       sum.Languages,
		Kinds:           sum.Kinds,
		Directories:     sum.Directories,
		BuiltAt:         sum.BuiltAt,
	}
}

func fileSummaryToCLI(fs *lattice.FileSummary) CLIFileSummary {
	return CLIFileSummary{
		File:       fs.File,
		Language:   fs.Language,
		Hash:       fs.Hash,
		Symbols:    symbolsToCLI(fs.Symbols),
		Imports:    referencesToCLI(fs.Imports),
		Dependents: fs.Dependents,
	}
}

func contextToCLI(sc *lattice.SymbolContext) CLISymbolContext {
	return CLISymbolContext{
		Symbol:    symbolToCLI(sc.Symbol),
		Before:    sc.Before,
		Code:      sc.Code,
		After:     sc.After,
		FirstLine: sc.FirstLine,
	}
}

func taskContextToCLI(tc *lattice.TaskContext) CLITaskContext {
	entries := make([]CLIContextEntry, len(tc.Entries))
	for i, e := range tc.Entries {
		entries[i] = CLIContextEntry{Symbol: symbolToCLI(e.Symbol), Code: e.Code}
	}
	return CLITaskContext{
		Task:     tc.Task,
		Budget:   tc.Budget,
		Entries:  entries,
		Enhanced: tc.Enhanced,
	}
}

func explanationToCLI(ex *lattice.SymbolExplanation) CLIExplanation {
	return CLIExplanation{
		Symbol:   symbolToCLI(ex.Symbol),
		Text:     ex.Text,
		Enhanced: ex.Enhanced,
	}
}

// --- Discovery Commands ---

var (
	flagKind     string
	flagName     string
	flagFile     string
	flagExported bool
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "List symbols, optionally filtered",
	Long:  "Lists indexed symbols. Filters AND-combine: --kind matches exactly, --name and --file match as substrings, --exported keeps only exported symbols.",
	Args:  cobra.NoArgs,
	RunE:  runSymbols,
}

func init() {
	symbolsCmd.Flags().StringVar(&flagKind, "kind", "", "filter by kind (function, class, variable, ...)")
	symbolsCmd.Flags().StringVar(&flagName, "name", "", "filter by name substring (case-insensitive)")
	symbolsCmd.Flags().StringVar(&flagFile, "file", "", "filter by file path substring")
	symbolsCmd.Flags().BoolVar(&flagExported, "exported", false, "only exported symbols")
}

func runSymbols(cmd *cobra.Command, args []string) error {
	q, err := openQuery()
	if err != nil {
		return outputError("symbols", err)
	}

	filter := lattice.SymbolFilter{
		Kind: flagKind,
		Name: flagName,
		File: flagFile,
	}
	if flagExported {
		yes := true
		filter.Exported = &yes
	}

	page, err := q.Search(filter, buildSort(), buildPagination())
	if err != nil {
		return outputError("symbols", err)
	}

	return outputResult(CLIResult{
		Command:    "symbols",
		Results:    symbolsToCLI(page.Items),
		TotalCount: &page.TotalCount,
	})
}

var searchCmd = &cobra.Command{
	Use:   "search <pattern>",
	Short: "Search symbols by regular expression",
	Long:  "Matches the pattern against both symbol names and file paths; either hit keeps the symbol.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	q, err := openQuery()
	if err != nil {
		return outputError("search", err)
	}

	page, err := q.Search(lattice.SymbolFilter{Pattern: args[0]}, buildSort(), buildPagination())
	if err != nil {
		return outputError("search", err)
	}

	return outputResult(CLIResult{
		Command:    "search",
		Results:    symbolsToCLI(page.Items),
		TotalCount: &page.TotalCount,
	})
}

var symbolCmd = &cobra.Command{
	Use:   "symbol <id>",
	Short: "Look up one symbol by ID",
	Long:  "Symbol IDs have the form file:name, e.g. src/auth.js:login.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSymbol,
}

func runSymbol(cmd *cobra.Command, args []string) error {
	q, err := openQuery()
	if err != nil {
		return outputError("symbol", err)
	}

	sym := q.FindByID(args[0])
	if sym == nil {
		return outputResult(CLIResult{
			Command: "symbol",
			Results: nil,
		})
	}

	one := 1
	return outputResult(CLIResult{
		Command:    "symbol",
		Results:    symbolToCLI(*sym),
		TotalCount: &one,
	})
}

var (
	flagBefore int
	flagAfter  int
)

var contextCmd = &cobra.Command{
	Use:   "context <id>",
	Short: "Show a symbol with surrounding source lines",
	Long:  "Reads the symbol's file from disk and prints its lines with --before and --after lines of context. Files changed since indexing may yield a shorter window.",
	Args:  cobra.ExactArgs(1),
	RunE:  runContext,
}

func init() {
	contextCmd.Flags().IntVar(&flagBefore, "before", 3, "context lines before the symbol")
	contextCmd.Flags().IntVar(&flagAfter, "after", 3, "context lines after the symbol")
}

func runContext(cmd *cobra.Command, args []string) error {
	q, err := openQuery()
	if err != nil {
		return outputError("context", err)
	}

	sc := q.SymbolContext(args[0], flagBefore, flagAfter)
	if sc == nil {
		return outputError("context", fmt.Errorf("symbol not found: %s", args[0]))
	}

	return outputResult(CLIResult{
		Command: "context",
		Results: contextToCLI(sc),
	})
}
