package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
)

// formatSymbolsText formats CLISymbol results as aligned columns.
func formatSymbolsText(w io.Writer, syms []CLISymbol) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tFILE\tLINE\tEXPORTED")
	for _, s := range syms {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%t\n",
			s.Name, s.Kind, s.File, s.StartLine, s.Exported)
	}
	tw.Flush()
}

// formatScoredSymbolsText formats CLIScoredSymbol results as aligned columns.
func formatScoredSymbolsText(w io.Writer, scored []CLIScoredSymbol) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tNAME\tKIND\tFILE\tLINE")
	for _, ss := range scored {
		fmt.Fprintf(tw, "%.2f\t%s\t%s\t%s\t%d\n",
			ss.Score, ss.Symbol.Name, ss.Symbol.Kind, ss.Symbol.File, ss.Symbol.StartLine)
	}
	tw.Flush()
}

// formatReferencesText formats CLIReference results as aligned columns.
func formatReferencesText(w io.Writer, refs []CLIReference) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tMODULE\tFUNC\tFILE\tLINE")
	for _, r := range refs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			r.Type, r.Module, r.Func, r.File, r.Line)
	}
	tw.Flush()
}

// formatHotspotsText formats CLIHotspot results as aligned columns.
func formatHotspotsText(w io.Writer, hotspots []CLIHotspot) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "REFS\tNAME\tKIND\tFILE")
	for _, h := range hotspots {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n",
			h.RefCount, h.Symbol.Name, h.Symbol.Kind, h.Symbol.File)
	}
	tw.Flush()
}

// formatLinesText prints plain string results one per line.
func formatLinesText(w io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}

// formatStatsText formats CLIStats as readable text.
func formatStatsText(w io.Writer, stats CLIStats) {
	fmt.Fprintf(w, "Files: %d\n", stats.TotalFiles)
	fmt.Fprintf(w, "Symbols: %d\n", stats.TotalSymbols)
	fmt.Fprintf(w, "References: %d\n", stats.TotalReferences)
	if len(stats.Languages) > 0 {
		fmt.Fprintln(w, "Languages:")
		for _, lang := range sortedKeys(stats.Languages) {
			fmt.Fprintf(w, "  %s: %d files\n", lang, stats.Languages[lang])
		}
	}
	fmt.Fprintf(w, "Built: %s (%dms)\n", stats.BuiltAt.Format("2006-01-02 15:04:05"), stats.DurationMS)
}

// formatSummaryText formats CLISummary as readable text.
func formatSummaryText(w io.Writer, summary CLISummary) {
	fmt.Fprintln(w, "Codebase Summary")
	fmt.Fprintln(w, "================")
	fmt.Fprintf(w, "Root: %s\n", summary.Root)
	fmt.Fprintf(w, "Files: %d, Symbols: %d, References: %d\n",
		summary.TotalFiles, summary.TotalSymbols, summary.TotalReferences)
	fmt.Fprintln(w)

	if len(summary.Languages) > 0 {
		fmt.Fprintln(w, "Languages:")
		for _, lang := range sortedKeys(summary.Languages) {
			fmt.Fprintf(w, "  %s: %d files\n", lang, summary.Languages[lang])
		}
		fmt.Fprintln(w)
	}

	if len(summary.Kinds) > 0 {
		fmt.Fprintln(w, "Symbol Kinds:")
		for _, kind := range sortedKeys(summary.Kinds) {
			fmt.Fprintf(w, "  %s: %d\n", kind, summary.Kinds[kind])
		}
		fmt.Fprintln(w)
	}

	if len(summary.Directories) > 0 {
		fmt.Fprintln(w, "Directories:")
		for _, dir := range sortedKeys(summary.Directories) {
			fmt.Fprintf(w, "  %s: %d files\n", dir, summary.Directories[dir])
		}
	}
}

// formatFileSummaryText formats CLIFileSummary as readable text.
func formatFileSummaryText(w io.Writer, fs CLIFileSummary) {
	fmt.Fprintf(w, "File: %s\n", fs.File)
	fmt.Fprintf(w, "Language: %s\n", fs.Language)
	fmt.Fprintln(w)

	if len(fs.Symbols) > 0 {
		fmt.Fprintln(w, "Symbols:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  NAME\tKIND\tLINE\tEXPORTED")
		for _, s := range fs.Symbols {
			fmt.Fprintf(tw, "  %s\t%s\t%d\t%t\n", s.Name, s.Kind, s.StartLine, s.Exported)
		}
		tw.Flush()
		fmt.Fprintln(w)
	}

	if len(fs.Imports) > 0 {
		fmt.Fprintln(w, "Imports:")
		for _, imp := range fs.Imports {
			fmt.Fprintf(w, "  %s (line %d)\n", imp.Module, imp.Line)
		}
		fmt.Fprintln(w)
	}

	if len(fs.Dependents) > 0 {
		fmt.Fprintln(w, "Dependents:")
		for _, dep := range fs.Dependents {
			fmt.Fprintf(w, "  %s\n", dep)
		}
	}
}

// formatGraphText formats the dependency graph as "from -> to" lines,
// followed by files that import nothing and are imported by nothing.
func formatGraphText(w io.Writer, g CLIGraph) {
	connected := map[string]bool{}
	for _, e := range g.Edges {
		fmt.Fprintf(w, "%s -> %s\n", e.From, e.To)
		connected[e.From] = true
		connected[e.To] = true
	}
	var isolated []string
	for _, n := range g.Nodes {
		if !connected[n] {
			isolated = append(isolated, n)
		}
	}
	if len(isolated) > 0 {
		fmt.Fprintln(w, "\nNo edges:")
		for _, n := range isolated {
			fmt.Fprintf(w, "  %s\n", n)
		}
	}
}

// formatSymbolContextText prints the source window with 1-based line
// numbers, marking the symbol's own lines.
func formatSymbolContextText(w io.Writer, sc CLISymbolContext) {
	fmt.Fprintf(w, "%s (%s:%d)\n", sc.Symbol.Name, sc.Symbol.File, sc.Symbol.StartLine)
	line := sc.FirstLine
	for _, text := range sc.Before {
		fmt.Fprintf(w, "  %4d  %s\n", line, text)
		line++
	}
	for _, text := range sc.Code {
		fmt.Fprintf(w, "> %4d  %s\n", line, text)
		line++
	}
	for _, text := range sc.After {
		fmt.Fprintf(w, "  %4d  %s\n", line, text)
		line++
	}
}

// formatTaskContextText prints each context entry with a header line.
func formatTaskContextText(w io.Writer, tc CLITaskContext) {
	fmt.Fprintf(w, "Task: %s (budget %d", tc.Task, tc.Budget)
	if tc.Enhanced {
		fmt.Fprint(w, ", ranked")
	}
	fmt.Fprintln(w, ")")
	for _, entry := range tc.Entries {
		fmt.Fprintf(w, "\n--- %s (%s:%d) ---\n", entry.Symbol.Name, entry.Symbol.File, entry.Symbol.StartLine)
		fmt.Fprintln(w, entry.Code)
	}
}

// formatExplanationText prints the explanation prose.
func formatExplanationText(w io.Writer, ex CLIExplanation) {
	fmt.Fprintln(w, ex.Text)
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type. It writes to os.Stdout.
func outputResultText(result CLIResult) error {
	w := io.Writer(os.Stdout)

	switch v := result.Results.(type) {
	case []CLISymbol:
		formatSymbolsText(w, v)
	case CLISymbol:
		formatSymbolsText(w, []CLISymbol{v})
	case []CLIScoredSymbol:
		formatScoredSymbolsText(w, v)
	case []CLIReference:
		formatReferencesText(w, v)
	case []CLIHotspot:
		formatHotspotsText(w, v)
	case []string:
		formatLinesText(w, v)
	case CLIStats:
		formatStatsText(w, v)
	case CLISummary:
		formatSummaryText(w, v)
	case CLIFileSummary:
		formatFileSummaryText(w, v)
	case CLIGraph:
		formatGraphText(w, v)
	case CLISymbolContext:
		formatSymbolContextText(w, v)
	case CLITaskContext:
		formatTaskContextText(w, v)
	case CLIExplanation:
		formatExplanationText(w, v)
	case nil:
		// No output for nil results (e.g., symbol lookup with no match).
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}

	// Pagination footer.
	if result.TotalCount != nil {
		count := *result.TotalCount
		shown := resultLen(result.Results)
		if shown < count {
			fmt.Fprintf(w, "\nShowing %d of %d results\n", shown, count)
		}
	}

	return nil
}

// resultLen returns the length of a result slice, or 1 for a single value.
func resultLen(v any) int {
	switch r := v.(type) {
	case []CLISymbol:
		return len(r)
	case []CLIScoredSymbol:
		return len(r)
	case []CLIReference:
		return len(r)
	case []CLIHotspot:
		return len(r)
	case []string:
		return len(r)
	case CLIGraph:
		return len(r.Edges)
	case nil:
		return 0
	default:
		return 1
	}
}

// sortedKeys returns a map's keys in sorted order for stable text output.
func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
