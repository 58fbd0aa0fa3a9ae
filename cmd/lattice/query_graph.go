package main

import (
	"github.com/spf13/cobra"
)

var depsCmd = &cobra.Command{
	Use:   "deps <file>",
	Short: "List a file's import references",
	Long:  "Shows every import and require reference recorded for the given project-relative file.",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeps,
}

func runDeps(cmd *cobra.Command, args []string) error {
	q, err := openQuery()
	if err != nil {
		return outputError("deps", err)
	}

	refs := q.FileDependencies(args[0])
	count := len(refs)
	return outputResult(CLIResult{
		Command:    "deps",
		Results:    referencesToCLI(refs),
		TotalCount: &count,
	})
}

var dependentsCmd = &cobra.Command{
	Use:   "dependents <file>",
	Short: "List files that import the given file",
	Long:  "Resolves relative imports across the index and lists files whose imports point at the given project-relative file.",
	Args:  cobra.ExactArgs(1),
	RunE:  runDependents,
}

func runDependents(cmd *cobra.Command, args []string) error {
	q, err := openQuery()
	if err != nil {
		return outputError("dependents", err)
	}

	files := q.FileDependents(args[0])
	count := len(files)
	return outputResult(CLIResult{
		Command:    "dependents",
		Results:    files,
		TotalCount: &count,
	})
}

var refsCmd = &cobra.Command{
	Use:   "refs <name>",
	Short: "List references that appear to target a symbol name",
	Long:  "Matches call references by function name and import references by module substring. Matching is textual; results are candidates, not resolved bindings.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRefs,
}

func runRefs(cmd *cobra.Command, args []string) error {
	q, err := openQuery()
	if err != nil {
		return outputError("refs", err)
	}

	refs := q.SymbolReferences(args[0])
	count := len(refs)
	return outputResult(CLIResult{
		Command:    "refs",
		Results:    referencesToCLI(refs),
		TotalCount: &count,
	})
}

var flagTop int

var hotspotsCmd = &cobra.Command{
	Use:   "hotspots",
	Short: "List the most-referenced symbols",
	Args:  cobra.NoArgs,
	RunE:  runHotspots,
}

func init() {
	hotspotsCmd.Flags().IntVar(&flagTop, "top", 10, "number of symbols to show")
}

func runHotspots(cmd *cobra.Command, args []string) error {
	q, err := openQuery()
	if err != nil {
		return outputError("hotspots", err)
	}

	hotspots := q.Hotspots(flagTop)
	count := len(hotspots)
	return outputResult(CLIResult{
		Command:    "hotspots",
		Results:    hotspotsToCLI(hotspots),
		TotalCount: &count,
	})
}
