package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var topicCmd = &cobra.Command{
	Use:   "topic <words>...",
	Short: "Find symbols by topic keywords",
	Long:  "Scores symbols by keyword overlap with names, file paths, and kinds. Deterministic; no external services involved.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTopic,
}

func runTopic(cmd *cobra.Command, args []string) error {
	q, err := openQuery()
	if err != nil {
		return outputError("topic", err)
	}

	scored := q.FindByTopic(strings.Join(args, " "), flagLimit)
	count := len(scored)
	return outputResult(CLIResult{
		Command:    "topic",
		Results:    scoredToCLI(scored),
		TotalCount: &count,
	})
}

var semanticCmd = &cobra.Command{
	Use:   "semantic <query>...",
	Short: "Search symbols by meaning",
	Long:  "Ranks topic candidates with the configured model when it is reachable and falls back to keyword scores otherwise. Results are always returned; only their order depends on the ranker.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSemantic,
}

func runSemantic(cmd *cobra.Command, args []string) error {
	q, err := openQuery()
	if err != nil {
		return outputError("semantic", err)
	}

	scored := q.SemanticSearch(cmd.Context(), strings.Join(args, " "), flagLimit)
	count := len(scored)
	return outputResult(CLIResult{
		Command:    "semantic",
		Results:    scoredToCLI(scored),
		TotalCount: &count,
	})
}

var flagBudget int

var smartContextCmd = &cobra.Command{
	Use:   "smart-context <task>...",
	Short: "Assemble source snippets relevant to a task",
	Long:  "Collects the symbols most relevant to the task with their source code, keeping total snippet size within --budget characters.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSmartContext,
}

func init() {
	smartContextCmd.Flags().IntVar(&flagBudget, "budget", 4000, "character budget for snippets")
}

func runSmartContext(cmd *cobra.Command, args []string) error {
	q, err := openQuery()
	if err != nil {
		return outputError("smart-context", err)
	}

	tc := q.SmartContext(cmd.Context(), strings.Join(args, " "), flagBudget)
	count := len(tc.Entries)
	return outputResult(CLIResult{
		Command:    "smart-context",
		Results:    taskContextToCLI(tc),
		TotalCount: &count,
	})
}

var explainCmd = &cobra.Command{
	Use:   "explain <id>",
	Short: "Describe a symbol in prose",
	Long:  "Builds a description from the symbol's kind, location, signature, and parameters. When the configured model is reachable, a summary of the symbol's source is appended.",
	Args:  cobra.ExactArgs(1),
	RunE:  runExplain,
}

func runExplain(cmd *cobra.Command, args []string) error {
	q, err := openQuery()
	if err != nil {
		return outputError("explain", err)
	}

	ex := q.ExplainSymbol(cmd.Context(), args[0])
	if ex == nil {
		return outputResult(CLIResult{
			Command: "explain",
			Results: nil,
		})
	}

	return outputResult(CLIResult{
		Command: "explain",
		Results: explanationToCLI(ex),
	})
}
