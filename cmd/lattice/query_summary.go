package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a rolled-up view of the codebase",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	q, err := openQuery()
	if err != nil {
		return outputError("summary", err)
	}

	return outputResult(CLIResult{
		Command: "summary",
		Results: summaryToCLI(q.Summary()),
	})
}

var fileSummaryCmd = &cobra.Command{
	Use:   "file-summary <file>",
	Short: "Show one file's symbols, imports, and dependents",
	Args:  cobra.ExactArgs(1),
	RunE:  runFileSummary,
}

func runFileSummary(cmd *cobra.Command, args []string) error {
	q, err := openQuery()
	if err != nil {
		return outputError("file-summary", err)
	}

	fs := q.FileSummary(args[0])
	if fs == nil {
		return outputError("file-summary", fmt.Errorf("file not indexed: %s", args[0]))
	}

	return outputResult(CLIResult{
		Command: "file-summary",
		Results: fileSummaryToCLI(fs),
	})
}
