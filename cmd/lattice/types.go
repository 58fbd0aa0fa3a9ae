package main

import "time"

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLISymbol is a JSON-friendly symbol representation.
type CLISymbol struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	File      string   `json:"file"`
	StartLine int      `json:"start_line"`
	EndLine   int      `json:"end_line"`
	Exported  bool     `json:"exported"`
	Signature string   `json:"signature,omitempty"`
	Params    []string `json:"params,omitempty"`
	Extends   string   `json:"extends,omitempty"`
}

// CLIScoredSymbol pairs a symbol with its relevance score.
type CLIScoredSymbol struct {
	Symbol CLISymbol `json:"symbol"`
	Score  float64   `json:"score"`
}

// CLIReference is a JSON-friendly reference representation.
type CLIReference struct {
	Type   string `json:"type"`
	File   string `json:"file"`
	Line   int    `json:"line"`
	Module string `json:"module,omitempty"`
	Func   string `json:"func,omitempty"`
	Args   int    `json:"args,omitempty"`
}

// CLIStats is a JSON-friendly view of one build's stats.
type CLIStats struct {
	TotalFiles      int            `json:"total_files"`
	TotalSymbols    int            `json:"total_symbols"`
	TotalReferences int            `json:"total_references"`
	Languages       map[string]int `json:"languages,omitempty"`
	BuiltAt         time.Time      `json:"built_at"`
	DurationMS      int64          `json:"duration_ms"`
}

// CLIGraph is the whole-index import graph.
type CLIGraph struct {
	Nodes []string       `json:"nodes"`
	Edges []CLIGraphEdge `json:"edges"`
}

// CLIGraphEdge is one resolved relative import.
type CLIGraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// CLIHotspot pairs a symbol with its apparent reference count.
type CLIHotspot struct {
	Symbol   CLISymbol `json:"symbol"`
	RefCount int       `json:"ref_count"`
}

// CLISummary is the rolled-up view of the index.
type CLISummary struct {
	Root            string         `json:"root"`
	TotalFiles      int            `json:"total_files"`
	TotalSymbols    int            `json:"total_symbols"`
	TotalReferences int            `json:"total_references"`
	Languages       map[string]int `json:"languages"`
	Kinds           map[string]int `json:"kinds"`
	Directories     map[string]int `json:"directories"`
	BuiltAt         time.Time      `json:"built_at"`
}

// CLIFileSummary bundles one file's symbols, imports, and dependents.
type CLIFileSummary struct {
	File       string         `json:"file"`
	Language   string         `json:"language"`
	Hash       string         `json:"hash"`
	Symbols    []CLISymbol    `json:"symbols"`
	Imports    []CLIReference `json:"imports"`
	Dependents []string       `json:"dependents"`
}

// CLISymbolContext is a source window around one symbol.
type CLISymbolContext struct {
	Symbol    CLISymbol `json:"symbol"`
	Before    []string  `json:"before"`
	Code      []string  `json:"code"`
	After     []string  `json:"after"`
	FirstLine int       `json:"first_line"`
}

// CLITaskContext is the assembled working context for a task.
type CLITaskContext struct {
	Task     string            `json:"task"`
	Budget   int               `json:"budget"`
	Entries  []CLIContextEntry `json:"entries"`
	Enhanced bool              `json:"enhanced"`
}

// CLIContextEntry is one symbol plus its source snippet.
type CLIContextEntry struct {
	Symbol CLISymbol `json:"symbol"`
	Code   string    `json:"code"`
}

// CLIExplanation is a prose description of one symbol.
type CLIExplanation struct {
	Symbol   CLISymbol `json:"symbol"`
	Text     string    `json:"text"`
	Enhanced bool      `json:"enhanced"`
}
