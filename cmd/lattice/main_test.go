package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jward/lattice"
	"github.com/stretchr/testify/assert"
)

func TestFindProjectRoot_LatticeDir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".lattice"), 0o755); err != nil {
		t.Fatal(err)
	}
	deep := filepath.Join(root, "sub", "deep")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatal(err)
	}

	got := findProjectRoot(deep)
	assert.Equal(t, root, got)
}

func TestFindProjectRoot_GitDir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}

	got := findProjectRoot(root)
	assert.Equal(t, root, got)
}

func TestFindProjectRoot_NoMarker(t *testing.T) {
	t.Parallel()
	// TempDir has no .lattice or .git directory anywhere in its ancestry
	// (unless /tmp itself is a repo, which would be unusual).
	dir := t.TempDir()

	got := findProjectRoot(dir)
	assert.Equal(t, dir, got)
}

func TestFindProjectRoot_LatticeFileIgnored(t *testing.T) {
	t.Parallel()
	// A plain file named .lattice is not a cache directory.
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ".lattice"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := findProjectRoot(root)
	assert.Equal(t, root, got)
}

func TestSplitList(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"javascript", "python"}, splitList("javascript, python"))
	assert.Equal(t, []string{"go"}, splitList("go,"))
	assert.Nil(t, splitList(""))
	assert.Nil(t, splitList(" , "))
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validateFormat("json"))
	assert.NoError(t, validateFormat("text"))
	assert.Error(t, validateFormat("yaml"))
	assert.Error(t, validateFormat(""))
}

func TestBuildSort_Fields(t *testing.T) {
	orig, origOrder := flagSort, flagOrder
	defer func() { flagSort, flagOrder = orig, origOrder }()

	flagSort, flagOrder = "name", "desc"
	s := buildSort()
	assert.Equal(t, lattice.SortByName, s.Field)
	assert.Equal(t, lattice.Desc, s.Order)

	flagSort, flagOrder = "line", "asc"
	s = buildSort()
	assert.Equal(t, lattice.SortByLine, s.Field)
	assert.Equal(t, lattice.Asc, s.Order)

	// Unknown field keeps extraction order, unknown order defaults to asc.
	flagSort, flagOrder = "bogus", "bogus"
	s = buildSort()
	assert.Equal(t, lattice.SortField(""), s.Field)
	assert.Equal(t, lattice.Asc, s.Order)
}

func TestSymbolToCLI_CopiesFields(t *testing.T) {
	t.Parallel()
	sym := lattice.Symbol{
		ID:        "src/auth.js:login",
		Name:      "login",
		Kind:      "function",
		File:      "src/auth.js",
		StartLine: 3,
		EndLine:   9,
		Exported:  true,
		Signature: "function login(user, password)",
		Params:    []string{"user", "password"},
	}

	cli := symbolToCLI(sym)
	assert.Equal(t, sym.ID, cli.ID)
	assert.Equal(t, sym.Name, cli.Name)
	assert.Equal(t, sym.Kind, cli.Kind)
	assert.Equal(t, sym.File, cli.File)
	assert.Equal(t, sym.StartLine, cli.StartLine)
	assert.Equal(t, sym.EndLine, cli.EndLine)
	assert.True(t, cli.Exported)
	assert.Equal(t, sym.Params, cli.Params)
}

func TestResultLen(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 2, resultLen([]CLISymbol{{}, {}}))
	assert.Equal(t, 3, resultLen([]string{"a", "b", "c"}))
	assert.Equal(t, 1, resultLen(CLIGraph{Edges: []CLIGraphEdge{{From: "a", To: "b"}}}))
	assert.Equal(t, 0, resultLen(nil))
	assert.Equal(t, 1, resultLen(CLIStats{}))
}
