package lattice

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rebuild(t *testing.T, e *Engine, opts BuildOptions) Stats {
	t.Helper()
	stats, err := e.Build(context.Background(), opts)
	require.NoError(t, err)
	return stats
}

func TestIncremental_UnchangedFilesCarried(t *testing.T) {
	files := map[string]string{
		"a.js": "function alpha() {}\n",
		"b.js": "function beta() {}\n",
	}
	root := t.TempDir()
	writeProject(t, root, files)
	e := newTestEngine(t, root)
	rebuild(t, e, BuildOptions{})

	q, _ := e.Query()
	before := q.Symbols()

	rebuild(t, e, BuildOptions{Incremental: true})
	q, _ = e.Query()
	after := q.Symbols()

	// Nothing changed, so ids and fields are carried verbatim.
	assert.Equal(t, before, after)
}

func TestIncremental_ChangedFileReplaced(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, map[string]string{
		"a.js": "function alpha() {}\n",
		"b.js": "function beta() {}\n",
	})
	e := newTestEngine(t, root)
	rebuild(t, e, BuildOptions{})

	writeProject(t, root, map[string]string{
		"b.js": "function gamma() {}\nfunction delta() {}\n",
	})
	rebuild(t, e, BuildOptions{Incremental: true})

	q, _ := e.Query()
	names := symbolNames(q.Symbols())
	assert.Contains(t, names, "alpha")
	assert.Contains(t, names, "gamma")
	assert.Contains(t, names, "delta")
	// The modified file's old symbols are fully replaced.
	assert.NotContains(t, names, "beta")
}

func TestIncremental_NewFileAdded(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, map[string]string{"a.js": "function alpha() {}\n"})
	e := newTestEngine(t, root)
	rebuild(t, e, BuildOptions{})

	writeProject(t, root, map[string]string{"new.js": "function fresh() {}\n"})
	stats := rebuild(t, e, BuildOptions{Incremental: true})

	assert.Equal(t, 2, stats.TotalFiles)
	q, _ := e.Query()
	assert.Contains(t, symbolNames(q.Symbols()), "fresh")
}

func TestIncremental_DeletedFileDropped(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, map[string]string{
		"a.js":    "function alpha() {}\n",
		"gone.js": "function doomed() {}\n",
	})
	e := newTestEngine(t, root)
	rebuild(t, e, BuildOptions{})

	require.NoError(t, os.Remove(filepath.Join(root, "gone.js")))
	stats := rebuild(t, e, BuildOptions{Incremental: true})

	assert.Equal(t, 1, stats.TotalFiles)
	q, _ := e.Query()
	assert.Equal(t, []string{"alpha"}, symbolNames(q.Symbols()))
	assert.Nil(t, q.FindByID("gone.js:doomed"))
}

// Symbols of unchanged files are carried forward by hash, but the reference
// log is rebuilt from re-extracted files only, so references recorded for
// unchanged files do not survive an incremental pass. Deliberate asymmetry;
// full dependency accuracy needs a full rebuild.
func TestIncremental_ReferenceAsymmetry(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, map[string]string{
		"a.js": "import './b';\nfunction alpha() {}\n",
		"b.js": "import './c';\nfunction beta() {}\n",
		"c.js": "function gamma() {}\n",
	})
	e := newTestEngine(t, root)
	rebuild(t, e, BuildOptions{})

	q, _ := e.Query()
	require.Len(t, q.References(), 2)

	// Touch only b.js.
	writeProject(t, root, map[string]string{
		"b.js": "import './c';\nfunction betaTwo() {}\n",
	})
	rebuild(t, e, BuildOptions{Incremental: true})

	q, _ = e.Query()
	refs := q.References()
	// a.js is unchanged: its symbols survive, its import does not.
	require.Len(t, refs, 1)
	assert.Equal(t, "b.js", refs[0].File)
	assert.Equal(t, "./c", refs[0].Module)
	assert.Contains(t, symbolNames(q.Symbols()), "alpha")
}

func TestIncremental_ForceRebuildIgnoresSnapshot(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, map[string]string{
		"a.js": "import './b';\nfunction alpha() {}\n",
		"b.js": "function beta() {}\n",
	})
	e := newTestEngine(t, root)
	rebuild(t, e, BuildOptions{})

	// Force wins over incremental: everything is re-extracted, so the
	// reference log is complete again.
	rebuild(t, e, BuildOptions{ForceRebuild: true, Incremental: true})
	q, _ := e.Query()
	assert.Len(t, q.References(), 1)
	assert.Len(t, q.Symbols(), 2)
}

func TestIncremental_MissingSnapshotFallsBackToFullScan(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, map[string]string{"a.js": "import './b';\nfunction alpha() {}\n"})
	e := newTestEngine(t, root)

	// First build ever, requested incremental: no snapshot exists yet.
	stats := rebuild(t, e, BuildOptions{Incremental: true})
	assert.Equal(t, 1, stats.TotalFiles)
	q, _ := e.Query()
	assert.Len(t, q.References(), 1)
}

func TestIncremental_CorruptSnapshotFallsBackToFullScan(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, map[string]string{"a.js": "function alpha() {}\n"})
	e := newTestEngine(t, root)
	rebuild(t, e, BuildOptions{})

	require.NoError(t, os.WriteFile(e.CachePath(), []byte("{corrupt"), 0644))

	stats := rebuild(t, e, BuildOptions{Incremental: true})
	assert.Equal(t, 1, stats.TotalFiles)
	assert.Equal(t, 1, stats.TotalSymbols)
}

func TestIncremental_CarriedSymbolsKeepPosition(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, map[string]string{
		"keep.js":   "function keeper() {}\n",
		"change.js": "function original() {}\n",
	})
	e := newTestEngine(t, root)
	rebuild(t, e, BuildOptions{})

	q, _ := e.Query()
	kept := q.FindByID("keep.js:keeper")
	require.NotNil(t, kept)

	writeProject(t, root, map[string]string{"change.js": "function replaced() {}\n"})
	rebuild(t, e, BuildOptions{Incremental: true})

	q, _ = e.Query()
	after := q.FindByID("keep.js:keeper")
	require.NotNil(t, after)
	assert.Equal(t, *kept, *after)
}
