package main_test

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBinary compiles the lattice binary and returns the path.
// The binary is placed in t.TempDir() so it's cleaned up automatically.
func buildBinary(t *testing.T) string {
	t.Helper()
	binName := "lattice"
	if runtime.GOOS == "windows" {
		binName += ".exe"
	}
	bin := filepath.Join(t.TempDir(), binName)
	cmd := exec.Command("go", "build", "-o", bin, ".")
	cmd.Dir = filepath.Join(projectRoot(t), "cmd", "lattice")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "build failed: %s", string(out))
	return bin
}

// projectRoot returns the root of the lattice project by walking up from
// the test file's directory to find go.mod.
func projectRoot(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed")
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		require.NotEqual(t, parent, dir, "could not find project root")
		dir = parent
	}
}

// createProjectFixture creates a temporary directory with a .git dir and a
// small JavaScript project. Returns the temp directory path.
func createProjectFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	// Create .git so root resolution from inside the fixture works.
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))

	auth := `import './crypto'

export function login(user, password) {
  return hashPassword(password)
}

export function logout(user) {
  return true
}
`
	crypto := `export function hashPassword(raw) {
  return raw
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "auth.js"), []byte(auth), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "crypto.js"), []byte(crypto), 0o644))
	return dir
}

// runBuild runs `lattice build` on the fixture, returning stdout and stderr.
func runBuild(t *testing.T, bin, fixture string, extraArgs ...string) (stdout, stderr string) {
	t.Helper()
	args := append([]string{"build", fixture}, extraArgs...)
	cmd := exec.Command(bin, args...)
	cmd.Dir = fixture
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err := cmd.Run()
	require.NoError(t, err, "build failed: stdout=%s stderr=%s", outBuf.String(), errBuf.String())
	return outBuf.String(), errBuf.String()
}

// readSnapshot parses the JSON snapshot written by a build.
func readSnapshot(t *testing.T, fixture string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(fixture, ".lattice", "index.json"))
	require.NoError(t, err)
	var snap map[string]any
	require.NoError(t, json.Unmarshal(data, &snap), "invalid snapshot JSON")
	return snap
}

func snapshotFiles(t *testing.T, snap map[string]any) map[string]any {
	t.Helper()
	files, ok := snap["fileHashes"].(map[string]any)
	require.True(t, ok, "snapshot should have a fileHashes object")
	return files
}

func snapshotSymbols(t *testing.T, snap map[string]any) []any {
	t.Helper()
	syms, ok := snap["symbols"].([]any)
	require.True(t, ok, "snapshot should have a symbols array")
	return syms
}

// symbolNames collects the name field of every snapshot symbol.
func symbolNames(t *testing.T, snap map[string]any) []string {
	t.Helper()
	var names []string
	for _, raw := range snapshotSymbols(t, snap) {
		sym, ok := raw.(map[string]any)
		require.True(t, ok)
		names = append(names, sym["name"].(string))
	}
	return names
}

func TestBuild_CreatesSnapshot(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createProjectFixture(t)

	stdout, _ := runBuild(t, bin, fixture)

	// Snapshot on disk.
	snap := readSnapshot(t, fixture)
	assert.Len(t, snapshotFiles(t, snap), 2, "should have indexed 2 JavaScript files")
	assert.Contains(t, symbolNames(t, snap), "login")
	assert.Contains(t, symbolNames(t, snap), "hashPassword")

	// Stats envelope on stdout.
	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &result), "invalid JSON output: %s", stdout)
	assert.Equal(t, "build", result["command"])
	stats, ok := result["results"].(map[string]any)
	require.True(t, ok, "results should be a stats object")
	assert.Equal(t, float64(2), stats["total_files"])
}

func TestBuild_StderrTiming(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createProjectFixture(t)

	_, stderr := runBuild(t, bin, fixture)
	assert.Contains(t, stderr, "Indexed")
	assert.Contains(t, stderr, "Snapshot:")
}

func TestBuild_NonExistentDirectory(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)

	cmd := exec.Command(bin, "build", "/nonexistent/path/that/does/not/exist")
	out, err := cmd.CombinedOutput()
	require.Error(t, err, "should fail for non-existent directory")
	assert.Contains(t, string(out), "not found", "error should mention 'not found'")
}

func TestBuild_LanguagesFilter(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createProjectFixture(t)

	// Add a Python file to the fixture.
	py := "def task():\n    pass\n"
	require.NoError(t, os.WriteFile(filepath.Join(fixture, "tasks.py"), []byte(py), 0o644))

	runBuild(t, bin, fixture, "--languages", "javascript")

	snap := readSnapshot(t, fixture)
	files := snapshotFiles(t, snap)
	assert.Len(t, files, 2, "should only index the JavaScript files")
	assert.NotContains(t, files, "tasks.py")
}

func TestBuild_IncrementalSkip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createProjectFixture(t)

	runBuild(t, bin, fixture)
	first := readSnapshot(t, fixture)

	// Re-run without changes; counts must be identical.
	runBuild(t, bin, fixture)
	second := readSnapshot(t, fixture)

	assert.Equal(t, len(snapshotFiles(t, first)), len(snapshotFiles(t, second)))
	assert.Equal(t, len(snapshotSymbols(t, first)), len(snapshotSymbols(t, second)))
}

func TestBuild_Force_Reindexes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createProjectFixture(t)

	runBuild(t, bin, fixture)
	initial := len(snapshotSymbols(t, readSnapshot(t, fixture)))

	extra := "export function extra() {\n  return 42\n}\n"
	require.NoError(t, os.WriteFile(filepath.Join(fixture, "src", "extra.js"), []byte(extra), 0o644))

	runBuild(t, bin, fixture, "--force")

	snap := readSnapshot(t, fixture)
	assert.Len(t, snapshotFiles(t, snap), 3, "should have 3 files after force rebuild")
	assert.Greater(t, len(snapshotSymbols(t, snap)), initial, "should have more symbols with the extra file")
}

func TestStats_AfterBuild(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createProjectFixture(t)
	runBuild(t, bin, fixture)

	cmd := exec.Command(bin, "stats")
	cmd.Dir = fixture
	stdout, err := cmd.Output()
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal(stdout, &result), "invalid JSON output: %s", string(stdout))
	assert.Equal(t, "stats", result["command"])
	stats, ok := result["results"].(map[string]any)
	require.True(t, ok, "results should be a stats object")
	assert.Equal(t, float64(2), stats["total_files"])
	assert.NotNil(t, stats["languages"])
}

func TestClear_RemovesSnapshot(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createProjectFixture(t)
	runBuild(t, bin, fixture)

	cmd := exec.Command(bin, "clear")
	cmd.Dir = fixture
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "clear failed: %s", string(out))

	_, err = os.Stat(filepath.Join(fixture, ".lattice"))
	assert.True(t, os.IsNotExist(err), ".lattice directory should be removed")

	// A second clear has nothing to remove.
	cmd = exec.Command(bin, "clear")
	cmd.Dir = fixture
	out, err = cmd.CombinedOutput()
	require.Error(t, err, "second clear should fail")
	assert.Contains(t, string(out), "nothing to clear")
}
