package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jward/lattice"
	"github.com/jward/lattice/internal/config"
	"github.com/jward/lattice/internal/rank"
	"github.com/spf13/cobra"
)

var (
	flagRoot    string
	flagFormat  string
	flagVerbose bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "lattice",
	Short:         "Multi-language code indexing and structural query",
	Long:          "Lattice scans a source tree, extracts symbols and references per language, and answers structural queries from a JSON snapshot cache.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run: the bare command prints help.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", "", "project root (default: nearest ancestor of the cwd with a .lattice or .git directory)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "debug logging to stderr")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(clearCmd)
}

var (
	flagForce       bool
	flagFull        bool
	flagLanguages   string
	flagMaxFileSize int64
	flagIgnore      []string
)

var buildCmd = &cobra.Command{
	Use:   "build [path]",
	Short: "Scan a source tree and write the index snapshot",
	Long:  "Walks the tree, extracts symbols and references for each supported language, and writes the snapshot to .lattice/index.json. Files unchanged since the previous snapshot are carried forward unless --full or --force is set.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&flagForce, "force", false, "delete the cache and rebuild from scratch")
	buildCmd.Flags().BoolVar(&flagFull, "full", false, "rescan every file instead of reusing unchanged ones")
	buildCmd.Flags().StringVar(&flagLanguages, "languages", "", "comma-separated language filter (e.g. javascript,python)")
	buildCmd.Flags().Int64Var(&flagMaxFileSize, "max-file-size", 0, "per-file size cap in bytes (0 = configured default)")
	buildCmd.Flags().StringSliceVar(&flagIgnore, "ignore", nil, "extra ignore globs, gitignore syntax (repeatable)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	start := time.Now()

	root, err := resolveBuildRoot(args)
	if err != nil {
		return err
	}

	eng, err := newEngine(root)
	if err != nil {
		return err
	}

	if flagForce {
		if err := eng.ClearCache(); err != nil && !errors.Is(err, lattice.ErrNotBuilt) {
			return fmt.Errorf("clearing cache for --force: %w", err)
		}
	}

	stats, err := eng.Build(cmd.Context(), lattice.BuildOptions{
		ForceRebuild: flagForce || flagFull,
		Incremental:  !flagFull,
	})
	if err != nil {
		return err
	}

	// Timing summary on stderr; the stats envelope is the stdout payload.
	fmt.Fprintf(os.Stderr, "Indexed %s in %s (%d files, %d symbols, %d references)\n",
		root,
		time.Since(start).Round(time.Millisecond),
		stats.TotalFiles, stats.TotalSymbols, stats.TotalReferences,
	)
	fmt.Fprintf(os.Stderr, "Snapshot: %s\n", eng.CachePath())

	return outputResult(CLIResult{
		Command: "build",
		Results: statsToCLI(stats),
	})
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show stats for the current index snapshot",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	eng, err := openEngine()
	if err != nil {
		return outputError("stats", err)
	}
	stats, err := eng.Stats()
	if err != nil {
		return outputError("stats", err)
	}
	return outputResult(CLIResult{
		Command: "stats",
		Results: statsToCLI(stats),
	})
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Show the file dependency graph",
	Long:  "Prints every indexed file and the edges produced by resolved relative imports.",
	Args:  cobra.NoArgs,
	RunE:  runGraph,
}

func runGraph(cmd *cobra.Command, args []string) error {
	q, err := openQuery()
	if err != nil {
		return outputError("graph", err)
	}
	g := q.DependencyGraph()
	edgeCount := len(g.Edges)
	return outputResult(CLIResult{
		Command:    "graph",
		Results:    graphToCLI(g),
		TotalCount: &edgeCount,
	})
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the index snapshot",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

// runClear removes the cache directory without loading the snapshot, so a
// corrupt snapshot can still be cleared.
func runClear(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot()
	if err != nil {
		return outputError("clear", err)
	}
	eng, err := newEngine(root)
	if err != nil {
		return outputError("clear", err)
	}
	cachePath := eng.CachePath()
	if err := eng.ClearCache(); err != nil {
		if errors.Is(err, lattice.ErrNotBuilt) {
			return outputError("clear", fmt.Errorf("nothing to clear: %s", cachePath))
		}
		return outputError("clear", err)
	}
	fmt.Fprintf(os.Stderr, "Cleared snapshot: %s\n", cachePath)
	return nil
}

// newEngine loads configuration for root and constructs an Engine honoring
// the config file, environment, and any command-line overrides.
func newEngine(root string) (*lattice.Engine, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	if flagLanguages != "" {
		cfg.Languages = splitList(flagLanguages)
	}
	if flagMaxFileSize > 0 {
		cfg.MaxFileSize = flagMaxFileSize
	}
	if len(flagIgnore) > 0 {
		cfg.IgnoreGlobs = append(cfg.IgnoreGlobs, flagIgnore...)
	}
	if flagVerbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []lattice.Option{
		lattice.WithCacheDir(cfg.CacheDir),
		lattice.WithCacheFile(cfg.CacheFile),
		lattice.WithMaxFileSize(cfg.MaxFileSize),
		lattice.WithIgnoreDirs(cfg.IgnoreDirs...),
		lattice.WithIgnoreGlobs(cfg.IgnoreGlobs...),
		lattice.WithGitignore(cfg.UseGitignore),
		lattice.WithLogger(cfg.NewLogger(os.Stderr)),
	}
	if len(cfg.Languages) > 0 {
		opts = append(opts, lattice.WithLanguages(cfg.Languages...))
	}
	if cfg.Ranker.Enabled {
		opts = append(opts, lattice.WithRanker(rank.NewClient(
			rank.WithBaseURL(cfg.Ranker.URL),
			rank.WithModel(cfg.Ranker.Model),
			rank.WithTimeout(cfg.Ranker.Timeout()),
		)))
	} else {
		opts = append(opts, lattice.WithRanker(rank.Disabled{}))
	}

	return lattice.New(root, opts...)
}

// openEngine constructs an Engine for the resolved project root without
// loading the snapshot. Query commands load it via openQuery.
func openEngine() (*lattice.Engine, error) {
	root, err := resolveRoot()
	if err != nil {
		return nil, err
	}
	eng, err := newEngine(root)
	if err != nil {
		return nil, err
	}
	if err := eng.LoadCache(); err != nil {
		if errors.Is(err, lattice.ErrNotBuilt) {
			return nil, fmt.Errorf("snapshot not found: %s (run 'lattice build' first)", eng.CachePath())
		}
		return nil, err
	}
	return eng, nil
}

// openQuery loads the snapshot for the resolved project root and returns
// its query engine.
func openQuery() (*lattice.QueryBuilder, error) {
	eng, err := openEngine()
	if err != nil {
		return nil, err
	}
	return eng.Query()
}

// resolveBuildRoot returns the absolute directory to index: the positional
// argument when given, otherwise the same resolution query commands use.
func resolveBuildRoot(args []string) (string, error) {
	if len(args) == 0 {
		return resolveRoot()
	}
	abs, err := filepath.Abs(args[0])
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", args[0], err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// resolveRoot returns the project root: the --root flag when set, otherwise
// the nearest ancestor of the cwd carrying a .lattice or .git directory,
// otherwise the cwd itself.
func resolveRoot() (string, error) {
	if flagRoot != "" {
		abs, err := filepath.Abs(flagRoot)
		if err != nil {
			return "", fmt.Errorf("resolving root %q: %w", flagRoot, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", fmt.Errorf("root not found: %s", abs)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("root is not a directory: %s", abs)
		}
		return abs, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}
	return findProjectRoot(cwd), nil
}

// findProjectRoot walks up from startDir looking for a directory containing
// a .lattice cache or a .git directory. Returns startDir if neither is
// found.
func findProjectRoot(startDir string) string {
	dir := startDir
	for {
		if hasDir(dir, lattice.DefaultCacheDir) || hasDir(dir, ".git") {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root without finding a marker.
			return startDir
		}
		dir = parent
	}
}

func hasDir(dir, name string) bool {
	info, err := os.Stat(filepath.Join(dir, name))
	return err == nil && info.IsDir()
}

// splitList splits a comma-separated flag value, trimming whitespace and
// dropping empty entries.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
