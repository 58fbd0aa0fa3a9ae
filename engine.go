package lattice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/jward/lattice/internal/index"
	"github.com/jward/lattice/internal/lang"
	"github.com/jward/lattice/internal/rank"
	"github.com/jward/lattice/internal/treesitter"
)

// ErrNotBuilt reports use of an Engine whose index has not been built or
// loaded. Querying before Build is caller misuse, not a data condition, so it
// surfaces as an error instead of empty results.
var ErrNotBuilt = errors.New("index not built")

// Defaults applied by New.
const (
	DefaultCacheDir    = ".lattice"
	DefaultCacheFile   = "index.json"
	DefaultMaxFileSize = 1 << 20
)

// DefaultIgnoreDirs lists directory names skipped at any depth. Dot-prefixed
// directories and the cache directory are always skipped regardless of this
// list.
func DefaultIgnoreDirs() []string {
	return []string{"node_modules", "vendor", "dist", "build", "target", "__pycache__"}
}

// Parser is the structural parsing capability seen by the scanner. The
// default implementation wraps the tree-sitter bindings when built with cgo
// and reports itself unavailable without them. Availability is read once at
// Engine construction and never re-probed; a TryParse failure downgrades
// that one file to regex fallback.
type Parser interface {
	Available() bool
	Supports(language string) bool
	TryParse(ctx context.Context, language string, src []byte) (ParseTree, error)
}

// ParseTree is one parsed file ready for structural pattern matching.
type ParseTree interface {
	Match(pattern string) ([]Match, error)
}

// structuralParser adapts the tree-sitter capability to the Parser interface.
type structuralParser struct {
	p *treesitter.Parser
}

func (s structuralParser) Available() bool               { return s.p.Available() }
func (s structuralParser) Supports(language string) bool { return s.p.Supports(language) }

func (s structuralParser) TryParse(ctx context.Context, language string, src []byte) (ParseTree, error) {
	t, err := s.p.TryParse(ctx, language, src)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Engine orchestrates the lattice pipeline: file discovery, change detection,
// extraction (structural or regex fallback), cache persistence, and query
// access. One goroutine mutates an Engine at a time; concurrent Build calls
// must be serialized by the caller. A completed index is read-only, so any
// number of goroutines may share the QueryBuilder.
type Engine struct {
	root      string
	cacheDir  string
	cacheFile string

	maxFileSize  int64
	ignoreDirs   map[string]bool
	ignoreGlobs  []string
	useGitignore bool

	registry *lang.Registry
	logger   *slog.Logger

	parser          Parser
	parserAvailable bool

	ranker    Ranker
	rankOnce  sync.Once
	rankReady bool

	ignoreMatcher *ignore.GitIgnore
	gitMatcher    *ignore.GitIgnore

	index *index.Index
	query *QueryBuilder
}

// Option configures an Engine.
type Option func(*Engine)

// WithCacheDir sets the cache directory, resolved against the project root
// unless absolute.
func WithCacheDir(dir string) Option {
	return func(e *Engine) {
		e.cacheDir = dir
	}
}

// WithCacheFile sets the snapshot file name inside the cache directory.
func WithCacheFile(name string) Option {
	return func(e *Engine) {
		e.cacheFile = name
	}
}

// WithMaxFileSize sets the per-file size cap in bytes. Larger files are
// excluded from the walk entirely: no hash, no symbols, no stats entry.
func WithMaxFileSize(limit int64) Option {
	return func(e *Engine) {
		e.maxFileSize = limit
	}
}

// WithIgnoreDirs replaces the default ignored directory names. Names match
// exactly at any depth.
func WithIgnoreDirs(names ...string) Option {
	return func(e *Engine) {
		e.ignoreDirs = make(map[string]bool, len(names))
		for _, n := range names {
			e.ignoreDirs[n] = true
		}
	}
}

// WithIgnoreGlobs adds gitignore-style patterns that exclude matching files
// from the walk.
func WithIgnoreGlobs(globs ...string) Option {
	return func(e *Engine) {
		e.ignoreGlobs = append(e.ignoreGlobs, globs...)
	}
}

// WithGitignore controls whether the project's .gitignore excludes files
// from the walk. Enabled by default.
func WithGitignore(use bool) Option {
	return func(e *Engine) {
		e.useGitignore = use
	}
}

// WithLanguages restricts indexing to the given language IDs. Unknown IDs
// are ignored; an empty list keeps every built-in language.
func WithLanguages(ids ...string) Option {
	return func(e *Engine) {
		e.registry = e.registry.Restrict(ids)
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithParser injects a structural parsing capability, replacing the built-in
// tree-sitter one. Tests use this to force fallback mode.
func WithParser(p Parser) Option {
	return func(e *Engine) {
		e.parser = p
	}
}

// WithRanker injects the ranking capability used by the enhanced query
// methods. Defaults to the built-in Ollama client; inject a rank-disabling
// implementation to pin the deterministic path.
func WithRanker(r Ranker) Option {
	return func(e *Engine) {
		e.ranker = r
	}
}

// New creates an Engine rooted at the given project directory. The directory
// must exist; nothing is scanned until Build.
func New(root string, opts ...Option) (*Engine, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("lattice: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("lattice: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("lattice: root %s is not a directory", abs)
	}

	e := &Engine{
		root:         abs,
		cacheDir:     DefaultCacheDir,
		cacheFile:    DefaultCacheFile,
		maxFileSize:  DefaultMaxFileSize,
		useGitignore: true,
		registry:     lang.DefaultRegistry(),
		logger:       slog.Default(),
	}
	e.ignoreDirs = make(map[string]bool)
	for _, n := range DefaultIgnoreDirs() {
		e.ignoreDirs[n] = true
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.parser == nil {
		e.parser = structuralParser{p: treesitter.New()}
	}
	if e.ranker == nil {
		e.ranker = rank.NewClient()
	}
	e.parserAvailable = e.parser.Available()

	if len(e.ignoreGlobs) > 0 {
		e.ignoreMatcher = ignore.CompileIgnoreLines(e.ignoreGlobs...)
	}
	if e.useGitignore {
		e.gitMatcher = loadGitignore(abs)
	}

	return e, nil
}

// loadGitignore compiles the project's .gitignore when present. Comment and
// blank lines are dropped; a missing file means no matcher.
func loadGitignore(root string) *ignore.GitIgnore {
	content, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if len(patterns) == 0 {
		return nil
	}
	return ignore.CompileIgnoreLines(patterns...)
}

// Root returns the absolute project root.
func (e *Engine) Root() string { return e.root }

// CachePath returns the absolute snapshot path.
func (e *Engine) CachePath() string { return e.cachePath() }

// Languages returns the language IDs this Engine indexes.
func (e *Engine) Languages() []string { return e.registry.Languages() }

func (e *Engine) cacheDirPath() string {
	if filepath.IsAbs(e.cacheDir) {
		return e.cacheDir
	}
	return filepath.Join(e.root, e.cacheDir)
}

func (e *Engine) cachePath() string {
	return filepath.Join(e.cacheDirPath(), e.cacheFile)
}

// BuildOptions control one Build call.
type BuildOptions struct {
	// ForceRebuild ignores any cached snapshot and performs a full scan.
	ForceRebuild bool

	// Incremental reuses the cached snapshot to carry symbols of unchanged
	// files forward and re-extract only changed ones. A missing or corrupt
	// snapshot silently degrades to a full scan.
	Incremental bool
}

// Build scans the project and installs the resulting index, persisting it to
// the cache path afterwards. Per-file problems (unreadable content, parse
// failures, incompatible patterns) are logged and skipped; only walk-level
// failures and cache write failures are errors. A build with zero parseable
// files still succeeds with an empty index.
func (e *Engine) Build(ctx context.Context, opts BuildOptions) (Stats, error) {
	start := time.Now()

	var prev *index.Index
	if !opts.ForceRebuild && opts.Incremental {
		loaded, err := index.Load(e.cachePath())
		if err != nil {
			e.logger.Debug("cache snapshot unusable, running full scan",
				"path", e.cachePath(), "error", err)
		} else {
			prev = loaded
		}
	}

	var (
		ix  *index.Index
		err error
	)
	if prev != nil {
		ix, err = e.incrementalScan(ctx, prev)
	} else {
		ix, err = e.scan(ctx)
	}
	if err != nil {
		return Stats{}, fmt.Errorf("lattice: build: %w", err)
	}

	ix.Finalize()
	ix.Stats.BuiltAt = start
	ix.Stats.DurationMS = time.Since(start).Milliseconds()

	if err := index.Save(e.cachePath(), ix); err != nil {
		return Stats{}, fmt.Errorf("lattice: build: %w", err)
	}

	e.setIndex(ix)
	e.logger.Info("index built",
		"files", ix.Stats.TotalFiles,
		"symbols", ix.Stats.TotalSymbols,
		"references", ix.Stats.TotalReferences,
		"incremental", prev != nil,
		"duration", time.Since(start))
	return ix.Stats, nil
}

// LoadCache installs the snapshot from the cache file without scanning.
// A missing snapshot reports ErrNotBuilt; a corrupt one reports the parse
// error so the caller can decide to rebuild.
func (e *Engine) LoadCache() error {
	ix, err := index.Load(e.cachePath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("lattice: load cache: %w (no snapshot at %s)", ErrNotBuilt, e.cachePath())
		}
		return fmt.Errorf("lattice: load cache: %w", err)
	}
	e.setIndex(ix)
	return nil
}

// ClearCache removes the cache directory wholesale and drops the in-memory
// index. Clearing an Engine that has no index and no cache directory reports
// ErrNotBuilt.
func (e *Engine) ClearCache() error {
	_, statErr := os.Stat(e.cacheDirPath())
	if e.index == nil && statErr != nil {
		return fmt.Errorf("lattice: clear cache: %w", ErrNotBuilt)
	}
	if err := os.RemoveAll(e.cacheDirPath()); err != nil {
		return fmt.Errorf("lattice: clear cache: %w", err)
	}
	e.index = nil
	e.query = nil
	return nil
}

// Query returns the query engine over the current index. It reports
// ErrNotBuilt until Build or LoadCache succeeds.
func (e *Engine) Query() (*QueryBuilder, error) {
	if e.query == nil {
		return nil, fmt.Errorf("lattice: query: %w", ErrNotBuilt)
	}
	return e.query, nil
}

// Stats returns the current index's build stats, or ErrNotBuilt.
func (e *Engine) Stats() (Stats, error) {
	if e.index == nil {
		return Stats{}, fmt.Errorf("lattice: stats: %w", ErrNotBuilt)
	}
	return e.index.Stats, nil
}

// setIndex installs a completed index and its derived query tables.
func (e *Engine) setIndex(ix *index.Index) {
	e.index = ix
	e.query = newQueryBuilder(e, ix)
}

// listFiles walks the project root and returns project-relative,
// slash-separated candidate paths in walk order. Walk order is the
// deterministic spine of the pipeline: extraction, de-duplication, and
// incremental diffs all inherit it.
func (e *Engine) listFiles() ([]string, error) {
	cacheRel := ""
	if rel, err := filepath.Rel(e.root, e.cacheDirPath()); err == nil && rel != ".." && !strings.HasPrefix(rel, "../") {
		cacheRel = filepath.ToSlash(rel)
	}

	var paths []string
	err := filepath.WalkDir(e.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == e.root {
			return nil
		}
		rel, rerr := filepath.Rel(e.root, path)
		if rerr != nil {
			return rerr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			name := d.Name()
			if strings.HasPrefix(name, ".") || e.ignoreDirs[name] || rel == cacheRel {
				return filepath.SkipDir
			}
			if e.gitMatcher != nil && e.gitMatcher.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if _, ok := e.registry.ForExtension(filepath.Ext(path)); !ok {
			return nil
		}
		if e.ignoreMatcher != nil && e.ignoreMatcher.MatchesPath(rel) {
			return nil
		}
		if e.gitMatcher != nil && e.gitMatcher.MatchesPath(rel) {
			return nil
		}
		info, ierr := d.Info()
		if ierr != nil {
			// File vanished mid-walk.
			return nil
		}
		if info.Size() > e.maxFileSize {
			e.logger.Debug("skipping oversized file", "file", rel, "size", info.Size())
			return nil
		}

		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", e.root, err)
	}
	return paths, nil
}

// abs converts a project-relative slash path back to an absolute one.
func (e *Engine) abs(file string) string {
	return filepath.Join(e.root, filepath.FromSlash(file))
}
