// Package lattice provides multi-language code indexing and querying. It
// scans a source tree, extracts named symbols and their cross-references
// using tree-sitter structural patterns with a line-regex fallback, persists
// the result as one JSON cache snapshot, and answers lookup, search,
// dependency-graph, and relevance queries over that snapshot. Languages
// covered by the built-in registry: JavaScript, TypeScript, TSX, Python, Go,
// Rust, and Java.
//
// # Pipeline
//
// A build runs in three steps:
//
//  1. Walk: discover source files under the project root, skipping ignored
//     directories, ignore-glob matches, gitignored paths, and files over the
//     size limit; only extensions known to the language registry qualify.
//
//  2. Extract: for each file, hash the content, then apply the language
//     adapter's symbol and reference patterns. When the structural parsing
//     capability is available the patterns run against a tree-sitter tree;
//     otherwise (or when a file fails to parse) a fixed set of line regexes
//     takes over. Per-file and per-pattern failures never abort the scan.
//
//  3. Persist: write the index as JSON to <root>/<cacheDir>/<cacheFile>.
//     Later builds with Incremental set reuse the snapshot's content hashes
//     to carry symbols of unchanged files forward and re-extract only what
//     changed.
//
// # Usage
//
// Create an Engine, build the index, and query:
//
//	e, err := lattice.New("path/to/project")
//	if err != nil { ... }
//
//	ctx := context.Background()
//	stats, err := e.Build(ctx, lattice.BuildOptions{Incremental: true})
//
//	q, err := e.Query()
//	syms := q.FindByKind("function")
//
// # Query API
//
// The [QueryBuilder] returned by [Engine.Query] wraps a completed index with
// derived by-id, by-file, by-kind, and by-name tables:
//
//   - [QueryBuilder.FindByID], [QueryBuilder.FindByName],
//     [QueryBuilder.FindByKind], [QueryBuilder.FindByFile],
//     [QueryBuilder.FindExported] are the point and bucket lookups.
//   - [QueryBuilder.Search] AND-combines name, kind, file, exported, and
//     regex filters with sorting and pagination.
//   - [QueryBuilder.FileDependencies], [QueryBuilder.FileDependents],
//     [QueryBuilder.SymbolReferences], and
//     [QueryBuilder.DependencyGraph] answer structure questions from the
//     reference log.
//   - [QueryBuilder.FindByTopic] ranks symbols by keyword overlap.
//
// # Ranking
//
// [QueryBuilder.SemanticSearch], [QueryBuilder.SmartContext],
// [QueryBuilder.RankSymbols], and [QueryBuilder.ExplainSymbol] try an
// optional external ranking capability (an Ollama-compatible server by
// default, injectable via [WithRanker]). The capability is initialized at
// most once per Engine with a bounded probe; when it is absent or failing,
// every method falls back to deterministic keyword scoring and never returns
// an error. Build results are identical either way; only result ordering and
// prose summaries are enhanced.
//
// # Degraded mode
//
// The structural parsing capability requires cgo. Binaries built without it
// still index every language through the fallback regexes; symbol extents
// degrade to single lines and fewer shapes are recognized, but builds,
// caching, and queries work unchanged.
package lattice
