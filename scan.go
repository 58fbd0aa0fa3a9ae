package lattice

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/jward/lattice/internal/index"
	"github.com/jward/lattice/internal/lang"
)

// scan performs a full extraction pass over every candidate file, strictly
// sequentially in walk order. One file's results merge into the index before
// the next file is read, so de-duplication order and incremental diffs are
// reproducible.
func (e *Engine) scan(ctx context.Context) (*index.Index, error) {
	files, err := e.listFiles()
	if err != nil {
		return nil, err
	}

	ix := index.New()
	ix.Stats.Languages = map[string]int{}
	for _, file := range files {
		mergeExtraction(ix, e.extractOne(ctx, file))
	}
	return ix, nil
}

// fileExtraction is the complete product of extracting one file. skipped
// marks files with no adapter or unreadable content; they contribute nothing
// to the index.
type fileExtraction struct {
	file     string
	language string
	hash     string
	symbols  []index.Symbol
	refs     []index.Reference
	skipped  bool
}

// mergeExtraction folds one file's results into the index under assembly.
func mergeExtraction(ix *index.Index, r fileExtraction) {
	if r.skipped {
		return
	}
	ix.FileHashes[r.file] = r.hash
	ix.Stats.Languages[r.language]++
	ix.Symbols = append(ix.Symbols, r.symbols...)
	ix.References = append(ix.References, r.refs...)
}

// extractOne extracts one file in isolation. Every failure here is per-file:
// the file is skipped or downgraded to fallback extraction and the scan
// continues. The seen map scopes first-match-wins de-duplication to this
// file, which is exactly the ID space ("file:name") it can produce.
func (e *Engine) extractOne(ctx context.Context, file string) fileExtraction {
	res := fileExtraction{file: file, skipped: true}

	adapter, ok := e.registry.ForExtension(path.Ext(file))
	if !ok {
		return res
	}

	content, err := os.ReadFile(e.abs(file))
	if err != nil {
		e.logger.Debug("skipping unreadable file", "file", file, "error", err)
		return res
	}

	res.skipped = false
	res.language = adapter.ID
	res.hash = hashBytes(content)

	scratch := index.New()
	seen := make(map[string]bool)
	text := string(content)

	extracted := false
	if e.parserAvailable && e.parser.Supports(adapter.ID) {
		tree, perr := e.parser.TryParse(ctx, adapter.ID, content)
		if perr == nil {
			e.extractStructural(tree, adapter, file, res.hash, text, scratch, seen)
			extracted = true
		} else {
			e.logger.Debug("structural parse failed, using fallback",
				"file", file, "language", adapter.ID, "error", perr)
		}
	}
	if !extracted {
		e.extractFallback(adapter, file, res.hash, text, scratch, seen)
	}

	res.symbols = scratch.Symbols
	res.refs = scratch.References
	return res
}

// extractStructural applies the adapter's pattern tables against a parsed
// tree. Each pattern is applied in isolation so one incompatible pattern
// cannot suppress the rest of a file's symbols.
func (e *Engine) extractStructural(tree ParseTree, adapter *lang.Adapter, file, hash, text string, ix *index.Index, seen map[string]bool) {
	for _, rule := range adapter.Symbols {
		matches, err := tree.Match(rule.Query)
		if err != nil {
			e.logger.Debug("symbol pattern failed",
				"language", adapter.ID, "pattern", rule.ID, "error", err)
			continue
		}
		for _, m := range matches {
			fields, err := runSymbolExtract(rule, m)
			if err != nil {
				if errors.Is(err, lang.ErrSkip) {
					continue
				}
				// Extractor failure falls back to the capture defaults.
				e.logger.Debug("symbol extractor failed",
					"language", adapter.ID, "pattern", rule.ID, "error", err)
				fields = defaultFields(m)
			}

			name := fields.Name
			if name == "" {
				name = rule.ID
			}
			if name == "" {
				continue
			}

			kind := rule.Kind
			if adapter.InferKind != nil {
				kind = adapter.InferKind(name, kind)
			}

			id := file + ":" + name
			if seen[id] {
				continue
			}
			seen[id] = true

			exported := false
			if adapter.IsExported != nil {
				exported = adapter.IsExported(name, text)
			}

			ix.Symbols = append(ix.Symbols, index.Symbol{
				ID:          id,
				Name:        name,
				Kind:        kind,
				File:        file,
				StartLine:   m.StartLine,
				EndLine:     m.EndLine,
				Exported:    exported,
				ContentHash: hash,
				Signature:   fields.Signature,
				Params:      fields.Params,
				Extends:     fields.Extends,
			})
		}
	}

	for _, rule := range adapter.References {
		matches, err := tree.Match(rule.Query)
		if err != nil {
			e.logger.Debug("reference pattern failed",
				"language", adapter.ID, "pattern", rule.ID, "error", err)
			continue
		}
		for _, m := range matches {
			rf, err := runRefExtract(rule, m)
			if err != nil {
				if !errors.Is(err, lang.ErrSkip) {
					e.logger.Debug("reference extractor failed",
						"language", adapter.ID, "pattern", rule.ID, "error", err)
				}
				continue
			}
			ix.References = append(ix.References, index.Reference{
				Type:   rule.Type,
				File:   file,
				Line:   m.StartLine,
				Module: rf.Module,
				Func:   rf.Func,
				Args:   rf.Args,
			})
		}
	}
}

// extractFallback applies the fixed line-oriented regex tables. Fallback
// symbols span a single line; exported combines the line's export keyword
// with the adapter's whole-file heuristics, which also recognize export
// statements far from the declaration (module.exports assignments, __all__).
func (e *Engine) extractFallback(adapter *lang.Adapter, file, hash, text string, ix *index.Index, seen map[string]bool) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lineNo := i + 1

		for _, rule := range lang.FallbackRules() {
			m := rule.Pattern.FindStringSubmatch(line)
			if m == nil || m[1] == "" {
				continue
			}
			name := m[1]

			kind := rule.Kind
			if adapter.InferKind != nil {
				kind = adapter.InferKind(name, kind)
			}

			id := file + ":" + name
			if seen[id] {
				continue
			}
			seen[id] = true

			exported := lang.FallbackLineExported(line)
			if !exported && adapter.IsExported != nil {
				exported = adapter.IsExported(name, text)
			}

			ix.Symbols = append(ix.Symbols, index.Symbol{
				ID:          id,
				Name:        name,
				Kind:        kind,
				File:        file,
				StartLine:   lineNo,
				EndLine:     lineNo,
				Exported:    exported,
				ContentHash: hash,
				Signature:   lang.Signature(line),
			})
		}

		for _, rule := range lang.FallbackRefRules() {
			for _, m := range rule.Pattern.FindAllStringSubmatch(line, -1) {
				if m[1] == "" {
					continue
				}
				ix.References = append(ix.References, index.Reference{
					Type:   rule.Type,
					File:   file,
					Line:   lineNo,
					Module: m[1],
				})
			}
		}
	}
}

// runSymbolExtract applies a rule's extractor, or the capture defaults when
// the rule has none.
func runSymbolExtract(rule lang.SymbolRule, m lang.Match) (lang.Fields, error) {
	if rule.Extract == nil {
		return defaultFields(m), nil
	}
	return rule.Extract(m)
}

// defaultFields derives symbol fields from the conventional captures: the
// @name capture and a truncated first-line signature.
func defaultFields(m lang.Match) lang.Fields {
	return lang.Fields{
		Name:      m.Capture("name"),
		Signature: lang.Signature(m.Text),
	}
}

// runRefExtract applies a reference rule's extractor, defaulting to the
// @module capture.
func runRefExtract(rule lang.ReferenceRule, m lang.Match) (lang.RefFields, error) {
	if rule.Extract == nil {
		return lang.RefFields{Module: m.Capture("module")}, nil
	}
	return rule.Extract(m)
}

func hashBytes(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}
