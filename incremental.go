package lattice

import (
	"context"
	"os"
	"path"

	"github.com/jward/lattice/internal/index"
)

// incrementalScan rebuilds the index against a previous snapshot. Files whose
// content hash still matches the snapshot keep their previous symbols, in
// their previous order; changed and new files are re-extracted in walk order.
// Files gone from the walk are never revisited, so their symbols drop out
// naturally.
//
// The reference log is rebuilt from the re-extracted files only. References
// recorded by unchanged files in the previous pass are not carried forward
// the way symbols are; dependency queries after an incremental build see
// just the current pass's references. Tests pin this asymmetry.
func (e *Engine) incrementalScan(ctx context.Context, prev *index.Index) (*index.Index, error) {
	files, err := e.listFiles()
	if err != nil {
		return nil, err
	}

	ix := index.New()
	ix.Stats.Languages = map[string]int{}

	var changed []string
	unchanged := make(map[string]bool)
	for _, file := range files {
		content, rerr := os.ReadFile(e.abs(file))
		if rerr != nil {
			e.logger.Debug("skipping unreadable file", "file", file, "error", rerr)
			continue
		}
		hash := hashBytes(content)
		if prev.FileHashes[file] != hash {
			changed = append(changed, file)
			continue
		}
		unchanged[file] = true
		ix.FileHashes[file] = hash
		if adapter, ok := e.registry.ForExtension(path.Ext(file)); ok {
			ix.Stats.Languages[adapter.ID]++
		}
	}

	for _, s := range prev.Symbols {
		if unchanged[s.File] {
			ix.Symbols = append(ix.Symbols, s)
		}
	}

	for _, file := range changed {
		mergeExtraction(ix, e.extractOne(ctx, file))
	}

	e.logger.Debug("incremental scan",
		"unchanged", len(unchanged), "rescanned", len(changed))
	return ix, nil
}
