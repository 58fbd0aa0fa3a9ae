package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Load reads a snapshot from path. It returns a wrapped error when the file
// is missing or does not parse; callers decide whether that means "rebuild"
// or "surface to the user".
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading index snapshot: %w", err)
	}
	var ix Index
	if err := json.Unmarshal(data, &ix); err != nil {
		return nil, fmt.Errorf("parsing index snapshot %s: %w", path, err)
	}
	if ix.Symbols == nil {
		ix.Symbols = []Symbol{}
	}
	if ix.References == nil {
		ix.References = []Reference{}
	}
	if ix.FileHashes == nil {
		ix.FileHashes = map[string]string{}
	}
	return &ix, nil
}

// Save serializes the index to path as indented JSON, creating the parent
// directory if it does not exist.
func Save(path string, ix *Index) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	data, err := json.MarshalIndent(ix, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding index snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing index snapshot: %w", err)
	}
	return nil
}
