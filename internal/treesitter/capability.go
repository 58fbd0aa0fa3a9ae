// Package treesitter is the optional structural parsing capability. When the
// binary is built with cgo it wraps tree-sitter grammars for the registry's
// languages; without cgo a stub reports itself unavailable and every scan
// runs in regex-fallback mode. Availability is decided once at construction
// and never re-probed.
package treesitter

import "errors"

// ErrUnavailable reports that structural parsing is not compiled into this
// binary. Scans treat it like any per-file parse failure: the file is
// extracted by regex fallback instead.
var ErrUnavailable = errors.New("structural parsing unavailable")
