package lattice

import (
	"github.com/jward/lattice/internal/index"
	"github.com/jward/lattice/internal/lang"
	"github.com/jward/lattice/internal/rank"
)

// Public type aliases for internal types used in the Engine and QueryBuilder
// APIs. These are Go type aliases (=), identical to the internal types at
// compile time. External consumers use these names; no conversion is needed.

type Index = index.Index
type Symbol = index.Symbol
type Reference = index.Reference
type Stats = index.Stats

type Adapter = lang.Adapter
type Registry = lang.Registry
type Match = lang.Match
type Capture = lang.Capture

// Ranker is the optional ranking/summarization capability consumed by the
// enhanced query methods. Any type with its method set can be injected via
// WithRanker; the built-in client talks to an Ollama-compatible server.
type Ranker = rank.Ranker
