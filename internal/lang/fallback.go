package lang

import "regexp"

// The fallback path runs when structural parsing is unavailable, the
// language grammar is missing, or a file fails to parse. It is one fixed
// cross-language table rather than per-adapter configuration: degraded mode
// must not depend on the machinery whose absence triggered it. The name is
// always the first capture group; the extent of a fallback symbol is a
// single line.

// FallbackRule is one line-oriented declaration shape.
type FallbackRule struct {
	ID      string
	Kind    string
	Pattern *regexp.Regexp
}

// FallbackRefRule is one line-oriented reference shape. A rule may match a
// line several times (for example two require calls); every occurrence is
// recorded.
type FallbackRefRule struct {
	ID      string
	Type    string
	Pattern *regexp.Regexp
}

var fallbackRules = []FallbackRule{
	{
		ID:      "function-declaration",
		Kind:    "function",
		Pattern: regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)`),
	},
	{
		ID:      "def-declaration",
		Kind:    "function",
		Pattern: regexp.MustCompile(`^\s*(?:async\s+)?def\s+([A-Za-z_]\w*)`),
	},
	{
		ID:      "func-declaration",
		Kind:    "function",
		Pattern: regexp.MustCompile(`^func\s+(?:\([^)]*\)\s+)?([A-Za-z_]\w*)`),
	},
	{
		ID:      "fn-declaration",
		Kind:    "function",
		Pattern: regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?(?:unsafe\s+)?fn\s+([A-Za-z_]\w*)`),
	},
	{
		ID:      "class-declaration",
		Kind:    "class",
		Pattern: regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:public\s+|abstract\s+|final\s+)*class\s+([A-Za-z_$][\w$]*)`),
	},
	{
		ID:      "interface-declaration",
		Kind:    "interface",
		Pattern: regexp.MustCompile(`^\s*(?:export\s+)?(?:public\s+)?interface\s+([A-Za-z_$][\w$]*)`),
	},
	{
		ID:      "type-declaration",
		Kind:    "type",
		Pattern: regexp.MustCompile(`^\s*(?:export\s+)?(?:pub\s+)?type\s+([A-Za-z_$][\w$]*)`),
	},
	{
		ID:      "variable-declaration",
		Kind:    "variable",
		Pattern: regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)`),
	},
}

var fallbackRefRules = []FallbackRefRule{
	{
		ID:      "import-from",
		Type:    "import",
		Pattern: regexp.MustCompile(`^\s*import\s+[^'"]*?from\s+['"]([^'"]+)['"]`),
	},
	{
		ID:      "import-bare",
		Type:    "import",
		Pattern: regexp.MustCompile(`^\s*import\s+['"]([^'"]+)['"]`),
	},
	{
		ID:      "require-call",
		Type:    "require",
		Pattern: regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`),
	},
	{
		ID:      "from-import",
		Type:    "import",
		Pattern: regexp.MustCompile(`^\s*from\s+([.\w]+)\s+import\b`),
	},
	{
		ID:      "import-module",
		Type:    "import",
		Pattern: regexp.MustCompile(`^\s*import\s+(?:static\s+)?([A-Za-z_][\w.]*)\s*;?\s*$`),
	},
	{
		ID:      "use-declaration",
		Type:    "import",
		Pattern: regexp.MustCompile(`^\s*(?:pub\s+)?use\s+([A-Za-z_][\w:]*)`),
	},
}

// FallbackRules returns the fixed symbol shapes applied line-by-line in
// degraded mode.
func FallbackRules() []FallbackRule { return fallbackRules }

// FallbackRefRules returns the fixed reference shapes for degraded mode.
func FallbackRefRules() []FallbackRefRule { return fallbackRefRules }

var exportKeyword = regexp.MustCompile(`(^|\s)(export|pub|public)\s`)

// FallbackLineExported reports whether a single declaration line carries an
// export keyword. Degraded-mode scans combine this with the adapter's
// whole-file export heuristics.
func FallbackLineExported(line string) bool {
	return exportKeyword.MatchString(line)
}
