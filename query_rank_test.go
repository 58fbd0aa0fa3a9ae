package lattice

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/lattice/internal/index"
)

// fakeRanker is an in-memory Ranker. With no fields set it scores candidates
// in reverse input order, so enhanced paths visibly reorder results.
type fakeRanker struct {
	initErr error
	rankErr error
	scores  []float64
	summary string

	probes    int
	rankCalls int
}

func (f *fakeRanker) Initialize(context.Context) error {
	f.probes++
	return f.initErr
}

func (f *fakeRanker) IsAvailable() bool { return f.initErr == nil }

func (f *fakeRanker) Rank(_ context.Context, _ string, cands []string) ([]float64, error) {
	f.rankCalls++
	if f.rankErr != nil {
		return nil, f.rankErr
	}
	if f.scores != nil {
		return f.scores, nil
	}
	out := make([]float64, len(cands))
	for i := range out {
		out[i] = float64(i)
	}
	return out, nil
}

func (f *fakeRanker) Summarize(context.Context, string) (string, error) {
	if f.summary == "" {
		return "", errors.New("no summary configured")
	}
	return f.summary, nil
}

func (f *fakeRanker) Generate(context.Context, string) (string, error) {
	return "", errors.New("not used")
}

func topicFixture() *index.Index {
	ix := index.New()
	ix.Symbols = []index.Symbol{
		{ID: "src/auth/login.js:login", Name: "login", Kind: "function", File: "src/auth/login.js", StartLine: 1, EndLine: 1},
		{ID: "src/auth/session.js:validateSession", Name: "validateSession", Kind: "function", File: "src/auth/session.js", StartLine: 1, EndLine: 1},
		{ID: "src/ui/Button.jsx:Button", Name: "Button", Kind: "component", File: "src/ui/Button.jsx", StartLine: 1, EndLine: 1},
		{ID: "src/db/pool.js:createPool", Name: "createPool", Kind: "function", File: "src/db/pool.js", StartLine: 1, EndLine: 1},
	}
	for _, s := range ix.Symbols {
		ix.FileHashes[s.File] = "h"
	}
	return ix
}

// newRankQuery wires a fake ranker in front of the topic fixture.
func newRankQuery(t *testing.T, f *fakeRanker) *QueryBuilder {
	t.Helper()
	e := newTestEngine(t, t.TempDir(), WithRanker(f))
	ix := topicFixture()
	ix.Finalize()
	e.setIndex(ix)
	q, err := e.Query()
	require.NoError(t, err)
	return q
}

func TestFindByTopic(t *testing.T) {
	q := newTestQuery(t, topicFixture())

	res := q.FindByTopic("auth login", 0)
	require.Len(t, res, 2)
	// login: name hit (2) + file hits "login" and "auth" (2) = 4.
	// validateSession: file hit "auth" = 1.
	assert.Equal(t, "login", res[0].Symbol.Name)
	assert.Equal(t, float64(4), res[0].Score)
	assert.Equal(t, "validateSession", res[1].Symbol.Name)
	assert.Equal(t, float64(1), res[1].Score)

	// Zero-score symbols never appear.
	for _, r := range res {
		assert.Greater(t, r.Score, float64(0))
	}

	assert.Len(t, q.FindByTopic("auth login", 1), 1)
	assert.Empty(t, q.FindByTopic("", 10))
	assert.Empty(t, q.FindByTopic("zzz qqq", 10))
}

func TestFindByTopic_KindKeywordAndPunctuation(t *testing.T) {
	q := newTestQuery(t, topicFixture())

	// "component" matches Button's kind; punctuation is trimmed.
	res := q.FindByTopic("the component, please!", 5)
	require.NotEmpty(t, res)
	assert.Equal(t, "Button", res[0].Symbol.Name)
}

func TestRankerAvailable_ProbedOnce(t *testing.T) {
	f := &fakeRanker{}
	q := newRankQuery(t, f)

	ctx := context.Background()
	assert.True(t, q.RankerAvailable(ctx))
	assert.True(t, q.RankerAvailable(ctx))
	assert.Equal(t, 1, f.probes)
}

func TestRankerAvailable_FailedProbeNeverRetried(t *testing.T) {
	f := &fakeRanker{initErr: errors.New("connection refused")}
	q := newRankQuery(t, f)

	ctx := context.Background()
	assert.False(t, q.RankerAvailable(ctx))
	assert.False(t, q.RankerAvailable(ctx))
	assert.Equal(t, 1, f.probes)
}

func TestSemanticSearch_FallsBackToKeywordScores(t *testing.T) {
	q := newTestQuery(t, topicFixture())

	res := q.SemanticSearch(context.Background(), "auth login", 10)
	require.Len(t, res, 2)
	assert.Equal(t, "login", res[0].Symbol.Name)
	assert.Equal(t, float64(4), res[0].Score)
}

func TestSemanticSearch_EnhancedReorders(t *testing.T) {
	f := &fakeRanker{}
	q := newRankQuery(t, f)

	// The fake scores reverse the keyword order, so validateSession comes
	// out on top.
	res := q.SemanticSearch(context.Background(), "auth login", 10)
	require.Len(t, res, 2)
	assert.Equal(t, "validateSession", res[0].Symbol.Name)
	assert.Equal(t, 1, f.rankCalls)
}

func TestSemanticSearch_RankErrorKeepsDeterministicResult(t *testing.T) {
	f := &fakeRanker{rankErr: errors.New("model overloaded")}
	q := newRankQuery(t, f)

	res := q.SemanticSearch(context.Background(), "auth login", 10)
	require.Len(t, res, 2)
	assert.Equal(t, "login", res[0].Symbol.Name)
}

func TestSemanticSearch_BadScoreVectorDegrades(t *testing.T) {
	f := &fakeRanker{scores: []float64{0.5}} // wrong length for two candidates
	q := newRankQuery(t, f)

	res := q.SemanticSearch(context.Background(), "auth login", 10)
	require.Len(t, res, 2)
	assert.Equal(t, "login", res[0].Symbol.Name)
}

func TestRankSymbols_DeterministicFallback(t *testing.T) {
	q := newTestQuery(t, topicFixture())

	input := q.Symbols()
	out := q.RankSymbols(context.Background(), "auth login", input)
	require.Len(t, out, len(input))
	assert.Equal(t, "login", out[0].Name)

	// The input slice is left untouched.
	assert.Equal(t, "login", input[0].Name)
	assert.Equal(t, "validateSession", input[1].Name)

	assert.Empty(t, q.RankSymbols(context.Background(), "anything", nil))
}

func TestRankSymbols_Enhanced(t *testing.T) {
	f := &fakeRanker{}
	q := newRankQuery(t, f)

	out := q.RankSymbols(context.Background(), "anything", q.Symbols())
	require.Len(t, out, 4)
	// Reverse-order fake scores put the last input symbol first.
	assert.Equal(t, "createPool", out[0].Name)
}

func TestSmartContext_Deterministic(t *testing.T) {
	e := buildProject(t, map[string]string{
		"auth/login.js":   "function login(user) {}\n",
		"auth/session.js": "function session(id) {}\n",
	})
	q, _ := e.Query()

	tc := q.SmartContext(context.Background(), "login auth", 4000)
	require.NotNil(t, tc)
	assert.False(t, tc.Enhanced)
	assert.Equal(t, 4000, tc.Budget)
	require.NotEmpty(t, tc.Entries)
	assert.Equal(t, "login", tc.Entries[0].Symbol.Name)
	assert.Contains(t, tc.Entries[0].Code, "function login")

	total := 0
	for _, entry := range tc.Entries {
		total += len(entry.Code)
	}
	assert.LessOrEqual(t, total, 4000)
}

func TestSmartContext_BudgetTruncation(t *testing.T) {
	e := buildProject(t, map[string]string{
		"auth/login.js": "function login(user) { return checkCredentials(user); }\n",
	})
	q, _ := e.Query()

	// Budget smaller than any snippet: the top entry is truncated rather
	// than returning nothing.
	tc := q.SmartContext(context.Background(), "login", 10)
	require.Len(t, tc.Entries, 1)
	assert.Len(t, tc.Entries[0].Code, 10)
}

func TestSmartContext_NoMatches(t *testing.T) {
	e := buildProject(t, map[string]string{"a.js": "function unrelated() {}\n"})
	q, _ := e.Query()

	tc := q.SmartContext(context.Background(), "zzz qqq", 0)
	require.NotNil(t, tc)
	assert.Equal(t, defaultContextBudget, tc.Budget)
	assert.Empty(t, tc.Entries)
}

func TestSmartContext_MissingSourceFilesSkipped(t *testing.T) {
	// Symbols point at files that do not exist under the engine root.
	q := newTestQuery(t, topicFixture())

	tc := q.SmartContext(context.Background(), "auth login", 100)
	require.NotNil(t, tc)
	assert.Empty(t, tc.Entries)
}

func TestSmartContext_Enhanced(t *testing.T) {
	f := &fakeRanker{}
	root := t.TempDir()
	writeProject(t, root, map[string]string{
		"auth/login.js":   "function login(user) {}\n",
		"auth/session.js": "function session(id) {}\n",
	})
	e := newTestEngine(t, root, WithRanker(f))
	_, err := e.Build(context.Background(), BuildOptions{})
	require.NoError(t, err)
	q, _ := e.Query()

	tc := q.SmartContext(context.Background(), "auth", 4000)
	assert.True(t, tc.Enhanced)
	require.NotEmpty(t, tc.Entries)
}

func TestExplainSymbol_Deterministic(t *testing.T) {
	ix := index.New()
	ix.Symbols = []index.Symbol{{
		ID: "src/auth.js:login", Name: "login", Kind: "function", File: "src/auth.js",
		StartLine: 3, EndLine: 9, Exported: true,
		Signature: "function login(user, password)",
		Params:    []string{"user", "password"},
	}}
	q := newTestQuery(t, ix)

	ex := q.ExplainSymbol(context.Background(), "src/auth.js:login")
	require.NotNil(t, ex)
	assert.False(t, ex.Enhanced)
	assert.Contains(t, ex.Text, "login is an exported function")
	assert.Contains(t, ex.Text, "src/auth.js (lines 3-9)")
	assert.Contains(t, ex.Text, "Signature: function login(user, password).")
	assert.Contains(t, ex.Text, "Parameters: user, password.")

	assert.Nil(t, q.ExplainSymbol(context.Background(), "unknown:id"))
}

func TestExplainSymbol_MentionsExtends(t *testing.T) {
	ix := index.New()
	ix.Symbols = []index.Symbol{{
		ID: "m.js:Admin", Name: "Admin", Kind: "class", File: "m.js",
		StartLine: 1, EndLine: 4, Extends: "User",
	}}
	q := newTestQuery(t, ix)

	ex := q.ExplainSymbol(context.Background(), "m.js:Admin")
	require.NotNil(t, ex)
	assert.Contains(t, ex.Text, "Admin is a class in m.js")
	assert.Contains(t, ex.Text, "Extends User.")
}

func TestExplainSymbol_EnhancedAppendsSummary(t *testing.T) {
	f := &fakeRanker{summary: "Validates credentials against the session store."}
	root := t.TempDir()
	writeProject(t, root, map[string]string{"auth.js": "function login(user) {}\n"})
	e := newTestEngine(t, root, WithRanker(f))
	_, err := e.Build(context.Background(), BuildOptions{})
	require.NoError(t, err)
	q, _ := e.Query()

	ex := q.ExplainSymbol(context.Background(), "auth.js:login")
	require.NotNil(t, ex)
	assert.True(t, ex.Enhanced)
	assert.True(t, strings.HasSuffix(ex.Text, f.summary))
}

func TestExplainSymbol_SummaryFailureKeepsDeterministicText(t *testing.T) {
	f := &fakeRanker{} // Summarize errors when no summary configured
	root := t.TempDir()
	writeProject(t, root, map[string]string{"auth.js": "function login(user) {}\n"})
	e := newTestEngine(t, root, WithRanker(f))
	_, err := e.Build(context.Background(), BuildOptions{})
	require.NoError(t, err)
	q, _ := e.Query()

	ex := q.ExplainSymbol(context.Background(), "auth.js:login")
	require.NotNil(t, ex)
	assert.False(t, ex.Enhanced)
	assert.Contains(t, ex.Text, "login is a function")
}
