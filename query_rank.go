package lattice

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// ScoredSymbol pairs a symbol with a relevance score.
type ScoredSymbol struct {
	Symbol Symbol  `json:"symbol"`
	Score  float64 `json:"score"`
}

// FindByTopic scores every symbol by keyword overlap between the topic and
// the symbol's name, file, and kind, descending with ties in extraction
// order. Name hits weigh double. Zero-score symbols are excluded. This is
// the deterministic baseline the enhanced methods fall back to.
func (q *QueryBuilder) FindByTopic(topic string, limit int) []ScoredSymbol {
	out := []ScoredSymbol{}
	keywords := topicKeywords(topic)
	if len(keywords) == 0 {
		return out
	}

	for _, s := range q.ix.Symbols {
		if score := topicScore(s, keywords); score > 0 {
			out = append(out, ScoredSymbol{Symbol: s, Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// topicKeywords lowercases and splits a topic phrase, trimming punctuation.
func topicKeywords(topic string) []string {
	var out []string
	for _, f := range strings.Fields(strings.ToLower(topic)) {
		if f = strings.Trim(f, ",.;:!?\"'()"); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func topicScore(s Symbol, keywords []string) float64 {
	name := strings.ToLower(s.Name)
	file := strings.ToLower(s.File)
	var score float64
	for _, kw := range keywords {
		if strings.Contains(name, kw) {
			score += 2
		}
		if strings.Contains(file, kw) {
			score++
		}
		if s.Kind == kw {
			score++
		}
	}
	return score
}

// ensureRanker performs the one bounded probe of the ranking capability and
// reports whether it is usable. The outcome is cached for the Engine's
// lifetime; a failed probe is never retried.
func (e *Engine) ensureRanker(ctx context.Context) bool {
	e.rankOnce.Do(func() {
		if e.ranker == nil {
			return
		}
		if err := e.ranker.Initialize(ctx); err != nil {
			e.logger.Debug("ranking capability unavailable", "error", err)
			return
		}
		e.rankReady = e.ranker.IsAvailable()
	})
	return e.rankReady
}

// guarded runs an enhanced operation when the ranking capability is ready
// and reports whether it succeeded. Failures are logged and swallowed; the
// caller keeps its deterministic result.
func (q *QueryBuilder) guarded(ctx context.Context, op string, enhanced func() error) bool {
	if !q.eng.ensureRanker(ctx) {
		return false
	}
	if err := enhanced(); err != nil {
		q.eng.logger.Debug("enhanced query fell back", "op", op, "error", err)
		return false
	}
	return true
}

// RankerAvailable reports whether the ranking capability is usable. The
// first call performs the bounded probe.
func (q *QueryBuilder) RankerAvailable(ctx context.Context) bool {
	return q.eng.ensureRanker(ctx)
}

// rankCandidate renders a symbol as one ranking candidate line.
func rankCandidate(s Symbol) string {
	d := fmt.Sprintf("%s %s in %s", s.Kind, s.Name, s.File)
	if s.Signature != "" {
		d += ": " + s.Signature
	}
	return d
}

// rankScores invokes the ranker over rendered candidates and verifies the
// score vector lines up, so a misbehaving ranker degrades instead of
// panicking.
func (q *QueryBuilder) rankScores(ctx context.Context, prompt string, syms []Symbol) ([]float64, error) {
	cands := make([]string, len(syms))
	for i, s := range syms {
		cands[i] = rankCandidate(s)
	}
	scores, err := q.eng.ranker.Rank(ctx, prompt, cands)
	if err != nil {
		return nil, err
	}
	if len(scores) != len(syms) {
		return nil, fmt.Errorf("ranker returned %d scores for %d candidates", len(scores), len(syms))
	}
	return scores, nil
}

// sortByScores stably sorts syms descending by the parallel scores slice.
func sortByScores(syms []Symbol, scores []float64) {
	order := make([]int, len(syms))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })
	sorted := make([]Symbol, len(syms))
	for i, j := range order {
		sorted[i] = syms[j]
	}
	copy(syms, sorted)
}

// SemanticSearch ranks symbols by relevance to a natural-language query.
// When the ranking capability is ready, the keyword-scored candidate set is
// re-scored by the external ranker; otherwise, or on any ranker failure, the
// keyword scores stand. Never errors.
func (q *QueryBuilder) SemanticSearch(ctx context.Context, query string, limit int) []ScoredSymbol {
	if limit <= 0 {
		limit = 10
	}
	// Over-fetch the deterministic baseline to give the ranker room to
	// reorder.
	results := q.FindByTopic(query, limit*3)
	if len(results) == 0 {
		return results
	}

	q.guarded(ctx, "semantic_search", func() error {
		syms := make([]Symbol, len(results))
		for i, ss := range results {
			syms[i] = ss.Symbol
		}
		scores, err := q.rankScores(ctx, query, syms)
		if err != nil {
			return err
		}
		ranked := make([]ScoredSymbol, len(results))
		for i := range results {
			ranked[i] = ScoredSymbol{Symbol: results[i].Symbol, Score: scores[i]}
		}
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
		results = ranked
		return nil
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// RankSymbols orders the given symbols by relevance to a task description,
// via the external ranker when ready and keyword scoring otherwise. The
// input slice is not mutated. Never errors.
func (q *QueryBuilder) RankSymbols(ctx context.Context, task string, symbols []Symbol) []Symbol {
	out := make([]Symbol, len(symbols))
	copy(out, symbols)
	if len(out) == 0 {
		return out
	}

	enhanced := q.guarded(ctx, "rank_symbols", func() error {
		scores, err := q.rankScores(ctx, task, out)
		if err != nil {
			return err
		}
		sortByScores(out, scores)
		return nil
	})
	if !enhanced {
		keywords := topicKeywords(task)
		scores := make([]float64, len(out))
		for i, s := range out {
			scores[i] = topicScore(s, keywords)
		}
		sortByScores(out, scores)
	}
	return out
}

// TaskContext is the assembled working context for a task: the most
// relevant symbols with their source snippets, under a character budget.
type TaskContext struct {
	Task     string         `json:"task"`
	Budget   int            `json:"budget"`
	Entries  []ContextEntry `json:"entries"`
	Enhanced bool           `json:"enhanced"` // true when the external ranker ordered the entries
}

// ContextEntry is one symbol plus its source snippet.
type ContextEntry struct {
	Symbol Symbol `json:"symbol"`
	Code   string `json:"code"`
}

const (
	defaultContextBudget   = 4000
	smartContextCandidates = 20
)

// SmartContext assembles the symbols most relevant to a task together with
// their source snippets, keeping total snippet size within budget characters.
// Snippets are read from disk at call time; symbols whose files have moved
// are skipped. Relevance comes from the external ranker when ready and from
// keyword scoring otherwise. Never errors.
func (q *QueryBuilder) SmartContext(ctx context.Context, task string, budget int) *TaskContext {
	if budget <= 0 {
		budget = defaultContextBudget
	}
	tc := &TaskContext{Task: task, Budget: budget, Entries: []ContextEntry{}}

	scored := q.FindByTopic(task, smartContextCandidates)
	if len(scored) == 0 {
		return tc
	}
	ordered := make([]Symbol, len(scored))
	for i, ss := range scored {
		ordered[i] = ss.Symbol
	}

	tc.Enhanced = q.guarded(ctx, "smart_context", func() error {
		scores, err := q.rankScores(ctx, task, ordered)
		if err != nil {
			return err
		}
		sortByScores(ordered, scores)
		return nil
	})

	used := 0
	for _, s := range ordered {
		code := q.readSymbolCode(s)
		if code == "" || used+len(code) > budget {
			continue
		}
		used += len(code)
		tc.Entries = append(tc.Entries, ContextEntry{Symbol: s, Code: code})
	}
	// Every snippet alone exceeds the budget: include the top one truncated
	// so the context is never silently empty.
	if len(tc.Entries) == 0 {
		if code := truncate(q.readSymbolCode(ordered[0]), budget); code != "" {
			tc.Entries = append(tc.Entries, ContextEntry{Symbol: ordered[0], Code: code})
		}
	}
	return tc
}

// SymbolExplanation describes one symbol in prose.
type SymbolExplanation struct {
	Symbol   Symbol `json:"symbol"`
	Text     string `json:"text"`
	Enhanced bool   `json:"enhanced"` // true when a model summary was appended
}

// ExplainSymbol builds a prose description of the symbol with the given ID.
// The deterministic text covers kind, location, signature, parameters, and
// supertype; when the ranking capability is ready, a model summary of the
// symbol's source is appended. Nil when the ID is unknown. Never errors.
func (q *QueryBuilder) ExplainSymbol(ctx context.Context, id string) *SymbolExplanation {
	s := q.FindByID(id)
	if s == nil {
		return nil
	}
	ex := &SymbolExplanation{Symbol: *s, Text: describeSymbol(*s)}
	ex.Enhanced = q.guarded(ctx, "explain_symbol", func() error {
		code := q.readSymbolCode(*s)
		if code == "" {
			return fmt.Errorf("no source for %s", s.File)
		}
		summary, err := q.eng.ranker.Summarize(ctx, code)
		if err != nil {
			return err
		}
		if summary != "" {
			ex.Text += " " + summary
		}
		return nil
	})
	return ex
}

// describeSymbol renders the deterministic explanation text.
func describeSymbol(s Symbol) string {
	var b strings.Builder
	if s.Exported {
		fmt.Fprintf(&b, "%s is an exported %s", s.Name, s.Kind)
	} else {
		article := "a"
		if s.Kind != "" && strings.ContainsAny(s.Kind[:1], "aeiou") {
			article = "an"
		}
		fmt.Fprintf(&b, "%s is %s %s", s.Name, article, s.Kind)
	}
	if s.EndLine > s.StartLine {
		fmt.Fprintf(&b, " in %s (lines %d-%d).", s.File, s.StartLine, s.EndLine)
	} else {
		fmt.Fprintf(&b, " in %s (line %d).", s.File, s.StartLine)
	}
	if s.Signature != "" {
		fmt.Fprintf(&b, " Signature: %s.", s.Signature)
	}
	if len(s.Params) > 0 {
		fmt.Fprintf(&b, " Parameters: %s.", strings.Join(s.Params, ", "))
	}
	if s.Extends != "" {
		fmt.Fprintf(&b, " Extends %s.", s.Extends)
	}
	return b.String()
}

// truncate cuts s to at most n bytes without splitting a UTF-8 rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
