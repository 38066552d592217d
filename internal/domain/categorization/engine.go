package categorization

import (
	"sync"

	"github.com/cloudflare/ahocorasick"
)

// Engine matches every rule pattern against a description in a single pass
// using the Aho-Corasick algorithm. It returns exactly what Matcher returns
// for the same rules; it only avoids rescanning the description per rule,
// which matters when a whole statement is categorized at once.
type Engine struct {
	matcher  *ahocorasick.Matcher
	patterns []string // unique patterns, same order as matcher
	best     []int    // per pattern, the rank of its highest precedence rule
	rules    []Rule   // evaluation order; rank is the index

	// ahocorasick.Matcher.Match updates per-call counters inside the
	// automaton, so matching needs the exclusive lock too.
	mu sync.Mutex
}

func NewEngine(rules []Rule) *Engine {
	e := &Engine{}
	e.Build(rules)
	return e
}

// Build rebuilds the automaton for a new rule set.
func (e *Engine) Build(rules []Rule) {
	ordered := NewMatcher(rules).rules

	e.mu.Lock()
	defer e.mu.Unlock()

	e.rules = ordered
	e.patterns = e.patterns[:0]
	e.best = e.best[:0]
	if len(ordered) == 0 {
		e.matcher = nil
		return
	}

	// Rules are visited in rank order, so the first rank recorded for a
	// pattern is its best.
	index := make(map[string]int, len(ordered))
	for rank, r := range ordered {
		if _, seen := index[r.Pattern]; seen {
			continue
		}
		index[r.Pattern] = len(e.patterns)
		e.patterns = append(e.patterns, r.Pattern)
		e.best = append(e.best, rank)
	}

	dict := make([][]byte, len(e.patterns))
	for i, p := range e.patterns {
		dict[i] = []byte(p)
	}
	e.matcher = ahocorasick.NewMatcher(dict)
}

// Match returns the winning rule for description, if any.
func (e *Engine) Match(description string) (Rule, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.match(Normalize(description))
}

func (e *Engine) match(normalized string) (Rule, bool) {
	if e.matcher == nil {
		return Rule{}, false
	}

	hits := e.matcher.Match([]byte(normalized))
	if len(hits) == 0 {
		return Rule{}, false
	}

	rank := -1
	for _, idx := range hits {
		if idx < 0 || idx >= len(e.best) {
			continue
		}
		if rank == -1 || e.best[idx] < rank {
			rank = e.best[idx]
		}
	}
	if rank == -1 {
		return Rule{}, false
	}
	return e.rules[rank], true
}

// Categorize returns the category for description, or Fallback.
func (e *Engine) Categorize(description string) string {
	if r, ok := e.Match(description); ok {
		return r.Category
	}
	return Fallback
}

// MatchBatch categorizes descriptions under one lock acquisition. The result is
// index-aligned with descriptions.
func (e *Engine) MatchBatch(descriptions []string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, len(descriptions))
	for i, d := range descriptions {
		if r, ok := e.match(Normalize(d)); ok {
			out[i] = r.Category
		} else {
			out[i] = Fallback
		}
	}
	return out
}

// PatternCount returns the number of distinct patterns loaded.
func (e *Engine) PatternCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.patterns)
}
