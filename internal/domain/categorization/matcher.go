package categorization

import (
	"slices"
	"strings"
)

// Matcher evaluates rules as an ordered scan: the first rule, in priority
// order, whose pattern occurs in the description wins.
type Matcher struct {
	rules []Rule
}

// NewMatcher copies and orders rules. Patterns are normalized so hand-built
// rules behave like stored ones.
func NewMatcher(rules []Rule) *Matcher {
	ordered := make([]Rule, 0, len(rules))
	for _, r := range rules {
		r.Pattern = Normalize(r.Pattern)
		if r.Pattern == "" {
			continue
		}
		ordered = append(ordered, r)
	}
	slices.SortStableFunc(ordered, func(a, b Rule) int {
		switch {
		case less(a, b):
			return -1
		case less(b, a):
			return 1
		}
		return 0
	})
	return &Matcher{rules: ordered}
}

// Match returns the category for description, or Fallback.
func (m *Matcher) Match(description string) string {
	if r, ok := m.MatchRule(description); ok {
		return r.Category
	}
	return Fallback
}

// MatchRule returns the winning rule, if any.
func (m *Matcher) MatchRule(description string) (Rule, bool) {
	d := Normalize(description)
	for _, r := range m.rules {
		if strings.Contains(d, r.Pattern) {
			return r, true
		}
	}
	return Rule{}, false
}

// Rules returns the rules in evaluation order.
func (m *Matcher) Rules() []Rule {
	return slices.Clone(m.rules)
}
