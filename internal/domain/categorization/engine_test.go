package categorization

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ccparser/pkg/money"
)

func defaultRules() []Rule {
	var rules []Rule
	for _, d := range DefaultRules() {
		rules = append(rules, Rule{ID: uuid.New(), Pattern: d.Pattern, Category: d.Category, Priority: d.Priority})
	}
	return rules
}

func TestMatcher_Match(t *testing.T) {
	m := NewMatcher(defaultRules())

	tests := []struct {
		description string
		expected    string
	}{
		{"SWIGGY BANGALORE", "food_dining"},
		{"Uber Restaurant", "transport"},
		{"XYZ123 UNKNOWN MERCHANT", Fallback},
		{"NETFLIX.COM MUMBAI", "subscriptions"},
		{"payment   RECEIVED thank you", "payments"},
		{"BOOKMYSHOW MUMBAI", "entertainment"},
		{"BOOKING.COM AMSTERDAM", "travel"},
		{"", Fallback},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Equal(t, tt.expected, m.Match(tt.description))
		})
	}
}

func TestMatcher_Ordering(t *testing.T) {
	a := Rule{ID: uuid.New(), Pattern: "coffee", Category: "food_dining", Priority: 2}
	b := Rule{ID: uuid.New(), Pattern: "cafe coffee day", Category: "treats", Priority: 1}
	c := Rule{ID: uuid.New(), Pattern: "  ", Category: "broken", Priority: 0}

	m := NewMatcher([]Rule{a, b, c})

	t.Run("lower priority value wins", func(t *testing.T) {
		assert.Equal(t, "treats", m.Match("CAFE  COFFEE DAY BLR"))
		assert.Equal(t, "food_dining", m.Match("BLUE TOKAI COFFEE"))
	})

	t.Run("empty patterns are dropped", func(t *testing.T) {
		require.Len(t, m.Rules(), 2)
		assert.Equal(t, "cafe coffee day", m.Rules()[0].Pattern)
	})

	t.Run("equal priority breaks ties by pattern", func(t *testing.T) {
		m := NewMatcher([]Rule{
			{ID: uuid.New(), Pattern: "zeta", Category: "z", Priority: 1},
			{ID: uuid.New(), Pattern: "alpha", Category: "a", Priority: 1},
		})
		assert.Equal(t, "a", m.Match("ALPHA ZETA"))
	})

	t.Run("result does not depend on input order", func(t *testing.T) {
		rules := defaultRules()
		reversed := make([]Rule, len(rules))
		for i, r := range rules {
			reversed[len(rules)-1-i] = r
		}
		assert.Equal(t, NewMatcher(rules).Rules(), NewMatcher(reversed).Rules())
	})
}

func TestEngine_Match(t *testing.T) {
	engine := NewEngine(defaultRules())

	t.Run("matches like the ordered scan", func(t *testing.T) {
		assert.Equal(t, "transport", engine.Categorize("Uber Restaurant"))
		assert.Equal(t, Fallback, engine.Categorize("XYZ123 UNKNOWN MERCHANT"))

		r, ok := engine.Match("zomato order 1234")
		require.True(t, ok)
		assert.Equal(t, "zomato", r.Pattern)
	})

	t.Run("overlapping patterns resolve by priority", func(t *testing.T) {
		// "book" (5), "booking" (3) and "bookmyshow" (1) all overlap
		assert.Equal(t, "entertainment", engine.Categorize("BOOKMYSHOW"))
		assert.Equal(t, "travel", engine.Categorize("BOOKING.COM"))
		assert.Equal(t, "education", engine.Categorize("SAPNA BOOK HOUSE"))
	})

	t.Run("batch is index aligned", func(t *testing.T) {
		got := engine.MatchBatch([]string{"AMAZON PAY", "nothing here", "HP PETROL PUMP"})
		assert.Equal(t, []string{"shopping", Fallback, "transport"}, got)
	})

	t.Run("empty engine falls back", func(t *testing.T) {
		empty := NewEngine(nil)
		assert.Zero(t, empty.PatternCount())
		assert.Equal(t, Fallback, empty.Categorize("SWIGGY"))
	})

	t.Run("rebuild replaces the rule set", func(t *testing.T) {
		e := NewEngine(defaultRules())
		e.Build([]Rule{{ID: uuid.New(), Pattern: "swiggy", Category: "treats", Priority: 1}})
		assert.Equal(t, 1, e.PatternCount())
		assert.Equal(t, "treats", e.Categorize("SWIGGY"))
		assert.Equal(t, Fallback, e.Categorize("UBER"))
	})
}

func TestEngine_AgreesWithMatcher(t *testing.T) {
	rules := defaultRules()
	// duplicate pattern with a worse priority must never win
	rules = append(rules, Rule{ID: uuid.New(), Pattern: "uber", Category: "shadowed", Priority: 9})

	m := NewMatcher(rules)
	e := NewEngine(rules)

	gen := money.NewStatementGenerator(42)
	lines := gen.Lines(500, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	descriptions := []string{"Uber Restaurant", "XYZ123 UNKNOWN MERCHANT", "cafe hotel flight"}
	for _, l := range lines {
		descriptions = append(descriptions, l.Description)
	}

	batch := e.MatchBatch(descriptions)
	for i, d := range descriptions {
		want := m.Match(d)
		assert.Equal(t, want, e.Categorize(d), "description %q", d)
		assert.Equal(t, want, batch[i], "batch description %q", d)
		assert.Equal(t, want, m.Match(d), "repeat %q", d)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "payment received", Normalize("  PAYMENT\tRECEIVED "))
	assert.Equal(t, "café coffee", Normalize("CAFÉ  Coffee"))
	assert.Equal(t, "food_dining", NormalizeCategory(" Food_Dining "))
}

func TestDefaultRules(t *testing.T) {
	seen := map[string]bool{}
	for _, d := range DefaultRules() {
		assert.Equal(t, Normalize(d.Pattern), d.Pattern)
		assert.False(t, seen[d.Pattern], fmt.Sprintf("duplicate pattern %q", d.Pattern))
		assert.NotEqual(t, Fallback, d.Category)
		seen[d.Pattern] = true
	}
}
