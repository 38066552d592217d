package categorization

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// Fallback is the category of a description no rule matches.
const Fallback = "others"

// Rule maps descriptions containing Pattern to Category. Lower Priority
// values are tried first.
type Rule struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Pattern   string // normalized
	Category  string
	Priority  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Normalize case-folds s and collapses runs of whitespace to one space.
// Patterns and descriptions go through the same function before matching.
// A Caser is stateful, so each call gets its own.
func Normalize(s string) string {
	return strings.Join(strings.Fields(cases.Fold().String(s)), " ")
}

// NormalizeCategory trims and lower-cases a category label.
func NormalizeCategory(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// less orders rules for evaluation: priority, then pattern, then ID, so two
// rules never compare equal.
func less(a, b Rule) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	if a.Pattern != b.Pattern {
		return a.Pattern < b.Pattern
	}
	return a.ID.String() < b.ID.String()
}
