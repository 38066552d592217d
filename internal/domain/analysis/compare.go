package analysis

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/ccparser/internal/domain/transaction"
)

// CategoryChange compares one category's spending across two months.
type CategoryChange struct {
	Category   string
	Month1     decimal.Decimal
	Month2     decimal.Decimal
	Difference decimal.Decimal
	Percent    decimal.NullDecimal
}

// Comparison is the month-over-month spending comparison.
type Comparison struct {
	Month1          Month
	Month2          Month
	Spending1       decimal.Decimal
	Spending2       decimal.Decimal
	Difference      decimal.Decimal // Spending2 - Spending1
	Percent         decimal.NullDecimal
	Count1          int
	Count2          int
	CountDifference int
	Categories      []CategoryChange
}

// CompareMonths compares debit spending of m1 and m2, overall and per
// category. Categories present in only one month appear with a zero on the
// other side.
func CompareMonths(txns []transaction.Transaction, m1, m2 Month) Comparison {
	var first, second []transaction.Transaction
	for _, t := range txns {
		if m1.Contains(t.Date) {
			first = append(first, t)
		}
		if m2.Contains(t.Date) {
			second = append(second, t)
		}
	}

	s1, s2 := Summarize(first), Summarize(second)
	c := Comparison{
		Month1:          m1,
		Month2:          m2,
		Spending1:       s1.TotalSpending,
		Spending2:       s2.TotalSpending,
		Difference:      s2.TotalSpending.Sub(s1.TotalSpending),
		Percent:         PercentChange(s1.TotalSpending, s2.TotalSpending),
		Count1:          s1.Count,
		Count2:          s2.Count,
		CountDifference: s2.Count - s1.Count,
	}

	changes := map[string]*CategoryChange{}
	get := func(category string) *CategoryChange {
		ch, ok := changes[category]
		if !ok {
			ch = &CategoryChange{Category: category}
			changes[category] = ch
		}
		return ch
	}
	for _, row := range CategoryBreakdown(first) {
		get(row.Category).Month1 = row.Total
	}
	for _, row := range CategoryBreakdown(second) {
		get(row.Category).Month2 = row.Total
	}

	for _, ch := range changes {
		ch.Difference = ch.Month2.Sub(ch.Month1)
		ch.Percent = PercentChange(ch.Month1, ch.Month2)
		c.Categories = append(c.Categories, *ch)
	}
	slices.SortFunc(c.Categories, func(a, b CategoryChange) int {
		if x := b.Month2.Cmp(a.Month2); x != 0 {
			return x
		}
		if x := b.Month1.Cmp(a.Month1); x != 0 {
			return x
		}
		return strings.Compare(a.Category, b.Category)
	})
	return c
}

// LatestMonths returns the two most recent months that have transactions,
// older first. ok is false when fewer than two months are present.
func LatestMonths(txns []transaction.Transaction) (m1, m2 Month, ok bool) {
	trend := MonthlyTrend(txns)
	if len(trend) < 2 {
		return Month{}, Month{}, false
	}
	return trend[len(trend)-2].Month, trend[len(trend)-1].Month, true
}
