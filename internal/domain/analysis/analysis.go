// Package analysis aggregates transactions into spending summaries,
// category breakdowns and month-over-month comparisons. All sums are exact
// decimals.
package analysis

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/ccparser/internal/domain/transaction"
)

var hundred = decimal.NewFromInt(100)

// Summary covers a set of transactions. Spending is the sum of debit
// magnitudes; credits are reported separately.
type Summary struct {
	TotalSpending decimal.Decimal
	TotalCredits  decimal.Decimal
	NetFlow       decimal.Decimal // credits minus spending
	AverageDebit  decimal.Decimal
	Count         int
	DebitCount    int
	CreditCount   int
	From          time.Time
	To            time.Time
}

// CategoryTotal is one row of a category breakdown.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
	Count    int
	Share    decimal.Decimal // percent of total spending
}

// MonthlyPoint is one month of the spending trend.
type MonthlyPoint struct {
	Month    Month
	Spending decimal.Decimal
	Credits  decimal.Decimal
	Net      decimal.Decimal
	Count    int
}

func Summarize(txns []transaction.Transaction) Summary {
	var s Summary
	for i, t := range txns {
		if i == 0 || t.Date.Before(s.From) {
			s.From = t.Date
		}
		if i == 0 || t.Date.After(s.To) {
			s.To = t.Date
		}
		s.Count++
		if t.IsCredit() {
			s.CreditCount++
			s.TotalCredits = s.TotalCredits.Add(t.Amount)
			continue
		}
		s.DebitCount++
		s.TotalSpending = s.TotalSpending.Add(t.Amount)
	}
	s.NetFlow = s.TotalCredits.Sub(s.TotalSpending)
	if s.DebitCount > 0 {
		s.AverageDebit = s.TotalSpending.Div(decimal.NewFromInt(int64(s.DebitCount))).Round(2)
	}
	return s
}

// CategoryBreakdown totals debits per category, largest first with ties
// broken by category name. The row totals add up to Summary.TotalSpending.
func CategoryBreakdown(txns []transaction.Transaction) []CategoryTotal {
	byCategory := map[string]*CategoryTotal{}
	spending := decimal.Zero
	for _, t := range txns {
		if !t.IsDebit() {
			continue
		}
		c, ok := byCategory[t.Category]
		if !ok {
			c = &CategoryTotal{Category: t.Category}
			byCategory[t.Category] = c
		}
		c.Total = c.Total.Add(t.Amount)
		c.Count++
		spending = spending.Add(t.Amount)
	}

	out := make([]CategoryTotal, 0, len(byCategory))
	for _, c := range byCategory {
		if spending.IsPositive() {
			c.Share = c.Total.Div(spending).Mul(hundred).Round(2)
		}
		out = append(out, *c)
	}
	sortTotals(out)
	return out
}

func sortTotals(rows []CategoryTotal) {
	slices.SortFunc(rows, func(a, b CategoryTotal) int {
		if c := b.Total.Cmp(a.Total); c != 0 {
			return c
		}
		return strings.Compare(a.Category, b.Category)
	})
}

// MonthlyTrend groups transactions by calendar month, oldest first.
func MonthlyTrend(txns []transaction.Transaction) []MonthlyPoint {
	byMonth := map[Month]*MonthlyPoint{}
	for _, t := range txns {
		m := MonthOf(t.Date)
		p, ok := byMonth[m]
		if !ok {
			p = &MonthlyPoint{Month: m}
			byMonth[m] = p
		}
		p.Count++
		if t.IsCredit() {
			p.Credits = p.Credits.Add(t.Amount)
		} else {
			p.Spending = p.Spending.Add(t.Amount)
		}
	}

	out := make([]MonthlyPoint, 0, len(byMonth))
	for _, p := range byMonth {
		p.Net = p.Credits.Sub(p.Spending)
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b MonthlyPoint) int { return a.Month.Compare(b.Month) })
	return out
}

// LargestDebits returns the n biggest debits. Equal amounts keep the
// earlier date, then the earlier statement position first.
func LargestDebits(txns []transaction.Transaction, n int) []transaction.Transaction {
	var debits []transaction.Transaction
	for _, t := range txns {
		if t.IsDebit() {
			debits = append(debits, t)
		}
	}
	slices.SortStableFunc(debits, func(a, b transaction.Transaction) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.Position, b.Position)
	})
	if n >= 0 && len(debits) > n {
		debits = debits[:n]
	}
	return debits
}

// PercentChange returns (to - from) / from * 100 rounded to two places. It
// is null when from is zero.
func PercentChange(from, to decimal.Decimal) decimal.NullDecimal {
	if from.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(to.Sub(from).Div(from).Mul(hundred).Round(2))
}

// Month is a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth reads a YYYY-MM identifier.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q, want YYYY-MM", s)
	}
	return MonthOf(t), nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m Month) IsZero() bool { return m.Year == 0 && m.Month == 0 }

// Start returns the first day of the month.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last day of the month.
func (m Month) End() time.Time {
	return m.Start().AddDate(0, 1, -1)
}

func (m Month) Contains(t time.Time) bool {
	return t.Year() == m.Year && t.Month() == m.Month
}

func (m Month) Compare(o Month) int {
	if c := cmp.Compare(m.Year, o.Year); c != 0 {
		return c
	}
	return cmp.Compare(m.Month, o.Month)
}
