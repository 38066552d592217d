// Package report renders analysis results to the terminal, Excel
// workbooks and CSV files.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/ccparser/internal/domain/analysis"
	"github.com/FACorreiaa/ccparser/internal/domain/transaction"
	"github.com/FACorreiaa/ccparser/pkg/money"
)

// Console writes human-readable tables.
type Console struct {
	w        io.Writer
	currency string

	title *color.Color
	debit *color.Color
	green *color.Color
	muted *color.Color
}

// NewConsole writes to w. Colour follows fatih/color's terminal detection
// unless noColor is set.
func NewConsole(w io.Writer, currency string, noColor bool) *Console {
	c := &Console{
		w:        w,
		currency: currency,
		title:    color.New(color.Bold, color.FgCyan),
		debit:    color.New(color.FgRed),
		green:    color.New(color.FgGreen),
		muted:    color.New(color.FgHiBlack),
	}
	if noColor {
		for _, col := range []*color.Color{c.title, c.debit, c.green, c.muted} {
			col.DisableColor()
		}
	}
	return c
}

func (c *Console) amount(d decimal.Decimal) string {
	return money.Format(d, c.currency)
}

func (c *Console) heading(s string) {
	c.title.Fprintln(c.w, s)
}

func (c *Console) table() *tabwriter.Writer {
	return tabwriter.NewWriter(c.w, 0, 0, 2, ' ', 0)
}

// Summary prints totals and the category table of r.
func (c *Console) Summary(r *analysis.Report) error {
	s := r.Summary
	c.heading("Spending Summary")
	if s.Count > 0 {
		c.muted.Fprintf(c.w, "%s to %s\n", s.From.Format(time.DateOnly), s.To.Format(time.DateOnly))
	}

	tw := c.table()
	fmt.Fprintf(tw, "Total spending\t%s\n", c.debit.Sprint(c.amount(s.TotalSpending)))
	fmt.Fprintf(tw, "Total credits\t%s\n", c.green.Sprint(c.amount(s.TotalCredits)))
	fmt.Fprintf(tw, "Net flow\t%s\n", c.signed(s.NetFlow))
	fmt.Fprintf(tw, "Transactions\t%d (%d debits, %d credits)\n", s.Count, s.DebitCount, s.CreditCount)
	fmt.Fprintf(tw, "Average debit\t%s\n", c.amount(s.AverageDebit))
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(c.w)
	return c.Categories(r.Categories, s.TotalSpending)
}

func (c *Console) signed(d decimal.Decimal) string {
	if d.IsNegative() {
		return c.debit.Sprint("-" + c.amount(d.Abs()))
	}
	return c.green.Sprint(c.amount(d))
}

// Categories prints the category breakdown with a total row.
func (c *Console) Categories(rows []analysis.CategoryTotal, total decimal.Decimal) error {
	c.heading("Spending by Category")
	if len(rows) == 0 {
		c.muted.Fprintln(c.w, "no spending")
		return nil
	}

	tw := c.table()
	fmt.Fprintln(tw, "CATEGORY\tAMOUNT\tCOUNT\tSHARE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s%%\n", r.Category, c.amount(r.Total), r.Count, r.Share.StringFixed(1))
	}
	fmt.Fprintf(tw, "TOTAL\t%s\t\t\n", c.amount(total))
	return tw.Flush()
}

// Trend prints spending per month.
func (c *Console) Trend(points []analysis.MonthlyPoint) error {
	c.heading("Monthly Trend")
	tw := c.table()
	fmt.Fprintln(tw, "MONTH\tSPENDING\tCREDITS\tNET\tCOUNT")
	for _, p := range points {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", p.Month, c.amount(p.Spending), c.amount(p.Credits), c.signed(p.Net), p.Count)
	}
	return tw.Flush()
}

// Comparison prints a month-over-month comparison.
func (c *Console) Comparison(cmp *analysis.Comparison) error {
	c.heading(fmt.Sprintf("Monthly Comparison: %s vs %s", cmp.Month1, cmp.Month2))

	tw := c.table()
	fmt.Fprintf(tw, "\t%s\t%s\tCHANGE\n", cmp.Month1, cmp.Month2)
	fmt.Fprintf(tw, "Spending\t%s\t%s\t%s\n", c.amount(cmp.Spending1), c.amount(cmp.Spending2), c.change(cmp.Difference, cmp.Percent))
	fmt.Fprintf(tw, "Transactions\t%d\t%d\t%+d\n", cmp.Count1, cmp.Count2, cmp.CountDifference)
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(cmp.Categories) == 0 {
		return nil
	}
	fmt.Fprintln(c.w)
	tw = c.table()
	fmt.Fprintf(tw, "CATEGORY\t%s\t%s\tCHANGE\n", cmp.Month1, cmp.Month2)
	for _, ch := range cmp.Categories {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ch.Category, c.amount(ch.Month1), c.amount(ch.Month2), c.change(ch.Difference, ch.Percent))
	}
	return tw.Flush()
}

// change renders a difference with its percentage; an undefined percentage
// prints as n/a.
func (c *Console) change(diff decimal.Decimal, pct decimal.NullDecimal) string {
	p := "n/a"
	if pct.Valid {
		p = pct.Decimal.StringFixed(2) + "%"
		if pct.Decimal.IsPositive() {
			p = "+" + p
		}
	}
	sign := "+"
	if diff.IsNegative() {
		sign = "-"
	}
	out := fmt.Sprintf("%s%s (%s)", sign, c.amount(diff.Abs()), p)
	if diff.IsPositive() {
		return c.debit.Sprint(out)
	}
	return c.green.Sprint(out)
}

// Transactions prints a transaction listing.
func (c *Console) Transactions(txns []transaction.Transaction) error {
	if len(txns) == 0 {
		c.muted.Fprintln(c.w, "no transactions")
		return nil
	}

	tw := c.table()
	fmt.Fprintln(tw, "DATE\tDESCRIPTION\tAMOUNT\tTYPE\tCATEGORY\tID")
	for _, t := range txns {
		amount := c.amount(t.Amount)
		if t.IsCredit() {
			amount = c.green.Sprint(amount)
		}
		category := t.Category
		if t.UserCorrected {
			category += "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.Date.Format(time.DateOnly), t.Description, amount, t.Direction, category, t.ID)
	}
	return tw.Flush()
}

// LargestDebits prints the biggest debits of a report.
func (c *Console) LargestDebits(txns []transaction.Transaction) error {
	if len(txns) == 0 {
		return nil
	}
	c.heading("Largest Debits")
	return c.Transactions(txns)
}

// SearchHits prints search results with their scores.
func (c *Console) SearchHits(hits []transaction.SearchHit) error {
	if len(hits) == 0 {
		c.muted.Fprintln(c.w, "no matches")
		return nil
	}

	tw := c.table()
	fmt.Fprintln(tw, "SCORE\tDATE\tDESCRIPTION\tAMOUNT\tCATEGORY\tID")
	for _, h := range hits {
		t := h.Transaction
		fmt.Fprintf(tw, "%.3f\t%s\t%s\t%s\t%s\t%s\n",
			h.Score, t.Date.Format(time.DateOnly), t.Description, c.amount(t.Amount), t.Category, t.ID)
	}
	return tw.Flush()
}
