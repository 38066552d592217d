package report

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/ccparser/internal/domain/analysis"
	"github.com/FACorreiaa/ccparser/pkg/money"
)

const (
	SheetTransactions = "Transactions"
	SheetCategories   = "Category Summary"
	SheetSummary      = "Summary"
	SheetComparison   = "Monthly Comparison"
)

// Workbook builds the Excel report of an analysis.
type Workbook struct {
	f        *excelize.File
	currency string
	header   int
	amount   int
}

func NewWorkbook(currency string) (*Workbook, error) {
	f := excelize.NewFile()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	amount, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, fmt.Errorf("failed to create amount style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetTransactions); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SheetCategories, SheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	return &Workbook{f: f, currency: currency, header: header, amount: amount}, nil
}

func (w *Workbook) writeRow(sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return w.f.SetSheetRow(sheet, cell, &values)
}

func (w *Workbook) writeHeader(sheet string, headers ...any) error {
	if err := w.writeRow(sheet, 1, headers); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	return w.f.SetCellStyle(sheet, "A1", last, w.header)
}

func (w *Workbook) styleAmounts(sheet, col string, from, to int) error {
	if to < from {
		return nil
	}
	return w.f.SetCellStyle(sheet, fmt.Sprintf("%s%d", col, from), fmt.Sprintf("%s%d", col, to), w.amount)
}

// AddReport fills the three standard sheets from r.
func (w *Workbook) AddReport(r *analysis.Report) error {
	if err := w.transactions(r); err != nil {
		return fmt.Errorf("failed to write %s sheet: %w", SheetTransactions, err)
	}
	if err := w.categories(r); err != nil {
		return fmt.Errorf("failed to write %s sheet: %w", SheetCategories, err)
	}
	if err := w.summary(r); err != nil {
		return fmt.Errorf("failed to write %s sheet: %w", SheetSummary, err)
	}
	return nil
}

func (w *Workbook) transactions(r *analysis.Report) error {
	sheet := SheetTransactions
	if err := w.writeHeader(sheet, "Date", "Description", "Amount", "Type", "Category", "Corrected"); err != nil {
		return err
	}
	for i, t := range r.Transactions {
		if err := w.writeRow(sheet, i+2, []any{
			t.Date.Format(time.DateOnly),
			t.Description,
			t.Amount.InexactFloat64(),
			string(t.Direction),
			t.Category,
			t.UserCorrected,
		}); err != nil {
			return err
		}
	}
	if err := w.styleAmounts(sheet, "C", 2, len(r.Transactions)+1); err != nil {
		return err
	}
	if err := w.f.SetColWidth(sheet, "A", "A", 12); err != nil {
		return err
	}
	if err := w.f.SetColWidth(sheet, "B", "B", 45); err != nil {
		return err
	}
	return w.f.SetColWidth(sheet, "C", "F", 14)
}

func (w *Workbook) categories(r *analysis.Report) error {
	sheet := SheetCategories
	if err := w.writeHeader(sheet, "Category", "Amount", "Count", "Share %"); err != nil {
		return err
	}
	row := 2
	for _, c := range r.Categories {
		if err := w.writeRow(sheet, row, []any{c.Category, c.Total.InexactFloat64(), c.Count, c.Share.InexactFloat64()}); err != nil {
			return err
		}
		row++
	}
	if err := w.writeRow(sheet, row, []any{"Total", r.Summary.TotalSpending.InexactFloat64(), r.Summary.DebitCount}); err != nil {
		return err
	}
	if err := w.styleAmounts(sheet, "B", 2, row); err != nil {
		return err
	}
	return w.f.SetColWidth(sheet, "A", "D", 18)
}

func (w *Workbook) summary(r *analysis.Report) error {
	sheet := SheetSummary
	s := r.Summary
	period := ""
	if s.Count > 0 {
		period = s.From.Format(time.DateOnly) + " to " + s.To.Format(time.DateOnly)
	}

	rows := [][]any{
		{"Metric", "Value"},
		{"Period", period},
		{"Total spending", money.Format(s.TotalSpending, w.currency)},
		{"Total credits", money.Format(s.TotalCredits, w.currency)},
		{"Net flow", s.NetFlow.StringFixed(2)},
		{"Transactions", s.Count},
		{"Debits", s.DebitCount},
		{"Credits", s.CreditCount},
		{"Average debit", money.Format(s.AverageDebit, w.currency)},
	}
	for i, values := range rows {
		if err := w.writeRow(sheet, i+1, values); err != nil {
			return err
		}
	}
	if err := w.f.SetCellStyle(sheet, "A1", "B1", w.header); err != nil {
		return err
	}
	return w.f.SetColWidth(sheet, "A", "B", 24)
}

// AddComparison adds a sheet for a month-over-month comparison.
func (w *Workbook) AddComparison(c *analysis.Comparison) error {
	sheet := SheetComparison
	if _, err := w.f.NewSheet(sheet); err != nil {
		return err
	}
	if err := w.writeHeader(sheet, "Category", c.Month1.String(), c.Month2.String(), "Difference", "Change %"); err != nil {
		return err
	}

	row := 2
	write := func(label string, m1, m2, diff float64, change any) error {
		err := w.writeRow(sheet, row, []any{label, m1, m2, diff, change})
		row++
		return err
	}
	for _, ch := range c.Categories {
		if err := write(ch.Category, ch.Month1.InexactFloat64(), ch.Month2.InexactFloat64(), ch.Difference.InexactFloat64(), pct(ch.Percent)); err != nil {
			return err
		}
	}
	if err := write("Total", c.Spending1.InexactFloat64(), c.Spending2.InexactFloat64(), c.Difference.InexactFloat64(), pct(c.Percent)); err != nil {
		return err
	}
	if err := w.f.SetCellStyle(sheet, "B2", fmt.Sprintf("D%d", row-1), w.amount); err != nil {
		return err
	}
	return w.f.SetColWidth(sheet, "A", "E", 16)
}

// pct is the cell value of a percentage change; undefined prints as n/a.
func pct(p decimal.NullDecimal) any {
	if !p.Valid {
		return "n/a"
	}
	return p.Decimal.InexactFloat64()
}

// Write serializes the workbook.
func (w *Workbook) Write(out io.Writer) error {
	w.f.SetActiveSheet(0)
	_, err := w.f.WriteTo(out)
	return err
}

// Save writes the workbook to path.
func (w *Workbook) Save(path string) error {
	w.f.SetActiveSheet(0)
	if err := w.f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func (w *Workbook) Close() error { return w.f.Close() }
