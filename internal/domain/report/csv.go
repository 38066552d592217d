package report

import (
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/FACorreiaa/ccparser/internal/domain/transaction"
)

// TransactionRow is the CSV export layout of a transaction.
type TransactionRow struct {
	Date             string `csv:"date"`
	Description      string `csv:"description"`
	Amount           string `csv:"amount"`
	Direction        string `csv:"direction"`
	Category         string `csv:"category"`
	OriginalCategory string `csv:"original_category"`
	Corrected        bool   `csv:"user_corrected"`
	StatementID      string `csv:"statement_id"`
	ID               string `csv:"id"`
}

func toRows(txns []transaction.Transaction) []*TransactionRow {
	rows := make([]*TransactionRow, 0, len(txns))
	for _, t := range txns {
		rows = append(rows, &TransactionRow{
			Date:             t.Date.Format(time.DateOnly),
			Description:      t.Description,
			Amount:           t.Amount.StringFixed(2),
			Direction:        string(t.Direction),
			Category:         t.Category,
			OriginalCategory: t.OriginalCategory,
			Corrected:        t.UserCorrected,
			StatementID:      t.StatementID.String(),
			ID:               t.ID.String(),
		})
	}
	return rows
}

// WriteCSV exports txns with a header row.
func WriteCSV(w io.Writer, txns []transaction.Transaction) error {
	if err := gocsv.Marshal(toRows(txns), w); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}
