package transaction

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/FACorreiaa/ccparser/pkg/apperr"
	"github.com/FACorreiaa/ccparser/pkg/db"
	"github.com/FACorreiaa/ccparser/pkg/money"
)

// Repository handles database operations for transactions. Amounts are
// stored in minor units of currency.
type Repository struct {
	q        db.Querier
	currency string
}

func NewRepository(q db.Querier, currency string) *Repository {
	if currency == "" {
		currency = money.INR
	}
	return &Repository{q: q, currency: currency}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *db.Tx) *Repository {
	return &Repository{q: tx, currency: r.currency}
}

func (r *Repository) Currency() string { return r.currency }

const transactionColumns = `id, statement_id, user_id, position, posted_on, description, amount_minor,
	direction, category, original_category, user_corrected, created_at, updated_at`

func (r *Repository) scan(row interface{ Scan(...any) error }) (Transaction, error) {
	var (
		t                Transaction
		postedOn         db.Date
		amountMinor      int64
		created, updated db.Timestamp
	)
	err := row.Scan(&t.ID, &t.StatementID, &t.UserID, &t.Position, &postedOn, &t.Description, &amountMinor,
		&t.Direction, &t.Category, &t.OriginalCategory, &t.UserCorrected, &created, &updated)
	if err != nil {
		return t, err
	}
	t.Date = postedOn.Time
	t.Amount = money.FromMinor(amountMinor, r.currency)
	t.CreatedAt, t.UpdatedAt = created.Time, updated.Time
	return t, nil
}

// InsertBatch stores txns, assigning IDs and timestamps. Callers run it
// inside a transaction so a statement is written completely or not at all.
func (r *Repository) InsertBatch(ctx context.Context, txns []Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := db.Now()
	for i := range txns {
		t := &txns[i]
		t.ID = uuid.New()
		t.CreatedAt, t.UpdatedAt = now.Time, now.Time
		if t.Category == "" {
			t.Category = DefaultCategory
		}
		if t.OriginalCategory == "" {
			t.OriginalCategory = t.Category
		}

		if _, err := r.q.ExecContext(ctx, query,
			t.ID, t.StatementID, t.UserID, t.Position, db.NewDate(t.Date), t.Description,
			money.ToMinor(t.Amount, r.currency), t.Direction, t.Category, t.OriginalCategory,
			t.UserCorrected, now, now,
		); err != nil {
			if db.IsUniqueViolation(err) {
				return apperr.NewDuplicate("transaction", "position", t.StatementID.String())
			}
			return apperr.Storage("insert transaction", err)
		}
	}
	return nil
}

// List returns the user's transactions matching f, oldest first and in
// statement order within a day.
func (r *Repository) List(ctx context.Context, userID uuid.UUID, f Filter) ([]Transaction, error) {
	var (
		where = []string{"user_id = ?"}
		args  = []any{userID}
	)
	if !f.From.IsZero() {
		where = append(where, "posted_on >= ?")
		args = append(args, db.NewDate(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "posted_on <= ?")
		args = append(args, db.NewDate(f.To))
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Direction != "" {
		where = append(where, "direction = ?")
		args = append(args, f.Direction)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY posted_on ASC, statement_id ASC, position ASC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	return r.list(ctx, query, args...)
}

// ListByStatement returns a statement's transactions in statement order.
func (r *Repository) ListByStatement(ctx context.Context, statementID uuid.UUID) ([]Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE statement_id = ? ORDER BY position ASC`
	return r.list(ctx, query, statementID)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]Transaction, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Storage("list transactions", err)
	}
	defer rows.Close()

	var txns []Transaction
	for rows.Next() {
		t, err := r.scan(rows)
		if err != nil {
			return nil, apperr.Storage("scan transaction", err)
		}
		txns = append(txns, t)
	}
	return txns, apperr.Storage("list transactions", rows.Err())
}

func (r *Repository) Get(ctx context.Context, userID, id uuid.UUID) (*Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ? AND user_id = ?`

	t, err := r.scan(r.q.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NewNotFound("transaction", id.String())
	}
	if err != nil {
		return nil, apperr.Storage("get transaction", err)
	}
	return &t, nil
}

// SetCategory records a manual correction. original_category keeps the rule
// assigned value.
func (r *Repository) SetCategory(ctx context.Context, userID, id uuid.UUID, category string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE transactions
		SET category = ?, user_corrected = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, category, true, db.Now(), id, userID)
	if err != nil {
		return apperr.Storage("set category", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Storage("set category", err)
	}
	if n == 0 {
		return apperr.NewNotFound("transaction", id.String())
	}
	return nil
}

// UpdateRuleCategory stores a rule assigned category. Corrected rows are
// left alone.
func (r *Repository) UpdateRuleCategory(ctx context.Context, id uuid.UUID, category string) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE transactions
		SET category = ?, original_category = ?, updated_at = ?
		WHERE id = ? AND user_corrected = ?
	`, category, category, db.Now(), id, false)
	if err != nil {
		return false, apperr.Storage("update category", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperr.Storage("update category", err)
	}
	return n > 0, nil
}
