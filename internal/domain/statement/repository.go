package statement

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/FACorreiaa/ccparser/pkg/apperr"
	"github.com/FACorreiaa/ccparser/pkg/db"
	"github.com/FACorreiaa/ccparser/pkg/money"
)

// Repository handles database operations for statements
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

const statementColumns = `id, user_id, source, file_name, bank_type, status, parse_errors,
	total_debits_minor, total_credits_minor, transaction_count, unparsed_lines,
	period_start, period_end, archive_path, created_at, updated_at`

func (r *Repository) scan(row interface{ Scan(...any) error }) (*Statement, error) {
	var (
		s                      Statement
		debits, credits        int64
		periodStart, periodEnd db.NullDate
		created, updated       db.Timestamp
	)
	err := row.Scan(&s.ID, &s.UserID, &s.Source, &s.FileName, &s.BankType, &s.Status, &s.ParseErrors,
		&debits, &credits, &s.TransactionCount, &s.UnparsedLines,
		&periodStart, &periodEnd, &s.ArchivePath, &created, &updated)
	if err != nil {
		return nil, err
	}
	s.TotalDebits = money.FromMinor(debits, r.currency)
	s.TotalCredits = money.FromMinor(credits, r.currency)
	if periodStart.Valid {
		s.PeriodStart = periodStart.Date.Time
	}
	if periodEnd.Valid {
		s.PeriodEnd = periodEnd.Date.Time
	}
	s.CreatedAt, s.UpdatedAt = created.Time, updated.Time
	return &s, nil
}

func nullDate(s *Statement) (start, end db.NullDate) {
	if !s.PeriodStart.IsZero() {
		start = db.NullDate{Date: db.NewDate(s.PeriodStart), Valid: true}
	}
	if !s.PeriodEnd.IsZero() {
		end = db.NullDate{Date: db.NewDate(s.PeriodEnd), Valid: true}
	}
	return start, end
}

// Create inserts s. A zero ID is assigned; an existing (user, source) pair
// fails with DuplicateEntityError.
func (r *Repository) Create(ctx context.Context, s *Statement) error {
	query := `
		INSERT INTO statements (` + statementColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.BankType == "" {
		s.BankType = BankAxisCreditCard
	}
	if s.Status == "" {
		s.Status = StatusPending
	}
	now := db.Now()
	s.CreatedAt, s.UpdatedAt = now.Time, now.Time
	start, end := nullDate(s)

	_, err := r.q.ExecContext(ctx, query,
		s.ID, s.UserID, s.Source, s.FileName, s.BankType, s.Status, s.ParseErrors,
		money.ToMinor(s.TotalDebits, r.currency), money.ToMinor(s.TotalCredits, r.currency),
		s.TransactionCount, s.UnparsedLines, start, end, s.ArchivePath, now, now,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return apperr.NewDuplicate("statement", "source", s.Source)
		}
		return apperr.Storage("create statement", err)
	}
	return nil
}

// Finish stores the outcome of processing: status, totals, period and
// parse errors.
func (r *Repository) Finish(ctx context.Context, s *Statement) error {
	start, end := nullDate(s)
	now := db.Now()
	s.UpdatedAt = now.Time

	res, err := r.q.ExecContext(ctx, `
		UPDATE statements
		SET status = ?, parse_errors = ?, total_debits_minor = ?, total_credits_minor = ?,
		    transaction_count = ?, unparsed_lines = ?, period_start = ?, period_end = ?,
		    updated_at = ?
		WHERE id = ?
	`, s.Status, s.ParseErrors,
		money.ToMinor(s.TotalDebits, r.currency), money.ToMinor(s.TotalCredits, r.currency),
		s.TransactionCount, s.UnparsedLines, start, end, now, s.ID)
	return r.expectOne(res, err, "finish statement", s.ID)
}

func (r *Repository) SetArchivePath(ctx context.Context, id uuid.UUID, path string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE statements SET archive_path = ?, updated_at = ? WHERE id = ?`, path, db.Now(), id)
	return r.expectOne(res, err, "set archive path", id)
}

func (r *Repository) expectOne(res sql.Result, err error, op string, id uuid.UUID) error {
	if err != nil {
		return apperr.Storage(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Storage(op, err)
	}
	if n == 0 {
		return apperr.NewNotFound("statement", id.String())
	}
	return nil
}

// FindBySource returns nil when the user has no statement for source.
func (r *Repository) FindBySource(ctx context.Context, userID uuid.UUID, source string) (*Statement, error) {
	query := `SELECT ` + statementColumns + ` FROM statements WHERE user_id = ? AND source = ?`

	s, err := r.scan(r.q.QueryRowContext(ctx, query, userID, source))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage("find statement", err)
	}
	return s, nil
}

func (r *Repository) Get(ctx context.Context, userID, id uuid.UUID) (*Statement, error) {
	query := `SELECT ` + statementColumns + ` FROM statements WHERE id = ? AND user_id = ?`

	s, err := r.scan(r.q.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NewNotFound("statement", id.String())
	}
	if err != nil {
		return nil, apperr.Storage("get statement", err)
	}
	return s, nil
}

// List returns the user's statements, newest first.
func (r *Repository) List(ctx context.Context, userID uuid.UUID) ([]Statement, error) {
	query := `SELECT ` + statementColumns + ` FROM statements WHERE user_id = ? ORDER BY created_at DESC, source ASC`

	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, apperr.Storage("list statements", err)
	}
	defer rows.Close()

	var out []Statement
	for rows.Next() {
		s, err := r.scan(rows)
		if err != nil {
			return nil, apperr.Storage("scan statement", err)
		}
		out = append(out, *s)
	}
	return out, apperr.Storage("list statements", rows.Err())
}

// Delete removes a statement; its transactions go with it.
func (r *Repository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM statements WHERE id = ? AND user_id = ?`, id, userID)
	return r.expectOne(res, err, "delete statement", id)
}
