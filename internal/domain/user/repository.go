package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/FACorreiaa/ccparser/pkg/apperr"
	"github.com/FACorreiaa/ccparser/pkg/db"
)

// Repository handles database operations for users
type Repository struct {
	q db.Querier
}

func NewRepository(q db.Querier) *Repository {
	return &Repository{q: q}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *db.Tx) *Repository {
	return &Repository{q: tx}
}

const userColumns = `id, username, email, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var (
		u                User
		created, updated db.Timestamp
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.IsActive, &created, &updated); err != nil {
		return nil, err
	}
	u.CreatedAt, u.UpdatedAt = created.Time, updated.Time
	return &u, nil
}

// Create inserts u, assigning its ID and timestamps.
func (r *Repository) Create(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	now := db.Now()
	u.ID = uuid.New()
	u.IsActive = true
	u.CreatedAt, u.UpdatedAt = now.Time, now.Time

	if _, err := r.q.ExecContext(ctx, query, u.ID, u.Username, u.Email, u.IsActive, now, now); err != nil {
		if db.IsUniqueViolation(err) {
			field := db.ConstraintColumn(err)
			value := u.Username
			if field == "email" {
				value = u.Email
			}
			if field == "" {
				field = "username"
			}
			return apperr.NewDuplicate("user", field, value)
		}
		return apperr.Storage("create user", err)
	}
	return nil
}

func (r *Repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getBy(ctx, "email", strings.ToLower(email))
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getBy(ctx, "id", id)
}

// getBy looks a user up by one of the unique columns. column is never user
// input.
func (r *Repository) getBy(ctx context.Context, column string, value any) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = ?`

	u, err := scanUser(r.q.QueryRowContext(ctx, query, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NewNotFound("user", toKey(value))
	}
	if err != nil {
		return nil, apperr.Storage("get user", err)
	}
	return u, nil
}

func toKey(v any) string {
	switch k := v.(type) {
	case string:
		return k
	case uuid.UUID:
		return k.String()
	}
	return ""
}

// List returns all users ordered by username.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, apperr.Storage("list users", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, apperr.Storage("scan user", err)
		}
		users = append(users, *u)
	}
	return users, apperr.Storage("list users", rows.Err())
}
