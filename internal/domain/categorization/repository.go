package categorization

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/FACorreiaa/ccparser/pkg/apperr"
	"github.com/FACorreiaa/ccparser/pkg/db"
)

// Repository handles database operations for category rules
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

const ruleColumns = `id, user_id, pattern, category, priority, created_at, updated_at`

func scanRule(row interface{ Scan(...any) error }) (Rule, error) {
	var (
		rule             Rule
		created, updated db.Timestamp
	)
	err := row.Scan(&rule.ID, &rule.UserID, &rule.Pattern, &rule.Category, &rule.Priority, &created, &updated)
	rule.CreatedAt, rule.UpdatedAt = created.Time, updated.Time
	return rule, err
}

// ListRules fetches all rules for a user in evaluation order.
func (r *Repository) ListRules(ctx context.Context, userID uuid.UUID) ([]Rule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM category_rules
		WHERE user_id = ?
		ORDER BY priority ASC, pattern ASC, id ASC
	`

	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, apperr.Storage("list rules", err)
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, apperr.Storage("scan rule", err)
		}
		rules = append(rules, rule)
	}
	return rules, apperr.Storage("list rules", rows.Err())
}

// FindRuleByPattern returns nil when the user has no rule for pattern.
func (r *Repository) FindRuleByPattern(ctx context.Context, userID uuid.UUID, pattern string) (*Rule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM category_rules
		WHERE user_id = ? AND pattern = ?
	`

	rule, err := scanRule(r.q.QueryRowContext(ctx, query, userID, pattern))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage("find rule", err)
	}
	return &rule, nil
}

// CreateRules inserts rules, assigning IDs and timestamps. Run it inside a
// transaction to make the whole set atomic.
func (r *Repository) CreateRules(ctx context.Context, rules []Rule) error {
	query := `
		INSERT INTO category_rules (id, user_id, pattern, category, priority, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	now := db.Now()
	for i := range rules {
		rules[i].ID = uuid.New()
		rules[i].CreatedAt, rules[i].UpdatedAt = now.Time, now.Time

		rule := rules[i]
		if _, err := r.q.ExecContext(ctx, query,
			rule.ID, rule.UserID, rule.Pattern, rule.Category, rule.Priority, now, now,
		); err != nil {
			if db.IsUniqueViolation(err) {
				return apperr.NewDuplicate("category rule", "pattern", rule.Pattern)
			}
			return apperr.Storage("insert rule", err)
		}
	}
	return nil
}

// UpsertRule inserts rule or, when the user already has its pattern,
// updates category and priority in place. rule is refreshed from the
// stored row.
func (r *Repository) UpsertRule(ctx context.Context, rule *Rule) error {
	query := `
		INSERT INTO category_rules (id, user_id, pattern, category, priority, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, pattern) DO UPDATE
		SET category = excluded.category,
		    priority = excluded.priority,
		    updated_at = excluded.updated_at
		RETURNING ` + ruleColumns

	now := db.Now()
	stored, err := scanRule(r.q.QueryRowContext(ctx, query,
		uuid.New(), rule.UserID, rule.Pattern, rule.Category, rule.Priority, now, now,
	))
	if err != nil {
		return apperr.Storage("upsert rule", err)
	}
	*rule = stored
	return nil
}

// DeleteRule removes the user's rule for pattern.
func (r *Repository) DeleteRule(ctx context.Context, userID uuid.UUID, pattern string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM category_rules WHERE user_id = ? AND pattern = ?`, userID, pattern)
	if err != nil {
		return apperr.Storage("delete rule", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Storage("delete rule", err)
	}
	if n == 0 {
		return apperr.NewNotFound("category rule", pattern)
	}
	return nil
}

// ListCategories returns the distinct categories of the user's rules.
func (r *Repository) ListCategories(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT DISTINCT category FROM category_rules WHERE user_id = ? ORDER BY category`, userID)
	if err != nil {
		return nil, apperr.Storage("list categories", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, apperr.Storage("scan category", err)
		}
		categories = append(categories, c)
	}
	return categories, apperr.Storage("list categories", rows.Err())
}
