package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// IsUniqueViolation reports whether err is a unique or primary key
// constraint failure from either driver.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(liteErr.Error(), "UNIQUE")
		}
	}
	return false
}

// ConstraintColumn returns the column a unique violation names, when the
// driver reports it: "users_email_key" for PostgreSQL, "users.email" inside
// the SQLite message. It returns "" when unknown.
func ConstraintColumn(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		name := strings.TrimSuffix(pgErr.ConstraintName, "_key")
		if i := strings.LastIndex(name, "_"); i >= 0 {
			return name[i+1:]
		}
		return name
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		msg := liteErr.Error()
		if i := strings.LastIndex(msg, "."); i >= 0 {
			col := msg[i+1:]
			if j := strings.IndexAny(col, " ,)"); j >= 0 {
				col = col[:j]
			}
			return col
		}
	}
	return ""
}
