// Package db opens the relational store behind every repository.
//
// SQLite (modernc.org/sqlite, pure Go) is the default single-file store;
// PostgreSQL is reachable through pgx's database/sql driver. Repositories
// write queries with '?' placeholders and DB rebinds them for the driver.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/FACorreiaa/ccparser/pkg/apperr"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Querier is satisfied by both *DB and *Tx, so repositories can run the same
// statements inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps *sql.DB with placeholder rebinding.
type DB struct {
	sql    *sql.DB
	driver string
}

var _ Querier = (*DB)(nil)

// Options selects and locates the store.
type Options struct {
	Driver string
	Path   string // sqlite
	DSN    string // postgres
}

// Open connects to the store and verifies the connection. It does not
// migrate; call Migrate for that.
func Open(ctx context.Context, opts Options) (*DB, error) {
	var (
		sqlDB *sql.DB
		err   error
	)

	switch opts.Driver {
	case DriverSQLite, "":
		sqlDB, err = sql.Open("sqlite", sqliteDSN(opts.Path))
		if err != nil {
			return nil, apperr.Storage("open sqlite", err)
		}
		// One writer, and a :memory: database lives only as long as its
		// connection.
		sqlDB.SetMaxOpenConns(1)
		opts.Driver = DriverSQLite
	case DriverPostgres:
		sqlDB, err = sql.Open("pgx", opts.DSN)
		if err != nil {
			return nil, apperr.Storage("open postgres", err)
		}
		sqlDB.SetMaxOpenConns(4)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, apperr.Storage("ping "+opts.Driver, err)
	}

	return &DB{sql: sqlDB, driver: opts.Driver}, nil
}

func sqliteDSN(path string) string {
	if path == "" {
		path = ":memory:"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (d *DB) Driver() string { return d.driver }

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.sql.ExecContext(ctx, Rebind(d.driver, query), args...)
}

func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.sql.QueryContext(ctx, Rebind(d.driver, query), args...)
}

func (d *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return d.sql.QueryRowContext(ctx, Rebind(d.driver, query), args...)
}

// Tx is a transaction with the same rebinding as DB.
type Tx struct {
	tx     *sql.Tx
	driver string
}

var _ Querier = (*Tx)(nil)

func (t *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, Rebind(t.driver, query), args...)
}

func (t *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, Rebind(t.driver, query), args...)
}

func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, Rebind(t.driver, query), args...)
}

// WithTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise. With SQLite's single connection, fn must use tx
// exclusively.
func (d *DB) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Storage("begin transaction", err)
	}

	if err := fn(&Tx{tx: sqlTx, driver: d.driver}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, apperr.Storage("rollback", rbErr))
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return apperr.Storage("commit", err)
	}
	return nil
}

// Rebind rewrites '?' placeholders to '$n' for PostgreSQL. Queries must not
// contain literal question marks.
func Rebind(driver, query string) string {
	if driver != DriverPostgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Tables lists the tables owned by the application, parents first.
var Tables = []string{"users", "statements", "transactions", "category_rules"}

// TableCounts returns the row count of every application table.
func (d *DB) TableCounts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(Tables))
	for _, table := range Tables {
		var n int64
		// table names come from the fixed list above
		if err := d.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, apperr.Storage("count "+table, err)
		}
		counts[table] = n
	}
	return counts, nil
}
