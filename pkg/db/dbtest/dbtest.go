// Package dbtest opens migrated throwaway databases for repository tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ccparser/pkg/db"
	"github.com/FACorreiaa/ccparser/pkg/telemetry"
)

// New returns a migrated SQLite database in a temporary directory. It is
// closed when the test ends.
func New(t testing.TB) *db.DB {
	t.Helper()

	ctx := context.Background()
	store, err := db.Open(ctx, db.Options{
		Driver: db.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "ccparser_test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Migrate(ctx, telemetry.Discard()))
	return store
}

// User inserts a bare user row and returns its ID. It does not seed rules.
func User(t testing.TB, store *db.DB, username string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	now := db.Now()
	_, err := store.ExecContext(context.Background(),
		`INSERT INTO users (id, username, email, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, username, username+"@example.com", true, now, now)
	require.NoError(t, err)
	return id
}

// Statement inserts a pending statement row for userID and returns its ID.
func Statement(t testing.TB, store *db.DB, userID uuid.UUID, source string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	now := db.Now()
	_, err := store.ExecContext(context.Background(),
		`INSERT INTO statements (id, user_id, source, file_name, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, userID, source, source, now, now)
	require.NoError(t, err)
	return id
}
