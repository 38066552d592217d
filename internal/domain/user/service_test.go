package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ccparser/internal/domain/categorization"
	"github.com/FACorreiaa/ccparser/internal/domain/user"
	"github.com/FACorreiaa/ccparser/pkg/apperr"
	"github.com/FACorreiaa/ccparser/pkg/db"
	"github.com/FACorreiaa/ccparser/pkg/db/dbtest"
	"github.com/FACorreiaa/ccparser/pkg/telemetry"
)

func newService(t *testing.T) (*user.Service, *categorization.Service, *db.DB) {
	t.Helper()

	store := dbtest.New(t)
	rules := categorization.NewService(categorization.NewRepository(store), telemetry.Discard())
	svc := user.NewService(store, user.NewRepository(store), rules, telemetry.Discard())
	return svc, rules, store
}

func TestService_Create(t *testing.T) {
	svc, rules, store := newService(t)
	ctx := context.Background()

	u, err := svc.Create(ctx, user.CreateParams{Username: "john", Email: "John@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "john", u.Username)
	assert.Equal(t, "john@example.com", u.Email)
	assert.True(t, u.IsActive)

	t.Run("seeds the default rules", func(t *testing.T) {
		seeded, err := rules.Rules(ctx, u.ID)
		require.NoError(t, err)
		assert.Len(t, seeded, len(categorization.DefaultRules()))
	})

	t.Run("same username twice is a duplicate", func(t *testing.T) {
		_, err := svc.Create(ctx, user.CreateParams{Username: "john", Email: "other@example.com"})
		require.Error(t, err)
		assert.True(t, apperr.IsDuplicate(err))

		var dup *apperr.DuplicateEntityError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "username", dup.Field)

		counts, err := store.TableCounts(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), counts["users"])
		assert.Equal(t, int64(len(categorization.DefaultRules())), counts["category_rules"])
	})

	t.Run("same email twice is a duplicate", func(t *testing.T) {
		_, err := svc.Create(ctx, user.CreateParams{Username: "jane", Email: "JOHN@example.com"})
		assert.True(t, apperr.IsDuplicate(err))
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := svc.Create(ctx, user.CreateParams{Username: "", Email: "a@example.com"})
		assert.True(t, apperr.IsValidation(err))

		_, err = svc.Create(ctx, user.CreateParams{Username: "two words", Email: "a@example.com"})
		assert.True(t, apperr.IsValidation(err))

		_, err = svc.Create(ctx, user.CreateParams{Username: "mary", Email: "not-an-email"})
		assert.True(t, apperr.IsValidation(err))
	})
}

func TestRepository_UniqueConstraint(t *testing.T) {
	store := dbtest.New(t)
	repo := user.NewRepository(store)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &user.User{Username: "john", Email: "john@example.com"}))

	err := repo.Create(ctx, &user.User{Username: "john2", Email: "john@example.com"})
	var dup *apperr.DuplicateEntityError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "email", dup.Field)
}

func TestService_Lookup(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	for _, name := range []string{"zara", "adam"} {
		_, err := svc.Create(ctx, user.CreateParams{Username: name, Email: name + "@example.com"})
		require.NoError(t, err)
	}

	users, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "adam", users[0].Username)

	u, err := svc.GetByUsername(ctx, " zara ")
	require.NoError(t, err)
	assert.Equal(t, "zara@example.com", u.Email)

	_, err = svc.GetByUsername(ctx, "nobody")
	assert.True(t, apperr.IsNotFound(err))
}
