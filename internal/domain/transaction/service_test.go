package transaction_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ccparser/internal/domain/categorization"
	"github.com/FACorreiaa/ccparser/internal/domain/transaction"
	"github.com/FACorreiaa/ccparser/pkg/apperr"
	"github.com/FACorreiaa/ccparser/pkg/db"
	"github.com/FACorreiaa/ccparser/pkg/db/dbtest"
	"github.com/FACorreiaa/ccparser/pkg/money"
	"github.com/FACorreiaa/ccparser/pkg/telemetry"
)

type fixture struct {
	store  *db.DB
	repo   *transaction.Repository
	rules  *categorization.Service
	svc    *transaction.Service
	userID uuid.UUID
	stmtID uuid.UUID
}

func day(d int) time.Time {
	return time.Date(2024, time.November, d, 0, 0, 0, 0, time.UTC)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := dbtest.New(t)
	userID := dbtest.User(t, store, "john")
	stmtID := dbtest.Statement(t, store, userID, "nov.pdf")

	rules := categorization.NewService(categorization.NewRepository(store), telemetry.Discard())
	require.NoError(t, store.WithTx(ctx, func(tx *db.Tx) error {
		_, err := rules.SeedDefaults(ctx, tx, userID)
		return err
	}))

	repo := transaction.NewRepository(store, money.INR)
	return &fixture{
		store:  store,
		repo:   repo,
		rules:  rules,
		svc:    transaction.NewService(store, repo, rules, telemetry.Discard()),
		userID: userID,
		stmtID: stmtID,
	}
}

func (f *fixture) insert(t *testing.T, txns ...transaction.Transaction) []transaction.Transaction {
	t.Helper()
	for i := range txns {
		txns[i].StatementID = f.stmtID
		txns[i].UserID = f.userID
		txns[i].Position = i + 1
	}
	require.NoError(t, f.store.WithTx(context.Background(), func(tx *db.Tx) error {
		return f.repo.WithTx(tx).InsertBatch(context.Background(), txns)
	}))
	return txns
}

func sample() []transaction.Transaction {
	return []transaction.Transaction{
		{Date: day(3), Description: "SWIGGY BANGALORE", Amount: decimal.RequireFromString("450.50"), Direction: transaction.Debit, Category: "food_dining"},
		{Date: day(1), Description: "UBER INDIA", Amount: decimal.RequireFromString("250"), Direction: transaction.Debit, Category: "transport"},
		{Date: day(5), Description: "PAYMENT RECEIVED THANK YOU", Amount: decimal.RequireFromString("10000"), Direction: transaction.Credit, Category: "payments"},
		{Date: day(5), Description: "RANDOM SHOP XYZ", Amount: decimal.RequireFromString("99.99"), Direction: transaction.Debit},
	}
}

func TestRepository_InsertAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.insert(t, sample()...)

	t.Run("round trips amounts and order", func(t *testing.T) {
		txns, err := f.repo.List(ctx, f.userID, transaction.Filter{})
		require.NoError(t, err)
		require.Len(t, txns, 4)

		assert.Equal(t, "UBER INDIA", txns[0].Description)
		assert.Equal(t, day(1), txns[0].Date)
		assert.True(t, decimal.RequireFromString("450.50").Equal(txns[1].Amount))
		assert.Equal(t, transaction.DefaultCategory, txns[3].Category)
		assert.Equal(t, transaction.DefaultCategory, txns[3].OriginalCategory)
	})

	t.Run("filters", func(t *testing.T) {
		txns, err := f.repo.List(ctx, f.userID, transaction.Filter{From: day(2), To: day(4)})
		require.NoError(t, err)
		require.Len(t, txns, 1)
		assert.Equal(t, "SWIGGY BANGALORE", txns[0].Description)

		txns, err = f.repo.List(ctx, f.userID, transaction.Filter{Direction: transaction.Credit})
		require.NoError(t, err)
		require.Len(t, txns, 1)

		txns, err = f.repo.List(ctx, f.userID, transaction.Filter{Category: "transport"})
		require.NoError(t, err)
		require.Len(t, txns, 1)

		txns, err = f.repo.List(ctx, f.userID, transaction.Filter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, txns, 2)

		txns, err = f.repo.List(ctx, uuid.New(), transaction.Filter{})
		require.NoError(t, err)
		assert.Empty(t, txns)
	})
}

func TestRepository_InsertBatchIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	txns := sample()
	txns[2].Description = "" // violates the description check

	for i := range txns {
		txns[i].StatementID, txns[i].UserID, txns[i].Position = f.stmtID, f.userID, i+1
	}
	err := f.store.WithTx(ctx, func(tx *db.Tx) error {
		return f.repo.WithTx(tx).InsertBatch(ctx, txns)
	})
	require.Error(t, err)
	assert.True(t, apperr.IsStorage(err))

	stored, err := f.repo.List(ctx, f.userID, transaction.Filter{})
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestService_SetCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	txns := f.insert(t, sample()...)

	updated, err := f.svc.SetCategory(ctx, f.userID, txns[3].ID, "Shopping")
	require.NoError(t, err)
	assert.Equal(t, "shopping", updated.Category)
	assert.Equal(t, transaction.DefaultCategory, updated.OriginalCategory)
	assert.True(t, updated.UserCorrected)

	_, err = f.svc.SetCategory(ctx, f.userID, txns[3].ID, "not_a_category")
	assert.True(t, apperr.IsNotFound(err))

	_, err = f.svc.SetCategory(ctx, f.userID, uuid.New(), "shopping")
	assert.True(t, apperr.IsNotFound(err))

	t.Run("corrections survive recategorize", func(t *testing.T) {
		_, err := f.svc.Recategorize(ctx, f.userID)
		require.NoError(t, err)

		got, err := f.svc.Get(ctx, f.userID, txns[3].ID)
		require.NoError(t, err)
		assert.Equal(t, "shopping", got.Category)
	})
}

func TestService_Recategorize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	txns := f.insert(t, sample()...)

	changed, err := f.svc.Recategorize(ctx, f.userID)
	require.NoError(t, err)
	// "RANDOM SHOP XYZ" picks up the generic "shop" rule
	assert.Equal(t, 1, changed)

	_, err = f.rules.UpsertRule(ctx, f.userID, "swiggy", "treats", 0)
	require.NoError(t, err)

	changed, err = f.svc.Recategorize(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	got, err := f.svc.Get(ctx, f.userID, txns[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "treats", got.Category)
	assert.Equal(t, "treats", got.OriginalCategory)

	changed, err = f.svc.Recategorize(ctx, f.userID)
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestService_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.insert(t, sample()...)

	_, err := f.svc.List(ctx, f.userID, transaction.Filter{From: day(5), To: day(1)})
	assert.True(t, apperr.IsValidation(err))

	txns, err := f.svc.List(ctx, f.userID, transaction.Filter{Category: " Transport "})
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

func TestService_Search(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	txns := f.insert(t, sample()...)

	t.Run("typo tolerant", func(t *testing.T) {
		hits, err := f.svc.Search(ctx, f.userID, "swigy", "", 10)
		require.NoError(t, err)
		require.NotEmpty(t, hits)
		assert.Equal(t, txns[0].ID, hits[0].Transaction.ID)
	})

	t.Run("prefix", func(t *testing.T) {
		hits, err := f.svc.Search(ctx, f.userID, "bang", "", 10)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "SWIGGY BANGALORE", hits[0].Transaction.Description)
	})

	t.Run("category restricts hits", func(t *testing.T) {
		hits, err := f.svc.Search(ctx, f.userID, "india", "food_dining", 10)
		require.NoError(t, err)
		assert.Empty(t, hits)

		hits, err = f.svc.Search(ctx, f.userID, "india", "transport", 10)
		require.NoError(t, err)
		assert.Len(t, hits, 1)
	})

	t.Run("blank query", func(t *testing.T) {
		hits, err := f.svc.Search(ctx, f.userID, "  ", "", 10)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})
}
