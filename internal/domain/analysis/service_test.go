package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ccparser/internal/domain/transaction"
	"github.com/FACorreiaa/ccparser/pkg/apperr"
	"github.com/FACorreiaa/ccparser/pkg/telemetry"
)

type fakeLister struct {
	txns    []transaction.Transaction
	filters []transaction.Filter
}

func (f *fakeLister) List(_ context.Context, _ uuid.UUID, filter transaction.Filter) ([]transaction.Transaction, error) {
	f.filters = append(f.filters, filter)
	var out []transaction.Transaction
	for _, t := range f.txns {
		if !filter.From.IsZero() && t.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && t.Date.After(filter.To) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func TestService_Analyze(t *testing.T) {
	lister := &fakeLister{txns: fixture()}
	svc := NewService(lister, telemetry.Discard())

	r, err := svc.Analyze(context.Background(), uuid.New(), transaction.Filter{Limit: 1}, 2)
	require.NoError(t, err)
	assert.Zero(t, lister.filters[0].Limit)
	assert.Len(t, r.Transactions, 6)
	assert.Len(t, r.LargestDebits, 2)
	assert.Len(t, r.Trend, 2)
}

func TestService_CompareMonths(t *testing.T) {
	ctx := context.Background()
	oct, nov := Month{2024, time.October}, Month{2024, time.November}

	t.Run("explicit months load only their range", func(t *testing.T) {
		lister := &fakeLister{txns: fixture()}
		c, err := NewService(lister, telemetry.Discard()).CompareMonths(ctx, uuid.New(), nov, oct)
		require.NoError(t, err)
		assert.Equal(t, nov, c.Month1)
		assert.Equal(t, "2024-10-01", lister.filters[0].From.Format(time.DateOnly))
		assert.Equal(t, "2024-11-30", lister.filters[0].To.Format(time.DateOnly))
		assert.True(t, c.Difference.IsNegative())
	})

	t.Run("defaults to the latest two months", func(t *testing.T) {
		c, err := NewService(&fakeLister{txns: fixture()}, telemetry.Discard()).CompareMonths(ctx, uuid.New(), Month{}, Month{})
		require.NoError(t, err)
		assert.Equal(t, oct, c.Month1)
		assert.Equal(t, nov, c.Month2)
	})

	t.Run("one month is not enough", func(t *testing.T) {
		svc := NewService(&fakeLister{txns: fixture()[:2]}, telemetry.Discard())
		_, err := svc.CompareMonths(ctx, uuid.New(), Month{}, Month{})
		assert.True(t, apperr.IsValidation(err))

		_, err = svc.CompareMonths(ctx, uuid.New(), oct, Month{})
		assert.True(t, apperr.IsValidation(err))
	})
}
