package money

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "1234.56", "1234.56"},
		{"grouped", "1,234.56", "1234.56"},
		{"rupee symbol", "₹1,234.56", "1234.56"},
		{"rupee symbol with space", "₹ 99.00", "99"},
		{"rs prefix", "Rs. 500.00", "500"},
		{"inr prefix", "INR 12,00,000.50", "1200000.5"},
		{"negative becomes magnitude", "-45.10", "45.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	for _, input := range []string{"", "₹", "abc", "12.3.4"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseAmount(input)
			assert.ErrorIs(t, err, ErrInvalidAmount)
		})
	}
}

func TestMinorUnits(t *testing.T) {
	d := decimal.RequireFromString("1234.56")
	assert.Equal(t, int64(123456), ToMinor(d, INR))
	assert.True(t, d.Equal(FromMinor(123456, INR)))

	t.Run("rounds half away from zero", func(t *testing.T) {
		assert.Equal(t, int64(1235), ToMinor(decimal.RequireFromString("12.345"), INR))
	})

	t.Run("unknown currency falls back to INR", func(t *testing.T) {
		assert.Equal(t, int64(100), ToMinor(decimal.NewFromInt(1), "???"))
	})
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "₹1,234.56", Format(decimal.RequireFromString("1234.56"), INR))
	assert.Equal(t, "₹0.00", Format(decimal.Zero, INR))
	assert.Equal(t, "₹10.50", Format(FromMinor(1050, INR), INR))
}

func TestStatementGenerator_Deterministic(t *testing.T) {
	start := time.Date(2024, time.November, 1, 0, 0, 0, 0, time.UTC)

	a := NewStatementGenerator(42).Lines(30, start)
	b := NewStatementGenerator(42).Lines(30, start)
	require.Len(t, a, 30)
	assert.Equal(t, a, b)

	for _, l := range a {
		assert.False(t, l.Amount.IsNegative())
		assert.True(t, strings.HasSuffix(l.Text, "Debit") || strings.HasSuffix(l.Text, "Credit"))
	}

	doc := Document(a)
	assert.Len(t, doc, 30+7)
	total := decimal.Zero
	for _, l := range a {
		total = total.Add(l.Amount)
	}
	assert.True(t, Debits(a).Add(Credits(a)).Equal(total))
}
