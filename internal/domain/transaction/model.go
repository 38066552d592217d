package transaction

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/ccparser/pkg/apperr"
)

// Direction tells spending apart from refunds and payments. Amounts are
// always non-negative; the sign lives here.
type Direction string

const (
	Debit  Direction = "debit"
	Credit Direction = "credit"
)

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debit", "dr":
		return Debit, nil
	case "credit", "cr":
		return Credit, nil
	default:
		return "", fmt.Errorf("invalid direction %q", s)
	}
}

func (d Direction) String() string { return string(d) }

// DefaultCategory is assigned when no rule matches.
const DefaultCategory = "others"

// Transaction is one stored statement line.
type Transaction struct {
	ID               uuid.UUID
	StatementID      uuid.UUID
	UserID           uuid.UUID
	Position         int
	Date             time.Time
	Description      string
	Amount           decimal.Decimal
	Direction        Direction
	Category         string
	OriginalCategory string
	UserCorrected    bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (t Transaction) IsDebit() bool  { return t.Direction == Debit }
func (t Transaction) IsCredit() bool { return t.Direction == Credit }

// Filter narrows ListTransactions. Zero values mean "no constraint".
type Filter struct {
	From      time.Time // inclusive
	To        time.Time // inclusive
	Category  string
	Direction Direction
	Limit     int
}

func (f Filter) Validate() error {
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return apperr.NewValidation("date range", fmt.Sprintf("%s is before %s", f.To.Format(time.DateOnly), f.From.Format(time.DateOnly)))
	}
	if f.Direction != "" && f.Direction != Debit && f.Direction != Credit {
		return apperr.NewValidation("direction", fmt.Sprintf("unknown value %q", f.Direction))
	}
	if f.Limit < 0 {
		return apperr.NewValidation("limit", "must not be negative")
	}
	return nil
}
