// Package statement persists processed statements and runs the processing
// pipeline: extract text, parse, categorize, store.
package statement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusProcessed Status = "processed"
	StatusFailed    Status = "failed"
)

// BankAxisCreditCard is the only supported statement layout.
const BankAxisCreditCard = "axis_credit_card"

type Statement struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	Source           string // absolute path, unique per user
	FileName         string
	BankType         string
	Status           Status
	ParseErrors      string
	TotalDebits      decimal.Decimal
	TotalCredits     decimal.Decimal
	TransactionCount int
	UnparsedLines    int
	PeriodStart      time.Time // zero when nothing was parsed
	PeriodEnd        time.Time
	ArchivePath      string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
