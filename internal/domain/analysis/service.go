package analysis

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/FACorreiaa/ccparser/internal/domain/transaction"
	"github.com/FACorreiaa/ccparser/pkg/apperr"
)

// TransactionLister loads the transactions to analyze.
type TransactionLister interface {
	List(ctx context.Context, userID uuid.UUID, f transaction.Filter) ([]transaction.Transaction, error)
}

// Report bundles everything Analyze computes.
type Report struct {
	Filter        transaction.Filter
	Summary       Summary
	Categories    []CategoryTotal
	Trend         []MonthlyPoint
	LargestDebits []transaction.Transaction
	Transactions  []transaction.Transaction
}

// NewReport analyzes txns as given, e.g. the transactions of a single
// statement.
func NewReport(txns []transaction.Transaction, top int) *Report {
	return &Report{
		Summary:       Summarize(txns),
		Categories:    CategoryBreakdown(txns),
		Trend:         MonthlyTrend(txns),
		LargestDebits: LargestDebits(txns, top),
		Transactions:  txns,
	}
}

type Service struct {
	txns   TransactionLister
	logger *slog.Logger
}

func NewService(txns TransactionLister, logger *slog.Logger) *Service {
	return &Service{txns: txns, logger: logger}
}

// Analyze summarizes the user's transactions matching f. The filter's
// Limit is ignored; top caps LargestDebits.
func (s *Service) Analyze(ctx context.Context, userID uuid.UUID, f transaction.Filter, top int) (*Report, error) {
	f.Limit = 0
	txns, err := s.txns.List(ctx, userID, f)
	if err != nil {
		return nil, err
	}

	r := NewReport(txns, top)
	r.Filter = f
	s.logger.Debug("analysis computed", "user", userID, "transactions", len(txns), "categories", len(r.Categories))
	return r, nil
}

// CompareMonths compares m1 with m2. With both months zero it compares the
// two latest months that have transactions.
func (s *Service) CompareMonths(ctx context.Context, userID uuid.UUID, m1, m2 Month) (*Comparison, error) {
	switch {
	case m1.IsZero() && m2.IsZero():
		txns, err := s.txns.List(ctx, userID, transaction.Filter{})
		if err != nil {
			return nil, err
		}
		var ok bool
		if m1, m2, ok = LatestMonths(txns); !ok {
			return nil, apperr.NewValidation("months", "need transactions in at least two months to compare")
		}
		c := CompareMonths(txns, m1, m2)
		return &c, nil
	case m1.IsZero() || m2.IsZero():
		return nil, apperr.NewValidation("months", "give both months or neither")
	}

	from, to := m1.Start(), m2.End()
	if m2.Compare(m1) < 0 {
		from, to = m2.Start(), m1.End()
	}
	txns, err := s.txns.List(ctx, userID, transaction.Filter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	c := CompareMonths(txns, m1, m2)
	return &c, nil
}
