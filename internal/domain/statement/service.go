package statement

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/FACorreiaa/ccparser/internal/domain/categorization"
	"github.com/FACorreiaa/ccparser/internal/domain/statement/parser"
	"github.com/FACorreiaa/ccparser/internal/domain/statement/pdftext"
	"github.com/FACorreiaa/ccparser/internal/domain/transaction"
	"github.com/FACorreiaa/ccparser/pkg/apperr"
	"github.com/FACorreiaa/ccparser/pkg/db"
	"github.com/FACorreiaa/ccparser/pkg/money"
	"github.com/FACorreiaa/ccparser/pkg/storage"
	"github.com/FACorreiaa/ccparser/pkg/telemetry"
)

// EngineLoader builds the categorization engine of a user.
type EngineLoader interface {
	Engine(ctx context.Context, userID uuid.UUID) (*categorization.Engine, error)
}

// ProcessOptions tune ProcessStatement.
type ProcessOptions struct {
	// Replace overwrites a processed statement with the same source.
	Replace bool
}

// ProcessResult is the outcome of processing one statement file.
type ProcessResult struct {
	Statement    *Statement
	Transactions []transaction.Transaction
	Unparsed     []parser.Unparsed
	Replaced     bool
}

// Service runs the statement pipeline and manages stored statements.
type Service struct {
	store     *db.DB
	repo      *Repository
	txns      *transaction.Repository
	extractor pdftext.Extractor
	parser    *parser.Parser
	engines   EngineLoader
	archive   storage.Archive
	metrics   *telemetry.Metrics
	logger    *slog.Logger
}

type ServiceDeps struct {
	Store        *db.DB
	Repo         *Repository
	Transactions *transaction.Repository
	Extractor    pdftext.Extractor
	Engines      EngineLoader
	Archive      storage.Archive
	Metrics      *telemetry.Metrics
	Logger       *slog.Logger
}

func NewService(deps ServiceDeps) *Service {
	if deps.Extractor == nil {
		deps.Extractor = pdftext.FileExtractor{}
	}
	if deps.Archive == nil {
		deps.Archive = storage.Nop{}
	}
	if deps.Metrics == nil {
		deps.Metrics = telemetry.NewMetrics()
	}
	return &Service{
		store:     deps.Store,
		repo:      deps.Repo,
		txns:      deps.Transactions,
		extractor: deps.Extractor,
		parser:    parser.New(deps.Logger),
		engines:   deps.Engines,
		archive:   deps.Archive,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
	}
}

func (s *Service) extractLines(ctx context.Context, source string) (lines []string, err error) {
	ctx, span := telemetry.StartSpan(ctx, "statement.extract", attribute.String("statement.format", strings.ToLower(filepath.Ext(source))))
	defer func() { telemetry.EndSpan(span, err) }()

	lines, err = s.extractor.Lines(ctx, source)
	span.SetAttributes(attribute.Int("statement.lines", len(lines)))
	return lines, err
}

// ProcessStatement extracts, parses and categorizes the statement at path
// and stores it for userID in one database transaction.
//
// A statement that yields no transactions is recorded as failed and a
// ParseError is returned. A source the user already processed fails with
// DuplicateEntityError unless opts.Replace is set; a failed earlier attempt
// is always replaced.
func (s *Service) ProcessStatement(ctx context.Context, userID uuid.UUID, path string, opts ProcessOptions) (result *ProcessResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "statement.process",
		attribute.String("user.id", userID.String()),
		attribute.String("statement.path", path),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	source, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	existing, err := s.repo.FindBySource(ctx, userID, source)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status != StatusFailed && !opts.Replace {
		return nil, apperr.NewDuplicate("statement", "source", source)
	}

	lines, err := s.extractLines(ctx, source)
	if err != nil {
		if apperr.IsParse(err) {
			if ferr := s.recordFailure(ctx, userID, source, existing, err.Error(), 0); ferr != nil {
				return nil, ferr
			}
		}
		return nil, err
	}

	_, parseSpan := telemetry.StartSpan(ctx, "statement.parse", attribute.Int("statement.lines", len(lines)))
	parsed := s.parser.Parse(source, lines)
	parseSpan.SetAttributes(
		attribute.Int("statement.records", len(parsed.Records)),
		attribute.Int("statement.unparsed", len(parsed.Unparsed)),
	)
	telemetry.EndSpan(parseSpan, nil)
	if parsed.Empty() {
		reason := "no transactions found"
		if n := len(parsed.Unparsed); n > 0 {
			reason = fmt.Sprintf("no transactions found, %d unparsed lines", n)
		}
		if ferr := s.recordFailure(ctx, userID, source, existing, reason, len(parsed.Unparsed)); ferr != nil {
			return nil, ferr
		}
		return nil, apperr.NewParseError(source, reason, nil)
	}

	// The engine reads through the store handle, so it is built before the
	// write transaction starts.
	engine, err := s.engines.Engine(ctx, userID)
	if err != nil {
		return nil, err
	}

	descriptions := make([]string, len(parsed.Records))
	for i, rec := range parsed.Records {
		descriptions[i] = rec.Description
	}
	categories := engine.MatchBatch(descriptions)
	span.SetAttributes(attribute.Int("categorization.patterns", engine.PatternCount()))

	stmt := &Statement{
		ID:            uuid.New(),
		UserID:        userID,
		Source:        source,
		FileName:      filepath.Base(source),
		BankType:      BankAxisCreditCard,
		Status:        StatusPending,
		UnparsedLines: len(parsed.Unparsed),
		ParseErrors:   formatUnparsed(parsed.Unparsed),
	}
	stmt.PeriodStart, stmt.PeriodEnd = parsed.Period()

	txns := make([]transaction.Transaction, len(parsed.Records))
	for i, rec := range parsed.Records {
		txns[i] = transaction.Transaction{
			StatementID: stmt.ID,
			UserID:      userID,
			Position:    i + 1,
			Date:        rec.Date,
			Description: rec.Description,
			Amount:      rec.Amount,
			Direction:   rec.Direction,
			Category:    categories[i],
		}
		if rec.Direction == transaction.Credit {
			stmt.TotalCredits = stmt.TotalCredits.Add(rec.Amount)
		} else {
			stmt.TotalDebits = stmt.TotalDebits.Add(rec.Amount)
		}
	}
	stmt.TransactionCount = len(txns)

	err = s.store.WithTx(ctx, func(tx *db.Tx) error {
		repo := s.repo.WithTx(tx)
		if existing != nil {
			if err := repo.Delete(ctx, userID, existing.ID); err != nil {
				return err
			}
		}
		if err := repo.Create(ctx, stmt); err != nil {
			return err
		}
		if err := s.txns.WithTx(tx).InsertBatch(ctx, txns); err != nil {
			return err
		}
		stmt.Status = StatusProcessed
		return repo.Finish(ctx, stmt)
	})
	if err != nil {
		s.metrics.StatementsProcessed.WithLabelValues("error").Inc()
		return nil, err
	}

	if existing != nil {
		if err := s.archive.Delete(ctx, userID, existing.ID); err != nil {
			s.logger.Warn("failed to remove archived statement", "statement", existing.ID, "error", err)
		}
	}
	s.archiveSource(ctx, stmt)

	s.metrics.StatementsProcessed.WithLabelValues(string(StatusProcessed)).Inc()
	s.metrics.TransactionsStored.Add(float64(len(txns)))
	s.metrics.UnparsedLines.Add(float64(len(parsed.Unparsed)))
	for _, c := range categories {
		s.metrics.RulesMatched.WithLabelValues(c).Inc()
	}

	s.logger.Info("statement processed",
		"statement", stmt.ID,
		"file", stmt.FileName,
		"transactions", stmt.TransactionCount,
		"unparsed", stmt.UnparsedLines,
		"debits", money.Format(stmt.TotalDebits, s.txns.Currency()),
	)

	return &ProcessResult{
		Statement:    stmt,
		Transactions: txns,
		Unparsed:     parsed.Unparsed,
		Replaced:     existing != nil,
	}, nil
}

// recordFailure stores a failed statement for source, replacing an earlier
// failed one. A processed statement is never overwritten by a failure.
func (s *Service) recordFailure(ctx context.Context, userID uuid.UUID, source string, existing *Statement, reason string, unparsed int) error {
	s.metrics.StatementsProcessed.WithLabelValues(string(StatusFailed)).Inc()
	s.metrics.UnparsedLines.Add(float64(unparsed))

	if existing != nil && existing.Status != StatusFailed {
		s.logger.Warn("statement yielded no transactions, keeping stored copy", "statement", existing.ID, "reason", reason)
		return nil
	}

	stmt := &Statement{
		UserID:        userID,
		Source:        source,
		FileName:      filepath.Base(source),
		Status:        StatusFailed,
		ParseErrors:   reason,
		UnparsedLines: unparsed,
	}
	err := s.store.WithTx(ctx, func(tx *db.Tx) error {
		repo := s.repo.WithTx(tx)
		if existing != nil {
			if err := repo.Delete(ctx, userID, existing.ID); err != nil {
				return err
			}
		}
		return repo.Create(ctx, stmt)
	})
	if err != nil {
		return err
	}

	s.logger.Warn("statement failed", "statement", stmt.ID, "file", stmt.FileName, "reason", reason)
	return nil
}

func (s *Service) archiveSource(ctx context.Context, stmt *Statement) {
	if _, ok := s.archive.(storage.Nop); ok {
		return
	}

	f, err := os.Open(stmt.Source)
	if err != nil {
		s.logger.Warn("failed to open statement for archiving", "statement", stmt.ID, "error", err)
		return
	}
	defer f.Close()

	info, err := s.archive.Put(ctx, stmt.UserID, stmt.ID, stmt.FileName, f)
	if err != nil {
		s.logger.Warn("failed to archive statement", "statement", stmt.ID, "error", err)
		return
	}
	if info == nil {
		return
	}
	if err := s.repo.SetArchivePath(ctx, stmt.ID, info.Path); err != nil {
		s.logger.Warn("failed to record archive path", "statement", stmt.ID, "error", err)
		return
	}
	stmt.ArchivePath = info.Path
}

func formatUnparsed(unparsed []parser.Unparsed) string {
	var b strings.Builder
	for i, u := range unparsed {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "line %d: %s", u.Line, u.Reason)
	}
	return b.String()
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]Statement, error) {
	return s.repo.List(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Statement, error) {
	return s.repo.Get(ctx, userID, id)
}

// Transactions returns a statement's transactions in statement order.
func (s *Service) Transactions(ctx context.Context, userID, id uuid.UUID) ([]transaction.Transaction, error) {
	if _, err := s.repo.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.txns.ListByStatement(ctx, id)
}

// Delete removes a statement with its transactions and archived copy.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	if err := s.archive.Delete(ctx, userID, id); err != nil {
		s.logger.Warn("failed to remove archived statement", "statement", id, "error", err)
	}
	s.logger.Info("statement deleted", "statement", id)
	return nil
}
