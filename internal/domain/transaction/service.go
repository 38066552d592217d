package transaction

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/FACorreiaa/ccparser/internal/domain/categorization"
	"github.com/FACorreiaa/ccparser/pkg/db"
)

// Categorizer is the part of the categorization service transactions use.
type Categorizer interface {
	Engine(ctx context.Context, userID uuid.UUID) (*categorization.Engine, error)
	ResolveCategory(ctx context.Context, userID uuid.UUID, category string) (string, error)
}

type Service struct {
	store      *db.DB
	repo       *Repository
	categories Categorizer
	logger     *slog.Logger
}

func NewService(store *db.DB, repo *Repository, categories Categorizer, logger *slog.Logger) *Service {
	return &Service{
		store:      store,
		repo:       repo,
		categories: categories,
		logger:     logger,
	}
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, f Filter) ([]Transaction, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if f.Category != "" {
		f.Category = categorization.NormalizeCategory(f.Category)
	}
	return s.repo.List(ctx, userID, f)
}

func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Transaction, error) {
	return s.repo.Get(ctx, userID, id)
}

// SetCategory corrects one transaction by hand. The category must be known
// to the user; rules are not changed.
func (s *Service) SetCategory(ctx context.Context, userID, id uuid.UUID, category string) (*Transaction, error) {
	name, err := s.categories.ResolveCategory(ctx, userID, category)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetCategory(ctx, userID, id, name); err != nil {
		return nil, err
	}

	s.logger.Info("transaction category corrected", "transaction", id, "category", name)
	return s.repo.Get(ctx, userID, id)
}

// Recategorize re-applies the user's current rules to every transaction
// that was not corrected by hand and returns how many changed.
func (s *Service) Recategorize(ctx context.Context, userID uuid.UUID) (int, error) {
	engine, err := s.categories.Engine(ctx, userID)
	if err != nil {
		return 0, err
	}

	txns, err := s.repo.List(ctx, userID, Filter{})
	if err != nil {
		return 0, err
	}

	type change struct {
		id       uuid.UUID
		category string
	}
	var changes []change
	for _, t := range txns {
		if t.UserCorrected {
			continue
		}
		if c := engine.Categorize(t.Description); c != t.Category {
			changes = append(changes, change{t.ID, c})
		}
	}
	if len(changes) == 0 {
		return 0, nil
	}

	changed := 0
	err = s.store.WithTx(ctx, func(tx *db.Tx) error {
		repo := s.repo.WithTx(tx)
		for _, c := range changes {
			ok, err := repo.UpdateRuleCategory(ctx, c.id, c.category)
			if err != nil {
				return err
			}
			if ok {
				changed++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("transactions recategorized", "user", userID, "changed", changed)
	return changed, nil
}

// Search runs a full-text query over the user's transactions.
func (s *Service) Search(ctx context.Context, userID uuid.UUID, text, category string, limit int) ([]SearchHit, error) {
	txns, err := s.repo.List(ctx, userID, Filter{})
	if err != nil {
		return nil, err
	}

	index, err := NewSearchIndex(txns)
	if err != nil {
		return nil, err
	}
	defer index.Close()

	if category != "" {
		category = categorization.NormalizeCategory(category)
	}
	return index.Search(text, category, limit)
}
