package categorization

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/FACorreiaa/ccparser/pkg/apperr"
	"github.com/FACorreiaa/ccparser/pkg/db"
)

// Service handles rule management and description categorization
type Service struct {
	repo   *Repository
	logger *slog.Logger

	ruleCache map[uuid.UUID][]Rule
	cacheMu   sync.RWMutex
}

func NewService(repo *Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		logger:    logger,
		ruleCache: make(map[uuid.UUID][]Rule),
	}
}

// Rules fetches the user's rules in evaluation order, cached per user.
func (s *Service) Rules(ctx context.Context, userID uuid.UUID) ([]Rule, error) {
	s.cacheMu.RLock()
	if rules, ok := s.ruleCache[userID]; ok {
		s.cacheMu.RUnlock()
		return rules, nil
	}
	s.cacheMu.RUnlock()

	rules, err := s.repo.ListRules(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.cacheMu.Lock()
	s.ruleCache[userID] = rules
	s.cacheMu.Unlock()

	return rules, nil
}

func (s *Service) invalidate(userID uuid.UUID) {
	s.cacheMu.Lock()
	delete(s.ruleCache, userID)
	s.cacheMu.Unlock()
}

// Matcher returns an ordered-scan matcher over the user's rules.
func (s *Service) Matcher(ctx context.Context, userID uuid.UUID) (*Matcher, error) {
	rules, err := s.Rules(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewMatcher(rules), nil
}

// Engine returns a single-pass engine over the user's rules.
func (s *Service) Engine(ctx context.Context, userID uuid.UUID) (*Engine, error) {
	rules, err := s.Rules(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewEngine(rules), nil
}

// Categorize returns the category of one description.
func (s *Service) Categorize(ctx context.Context, userID uuid.UUID, description string) (string, error) {
	m, err := s.Matcher(ctx, userID)
	if err != nil {
		return "", err
	}
	return m.Match(description), nil
}

// CategorizeBatch categorizes descriptions, index-aligned.
func (s *Service) CategorizeBatch(ctx context.Context, userID uuid.UUID, descriptions []string) ([]string, error) {
	e, err := s.Engine(ctx, userID)
	if err != nil {
		return nil, err
	}
	return e.MatchBatch(descriptions), nil
}

// SeedDefaults writes the default rule set for a new user through tx.
func (s *Service) SeedDefaults(ctx context.Context, tx *db.Tx, userID uuid.UUID) (int, error) {
	defaults := DefaultRules()
	rules := make([]Rule, 0, len(defaults))
	for _, d := range defaults {
		rules = append(rules, Rule{
			UserID:   userID,
			Pattern:  Normalize(d.Pattern),
			Category: d.Category,
			Priority: d.Priority,
		})
	}

	if err := s.repo.WithTx(tx).CreateRules(ctx, rules); err != nil {
		return 0, fmt.Errorf("failed to seed default rules: %w", err)
	}
	s.invalidate(userID)
	return len(rules), nil
}

// UpsertRule creates the user's rule for pattern or changes its category and
// priority. Existing transactions keep their categories until Recategorize.
func (s *Service) UpsertRule(ctx context.Context, userID uuid.UUID, pattern, category string, priority int) (*Rule, error) {
	rule := &Rule{
		UserID:   userID,
		Pattern:  Normalize(pattern),
		Category: NormalizeCategory(category),
		Priority: priority,
	}
	if rule.Pattern == "" {
		return nil, apperr.NewValidation("pattern", "must not be empty")
	}
	if rule.Category == "" {
		return nil, apperr.NewValidation("category", "must not be empty")
	}
	if priority < 0 {
		return nil, apperr.NewValidation("priority", "must not be negative")
	}

	if err := s.repo.UpsertRule(ctx, rule); err != nil {
		return nil, err
	}
	s.invalidate(userID)

	s.logger.Info("category rule saved", "user", userID, "pattern", rule.Pattern, "category", rule.Category, "priority", rule.Priority)
	return rule, nil
}

func (s *Service) DeleteRule(ctx context.Context, userID uuid.UUID, pattern string) error {
	if err := s.repo.DeleteRule(ctx, userID, Normalize(pattern)); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

// ListCategories returns every category a transaction of the user can
// carry: the rule categories plus the fallback.
func (s *Service) ListCategories(ctx context.Context, userID uuid.UUID) ([]string, error) {
	categories, err := s.repo.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(categories, Fallback) {
		categories = append(categories, Fallback)
		slices.Sort(categories)
	}
	return categories, nil
}

// ResolveCategory checks that category is known for the user. Unknown names
// fail with NotFoundError; SuggestCategories offers alternatives.
func (s *Service) ResolveCategory(ctx context.Context, userID uuid.UUID, category string) (string, error) {
	name := NormalizeCategory(category)
	if name == "" {
		return "", apperr.NewValidation("category", "must not be empty")
	}

	categories, err := s.ListCategories(ctx, userID)
	if err != nil {
		return "", err
	}
	if !slices.Contains(categories, name) {
		return "", apperr.NewNotFound("category", name)
	}
	return name, nil
}

func (s *Service) SuggestCategories(ctx context.Context, userID uuid.UUID, input string) ([]string, error) {
	categories, err := s.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Suggest(input, categories, 3), nil
}
