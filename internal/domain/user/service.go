package user

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"github.com/badoux/checkmail"
	"github.com/google/uuid"

	"github.com/FACorreiaa/ccparser/pkg/apperr"
	"github.com/FACorreiaa/ccparser/pkg/db"
)

const (
	minUsernameLength = 2
	maxUsernameLength = 64
)

// RuleSeeder writes the starting rule set of a new user.
type RuleSeeder interface {
	SeedDefaults(ctx context.Context, tx *db.Tx, userID uuid.UUID) (int, error)
}

// Service coordinates user creation and lookup.
type Service struct {
	store  *db.DB
	repo   *Repository
	rules  RuleSeeder
	logger *slog.Logger
}

func NewService(store *db.DB, repo *Repository, rules RuleSeeder, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		repo:   repo,
		rules:  rules,
		logger: logger,
	}
}

// Create registers a user and seeds the default category rules in the same
// transaction. An existing username or email fails with
// DuplicateEntityError and nothing is written.
func (s *Service) Create(ctx context.Context, params CreateParams) (*User, error) {
	username := strings.TrimSpace(params.Username)
	email := strings.ToLower(strings.TrimSpace(params.Email))

	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := checkmail.ValidateFormat(email); err != nil {
		return nil, apperr.NewValidation("email", err.Error())
	}

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return nil, apperr.NewDuplicate("user", "username", username)
	} else if !apperr.IsNotFound(err) {
		return nil, err
	}
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, apperr.NewDuplicate("user", "email", email)
	} else if !apperr.IsNotFound(err) {
		return nil, err
	}

	u := &User{Username: username, Email: email}
	var seeded int
	err := s.store.WithTx(ctx, func(tx *db.Tx) error {
		// the unique constraints still catch a concurrent insert
		if err := s.repo.WithTx(tx).Create(ctx, u); err != nil {
			return err
		}
		var err error
		seeded, err = s.rules.SeedDefaults(ctx, tx, u.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created", "user", u.Username, "id", u.ID, "rules", seeded)
	return u, nil
}

func validateUsername(username string) error {
	if username == "" {
		return apperr.NewValidation("username", "must not be empty")
	}
	if n := len([]rune(username)); n < minUsernameLength || n > maxUsernameLength {
		return apperr.NewValidation("username", "must be between 2 and 64 characters")
	}
	if strings.IndexFunc(username, unicode.IsSpace) >= 0 {
		return apperr.NewValidation("username", "must not contain spaces")
	}
	return nil
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*User, error) {
	return s.repo.GetByUsername(ctx, strings.TrimSpace(username))
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}
