package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eventsignup/server/internal/auth"
	"github.com/eventsignup/server/internal/domain/ids"
	"github.com/eventsignup/server/internal/metrics"
	"github.com/rs/zerolog"
)

// Service handles account creation and credential checks.
type Service struct {
	repo       Repository
	logger     zerolog.Logger
	bcryptCost int
}

type Option func(*Service)

// WithBcryptCost overrides the hashing cost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

func NewService(repo Repository, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		logger:     logger.With().Str("component", "users").Logger(),
		bcryptCost: auth.BcryptCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateParams contains parameters for creating a new account. Signup sets
// Manager; admins are only created from the command line or bootstrap.
type CreateParams struct {
	Name     string
	Username string
	Password string
	Admin    bool
	Manager  bool
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*User, error) {
	hash, err := auth.HashPassword(params.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := User{
		ID:           ids.NewUUID(),
		Name:         strings.TrimSpace(params.Name),
		Username:     strings.TrimSpace(params.Username),
		PasswordHash: hash,
		Admin:        params.Admin,
		Manager:      params.Manager || params.Admin,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		metrics.DomainOperations.WithLabelValues("user", "create", "error").Inc()
		if errors.Is(err, ErrUsernameTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	metrics.DomainOperations.WithLabelValues("user", "create", "ok").Inc()
	s.logger.Info().Str("username", user.Username).Str("role", string(user.Role())).Msg("user created")
	return &user, nil
}

// FindByUsername returns nil, nil when the username is free.
func (s *Service) FindByUsername(ctx context.Context, username string) (*User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// Authenticate returns ErrInvalidCredentials for both unknown usernames and
// wrong passwords.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
