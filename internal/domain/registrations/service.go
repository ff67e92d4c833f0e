package registrations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/eventsignup/server/internal/domain/ids"
	"github.com/eventsignup/server/internal/metrics"
	"github.com/rs/zerolog"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "registrations").Logger(),
	}
}

type RegisterParams struct {
	EventID string
	Name    string
	Comment string
}

func (s *Service) Register(ctx context.Context, params RegisterParams) (*Registration, error) {
	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("generate registration id: %w", err)
	}

	registration := Registration{
		ID:        id,
		EventID:   params.EventID,
		Name:      strings.TrimSpace(params.Name),
		Comment:   params.Comment,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, registration); err != nil {
		metrics.DomainOperations.WithLabelValues("registration", "create", "error").Inc()
		return nil, fmt.Errorf("create registration: %w", err)
	}
	metrics.DomainOperations.WithLabelValues("registration", "create", "ok").Inc()
	s.logger.Info().Str("event_id", params.EventID).Str("registration_id", id).Msg("registration recorded")
	return &registration, nil
}

func (s *Service) ListByEvent(ctx context.Context, eventID string) ([]Registration, error) {
	items, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	if items == nil {
		items = []Registration{}
	}
	return items, nil
}

func (s *Service) CountByEvent(ctx context.Context, eventID string) (int, error) {
	count, err := s.repo.CountByEvent(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}
