package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eventsignup/server/internal/domain/ids"
	"github.com/eventsignup/server/internal/metrics"
	"github.com/eventsignup/server/internal/slug"
	"github.com/rs/zerolog"
)

// DefaultPageSize is the number of events shown per listing page.
const DefaultPageSize = 20

type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "events").Logger(),
		now:    time.Now,
	}
}

type CreateParams struct {
	Name        string
	Description string
	CreatedBy   string
}

type UpdateParams struct {
	Name        string
	Description string
}

type ListResult struct {
	Events  []Event
	Total   int
	Page    int
	HasPrev bool
	HasNext bool
}

// List returns one page of events, oldest first. Pages start at 1; lower
// values are treated as 1.
func (s *Service) List(ctx context.Context, page, size int) (ListResult, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return ListResult{}, fmt.Errorf("count events: %w", err)
	}
	items, err := s.repo.List(ctx, size, (page-1)*size)
	if err != nil {
		return ListResult{}, fmt.Errorf("list events: %w", err)
	}
	if items == nil {
		items = []Event{}
	}

	return ListResult{
		Events:  items,
		Total:   total,
		Page:    page,
		HasPrev: page > 1,
		HasNext: page*size < total,
	}, nil
}

// GetBySlug returns ErrNotFound when no event has the slug.
func (s *Service) GetBySlug(ctx context.Context, eventSlug string) (*Event, error) {
	return s.repo.GetBySlug(ctx, eventSlug)
}

// FindByName returns nil, nil when no event carries the name.
func (s *Service) FindByName(ctx context.Context, name string) (*Event, error) {
	return found(s.repo.GetByName(ctx, name))
}

// FindBySlug returns nil, nil when no event has the slug.
func (s *Service) FindBySlug(ctx context.Context, eventSlug string) (*Event, error) {
	return found(s.repo.GetBySlug(ctx, eventSlug))
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Event, error) {
	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("generate event id: %w", err)
	}

	now := s.now().UTC()
	event := Event{
		ID:          id,
		Name:        strings.TrimSpace(params.Name),
		Slug:        slug.Make(params.Name),
		Description: params.Description,
		CreatedBy:   params.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if event.Slug == "" {
		return nil, fmt.Errorf("create event %q: empty slug: %w", event.Name, ErrConflict)
	}

	if err := s.repo.Create(ctx, event); err != nil {
		metrics.DomainOperations.WithLabelValues("event", "create", "error").Inc()
		return nil, fmt.Errorf("create event: %w", err)
	}
	metrics.DomainOperations.WithLabelValues("event", "create", "ok").Inc()
	s.logger.Info().Str("event_id", event.ID).Str("slug", event.Slug).Msg("event created")
	return &event, nil
}

// Update renames and re-describes the event with the given id. The slug is
// derived again from the new name.
func (s *Service) Update(ctx context.Context, id string, params UpdateParams) (*Event, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}

	updated := *current
	updated.Name = strings.TrimSpace(params.Name)
	updated.Slug = slug.Make(params.Name)
	updated.Description = params.Description
	updated.UpdatedAt = s.now().UTC()
	if updated.Slug == "" {
		return nil, fmt.Errorf("update event %s: empty slug: %w", id, ErrConflict)
	}

	if err := s.repo.Update(ctx, updated); err != nil {
		metrics.DomainOperations.WithLabelValues("event", "update", "error").Inc()
		return nil, fmt.Errorf("update event: %w", err)
	}
	metrics.DomainOperations.WithLabelValues("event", "update", "ok").Inc()
	s.logger.Info().Str("event_id", id).Str("slug", updated.Slug).Msg("event updated")
	return &updated, nil
}

// DeleteBySlug removes the event and, through the foreign key, its
// registrations.
func (s *Service) DeleteBySlug(ctx context.Context, eventSlug string) (*Event, error) {
	event, err := s.repo.GetBySlug(ctx, eventSlug)
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	if err := s.repo.Delete(ctx, event.ID); err != nil {
		metrics.DomainOperations.WithLabelValues("event", "delete", "error").Inc()
		return nil, fmt.Errorf("delete event: %w", err)
	}
	metrics.DomainOperations.WithLabelValues("event", "delete", "ok").Inc()
	s.logger.Info().Str("event_id", event.ID).Str("slug", event.Slug).Msg("event deleted")
	return event, nil
}

func found(event *Event, err error) (*Event, error) {
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return event, nil
}
