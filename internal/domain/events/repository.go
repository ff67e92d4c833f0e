package events

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("event not found")

// ErrConflict is returned when a write would break name or slug uniqueness.
var ErrConflict = errors.New("event conflict")

type Event struct {
	ID          string
	Name        string
	Slug        string
	Description string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Repository is implemented by the storage backends. Lookups return
// ErrNotFound when nothing matches; List returns an empty slice, never nil.
type Repository interface {
	Create(ctx context.Context, event Event) error
	List(ctx context.Context, limit, offset int) ([]Event, error)
	Count(ctx context.Context) (int, error)
	GetByID(ctx context.Context, id string) (*Event, error)
	GetBySlug(ctx context.Context, slug string) (*Event, error)
	GetByName(ctx context.Context, name string) (*Event, error)
	Update(ctx context.Context, event Event) error
	Delete(ctx context.Context, id string) error
}
