package registrations

import (
	"context"
	"time"
)

// Registration is one attendance sign-up. The same person may register for
// an event more than once; each submission is its own row.
type Registration struct {
	ID        string
	EventID   string
	Name      string
	Comment   string
	CreatedAt time.Time
}

// Repository is implemented by the storage backends. ListByEvent returns an
// empty slice when the event has no registrations.
type Repository interface {
	Create(ctx context.Context, registration Registration) error
	ListByEvent(ctx context.Context, eventID string) ([]Registration, error)
	CountByEvent(ctx context.Context, eventID string) (int, error)
}
