package validation

import (
	"context"
	"strings"

	"github.com/eventsignup/server/internal/domain/events"
	"github.com/eventsignup/server/internal/domain/users"
	"github.com/eventsignup/server/internal/slug"
)

// EventFinder looks events up by their unique keys; both methods return
// nil, nil when nothing matches.
type EventFinder interface {
	FindByName(ctx context.Context, name string) (*events.Event, error)
	FindBySlug(ctx context.Context, slug string) (*events.Event, error)
}

// UserFinder returns nil, nil for a free username.
type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (*users.User, error)
}

// UniqueEventName rejects a name that another event already uses, either
// verbatim or through the slug derived from it. selfID is the id of the
// event being updated ("" on create); a match against it is ignored.
// name is read when the rule runs, after markup has been stripped.
func UniqueEventName(finder EventFinder, name *string, selfID string) Rule {
	return func(ctx context.Context) (*FieldError, error) {
		value := strings.TrimSpace(*name)
		if value == "" {
			return nil, nil
		}

		eventSlug := slug.Make(value)
		if eventSlug == "" {
			return &FieldError{Field: "name", Message: "Name must contain letters or digits"}, nil
		}
		if slug.Reserved(eventSlug) {
			return &FieldError{Field: "name", Message: "Name is reserved, please choose another"}, nil
		}

		existing, err := finder.FindByName(ctx, value)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != selfID {
			return &FieldError{Field: "name", Message: "An event with this name already exists"}, nil
		}

		existing, err = finder.FindBySlug(ctx, eventSlug)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != selfID {
			return &FieldError{Field: "name", Message: "An event with a similar name already exists"}, nil
		}
		return nil, nil
	}
}

// UniqueUsername rejects a username that is already registered.
func UniqueUsername(finder UserFinder, username *string) Rule {
	return func(ctx context.Context) (*FieldError, error) {
		value := strings.TrimSpace(*username)
		if value == "" {
			return nil, nil
		}
		existing, err := finder.FindByUsername(ctx, value)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return &FieldError{Field: "username", Message: "Username is already taken"}, nil
		}
		return nil, nil
	}
}
