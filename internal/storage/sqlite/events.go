package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eventsignup/server/internal/domain/events"
	"github.com/eventsignup/server/internal/metrics"
)

var _ events.Repository = (*EventStore)(nil)

type EventStore struct {
	db *sql.DB
}

const eventColumns = "id, name, slug, description, created_by, created_at, updated_at"

func (s *EventStore) Create(ctx context.Context, event events.Event) (err error) {
	defer func(start time.Time) { metrics.RecordQuery("events_create", start, err) }(time.Now())

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO events ("+eventColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		event.ID, event.Name, event.Slug, event.Description, nullString(event.CreatedBy),
		formatTime(event.CreatedAt), formatTime(event.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("insert event %q: %w", event.Slug, events.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *EventStore) List(ctx context.Context, limit, offset int) (list []events.Event, err error) {
	defer func(start time.Time) { metrics.RecordQuery("events_list", start, err) }(time.Now())

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events ORDER BY id LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	list = []events.Event{}
	for rows.Next() {
		event, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		list = append(list, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return list, nil
}

func (s *EventStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&count); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

func (s *EventStore) GetByID(ctx context.Context, id string) (*events.Event, error) {
	return s.getOne(ctx, "events_get_by_id", "id", id)
}

func (s *EventStore) GetBySlug(ctx context.Context, slug string) (*events.Event, error) {
	return s.getOne(ctx, "events_get_by_slug", "slug", slug)
}

func (s *EventStore) GetByName(ctx context.Context, name string) (*events.Event, error) {
	return s.getOne(ctx, "events_get_by_name", "name", name)
}

// column is one of the fixed names above, never user input.
func (s *EventStore) getOne(ctx context.Context, operation, column, value string) (result *events.Event, err error) {
	defer func(start time.Time) { metrics.RecordQuery(operation, start, err) }(time.Now())

	row := s.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM events WHERE "+column+" = ?", value)
	event, err := scanEvent(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, events.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &event, nil
}

func (s *EventStore) Update(ctx context.Context, event events.Event) (err error) {
	defer func(start time.Time) { metrics.RecordQuery("events_update", start, err) }(time.Now())

	res, err := s.db.ExecContext(ctx,
		"UPDATE events SET name = ?, slug = ?, description = ?, updated_at = ? WHERE id = ?",
		event.Name, event.Slug, event.Description, formatTime(event.UpdatedAt), event.ID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("update event %q: %w", event.Slug, events.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return requireAffected(res, events.ErrNotFound)
}

func (s *EventStore) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { metrics.RecordQuery("events_delete", start, err) }(time.Now())

	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return requireAffected(res, events.ErrNotFound)
}

func scanEvent(scan func(dest ...any) error) (events.Event, error) {
	var (
		event                events.Event
		createdBy            sql.NullString
		createdAt, updatedAt string
	)
	if err := scan(
		&event.ID,
		&event.Name,
		&event.Slug,
		&event.Description,
		&createdBy,
		&createdAt,
		&updatedAt,
	); err != nil {
		return events.Event{}, err
	}
	if createdBy.Valid {
		event.CreatedBy = createdBy.String
	}
	event.CreatedAt = parseTime(createdAt)
	event.UpdatedAt = parseTime(updatedAt)
	return event, nil
}
