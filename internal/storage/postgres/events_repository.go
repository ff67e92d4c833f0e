package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eventsignup/server/internal/domain/events"
	"github.com/eventsignup/server/internal/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ events.Repository = (*EventRepository)(nil)

type EventRepository struct {
	pool *pgxpool.Pool
}

const eventColumns = `id, name, slug, description, created_by, created_at, updated_at`

func (r *EventRepository) Create(ctx context.Context, event events.Event) (err error) {
	defer func(start time.Time) { metrics.RecordQuery("events_create", start, err) }(time.Now())

	_, err = r.pool.Exec(ctx, `
INSERT INTO events (id, name, slug, description, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, event.ID, event.Name, event.Slug, event.Description, nullString(event.CreatedBy), event.CreatedAt, event.UpdatedAt)
	if constraint := uniqueConstraint(err); constraint != "" {
		return fmt.Errorf("insert event %q (%s): %w", event.Slug, constraint, events.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *EventRepository) List(ctx context.Context, limit, offset int) (list []events.Event, err error) {
	defer func(start time.Time) { metrics.RecordQuery("events_list", start, err) }(time.Now())

	rows, err := r.pool.Query(ctx, `
SELECT `+eventColumns+`
  FROM events
 ORDER BY id
 LIMIT $1 OFFSET $2
`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	list = []events.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		list = append(list, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return list, nil
}

func (r *EventRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM events`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*events.Event, error) {
	return r.getOne(ctx, "events_get_by_id", `WHERE id = $1`, id)
}

func (r *EventRepository) GetBySlug(ctx context.Context, slug string) (*events.Event, error) {
	return r.getOne(ctx, "events_get_by_slug", `WHERE slug = $1`, slug)
}

func (r *EventRepository) GetByName(ctx context.Context, name string) (*events.Event, error) {
	return r.getOne(ctx, "events_get_by_name", `WHERE name = $1`, name)
}

func (r *EventRepository) getOne(ctx context.Context, operation, where string, arg string) (event *events.Event, err error) {
	defer func(start time.Time) { metrics.RecordQuery(operation, start, err) }(time.Now())

	row := r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events `+where, arg)
	event, err = scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, events.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) Update(ctx context.Context, event events.Event) (err error) {
	defer func(start time.Time) { metrics.RecordQuery("events_update", start, err) }(time.Now())

	tag, err := r.pool.Exec(ctx, `
UPDATE events
   SET name = $2, slug = $3, description = $4, updated_at = $5
 WHERE id = $1
`, event.ID, event.Name, event.Slug, event.Description, event.UpdatedAt)
	if constraint := uniqueConstraint(err); constraint != "" {
		return fmt.Errorf("update event %q (%s): %w", event.Slug, constraint, events.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { metrics.RecordQuery("events_delete", start, err) }(time.Now())

	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}

func scanEvent(row pgx.Row) (*events.Event, error) {
	var (
		event     events.Event
		createdBy *string
	)
	if err := row.Scan(
		&event.ID,
		&event.Name,
		&event.Slug,
		&event.Description,
		&createdBy,
		&event.CreatedAt,
		&event.UpdatedAt,
	); err != nil {
		return nil, err
	}
	event.CreatedBy = derefString(createdBy)
	return &event, nil
}

func nullString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
