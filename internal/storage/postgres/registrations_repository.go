package postgres

import (
	"context"
	"fmt"

	"github.com/eventsignup/server/internal/domain/registrations"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ registrations.Repository = (*RegistrationRepository)(nil)

type RegistrationRepository struct {
	pool *pgxpool.Pool
}

func (r *RegistrationRepository) Create(ctx context.Context, registration registrations.Registration) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO registrations (id, event_id, name, comment, created_at)
VALUES ($1, $2, $3, $4, $5)
`, registration.ID, registration.EventID, registration.Name, registration.Comment, registration.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID string) ([]registrations.Registration, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, event_id, name, comment, created_at
  FROM registrations
 WHERE event_id = $1
 ORDER BY id
`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	list := []registrations.Registration{}
	for rows.Next() {
		var item registrations.Registration
		if err := rows.Scan(&item.ID, &item.EventID, &item.Name, &item.Comment, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		list = append(list, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w", err)
	}
	return list, nil
}

func (r *RegistrationRepository) CountByEvent(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM registrations WHERE event_id = $1`, eventID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}
