package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/eventsignup/server/internal/domain/registrations"
)

var _ registrations.Repository = (*RegistrationStore)(nil)

type RegistrationStore struct {
	db *sql.DB
}

func (s *RegistrationStore) Create(ctx context.Context, registration registrations.Registration) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO registrations (id, event_id, name, comment, created_at) VALUES (?, ?, ?, ?, ?)",
		registration.ID, registration.EventID, registration.Name, registration.Comment, formatTime(registration.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (s *RegistrationStore) ListByEvent(ctx context.Context, eventID string) ([]registrations.Registration, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, event_id, name, comment, created_at FROM registrations WHERE event_id = ? ORDER BY id", eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	list := []registrations.Registration{}
	for rows.Next() {
		var (
			item      registrations.Registration
			createdAt string
		)
		if err := rows.Scan(&item.ID, &item.EventID, &item.Name, &item.Comment, &createdAt); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		item.CreatedAt = parseTime(createdAt)
		list = append(list, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w", err)
	}
	return list, nil
}

func (s *RegistrationStore) CountByEvent(ctx context.Context, eventID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM registrations WHERE event_id = ?", eventID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}
