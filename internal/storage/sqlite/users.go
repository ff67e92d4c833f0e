package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eventsignup/server/internal/domain/users"
)

var _ users.Repository = (*UserStore)(nil)

type UserStore struct {
	db *sql.DB
}

func (s *UserStore) Create(ctx context.Context, user users.User) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, name, username, password_hash, admin, manager, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		user.ID, user.Name, user.Username, user.PasswordHash, user.Admin, user.Manager, formatTime(user.CreatedAt),
	)
	if isUniqueViolation(err) {
		return users.ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, username, password_hash, admin, manager, created_at FROM users WHERE username = ?", username)

	var (
		user      users.User
		createdAt string
	)
	err := row.Scan(&user.ID, &user.Name, &user.Username, &user.PasswordHash, &user.Admin, &user.Manager, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, users.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	user.CreatedAt = parseTime(createdAt)
	return &user, nil
}
