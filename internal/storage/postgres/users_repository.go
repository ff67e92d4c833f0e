package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/eventsignup/server/internal/domain/users"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ users.Repository = (*UserRepository)(nil)

type UserRepository struct {
	pool *pgxpool.Pool
}

func (r *UserRepository) Create(ctx context.Context, user users.User) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO users (id, name, username, password_hash, admin, manager, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, user.ID, user.Name, user.Username, user.PasswordHash, user.Admin, user.Manager, user.CreatedAt)
	if uniqueConstraint(err) != "" {
		return users.ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id, name, username, password_hash, admin, manager, created_at
  FROM users
 WHERE username = $1
`, username)

	var user users.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Username,
		&user.PasswordHash,
		&user.Admin,
		&user.Manager,
		&user.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, users.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}
