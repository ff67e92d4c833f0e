package users

import (
	"context"
	"errors"
	"time"

	"github.com/eventsignup/server/internal/auth"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

type User struct {
	ID           string
	Name         string
	Username     string
	PasswordHash string
	Admin        bool
	Manager      bool
	CreatedAt    time.Time
}

// Role is the session role granted by the account flags.
func (u User) Role() auth.Role {
	return auth.RoleFor(u.Admin, u.Manager)
}

// Identity is what the session cookie carries for this user.
func (u User) Identity() auth.Identity {
	return auth.Identity{Username: u.Username, Name: u.Name, Role: u.Role()}
}

// Repository is implemented by the storage backends. Create returns
// ErrUsernameTaken on a duplicate username; GetByUsername returns ErrNotFound.
type Repository interface {
	Create(ctx context.Context, user User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
}
