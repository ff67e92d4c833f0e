package postgres

import (
	"context"
	"fmt"

	"github.com/eventsignup/server/internal/domain/events"
	"github.com/eventsignup/server/internal/domain/registrations"
	"github.com/eventsignup/server/internal/domain/users"
	"github.com/eventsignup/server/internal/metrics"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository bundles the PostgreSQL-backed domain repositories.
type Repository struct {
	pool *pgxpool.Pool

	events        *EventRepository
	users         *UserRepository
	registrations *RegistrationRepository
}

func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool cannot be nil")
	}

	return &Repository{
		pool:          pool,
		events:        &EventRepository{pool: pool},
		users:         &UserRepository{pool: pool},
		registrations: &RegistrationRepository{pool: pool},
	}, nil
}

func (r *Repository) Events() events.Repository {
	return r.events
}

func (r *Repository) Users() users.Repository {
	return r.users
}

func (r *Repository) Registrations() registrations.Repository {
	return r.registrations
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) PoolStats() metrics.PoolStats {
	return metrics.PgxPoolStats(r.pool)
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}
