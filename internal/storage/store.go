package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/eventsignup/server/internal/domain/events"
	"github.com/eventsignup/server/internal/domain/registrations"
	"github.com/eventsignup/server/internal/domain/users"
	"github.com/eventsignup/server/internal/metrics"
	"github.com/eventsignup/server/internal/storage/postgres"
	"github.com/eventsignup/server/internal/storage/sqlite"
)

// Store groups data access by domain.
type Store interface {
	Events() events.Repository
	Users() users.Repository
	Registrations() registrations.Repository

	Ping(ctx context.Context) error
	PoolStats() metrics.PoolStats
	Close() error
}

const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Backend names the storage implementation selected by a DATABASE_URL.
func Backend(databaseURL string) (string, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return BackendPostgres, nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return BackendSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database url scheme in %q", redact(databaseURL))
	}
}

// Open connects to the backend named by the URL scheme. Postgres schemas
// are managed with `server migrate`; SQLite applies its schema on open.
func Open(ctx context.Context, databaseURL string, maxConns int) (Store, error) {
	backend, err := Backend(databaseURL)
	if err != nil {
		return nil, err
	}

	switch backend {
	case BackendPostgres:
		pool, err := postgres.Open(ctx, databaseURL, maxConns)
		if err != nil {
			return nil, err
		}
		repo, err := postgres.NewRepository(pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return repo, nil
	default:
		store, err := sqlite.Open(ctx, strings.TrimPrefix(databaseURL, "sqlite://"))
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

func redact(databaseURL string) string {
	if i := strings.Index(databaseURL, "@"); i >= 0 {
		if j := strings.Index(databaseURL, "://"); j >= 0 && j < i {
			return databaseURL[:j+3] + "***" + databaseURL[i:]
		}
	}
	return databaseURL
}
