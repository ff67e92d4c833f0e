package postgres

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// testDatabaseEnv points the tests at an existing server instead of a
// container.
const testDatabaseEnv = "EVENTSIGNUP_TEST_DATABASE_URL"

// testDB is started once per package run and truncated before each test.
var testDB struct {
	once sync.Once
	err  error
	url  string
	pool *pgxpool.Pool
}

func TestMain(m *testing.M) {
	code := m.Run()
	if testDB.pool != nil {
		testDB.pool.Close()
	}
	os.Exit(code)
}

func setupPostgres(t *testing.T) (*pgxpool.Pool, string) {
	t.Helper()

	url := os.Getenv(testDatabaseEnv)
	if url == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)
	}

	testDB.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		testDB.err = startTestDB(ctx, t, url)
	})
	require.NoError(t, testDB.err)

	truncateAll(t, testDB.pool)
	return testDB.pool, testDB.url
}

func startTestDB(ctx context.Context, t *testing.T, url string) error {
	if url == "" {
		container, err := postgres.Run(ctx, "postgres:16-alpine",
			postgres.WithDatabase("eventsignup"),
			postgres.WithUsername("eventsignup"),
			postgres.WithPassword("eventsignup"),
			postgres.BasicWaitStrategies(),
			testcontainers.WithReuseByName("eventsignup-storage-db"),
		)
		if err != nil {
			return fmt.Errorf("start postgres container: %w", err)
		}
		if port, err := container.MappedPort(ctx, nat.Port("5432/tcp")); err == nil {
			t.Logf("postgres test container on localhost:%s", port.Port())
		}
		if url, err = container.ConnectionString(ctx, "sslmode=disable"); err != nil {
			return fmt.Errorf("container connection string: %w", err)
		}
	}
	testDB.url = url

	// The container can accept connections a moment before migrations succeed.
	var err error
	for attempt := 0; attempt < 20; attempt++ {
		if err = MigrateUp(url); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		return fmt.Errorf("migrate test database: %w", err)
	}

	testDB.pool, err = Open(ctx, url, 5)
	return err
}

func truncateAll(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := pool.Exec(ctx, "TRUNCATE TABLE registrations, events, users RESTART IDENTITY CASCADE")
	require.NoError(t, err)
}
