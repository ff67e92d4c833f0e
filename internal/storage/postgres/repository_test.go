package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/eventsignup/server/internal/domain/events"
	"github.com/eventsignup/server/internal/domain/ids"
	"github.com/eventsignup/server/internal/domain/registrations"
	"github.com/eventsignup/server/internal/domain/users"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	pool, _ := setupPostgres(t)
	repo, err := NewRepository(pool)
	require.NoError(t, err)
	return repo
}

func testEvent(t *testing.T, name, slug string) events.Event {
	t.Helper()
	id, err := ids.NewULID()
	require.NoError(t, err)
	now := time.Now().UTC().Truncate(time.Microsecond)
	return events.Event{ID: id, Name: name, Slug: slug, Description: "desc", CreatedAt: now, UpdatedAt: now}
}

func TestEventRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t).Events()

	event := testEvent(t, "Jazz Night", "jazz-night")
	event.CreatedBy = "alice"
	require.NoError(t, repo.Create(ctx, event))

	got, err := repo.GetBySlug(ctx, "jazz-night")
	require.NoError(t, err)
	require.Equal(t, event.ID, got.ID)
	require.Equal(t, "alice", got.CreatedBy)

	got, err = repo.GetByName(ctx, "Jazz Night")
	require.NoError(t, err)
	require.Equal(t, event.ID, got.ID)

	event.Name = "Jazz Evening"
	event.Slug = "jazz-evening"
	require.NoError(t, repo.Update(ctx, event))

	_, err = repo.GetBySlug(ctx, "jazz-night")
	require.ErrorIs(t, err, events.ErrNotFound)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.NoError(t, repo.Delete(ctx, event.ID))
	_, err = repo.GetByID(ctx, event.ID)
	require.ErrorIs(t, err, events.ErrNotFound)
	require.ErrorIs(t, repo.Delete(ctx, event.ID), events.ErrNotFound)
}

func TestEventRepositoryConflict(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t).Events()

	require.NoError(t, repo.Create(ctx, testEvent(t, "Jazz Night", "jazz-night")))
	err := repo.Create(ctx, testEvent(t, "Jazz  Night", "jazz-night"))
	require.ErrorIs(t, err, events.ErrConflict)
}

func TestEventRepositoryListPaging(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t).Events()

	empty, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)

	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Create(ctx, testEvent(t, name, name)))
	}

	page, err := repo.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "c", page[0].Slug)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t).Users()

	user := users.User{
		ID:           ids.NewUUID(),
		Name:         "Alice",
		Username:     "alice",
		PasswordHash: "hash",
		Manager:      true,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, user))

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.True(t, got.Manager)
	require.False(t, got.Admin)

	user.ID = ids.NewUUID()
	require.ErrorIs(t, repo.Create(ctx, user), users.ErrUsernameTaken)

	_, err = repo.GetByUsername(ctx, "bob")
	require.ErrorIs(t, err, users.ErrNotFound)
}

func TestRegistrationRepositoryCascade(t *testing.T) {
	ctx := context.Background()
	store := newTestRepository(t)

	event := testEvent(t, "Jazz Night", "jazz-night")
	require.NoError(t, store.Events().Create(ctx, event))

	for _, name := range []string{"Ann", "Ann"} {
		id, err := ids.NewULID()
		require.NoError(t, err)
		require.NoError(t, store.Registrations().Create(ctx, registrations.Registration{
			ID: id, EventID: event.ID, Name: name, Comment: "see you", CreatedAt: time.Now().UTC(),
		}))
	}

	list, err := store.Registrations().ListByEvent(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.NoError(t, store.Events().Delete(ctx, event.ID))
	count, err := store.Registrations().CountByEvent(ctx, event.ID)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestMigrationVersion(t *testing.T) {
	_, dbURL := setupPostgres(t)

	version, dirty, err := MigrationVersion(dbURL)
	require.NoError(t, err)
	require.False(t, dirty)
	require.EqualValues(t, 1, version)
}
