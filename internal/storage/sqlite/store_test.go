package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/eventsignup/server/internal/domain/events"
	"github.com/eventsignup/server/internal/domain/ids"
	"github.com/eventsignup/server/internal/domain/registrations"
	"github.com/eventsignup/server/internal/domain/users"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newEvent(t *testing.T, name, slug string) events.Event {
	t.Helper()
	id, err := ids.NewULID()
	require.NoError(t, err)
	now := time.Now().UTC()
	return events.Event{ID: id, Name: name, Slug: slug, CreatedAt: now, UpdatedAt: now}
}

func TestEventStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := openTestStore(t).Events()

	event := newEvent(t, "Jazz Night", "jazz-night")
	event.Description = "Bring a friend"
	require.NoError(t, repo.Create(ctx, event))

	got, err := repo.GetBySlug(ctx, "jazz-night")
	require.NoError(t, err)
	require.Equal(t, "Jazz Night", got.Name)
	require.Equal(t, "Bring a friend", got.Description)
	require.Empty(t, got.CreatedBy)
	require.WithinDuration(t, event.CreatedAt, got.CreatedAt, time.Millisecond)

	_, err = repo.GetByName(ctx, "jazz night")
	require.ErrorIs(t, err, events.ErrNotFound)
}

func TestEventStoreUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := openTestStore(t).Events()

	require.NoError(t, repo.Create(ctx, newEvent(t, "Jazz Night", "jazz-night")))

	err := repo.Create(ctx, newEvent(t, "Jazz Night!", "jazz-night"))
	require.ErrorIs(t, err, events.ErrConflict)

	other := newEvent(t, "Blues", "blues")
	require.NoError(t, repo.Create(ctx, other))
	other.Name = "Jazz Night"
	other.Slug = "jazz-night"
	require.ErrorIs(t, repo.Update(ctx, other), events.ErrConflict)
}

func TestEventStoreUpdateAndDeleteMissing(t *testing.T) {
	ctx := context.Background()
	repo := openTestStore(t).Events()

	ghost := newEvent(t, "Ghost", "ghost")
	require.ErrorIs(t, repo.Update(ctx, ghost), events.ErrNotFound)
	require.ErrorIs(t, repo.Delete(ctx, ghost.ID), events.ErrNotFound)
}

func TestEventStoreListPaging(t *testing.T) {
	ctx := context.Background()
	repo := openTestStore(t).Events()

	list, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)

	for _, name := range []string{"one", "two", "three"} {
		require.NoError(t, repo.Create(ctx, newEvent(t, name, name)))
	}

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, count)

	list, err = repo.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "one", list[0].Slug)

	list, err = repo.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "three", list[0].Slug)
}

func TestUserStore(t *testing.T) {
	ctx := context.Background()
	repo := openTestStore(t).Users()

	user := users.User{
		ID:           ids.NewUUID(),
		Name:         "Alice",
		Username:     "alice",
		PasswordHash: "hash",
		Admin:        true,
		Manager:      true,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, user))

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.True(t, got.Admin)
	require.True(t, got.Manager)
	require.Equal(t, "hash", got.PasswordHash)

	user.ID = ids.NewUUID()
	require.ErrorIs(t, repo.Create(ctx, user), users.ErrUsernameTaken)

	_, err = repo.GetByUsername(ctx, "nobody")
	require.ErrorIs(t, err, users.ErrNotFound)
}

func TestRegistrationsCascadeOnEventDelete(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	event := newEvent(t, "Jazz Night", "jazz-night")
	require.NoError(t, store.Events().Create(ctx, event))

	for i := 0; i < 2; i++ {
		id, err := ids.NewULID()
		require.NoError(t, err)
		require.NoError(t, store.Registrations().Create(ctx, registrations.Registration{
			ID: id, EventID: event.ID, Name: "Ann", Comment: "hi", CreatedAt: time.Now().UTC(),
		}))
	}

	count, err := store.Registrations().CountByEvent(ctx, event.ID)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	require.NoError(t, store.Events().Delete(ctx, event.ID))

	list, err := store.Registrations().ListByEvent(ctx, event.ID)
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)
}

func TestRegistrationRequiresEvent(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	id, err := ids.NewULID()
	require.NoError(t, err)
	err = store.Registrations().Create(ctx, registrations.Registration{
		ID: id, EventID: "missing", Name: "Ann", CreatedAt: time.Now().UTC(),
	})
	require.Error(t, err)
}

func TestOpenFileReappliesSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "events.db")

	store, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Events().Create(ctx, newEvent(t, "Kept", "kept")))
	require.NoError(t, store.Close())

	store, err = Open(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Events().GetBySlug(ctx, "kept")
	require.NoError(t, err)
	require.Equal(t, "Kept", got.Name)
	require.NoError(t, store.Ping(ctx))
}
