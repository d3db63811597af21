package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/eventpro/server/internal/domain/events"
	"github.com/eventpro/server/internal/domain/registrations"
	"github.com/eventpro/server/internal/domain/users"
	"github.com/stretchr/testify/require"
)

func TestUniqueness(t *testing.T) {
	store := New()
	ctx := context.Background()

	_, err := store.Users().Create(ctx, users.CreateParams{Email: "a@example.com"})
	require.NoError(t, err)
	_, err = store.Users().Create(ctx, users.CreateParams{Email: "a@example.com"})
	require.ErrorIs(t, err, users.ErrEmailTaken)

	params := registrations.CreateParams{EventID: "E", UserID: "U", Status: registrations.StatusConfirmed}
	_, err = store.Registrations().Insert(ctx, params)
	require.NoError(t, err)
	_, err = store.Registrations().Insert(ctx, params)
	require.ErrorIs(t, err, registrations.ErrAlreadyRegistered)
}

func TestOwnedWritesAndOrphans(t *testing.T) {
	store := New()
	ctx := context.Background()

	event, err := store.Events().Create(ctx, events.CreateParams{Title: "Gala", OrganizerID: "owner", MaxAttendees: 1, CreatedAt: time.Now()})
	require.NoError(t, err)

	title := "Renamed"
	_, err = store.Events().UpdateOwned(ctx, event.ID, "intruder", events.Patch{Title: &title}, time.Now())
	require.ErrorIs(t, err, events.ErrNotFoundOrUnauthorized)

	_, err = store.Registrations().InsertWithinCapacity(ctx, registrations.CreateParams{EventID: event.ID, UserID: "u1"})
	require.NoError(t, err)
	_, err = store.Registrations().InsertWithinCapacity(ctx, registrations.CreateParams{EventID: event.ID, UserID: "u2"})
	require.ErrorIs(t, err, registrations.ErrEventFull)

	require.NoError(t, store.Events().DeleteOwned(ctx, event.ID, "owner"))
	orphans, err := store.Registrations().CountOrphaned(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), orphans)

	require.NoError(t, store.Reset(ctx))
	orphans, err = store.Registrations().CountOrphaned(ctx)
	require.NoError(t, err)
	require.Zero(t, orphans)
}

func TestInsertWithinCapacityReadsCurrentCapacity(t *testing.T) {
	store := New()
	ctx := context.Background()

	event, err := store.Events().Create(ctx, events.CreateParams{Title: "Gala", OrganizerID: "owner", MaxAttendees: 3, CreatedAt: time.Now()})
	require.NoError(t, err)
	_, err = store.Registrations().InsertWithinCapacity(ctx, registrations.CreateParams{EventID: event.ID, UserID: "u1"})
	require.NoError(t, err)

	lowered := 1
	_, err = store.Events().UpdateOwned(ctx, event.ID, "owner", events.Patch{MaxAttendees: &lowered}, time.Now())
	require.NoError(t, err)

	_, err = store.Registrations().InsertWithinCapacity(ctx, registrations.CreateParams{EventID: event.ID, UserID: "u2"})
	require.ErrorIs(t, err, registrations.ErrEventFull)
}
