package mongo

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eventpro/server/internal/config"
	"github.com/eventpro/server/internal/domain/contacts"
	"github.com/eventpro/server/internal/domain/events"
	"github.com/eventpro/server/internal/domain/registrations"
	"github.com/eventpro/server/internal/domain/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newHex() string {
	return primitive.NewObjectID().Hex()
}

func TestOpenCreatesIndexes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping mongo integration test in short mode")
	}
	initShared(t)

	store, err := Open(context.Background(), config.StoreConfig{MongoURI: sharedURI, MongoDatabase: "eventpro_open"})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Ping(context.Background()))
	require.Equal(t, "mongo", store.Driver())
}

func TestUserRepository(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	created := insertUser(t, ctx, store, "ada@example.com")
	require.Len(t, created.ID, 24)

	_, err := store.Users().Create(ctx, users.CreateParams{Name: "Dup", Email: "ada@example.com", PasswordHash: "x", CreatedAt: time.Now()})
	require.ErrorIs(t, err, users.ErrEmailTaken)

	_, err = store.Users().GetByID(ctx, "not-hex")
	require.ErrorIs(t, err, users.ErrNotFound)

	name := "Ada L."
	require.NoError(t, store.Users().UpdateProfile(ctx, created.ID, users.ProfilePatch{Name: &name}, time.Now()))
	got, err := store.Users().GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Ada L.", got.Name)
	require.Equal(t, "ada@example.com", got.Email)
}

func TestEventRepository(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	owner := newHex()

	insertEvent(t, ctx, store, owner, "2026-12-01", events.StatusPublished, 10)
	draft := insertEvent(t, ctx, store, owner, "2026-11-01", events.StatusDraft, 10)
	insertEvent(t, ctx, store, newHex(), "2026-10-20", events.StatusPublished, 10)

	published, err := store.Events().ListPublished(ctx)
	require.NoError(t, err)
	require.Len(t, published, 2)
	require.Equal(t, "2026-10-20", published[0].Date)

	mine, err := store.Events().ListByOrganizer(ctx, owner)
	require.NoError(t, err)
	require.Len(t, mine, 2)

	status := events.StatusPublished
	_, err = store.Events().UpdateOwned(ctx, draft.ID, newHex(), events.Patch{Status: &status}, time.Now())
	require.ErrorIs(t, err, events.ErrNotFoundOrUnauthorized)

	updated, err := store.Events().UpdateOwned(ctx, draft.ID, owner, events.Patch{Status: &status}, time.Now())
	require.NoError(t, err)
	require.Equal(t, events.StatusPublished, updated.Status)
	require.Equal(t, owner, updated.OrganizerID)

	require.ErrorIs(t, store.Events().DeleteOwned(ctx, draft.ID, newHex()), events.ErrNotFoundOrUnauthorized)
	require.ErrorIs(t, store.Events().DeleteOwned(ctx, "zzz", owner), events.ErrNotFoundOrUnauthorized)
	require.NoError(t, store.Events().DeleteOwned(ctx, draft.ID, owner))

	_, err = store.Events().GetByID(ctx, draft.ID)
	require.ErrorIs(t, err, events.ErrNotFound)
}

func TestRegistrationCapacityScenario(t *testing.T) {
	for _, mode := range []string{registrations.ModeOptimistic, registrations.ModeAtomic} {
		t.Run(mode, func(t *testing.T) {
			store := setupStore(t)
			ctx := context.Background()
			event := insertEvent(t, ctx, store, newHex(), "2026-12-01", events.StatusPublished, 2)
			engine := registrations.NewEngine(store.Events(), store.Registrations(), mode, zerolog.Nop())
			a, b, c := newHex(), newHex(), newHex()

			_, err := engine.Register(ctx, event.ID, a)
			require.NoError(t, err)
			_, err = engine.Register(ctx, event.ID, b)
			require.NoError(t, err)
			_, err = engine.Register(ctx, event.ID, c)
			require.ErrorIs(t, err, registrations.ErrEventFull)
			_, err = engine.Register(ctx, event.ID, a)
			require.ErrorIs(t, err, registrations.ErrAlreadyRegistered)

			count, err := store.Registrations().CountByEvent(ctx, event.ID)
			require.NoError(t, err)
			require.Equal(t, int64(2), count)
		})
	}
}

func TestInsertWithinCapacityReleasesSeatOnDuplicate(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	event := insertEvent(t, ctx, store, newHex(), "2026-12-01", events.StatusPublished, 2)
	user := newHex()
	params := registrations.CreateParams{EventID: event.ID, UserID: user, Status: registrations.StatusConfirmed, RegisteredAt: time.Now()}

	_, err := store.Registrations().InsertWithinCapacity(ctx, params)
	require.NoError(t, err)

	_, err = store.Registrations().InsertWithinCapacity(ctx, params)
	require.ErrorIs(t, err, registrations.ErrAlreadyRegistered)

	// The released seat is still available to someone else.
	params.UserID = newHex()
	_, err = store.Registrations().InsertWithinCapacity(ctx, params)
	require.NoError(t, err)

	_, err = store.Registrations().InsertWithinCapacity(ctx, registrations.CreateParams{EventID: newHex(), UserID: user})
	require.ErrorIs(t, err, registrations.ErrEventNotFound)
}

func TestInsertRollsBackWhenSeatCounterFails(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	event := insertEvent(t, ctx, store, newHex(), "2026-12-01", events.StatusPublished, 2)
	user := newHex()
	params := registrations.CreateParams{EventID: event.ID, UserID: user, Status: registrations.StatusConfirmed, RegisteredAt: time.Now()}

	store.registrations.seats = func(context.Context, primitive.ObjectID, int) error {
		return errors.New("write conflict")
	}
	_, err := store.Registrations().Insert(ctx, params)
	require.ErrorContains(t, err, "write conflict")

	exists, err := store.Registrations().Exists(ctx, event.ID, user)
	require.NoError(t, err)
	require.False(t, exists)

	// A retry once the counter is reachable again is a fresh registration.
	store.registrations.seats = nil
	_, err = store.Registrations().Insert(ctx, params)
	require.NoError(t, err)
	require.Equal(t, int64(1), reservedSeats(t, ctx, store, event.ID))
}

func TestInsertWithinCapacityReadsStoredCapacity(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	organizer := newHex()
	event := insertEvent(t, ctx, store, organizer, "2026-12-01", events.StatusPublished, 3)
	params := registrations.CreateParams{EventID: event.ID, UserID: newHex(), Status: registrations.StatusConfirmed, RegisteredAt: time.Now()}

	_, err := store.Registrations().InsertWithinCapacity(ctx, params)
	require.NoError(t, err)

	lowered := 1
	_, err = store.Events().UpdateOwned(ctx, event.ID, organizer, events.Patch{MaxAttendees: &lowered}, time.Now())
	require.NoError(t, err)

	params.UserID = newHex()
	_, err = store.Registrations().InsertWithinCapacity(ctx, params)
	require.ErrorIs(t, err, registrations.ErrEventFull)
}

func TestSeatCounterBackfillForLegacyEvents(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	eventID := primitive.NewObjectID()
	_, err := store.db.Collection(eventsCollection).InsertOne(ctx, bson.M{
		"_id":          eventID,
		"title":        "Legacy meetup",
		"date":         "2026-12-01",
		"maxAttendees": 2,
		"status":       events.StatusPublished,
		"organizer_id": primitive.NewObjectID(),
	})
	require.NoError(t, err)
	_, err = store.db.Collection(registrationsCollection).InsertOne(ctx, bson.M{
		"event_id": eventID,
		"user_id":  primitive.NewObjectID(),
		"status":   registrations.StatusConfirmed,
	})
	require.NoError(t, err)

	updated, err := store.registrations.backfillSeats(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, updated)
	require.Equal(t, int64(1), reservedSeats(t, ctx, store, eventID.Hex()))

	updated, err = store.registrations.backfillSeats(ctx)
	require.NoError(t, err)
	require.Zero(t, updated)

	params := registrations.CreateParams{EventID: eventID.Hex(), UserID: newHex(), Status: registrations.StatusConfirmed, RegisteredAt: time.Now()}
	_, err = store.Registrations().InsertWithinCapacity(ctx, params)
	require.NoError(t, err)

	params.UserID = newHex()
	_, err = store.Registrations().InsertWithinCapacity(ctx, params)
	require.ErrorIs(t, err, registrations.ErrEventFull)
}

func TestInsertWithinCapacityTreatsMissingCounterAsZero(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	eventID := primitive.NewObjectID()
	_, err := store.db.Collection(eventsCollection).InsertOne(ctx, bson.M{
		"_id":          eventID,
		"maxAttendees": 1,
		"status":       events.StatusPublished,
	})
	require.NoError(t, err)

	params := registrations.CreateParams{EventID: eventID.Hex(), UserID: newHex(), Status: registrations.StatusConfirmed, RegisteredAt: time.Now()}
	_, err = store.Registrations().InsertWithinCapacity(ctx, params)
	require.NoError(t, err)
	require.Equal(t, int64(1), reservedSeats(t, ctx, store, eventID.Hex()))
}

func TestAtomicRegistrationNeverOverAdmits(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	event := insertEvent(t, ctx, store, newHex(), "2026-12-01", events.StatusPublished, 5)
	engine := registrations.NewEngine(store.Events(), store.Registrations(), registrations.ModeAtomic, zerolog.Nop())

	const workers = 50
	var (
		wg        sync.WaitGroup
		successes atomic.Int64
		full      atomic.Int64
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Register(ctx, event.ID, newHex())
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, registrations.ErrEventFull):
				full.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(5), successes.Load())
	require.Equal(t, int64(workers-5), full.Load())
}

func TestCascadeDeleteAndOrphans(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	owner := newHex()
	svc := events.NewService(store.Events(), store.Registrations(), zerolog.Nop())

	doomed := insertEvent(t, ctx, store, owner, "2026-12-01", events.StatusPublished, 10)
	kept := insertEvent(t, ctx, store, owner, "2026-12-02", events.StatusPublished, 10)
	for _, eventID := range []string{doomed.ID, doomed.ID, kept.ID} {
		_, err := store.Registrations().Insert(ctx, registrations.CreateParams{EventID: eventID, UserID: newHex(), Status: registrations.StatusConfirmed, RegisteredAt: time.Now()})
		require.NoError(t, err)
	}

	require.NoError(t, svc.Delete(ctx, doomed.ID, owner))
	count, err := store.Registrations().CountByEvent(ctx, doomed.ID)
	require.NoError(t, err)
	require.Zero(t, count)

	orphans, err := store.Registrations().CountOrphaned(ctx)
	require.NoError(t, err)
	require.Zero(t, orphans)

	require.NoError(t, store.Events().DeleteOwned(ctx, kept.ID, owner))
	orphans, err = store.Registrations().CountOrphaned(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), orphans)
}

func TestContactRepository(t *testing.T) {
	store := setupStore(t)

	saved, err := store.Contacts().Insert(context.Background(), contacts.Contact{Name: "Ada", Email: "ada@example.com", Message: "hi", Status: contacts.StatusNew, SubmittedAt: time.Now()})

	require.NoError(t, err)
	require.Len(t, saved.ID, 24)
}
