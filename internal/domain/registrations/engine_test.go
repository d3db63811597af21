package registrations

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/eventpro/server/internal/domain/events"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type stubFinder struct {
	events map[string]*events.Event
	err    error
}

func (f stubFinder) GetByID(_ context.Context, id string) (*events.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	event, ok := f.events[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	copied := *event
	return &copied, nil
}

// memoryLedger keeps registrations in a slice. countDelay widens the gap
// between the capacity read and the insert so optimistic races show up.
// capacity is the ledger's own view of each event's seat limit, which is
// what InsertWithinCapacity decides against.
type memoryLedger struct {
	mu         sync.Mutex
	items      []Registration
	seq        int
	capacity   map[string]int
	countDelay time.Duration
	existsErr  error
}

func (l *memoryLedger) Exists(_ context.Context, eventID, userID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.existsErr != nil {
		return false, l.existsErr
	}
	for _, r := range l.items {
		if r.EventID == eventID && r.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (l *memoryLedger) CountByEvent(_ context.Context, eventID string) (int64, error) {
	l.mu.Lock()
	n := l.countLocked(eventID)
	l.mu.Unlock()
	if l.countDelay > 0 {
		time.Sleep(l.countDelay)
	}
	return n, nil
}

func (l *memoryLedger) countLocked(eventID string) int64 {
	var n int64
	for _, r := range l.items {
		if r.EventID == eventID {
			n++
		}
	}
	return n
}

func (l *memoryLedger) Insert(_ context.Context, params CreateParams) (*Registration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.insertLocked(params)
}

func (l *memoryLedger) insertLocked(params CreateParams) (*Registration, error) {
	for _, r := range l.items {
		if r.EventID == params.EventID && r.UserID == params.UserID {
			return nil, ErrAlreadyRegistered
		}
	}
	l.seq++
	reg := Registration{
		ID:           fmt.Sprintf("reg-%d", l.seq),
		EventID:      params.EventID,
		UserID:       params.UserID,
		Status:       params.Status,
		RegisteredAt: params.RegisteredAt,
	}
	l.items = append(l.items, reg)
	return &reg, nil
}

func (l *memoryLedger) InsertWithinCapacity(_ context.Context, params CreateParams) (*Registration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	maxAttendees, ok := l.capacity[params.EventID]
	if !ok {
		return nil, ErrEventNotFound
	}
	if l.countLocked(params.EventID) >= int64(maxAttendees) {
		return nil, ErrEventFull
	}
	return l.insertLocked(params)
}

func (l *memoryLedger) DeleteByEvent(_ context.Context, eventID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.items[:0]
	var removed int64
	for _, r := range l.items {
		if r.EventID == eventID {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	l.items = kept
	return removed, nil
}

func (l *memoryLedger) CountOrphaned(context.Context) (int64, error) {
	return 0, nil
}

func newEngine(mode string, maxAttendees int) (*Engine, *memoryLedger) {
	finder := stubFinder{events: map[string]*events.Event{
		"evt-1": {ID: "evt-1", MaxAttendees: maxAttendees, Status: events.StatusPublished},
	}}
	ledger := &memoryLedger{capacity: map[string]int{"evt-1": maxAttendees}}
	return NewEngine(finder, ledger, mode, zerolog.Nop()), ledger
}

func TestRegisterCapacityScenario(t *testing.T) {
	for _, mode := range []string{ModeOptimistic, ModeAtomic} {
		t.Run(mode, func(t *testing.T) {
			engine, ledger := newEngine(mode, 2)
			ctx := context.Background()

			reg, err := engine.Register(ctx, "evt-1", "user-a")
			require.NoError(t, err)
			require.Equal(t, StatusConfirmed, reg.Status)
			require.Equal(t, "evt-1", reg.EventID)
			require.False(t, reg.RegisteredAt.IsZero())

			_, err = engine.Register(ctx, "evt-1", "user-b")
			require.NoError(t, err)
			count, err := ledger.CountByEvent(ctx, "evt-1")
			require.NoError(t, err)
			require.Equal(t, int64(2), count)

			_, err = engine.Register(ctx, "evt-1", "user-c")
			require.ErrorIs(t, err, ErrEventFull)

			_, err = engine.Register(ctx, "evt-1", "user-a")
			require.ErrorIs(t, err, ErrAlreadyRegistered)

			require.Len(t, ledger.items, 2)
		})
	}
}

func TestRegisterUnknownEvent(t *testing.T) {
	engine, ledger := newEngine(ModeOptimistic, 10)

	_, err := engine.Register(context.Background(), "missing", "user-a")

	require.ErrorIs(t, err, ErrEventNotFound)
	require.Empty(t, ledger.items)
}

func TestRegisterDuplicateReportedBeforeFull(t *testing.T) {
	engine, _ := newEngine(ModeOptimistic, 1)
	ctx := context.Background()

	_, err := engine.Register(ctx, "evt-1", "user-a")
	require.NoError(t, err)

	_, err = engine.Register(ctx, "evt-1", "user-a")
	require.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestAtomicModeUsesCapacityAtDecisionTime(t *testing.T) {
	engine, ledger := newEngine(ModeAtomic, 2)
	ctx := context.Background()

	_, err := engine.Register(ctx, "evt-1", "user-a")
	require.NoError(t, err)

	// The organizer cuts capacity to one after the engine has read two.
	ledger.mu.Lock()
	ledger.capacity["evt-1"] = 1
	ledger.mu.Unlock()

	_, err = engine.Register(ctx, "evt-1", "user-b")
	require.ErrorIs(t, err, ErrEventFull)
	require.Len(t, ledger.items, 1)
}

func TestRegisterZeroCapacityIsFull(t *testing.T) {
	for _, mode := range []string{ModeOptimistic, ModeAtomic} {
		engine, ledger := newEngine(mode, 0)

		_, err := engine.Register(context.Background(), "evt-1", "user-a")

		require.ErrorIs(t, err, ErrEventFull, mode)
		require.Empty(t, ledger.items)
	}
}

func TestRegisterWrapsStoreErrors(t *testing.T) {
	engine, ledger := newEngine(ModeOptimistic, 5)
	ledger.existsErr = errors.New("socket closed")

	_, err := engine.Register(context.Background(), "evt-1", "user-a")

	require.ErrorContains(t, err, "socket closed")
	require.False(t, isDomainError(err))

	finderErr := NewEngine(stubFinder{err: errors.New("timeout")}, &memoryLedger{}, ModeAtomic, zerolog.Nop())
	_, err = finderErr.Register(context.Background(), "evt-1", "user-a")
	require.ErrorContains(t, err, "timeout")
}

func TestNewEngineDefaultsToOptimistic(t *testing.T) {
	engine := NewEngine(stubFinder{}, &memoryLedger{}, "", zerolog.Nop())
	require.Equal(t, ModeOptimistic, engine.Mode())

	engine = NewEngine(stubFinder{}, &memoryLedger{}, ModeAtomic, zerolog.Nop())
	require.Equal(t, ModeAtomic, engine.Mode())
}

func TestAtomicModeNeverOverAdmits(t *testing.T) {
	engine, ledger := newEngine(ModeAtomic, 3)
	ledger.countDelay = time.Millisecond

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = engine.Register(context.Background(), "evt-1", fmt.Sprintf("user-%d", i))
		}(i)
	}
	wg.Wait()

	require.Len(t, ledger.items, 3)
}

func TestOutcomeLabels(t *testing.T) {
	require.Equal(t, "confirmed", outcomeOf(nil))
	require.Equal(t, "event_not_found", outcomeOf(ErrEventNotFound))
	require.Equal(t, "already_registered", outcomeOf(fmt.Errorf("wrap: %w", ErrAlreadyRegistered)))
	require.Equal(t, "event_full", outcomeOf(ErrEventFull))
	require.Equal(t, "error", outcomeOf(errors.New("boom")))
}
