package registrations

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrAlreadyRegistered = errors.New("already registered for this event")
	ErrEventFull         = errors.New("event is full")
)

// StatusConfirmed is the only status a registration currently takes.
const StatusConfirmed = "confirmed"

const (
	ModeOptimistic = "optimistic"
	ModeAtomic     = "atomic"
)

// Registration records one user's seat at one event. The (EventID, UserID)
// pair is unique.
type Registration struct {
	ID           string
	EventID      string
	UserID       string
	Status       string
	RegisteredAt time.Time
}

type CreateParams struct {
	EventID      string
	UserID       string
	Status       string
	RegisteredAt time.Time
}

// Repository is the registration ledger. Insert reports ErrAlreadyRegistered
// when the store's uniqueness constraint rejects the pair.
type Repository interface {
	Exists(ctx context.Context, eventID, userID string) (bool, error)
	CountByEvent(ctx context.Context, eventID string) (int64, error)
	Insert(ctx context.Context, params CreateParams) (*Registration, error)

	// InsertWithinCapacity inserts only while the event's registration count
	// is below its current capacity, as a single store-level decision. The
	// capacity is read by the store at decision time, so a concurrent
	// capacity change is honoured. It returns ErrEventFull when no seat is
	// left and ErrEventNotFound when the event disappeared in the meantime.
	InsertWithinCapacity(ctx context.Context, params CreateParams) (*Registration, error)

	DeleteByEvent(ctx context.Context, eventID string) (int64, error)

	// CountOrphaned counts registrations whose event no longer exists.
	CountOrphaned(ctx context.Context) (int64, error)
}
