package events

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by read paths where ownership is not involved.
	ErrNotFound = errors.New("event not found")
	// ErrNotFoundOrUnauthorized is the single failure for mutations filtered
	// by id and organizer. It never reveals whether the event exists.
	ErrNotFoundOrUnauthorized = errors.New("event not found or unauthorized")
)

type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Event, error)
	GetByID(ctx context.Context, id string) (*Event, error)
	// ListPublished returns published events ordered by date ascending.
	ListPublished(ctx context.Context) ([]Event, error)
	// ListByOrganizer returns the organizer's events, newest first.
	ListByOrganizer(ctx context.Context, organizerID string) ([]Event, error)
	// UpdateOwned applies patch in one write filtered by id and organizer and
	// returns the updated event, or ErrNotFoundOrUnauthorized.
	UpdateOwned(ctx context.Context, id, organizerID string, patch Patch, updatedAt time.Time) (*Event, error)
	// DeleteOwned removes the event in one write filtered by id and organizer,
	// or returns ErrNotFoundOrUnauthorized.
	DeleteOwned(ctx context.Context, id, organizerID string) error
}

// RegistrationLedger is the slice of the registration store the event
// service needs: counts for listings and the cascade purge.
type RegistrationLedger interface {
	CountByEvent(ctx context.Context, eventID string) (int64, error)
	DeleteByEvent(ctx context.Context, eventID string) (int64, error)
}
