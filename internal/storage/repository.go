package storage

import (
	"context"

	"github.com/eventpro/server/internal/domain/contacts"
	"github.com/eventpro/server/internal/domain/events"
	"github.com/eventpro/server/internal/domain/registrations"
	"github.com/eventpro/server/internal/domain/users"
)

// Store groups data access by domain. Both the Postgres and the Mongo
// drivers implement it.
type Store interface {
	Users() users.Repository
	Events() events.Repository
	Registrations() registrations.Repository
	Contacts() contacts.Repository

	// Driver names the backing engine ("postgres" or "mongo").
	Driver() string
	Ping(ctx context.Context) error

	// Reset removes every stored document or row. Only the seed command
	// calls it.
	Reset(ctx context.Context) error

	Close()
}
