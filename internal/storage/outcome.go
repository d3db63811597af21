package storage

import (
	"errors"

	"github.com/eventpro/server/internal/domain/events"
	"github.com/eventpro/server/internal/domain/registrations"
	"github.com/eventpro/server/internal/domain/users"
)

var domainOutcomes = []error{
	users.ErrNotFound,
	users.ErrEmailTaken,
	events.ErrNotFound,
	events.ErrNotFoundOrUnauthorized,
	registrations.ErrEventNotFound,
	registrations.ErrAlreadyRegistered,
	registrations.ErrEventFull,
}

// IsDomainOutcome reports whether err is a sentinel a repository returns on
// purpose, as opposed to a failure of the store itself.
func IsDomainOutcome(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range domainOutcomes {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
