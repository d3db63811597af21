// Package ids mints and checks the ULID identifiers used by the relational
// store. Document stores bring their own identifier type and convert to
// strings at their boundary.
package ids

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var ErrInvalidULID = errors.New("invalid ULID")

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewULID generates a new ULID string. IDs minted in the same millisecond
// still sort in creation order.
func NewULID() (string, error) {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Normalize trims and upper-cases value and reports whether it is a ULID.
func Normalize(value string) (string, bool) {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	if _, err := ulid.ParseStrict(trimmed); err != nil {
		return "", false
	}
	return trimmed, true
}

// IsULID returns true when value is a valid ULID (case-insensitive Crockford Base32).
func IsULID(value string) bool {
	_, ok := Normalize(value)
	return ok
}

func ValidateULID(value string) error {
	if !IsULID(value) {
		return ErrInvalidULID
	}
	return nil
}
