// Package memstore is a process-local storage.Store. It enforces the same
// uniqueness and ownership rules as the database drivers and backs handler,
// router and command tests that do not need a container.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/eventpro/server/internal/domain/contacts"
	"github.com/eventpro/server/internal/domain/events"
	"github.com/eventpro/server/internal/domain/ids"
	"github.com/eventpro/server/internal/domain/registrations"
	"github.com/eventpro/server/internal/domain/users"
	"github.com/eventpro/server/internal/storage"
)

const DriverName = "memory"

var _ storage.Store = (*Store)(nil)

type Store struct {
	mu            sync.Mutex
	users         map[string]users.User
	events        map[string]events.Event
	registrations map[string]registrations.Registration
	contacts      []contacts.Contact

	// PingErr, when set, is returned by Ping.
	PingErr error
}

func New() *Store {
	s := &Store{}
	s.clear()
	return s
}

func (s *Store) clear() {
	s.users = map[string]users.User{}
	s.events = map[string]events.Event{}
	s.registrations = map[string]registrations.Registration{}
	s.contacts = nil
}

func (s *Store) Users() users.Repository                 { return userRepo{s} }
func (s *Store) Events() events.Repository               { return eventRepo{s} }
func (s *Store) Registrations() registrations.Repository { return registrationRepo{s} }
func (s *Store) Contacts() contacts.Repository           { return contactRepo{s} }

func (s *Store) Driver() string { return DriverName }

func (s *Store) Ping(context.Context) error { return s.PingErr }

func (s *Store) Reset(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
	return nil
}

func (s *Store) Close() {}

// ContactsSubmitted returns a copy of every stored enquiry.
func (s *Store) ContactsSubmitted() []contacts.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]contacts.Contact(nil), s.contacts...)
}

func newID() string {
	id, err := ids.NewULID()
	if err != nil {
		panic(err)
	}
	return id
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, p users.CreateParams) (*users.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == p.Email {
			return nil, users.ErrEmailTaken
		}
	}
	u := users.User{
		ID:           newID(),
		Name:         p.Name,
		Email:        p.Email,
		Phone:        p.Phone,
		PasswordHash: p.PasswordHash,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.CreatedAt,
	}
	r.s.users[u.ID] = u
	return &u, nil
}

func (r userRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[strings.ToUpper(strings.TrimSpace(id))]
	if !ok {
		return nil, users.ErrNotFound
	}
	return &u, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, users.ErrNotFound
}

func (r userRepo) UpdateProfile(_ context.Context, id string, patch users.ProfilePatch, updatedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := strings.ToUpper(strings.TrimSpace(id))
	u, ok := r.s.users[key]
	if !ok {
		return nil
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Phone != nil {
		u.Phone = *patch.Phone
	}
	u.UpdatedAt = updatedAt
	r.s.users[key] = u
	return nil
}

type eventRepo struct{ s *Store }

func (r eventRepo) Create(_ context.Context, p events.CreateParams) (*events.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e := events.Event{
		ID:           newID(),
		Title:        p.Title,
		Description:  p.Description,
		Date:         p.Date,
		Time:         p.Time,
		Location:     p.Location,
		Venue:        p.Venue,
		Category:     p.Category,
		Price:        p.Price,
		MaxAttendees: p.MaxAttendees,
		Image:        p.Image,
		Status:       p.Status,
		OrganizerID:  p.OrganizerID,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.CreatedAt,
	}
	r.s.events[e.ID] = e
	return &e, nil
}

func (r eventRepo) GetByID(_ context.Context, id string) (*events.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[strings.ToUpper(strings.TrimSpace(id))]
	if !ok {
		return nil, events.ErrNotFound
	}
	return &e, nil
}

func (r eventRepo) ListPublished(context.Context) ([]events.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []events.Event
	for _, e := range r.s.events {
		if e.Status == events.StatusPublished {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r eventRepo) ListByOrganizer(_ context.Context, organizerID string) ([]events.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []events.Event
	for _, e := range r.s.events {
		if e.OrganizerID == organizerID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r eventRepo) UpdateOwned(_ context.Context, id, organizerID string, patch events.Patch, updatedAt time.Time) (*events.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := strings.ToUpper(strings.TrimSpace(id))
	e, ok := r.s.events[key]
	if !ok || e.OrganizerID != organizerID {
		return nil, events.ErrNotFoundOrUnauthorized
	}
	patch.Apply(&e)
	e.UpdatedAt = updatedAt
	r.s.events[key] = e
	return &e, nil
}

func (r eventRepo) DeleteOwned(_ context.Context, id, organizerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := strings.ToUpper(strings.TrimSpace(id))
	e, ok := r.s.events[key]
	if !ok || e.OrganizerID != organizerID {
		return events.ErrNotFoundOrUnauthorized
	}
	delete(r.s.events, key)
	return nil
}

type registrationRepo struct{ s *Store }

func (r registrationRepo) Exists(_ context.Context, eventID, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.existsLocked(eventID, userID), nil
}

func (r registrationRepo) existsLocked(eventID, userID string) bool {
	for _, reg := range r.s.registrations {
		if reg.EventID == eventID && reg.UserID == userID {
			return true
		}
	}
	return false
}

func (r registrationRepo) CountByEvent(_ context.Context, eventID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.countLocked(strings.ToUpper(strings.TrimSpace(eventID))), nil
}

func (r registrationRepo) countLocked(eventID string) int64 {
	var n int64
	for _, reg := range r.s.registrations {
		if reg.EventID == eventID {
			n++
		}
	}
	return n
}

func (r registrationRepo) Insert(_ context.Context, p registrations.CreateParams) (*registrations.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.insertLocked(p)
}

func (r registrationRepo) insertLocked(p registrations.CreateParams) (*registrations.Registration, error) {
	if r.existsLocked(p.EventID, p.UserID) {
		return nil, registrations.ErrAlreadyRegistered
	}
	reg := registrations.Registration{
		ID:           newID(),
		EventID:      p.EventID,
		UserID:       p.UserID,
		Status:       p.Status,
		RegisteredAt: p.RegisteredAt,
	}
	r.s.registrations[reg.ID] = reg
	return &reg, nil
}

func (r registrationRepo) InsertWithinCapacity(_ context.Context, p registrations.CreateParams) (*registrations.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	event, ok := r.s.events[p.EventID]
	if !ok {
		return nil, registrations.ErrEventNotFound
	}
	if r.countLocked(p.EventID) >= int64(event.MaxAttendees) {
		return nil, registrations.ErrEventFull
	}
	return r.insertLocked(p)
}

func (r registrationRepo) DeleteByEvent(_ context.Context, eventID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	eventID = strings.ToUpper(strings.TrimSpace(eventID))
	var n int64
	for id, reg := range r.s.registrations {
		if reg.EventID == eventID {
			delete(r.s.registrations, id)
			n++
		}
	}
	return n, nil
}

func (r registrationRepo) CountOrphaned(context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, reg := range r.s.registrations {
		if _, ok := r.s.events[reg.EventID]; !ok {
			n++
		}
	}
	return n, nil
}

type contactRepo struct{ s *Store }

func (r contactRepo) Insert(_ context.Context, c contacts.Contact) (*contacts.Contact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = newID()
	r.s.contacts = append(r.s.contacts, c)
	return &c, nil
}
