package handlers

import (
	"time"

	"github.com/eventpro/server/internal/domain/events"
	"github.com/eventpro/server/internal/domain/users"
)

// userView never carries the password hash.
type userView struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newUserView(u *users.User) userView {
	return userView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type eventView struct {
	ID              string    `json:"_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Date            string    `json:"date"`
	Time            string    `json:"time"`
	Location        string    `json:"location"`
	Venue           string    `json:"venue"`
	Category        string    `json:"category"`
	Price           float64   `json:"price"`
	MaxAttendees    int       `json:"maxAttendees"`
	Image           string    `json:"image"`
	Status          string    `json:"status"`
	OrganizerID     string    `json:"organizer_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	RegisteredCount *int64    `json:"registeredCount,omitempty"`
}

func newEventView(e events.Event) eventView {
	return eventView{
		ID:           e.ID,
		Title:        e.Title,
		Description:  e.Description,
		Date:         e.Date,
		Time:         e.Time,
		Location:     e.Location,
		Venue:        e.Venue,
		Category:     e.Category,
		Price:        e.Price,
		MaxAttendees: e.MaxAttendees,
		Image:        e.Image,
		Status:       e.Status,
		OrganizerID:  e.OrganizerID,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func newCountedEventView(e events.CountedEvent) eventView {
	view := newEventView(e.Event)
	count := e.RegisteredCount
	view.RegisteredCount = &count
	return view
}
