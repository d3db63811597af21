package events

import "time"

const (
	StatusDraft     = "draft"
	StatusPublished = "published"

	DefaultCategory     = "Event"
	DefaultMaxAttendees = 100
)

// Event is an organizer-owned happening that users can register for.
// OrganizerID is set once at creation from the authenticated caller.
type Event struct {
	ID           string
	Title        string
	Description  string
	Date         string
	Time         string
	Location     string
	Venue        string
	Category     string
	Price        float64
	MaxAttendees int
	Image        string
	Status       string
	OrganizerID  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CountedEvent is an event together with its current registration count.
type CountedEvent struct {
	Event
	RegisteredCount int64
}

// CreateInput is the create-event payload. Pointer fields distinguish
// "absent" (default applies) from an explicit zero value.
type CreateInput struct {
	Title        string   `json:"title" validate:"required"`
	Description  string   `json:"description" validate:"required"`
	Date         string   `json:"date" validate:"required"`
	Time         string   `json:"time" validate:"required"`
	Location     string   `json:"location" validate:"required"`
	Venue        string   `json:"venue"`
	Category     *string  `json:"category"`
	Price        *float64 `json:"price" validate:"omitempty,gte=0"`
	MaxAttendees *int     `json:"maxAttendees" validate:"omitempty,gte=0"`
	Image        string   `json:"image"`
	Status       *string  `json:"status" validate:"omitempty,oneof=draft published"`
}

// Patch is the update allow-list. Anything not listed here, organizer_id
// included, is dropped while decoding.
type Patch struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	Date         *string  `json:"date"`
	Time         *string  `json:"time"`
	Location     *string  `json:"location"`
	Venue        *string  `json:"venue"`
	Category     *string  `json:"category"`
	Price        *float64 `json:"price" validate:"omitempty,gte=0"`
	MaxAttendees *int     `json:"maxAttendees" validate:"omitempty,gte=0"`
	Image        *string  `json:"image"`
	Status       *string  `json:"status" validate:"omitempty,oneof=draft published"`
}

// CreateParams is a fully defaulted event ready to persist.
type CreateParams struct {
	Title        string
	Description  string
	Date         string
	Time         string
	Location     string
	Venue        string
	Category     string
	Price        float64
	MaxAttendees int
	Image        string
	Status       string
	OrganizerID  string
	CreatedAt    time.Time
}

// Apply copies the supplied patch fields onto e. Stores that cannot express
// a partial update natively use it to build the replacement row.
func (p Patch) Apply(e *Event) {
	setString(&e.Title, p.Title)
	setString(&e.Description, p.Description)
	setString(&e.Date, p.Date)
	setString(&e.Time, p.Time)
	setString(&e.Location, p.Location)
	setString(&e.Venue, p.Venue)
	setString(&e.Category, p.Category)
	setString(&e.Image, p.Image)
	setString(&e.Status, p.Status)
	if p.Price != nil {
		e.Price = *p.Price
	}
	if p.MaxAttendees != nil {
		e.MaxAttendees = *p.MaxAttendees
	}
}

func setString(dst *string, value *string) {
	if value != nil {
		*dst = *value
	}
}
