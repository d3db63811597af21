// Package seed loads the demo data set: three accounts, six published events
// and four confirmed registrations.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/eventpro/server/internal/auth"
	"github.com/eventpro/server/internal/domain/events"
	"github.com/eventpro/server/internal/domain/registrations"
	"github.com/eventpro/server/internal/domain/users"
	"github.com/eventpro/server/internal/storage"
)

type account struct {
	name     string
	email    string
	phone    string
	password string
}

var accounts = []account{
	{name: "John Doe", email: "john@example.com", phone: "+1 (555) 123-4567", password: "password123"},
	{name: "Jane Smith", email: "jane@example.com", phone: "+1 (555) 987-6543", password: "password123"},
	{name: "EventPro Admin", email: "admin@eventpro.com", phone: "+1 (555) 555-5555", password: "admin123"},
}

type listing struct {
	title        string
	description  string
	daysAhead    int
	time         string
	location     string
	venue        string
	category     string
	price        float64
	maxAttendees int
	image        string
	organizer    int // index into accounts
}

var listings = []listing{
	{
		title:        "Tech Innovation Summit 2025",
		description:  "Join industry leaders and innovators for a day of cutting-edge technology discussions and networking. This premier event brings together the brightest minds in tech to explore the future of innovation.",
		daysAhead:    30,
		time:         "9:00 AM - 6:00 PM",
		location:     "San Francisco, CA",
		venue:        "Moscone Center",
		category:     "Conference",
		price:        299,
		maxAttendees: 500,
		image:        "https://images.pexels.com/photos/2833037/pexels-photo-2833037.jpeg?auto=compress&cs=tinysrgb&w=800",
		organizer:    2,
	},
	{
		title:        "Annual Corporate Gala",
		description:  "An elegant evening celebrating achievements and fostering corporate relationships. Join us for dinner, awards, and networking.",
		daysAhead:    45,
		time:         "7:00 PM - 11:00 PM",
		location:     "New York, NY",
		venue:        "Grand Ballroom",
		category:     "Corporate",
		price:        150,
		maxAttendees: 300,
		image:        "https://images.pexels.com/photos/1190298/pexels-photo-1190298.jpeg?auto=compress&cs=tinysrgb&w=800",
		organizer:    2,
	},
	{
		title:        "Startup Networking Event",
		description:  "Connect with fellow entrepreneurs and investors in the thriving startup ecosystem. Perfect for founders, investors, and startup enthusiasts.",
		daysAhead:    20,
		time:         "6:00 PM - 9:00 PM",
		location:     "Austin, TX",
		venue:        "Innovation Hub",
		category:     "Networking",
		price:        75,
		maxAttendees: 150,
		image:        "https://images.pexels.com/photos/3183197/pexels-photo-3183197.jpeg?auto=compress&cs=tinysrgb&w=800",
		organizer:    1,
	},
	{
		title:        "Digital Marketing Workshop",
		description:  "Master the latest digital marketing strategies and tools in this hands-on workshop. Learn from industry experts and get practical experience.",
		daysAhead:    60,
		time:         "10:00 AM - 4:00 PM",
		location:     "Los Angeles, CA",
		venue:        "Marketing Center",
		category:     "Workshop",
		price:        199,
		maxAttendees: 100,
		image:        "https://images.pexels.com/photos/3184465/pexels-photo-3184465.jpeg?auto=compress&cs=tinysrgb&w=800",
		organizer:    1,
	},
	{
		title:        "Leadership Excellence Conference",
		description:  "Develop leadership skills with renowned speakers and interactive sessions. Perfect for managers and aspiring leaders.",
		daysAhead:    75,
		time:         "8:00 AM - 5:00 PM",
		location:     "Chicago, IL",
		venue:        "Conference Center",
		category:     "Conference",
		price:        349,
		maxAttendees: 400,
		image:        "https://images.pexels.com/photos/3184338/pexels-photo-3184338.jpeg?auto=compress&cs=tinysrgb&w=800",
		organizer:    2,
	},
	{
		title:        "Summer Social Mixer",
		description:  "Unwind and network in a relaxed beachside setting with great food and music. Perfect for casual networking and fun.",
		daysAhead:    90,
		time:         "5:00 PM - 10:00 PM",
		location:     "Miami, FL",
		venue:        "Beachside Resort",
		category:     "Social",
		price:        89,
		maxAttendees: 200,
		image:        "https://images.pexels.com/photos/1774931/pexels-photo-1774931.jpeg?auto=compress&cs=tinysrgb&w=800",
		organizer:    0,
	},
}

// attendance pairs a listing index with an account index.
var attendance = [][2]int{{0, 0}, {0, 1}, {1, 0}, {2, 1}}

// Credential is a login that works against the seeded data.
type Credential struct {
	Email    string
	Password string
}

type Summary struct {
	Users         int
	Events        int
	Registrations int
	Credentials   []Credential
}

// Load wipes store and inserts the demo data. Event dates are relative to now.
func Load(ctx context.Context, store storage.Store, now time.Time) (Summary, error) {
	if err := store.Reset(ctx); err != nil {
		return Summary{}, fmt.Errorf("clear existing data: %w", err)
	}

	now = now.UTC()
	summary := Summary{}

	userIDs := make([]string, 0, len(accounts))
	for _, a := range accounts {
		hash, err := auth.HashPassword(a.password)
		if err != nil {
			return summary, fmt.Errorf("hash password for %s: %w", a.email, err)
		}
		user, err := store.Users().Create(ctx, users.CreateParams{
			Name:         a.name,
			Email:        a.email,
			Phone:        a.phone,
			PasswordHash: hash,
			CreatedAt:    now,
		})
		if err != nil {
			return summary, fmt.Errorf("create user %s: %w", a.email, err)
		}
		userIDs = append(userIDs, user.ID)
		summary.Users++
		summary.Credentials = append(summary.Credentials, Credential{Email: a.email, Password: a.password})
	}

	eventIDs := make([]string, 0, len(listings))
	for _, l := range listings {
		event, err := store.Events().Create(ctx, events.CreateParams{
			Title:        l.title,
			Description:  l.description,
			Date:         now.AddDate(0, 0, l.daysAhead).Format(time.DateOnly),
			Time:         l.time,
			Location:     l.location,
			Venue:        l.venue,
			Category:     l.category,
			Price:        l.price,
			MaxAttendees: l.maxAttendees,
			Image:        l.image,
			Status:       events.StatusPublished,
			OrganizerID:  userIDs[l.organizer],
			CreatedAt:    now,
		})
		if err != nil {
			return summary, fmt.Errorf("create event %q: %w", l.title, err)
		}
		eventIDs = append(eventIDs, event.ID)
		summary.Events++
	}

	for _, pair := range attendance {
		_, err := store.Registrations().Insert(ctx, registrations.CreateParams{
			EventID:      eventIDs[pair[0]],
			UserID:       userIDs[pair[1]],
			Status:       registrations.StatusConfirmed,
			RegisteredAt: now,
		})
		if err != nil {
			return summary, fmt.Errorf("create registration: %w", err)
		}
		summary.Registrations++
	}

	return summary, nil
}
