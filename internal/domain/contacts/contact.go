// Package contacts accepts enquiries from the public contact form.
package contacts

import (
	"context"
	"fmt"
	"time"

	"github.com/eventpro/server/internal/sanitize"
	"github.com/eventpro/server/internal/validation"
	"github.com/rs/zerolog"
)

// StatusNew marks an enquiry nobody has followed up yet.
const StatusNew = "new"

type Contact struct {
	ID          string
	Name        string
	Email       string
	Phone       string
	EventType   string
	EventDate   string
	Message     string
	Status      string
	SubmittedAt time.Time
}

type Input struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"required"`
	Message   string `json:"message" validate:"required"`
	Phone     string `json:"phone"`
	EventType string `json:"eventType"`
	EventDate string `json:"eventDate"`
}

// Repository is append-only.
type Repository interface {
	Insert(ctx context.Context, contact Contact) (*Contact, error)
}

type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "contacts").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Submit stores an enquiry. Every free-text field is stripped of markup
// first and the required fields are checked on what is left, so a field
// made only of markup counts as missing.
func (s *Service) Submit(ctx context.Context, input Input) (*Contact, error) {
	sanitize.TextFields(&input.Name, &input.Email, &input.Phone,
		&input.EventType, &input.EventDate, &input.Message)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	contact := Contact{
		Name:        input.Name,
		Email:       input.Email,
		Phone:       input.Phone,
		EventType:   input.EventType,
		EventDate:   input.EventDate,
		Message:     input.Message,
		Status:      StatusNew,
		SubmittedAt: s.now(),
	}

	saved, err := s.repo.Insert(ctx, contact)
	if err != nil {
		return nil, fmt.Errorf("store contact: %w", err)
	}
	s.logger.Info().Str("contact_id", saved.ID).Msg("contact form submitted")
	return saved, nil
}
