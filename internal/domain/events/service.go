package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eventpro/server/internal/metrics"
	"github.com/eventpro/server/internal/validation"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/eventpro/server/internal/domain/events"

// countConcurrency bounds the registration counts fetched in parallel when
// listing an organizer's events.
const countConcurrency = 8

type Service struct {
	repo          Repository
	registrations RegistrationLedger
	logger        zerolog.Logger
	now           func() time.Time
}

func NewService(repo Repository, registrations RegistrationLedger, logger zerolog.Logger) *Service {
	return &Service{
		repo:          repo,
		registrations: registrations,
		logger:        logger.With().Str("component", "events").Logger(),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new event owned by organizerID. The organizer never comes
// from the payload.
func (s *Service) Create(ctx context.Context, organizerID string, input CreateInput) (*Event, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	params := CreateParams{
		Title:        input.Title,
		Description:  input.Description,
		Date:         input.Date,
		Time:         input.Time,
		Location:     input.Location,
		Venue:        input.Venue,
		Category:     DefaultCategory,
		MaxAttendees: DefaultMaxAttendees,
		Image:        input.Image,
		Status:       StatusDraft,
		OrganizerID:  organizerID,
		CreatedAt:    s.now(),
	}
	if input.Category != nil {
		params.Category = *input.Category
	}
	if input.Price != nil {
		params.Price = *input.Price
	}
	if input.MaxAttendees != nil {
		params.MaxAttendees = *input.MaxAttendees
	}
	if input.Status != nil {
		params.Status = *input.Status
	}

	event, err := s.repo.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.log(ctx).Info().Str("event_id", event.ID).Str("organizer_id", organizerID).Msg("event created")
	return event, nil
}

func (s *Service) ListPublished(ctx context.Context) ([]Event, error) {
	items, err := s.repo.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("list published events: %w", err)
	}
	return items, nil
}

// Get returns any event by id, drafts included, with its registration count.
func (s *Service) Get(ctx context.Context, id string) (*CountedEvent, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	count, err := s.registrations.CountByEvent(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}
	return &CountedEvent{Event: *event, RegisteredCount: count}, nil
}

// ListByOrganizer returns the caller's own events, newest first, each with
// its registration count.
func (s *Service) ListByOrganizer(ctx context.Context, organizerID string) ([]CountedEvent, error) {
	items, err := s.repo.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("list organizer events: %w", err)
	}

	counted := make([]CountedEvent, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(countConcurrency)
	for i := range items {
		counted[i].Event = items[i]
		g.Go(func() error {
			count, err := s.registrations.CountByEvent(gctx, items[i].ID)
			if err != nil {
				return fmt.Errorf("count registrations for %s: %w", items[i].ID, err)
			}
			counted[i].RegisteredCount = count
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counted, nil
}

// Update applies the allow-listed patch fields when callerID organizes the
// event. The ownership check and the write are one filtered store call.
func (s *Service) Update(ctx context.Context, id, callerID string, patch Patch) (*Event, error) {
	if err := validation.Struct(patch); err != nil {
		return nil, err
	}

	event, err := s.repo.UpdateOwned(ctx, id, callerID, patch, s.now())
	if err != nil {
		if errors.Is(err, ErrNotFoundOrUnauthorized) {
			return nil, ErrNotFoundOrUnauthorized
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

// Delete removes an owned event and then every registration that references
// it. The two writes are not atomic: if the purge fails the event is already
// gone, so the failure is logged and counted instead of returned.
func (s *Service) Delete(ctx context.Context, id, callerID string) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "events.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", id))

	if err := s.repo.DeleteOwned(ctx, id, callerID); err != nil {
		if errors.Is(err, ErrNotFoundOrUnauthorized) {
			span.SetStatus(codes.Error, "not found or unauthorized")
			return ErrNotFoundOrUnauthorized
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return fmt.Errorf("delete event: %w", err)
	}

	purged, err := s.registrations.DeleteByEvent(ctx, id)
	if err != nil {
		metrics.CascadeOrphansTotal.Inc()
		span.RecordError(err)
		s.log(ctx).Error().Err(err).
			Str("event_id", id).
			Str("organizer_id", callerID).
			Msg("event deleted but registration purge failed; registrations are orphaned")
		return nil
	}

	metrics.CascadeDeletesTotal.Inc()
	metrics.CascadePurgedRegistrationsTotal.Add(float64(purged))
	span.SetAttributes(attribute.Int64("registrations.purged", purged))
	s.log(ctx).Info().Str("event_id", id).Int64("registrations_purged", purged).Msg("event deleted")
	return nil
}

// log prefers the request-scoped logger so entries carry the request id.
func (s *Service) log(ctx context.Context) *zerolog.Logger {
	if logger := zerolog.Ctx(ctx); logger.GetLevel() != zerolog.Disabled {
		scoped := logger.With().Str("component", "events").Logger()
		return &scoped
	}
	return &s.logger
}
