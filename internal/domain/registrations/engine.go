package registrations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eventpro/server/internal/domain/events"
	"github.com/eventpro/server/internal/metrics"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/eventpro/server/internal/domain/registrations"

// EventFinder loads the event a registration targets.
type EventFinder interface {
	GetByID(ctx context.Context, id string) (*events.Event, error)
}

// Engine enforces the duplicate and capacity rules for event registration.
//
// In optimistic mode the capacity check is a plain read followed by an
// insert, so concurrent registrations near the limit can over-admit. In
// atomic mode the store decides capacity and insertion in one step.
type Engine struct {
	events EventFinder
	repo   Repository
	mode   string
	logger zerolog.Logger
	now    func() time.Time
}

func NewEngine(finder EventFinder, repo Repository, mode string, logger zerolog.Logger) *Engine {
	if mode != ModeAtomic {
		mode = ModeOptimistic
	}
	return &Engine{
		events: finder,
		repo:   repo,
		mode:   mode,
		logger: logger.With().Str("component", "registrations").Str("mode", mode).Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (e *Engine) Mode() string {
	return e.mode
}

// Register signs userID up for eventID. Checks run in a fixed order and the
// first failure wins: missing event, existing registration, no seats left.
func (e *Engine) Register(ctx context.Context, eventID, userID string) (*Registration, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "registrations.Register",
		trace.WithAttributes(
			attribute.String("event.id", eventID),
			attribute.String("registration.mode", e.mode),
		))
	defer span.End()

	start := time.Now()
	reg, err := e.register(ctx, eventID, userID)
	metrics.RegistrationDuration.WithLabelValues(e.mode).Observe(time.Since(start).Seconds())

	outcome := outcomeOf(err)
	metrics.RegistrationsTotal.WithLabelValues(outcome, e.mode).Inc()
	span.SetAttributes(attribute.String("registration.outcome", outcome))

	if err != nil {
		if outcome == "error" {
			span.RecordError(err)
			span.SetStatus(codes.Error, "register failed")
		}
		return nil, err
	}

	e.log(ctx).Info().
		Str("event_id", reg.EventID).
		Str("user_id", userID).
		Str("registration_id", reg.ID).
		Msg("registration confirmed")
	return reg, nil
}

func (e *Engine) register(ctx context.Context, eventID, userID string) (*Registration, error) {
	event, err := e.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("load event: %w", err)
	}

	exists, err := e.repo.Exists(ctx, event.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("check existing registration: %w", err)
	}
	if exists {
		return nil, ErrAlreadyRegistered
	}

	params := CreateParams{
		EventID:      event.ID,
		UserID:       userID,
		Status:       StatusConfirmed,
		RegisteredAt: e.now(),
	}

	if e.mode == ModeAtomic {
		reg, err := e.repo.InsertWithinCapacity(ctx, params)
		if err != nil {
			if isDomainError(err) {
				return nil, err
			}
			return nil, fmt.Errorf("insert registration: %w", err)
		}
		return reg, nil
	}

	count, err := e.repo.CountByEvent(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}
	if count >= int64(event.MaxAttendees) {
		return nil, ErrEventFull
	}

	reg, err := e.repo.Insert(ctx, params)
	if err != nil {
		if errors.Is(err, ErrAlreadyRegistered) {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("insert registration: %w", err)
	}
	return reg, nil
}

func isDomainError(err error) bool {
	return errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrAlreadyRegistered) ||
		errors.Is(err, ErrEventFull)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return StatusConfirmed
	case errors.Is(err, ErrEventNotFound):
		return "event_not_found"
	case errors.Is(err, ErrAlreadyRegistered):
		return "already_registered"
	case errors.Is(err, ErrEventFull):
		return "event_full"
	default:
		return "error"
	}
}

func (e *Engine) log(ctx context.Context) *zerolog.Logger {
	if logger := zerolog.Ctx(ctx); logger.GetLevel() != zerolog.Disabled {
		scoped := logger.With().Str("component", "registrations").Str("mode", e.mode).Logger()
		return &scoped
	}
	return &e.logger
}
