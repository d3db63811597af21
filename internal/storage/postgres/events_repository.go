package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eventpro/server/internal/domain/events"
	"github.com/eventpro/server/internal/domain/ids"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ events.Repository = (*EventRepository)(nil)

type EventRepository struct {
	pool *pgxpool.Pool
}

const eventColumns = `id, title, description, date, time, location, venue, category, price,
       max_attendees, image, status, organizer_id, created_at, updated_at`

func (r *EventRepository) Create(ctx context.Context, params events.CreateParams) (event *events.Event, err error) {
	start := time.Now()
	defer func() { record("events_create", start, err) }()

	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("generate event id: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
INSERT INTO events (id, title, description, date, time, location, venue, category, price,
                    max_attendees, image, status, organizer_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
RETURNING `+eventColumns,
		id, params.Title, params.Description, params.Date, params.Time, params.Location,
		params.Venue, params.Category, params.Price, params.MaxAttendees, params.Image,
		params.Status, params.OrganizerID, params.CreatedAt,
	)
	event, err = scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (event *events.Event, err error) {
	normalized, ok := ids.Normalize(id)
	if !ok {
		return nil, events.ErrNotFound
	}

	start := time.Now()
	defer func() { record("events_get", start, err) }()

	event, err = scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, normalized))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// ListPublished returns published events ordered by date ascending. Dates
// are ISO strings, so text order is chronological.
func (r *EventRepository) ListPublished(ctx context.Context) (items []events.Event, err error) {
	start := time.Now()
	defer func() { record("events_list_published", start, err) }()

	return r.list(ctx, `
SELECT `+eventColumns+`
  FROM events
 WHERE status = $1
 ORDER BY date ASC, id ASC`, events.StatusPublished)
}

// ListByOrganizer returns the organizer's events, newest first.
func (r *EventRepository) ListByOrganizer(ctx context.Context, organizerID string) (items []events.Event, err error) {
	start := time.Now()
	defer func() { record("events_list_by_organizer", start, err) }()

	return r.list(ctx, `
SELECT `+eventColumns+`
  FROM events
 WHERE organizer_id = $1
 ORDER BY created_at DESC, id DESC`, organizerID)
}

func (r *EventRepository) list(ctx context.Context, query string, arg string) ([]events.Event, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	items := make([]events.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		items = append(items, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return items, nil
}

// UpdateOwned applies patch only when organizerID owns the event. The
// ownership check is part of the WHERE clause, so a missing event and a
// foreign event look the same to the caller.
func (r *EventRepository) UpdateOwned(ctx context.Context, id, organizerID string, patch events.Patch, updatedAt time.Time) (event *events.Event, err error) {
	normalized, ok := ids.Normalize(id)
	if !ok {
		return nil, events.ErrNotFoundOrUnauthorized
	}

	start := time.Now()
	defer func() { record("events_update_owned", start, err) }()

	row := r.pool.QueryRow(ctx, `
UPDATE events
   SET title = COALESCE($3, title),
       description = COALESCE($4, description),
       date = COALESCE($5, date),
       time = COALESCE($6, time),
       location = COALESCE($7, location),
       venue = COALESCE($8, venue),
       category = COALESCE($9, category),
       price = COALESCE($10, price),
       max_attendees = COALESCE($11, max_attendees),
       image = COALESCE($12, image),
       status = COALESCE($13, status),
       updated_at = $14
 WHERE id = $1 AND organizer_id = $2
RETURNING `+eventColumns,
		normalized, organizerID,
		patch.Title, patch.Description, patch.Date, patch.Time, patch.Location,
		patch.Venue, patch.Category, patch.Price, patch.MaxAttendees, patch.Image,
		patch.Status, updatedAt,
	)
	event, err = scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFoundOrUnauthorized
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) DeleteOwned(ctx context.Context, id, organizerID string) (err error) {
	normalized, ok := ids.Normalize(id)
	if !ok {
		return events.ErrNotFoundOrUnauthorized
	}

	start := time.Now()
	defer func() { record("events_delete_owned", start, err) }()

	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1 AND organizer_id = $2`, normalized, organizerID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFoundOrUnauthorized
	}
	return nil
}

func scanEvent(row pgx.Row) (*events.Event, error) {
	var e events.Event
	if err := row.Scan(
		&e.ID,
		&e.Title,
		&e.Description,
		&e.Date,
		&e.Time,
		&e.Location,
		&e.Venue,
		&e.Category,
		&e.Price,
		&e.MaxAttendees,
		&e.Image,
		&e.Status,
		&e.OrganizerID,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &e, nil
}
