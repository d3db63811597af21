package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eventpro/server/internal/domain/ids"
	"github.com/eventpro/server/internal/domain/registrations"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ registrations.Repository = (*RegistrationRepository)(nil)

type RegistrationRepository struct {
	pool *pgxpool.Pool
}

const registrationPairConstraint = "registrations_event_user_key"

func (r *RegistrationRepository) Exists(ctx context.Context, eventID, userID string) (exists bool, err error) {
	start := time.Now()
	defer func() { record("registrations_exists", start, err) }()

	err = r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM registrations WHERE event_id = $1 AND user_id = $2)`,
		eventID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check registration: %w", err)
	}
	return exists, nil
}

func (r *RegistrationRepository) CountByEvent(ctx context.Context, eventID string) (count int64, err error) {
	normalized, ok := ids.Normalize(eventID)
	if !ok {
		return 0, nil
	}

	start := time.Now()
	defer func() { record("registrations_count", start, err) }()

	err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM registrations WHERE event_id = $1`, normalized).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}

func (r *RegistrationRepository) Insert(ctx context.Context, params registrations.CreateParams) (reg *registrations.Registration, err error) {
	start := time.Now()
	defer func() { record("registrations_insert", start, err) }()

	return insertRegistration(ctx, r.pool, params)
}

// InsertWithinCapacity locks the event row so registrations for the same
// event are serialized, then counts and inserts inside that transaction.
// The capacity is read under the same lock, so a concurrent update to
// max_attendees is either fully before or fully after this decision.
func (r *RegistrationRepository) InsertWithinCapacity(ctx context.Context, params registrations.CreateParams) (reg *registrations.Registration, err error) {
	start := time.Now()
	defer func() { record("registrations_insert_within_capacity", start, err) }()

	err = withTx(ctx, r.pool, func(tx pgx.Tx) error {
		var maxAttendees int
		if err := tx.QueryRow(ctx, `SELECT max_attendees FROM events WHERE id = $1 FOR UPDATE`, params.EventID).Scan(&maxAttendees); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return registrations.ErrEventNotFound
			}
			return fmt.Errorf("lock event: %w", err)
		}

		var count int64
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM registrations WHERE event_id = $1`, params.EventID).Scan(&count); err != nil {
			return fmt.Errorf("count registrations: %w", err)
		}
		if count >= int64(maxAttendees) {
			return registrations.ErrEventFull
		}

		inserted, err := insertRegistration(ctx, tx, params)
		if err != nil {
			return err
		}
		reg = inserted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

func insertRegistration(ctx context.Context, q queryer, params registrations.CreateParams) (*registrations.Registration, error) {
	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("generate registration id: %w", err)
	}

	var reg registrations.Registration
	err = q.QueryRow(ctx, `
INSERT INTO registrations (id, event_id, user_id, status, registered_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, event_id, user_id, status, registered_at`,
		id, params.EventID, params.UserID, params.Status, params.RegisteredAt,
	).Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.Status, &reg.RegisteredAt)
	if err != nil {
		if isUniqueViolation(err, registrationPairConstraint) {
			return nil, registrations.ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("insert registration: %w", err)
	}
	return &reg, nil
}

func (r *RegistrationRepository) DeleteByEvent(ctx context.Context, eventID string) (purged int64, err error) {
	normalized, ok := ids.Normalize(eventID)
	if !ok {
		return 0, nil
	}

	start := time.Now()
	defer func() { record("registrations_delete_by_event", start, err) }()

	tag, err := r.pool.Exec(ctx, `DELETE FROM registrations WHERE event_id = $1`, normalized)
	if err != nil {
		return 0, fmt.Errorf("delete registrations: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *RegistrationRepository) CountOrphaned(ctx context.Context) (count int64, err error) {
	start := time.Now()
	defer func() { record("registrations_count_orphaned", start, err) }()

	err = r.pool.QueryRow(ctx, `
SELECT COUNT(*)
  FROM registrations r
  LEFT JOIN events e ON e.id = r.event_id
 WHERE e.id IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count orphaned registrations: %w", err)
	}
	return count, nil
}
