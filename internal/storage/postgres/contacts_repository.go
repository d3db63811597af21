package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/eventpro/server/internal/domain/contacts"
	"github.com/eventpro/server/internal/domain/ids"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ contacts.Repository = (*ContactRepository)(nil)

type ContactRepository struct {
	pool *pgxpool.Pool
}

func (r *ContactRepository) Insert(ctx context.Context, c contacts.Contact) (saved *contacts.Contact, err error) {
	start := time.Now()
	defer func() { record("contacts_insert", start, err) }()

	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("generate contact id: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
INSERT INTO contacts (id, name, email, phone, event_type, event_date, message, status, submitted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, c.Name, c.Email, c.Phone, c.EventType, c.EventDate, c.Message, c.Status, c.SubmittedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert contact: %w", err)
	}

	c.ID = id
	return &c, nil
}
