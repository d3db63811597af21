package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eventpro/server/internal/domain/ids"
	"github.com/eventpro/server/internal/domain/users"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ users.Repository = (*UserRepository)(nil)

type UserRepository struct {
	pool *pgxpool.Pool
}

const userColumns = `id, name, email, phone, password_hash, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, params users.CreateParams) (user *users.User, err error) {
	start := time.Now()
	defer func() { record("users_create", start, err) }()

	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("generate user id: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
INSERT INTO users (id, name, email, phone, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)
RETURNING `+userColumns,
		id, params.Name, params.Email, params.Phone, params.PasswordHash, params.CreatedAt,
	)
	user, err = scanUser(row)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return nil, users.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*users.User, error) {
	normalized, ok := ids.Normalize(id)
	if !ok {
		return nil, users.ErrNotFound
	}
	return r.getOne(ctx, "users_get_by_id", `SELECT `+userColumns+` FROM users WHERE id = $1`, normalized)
}

// GetByEmail matches the address exactly; emails are case-sensitive as stored.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.getOne(ctx, "users_get_by_email", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) getOne(ctx context.Context, operation, query string, arg string) (user *users.User, err error) {
	start := time.Now()
	defer func() { record(operation, start, err) }()

	user, err = scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UpdateProfile writes the supplied fields and refreshes updated_at. A
// missing user is not an error.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, patch users.ProfilePatch, updatedAt time.Time) (err error) {
	start := time.Now()
	defer func() { record("users_update_profile", start, err) }()

	normalized, ok := ids.Normalize(id)
	if !ok {
		return nil
	}

	_, err = r.pool.Exec(ctx, `
UPDATE users
   SET name = COALESCE($2, name),
       phone = COALESCE($3, phone),
       updated_at = $4
 WHERE id = $1`,
		normalized, patch.Name, patch.Phone, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (*users.User, error) {
	var u users.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
