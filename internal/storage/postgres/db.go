package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eventpro/server/internal/config"
	"github.com/eventpro/server/internal/domain/contacts"
	"github.com/eventpro/server/internal/domain/events"
	"github.com/eventpro/server/internal/domain/registrations"
	"github.com/eventpro/server/internal/domain/users"
	"github.com/eventpro/server/internal/metrics"
	"github.com/eventpro/server/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const driverName = config.DriverPostgres

var _ storage.Store = (*Store)(nil)

// Store implements storage.Store on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool

	users         *UserRepository
	events        *EventRepository
	registrations *RegistrationRepository
	contacts      *ContactRepository
}

// Open connects to cfg.DatabaseURL and verifies the connection.
func Open(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConnections)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return New(pool)
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool cannot be nil")
	}
	return &Store{
		pool:          pool,
		users:         &UserRepository{pool: pool},
		events:        &EventRepository{pool: pool},
		registrations: &RegistrationRepository{pool: pool},
		contacts:      &ContactRepository{pool: pool},
	}, nil
}

func (s *Store) Users() users.Repository                 { return s.users }
func (s *Store) Events() events.Repository               { return s.events }
func (s *Store) Registrations() registrations.Repository { return s.registrations }
func (s *Store) Contacts() contacts.Repository           { return s.contacts }

func (s *Store) Driver() string { return driverName }

// Pool exposes the pool for metrics collection.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	s.pool.Close()
}

// Reset truncates every application table.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE TABLE registrations, events, contacts, users`)
	if err != nil {
		return fmt.Errorf("reset tables: %w", err)
	}
	return nil
}

// MigrationState reports the newest applied migration and whether it left
// the schema dirty.
func (s *Store) MigrationState(ctx context.Context) (int64, bool, error) {
	var version int64
	var dirty bool
	err := s.pool.QueryRow(ctx, `SELECT version, dirty FROM schema_migrations ORDER BY version DESC LIMIT 1`).
		Scan(&version, &dirty)
	if err != nil {
		return 0, false, err
	}
	return version, dirty, nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on any error.
func withTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("rollback after error %v: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const uniqueViolation = "23505"

// isUniqueViolation reports whether err came from the named unique
// constraint. An empty constraint matches any unique violation.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// record reports store latency. Domain outcomes such as "not found" are not
// counted as store errors.
func record(operation string, start time.Time, err error) {
	if storage.IsDomainOutcome(err) {
		err = nil
	}
	metrics.RecordQuery(driverName, operation, start, err)
}
