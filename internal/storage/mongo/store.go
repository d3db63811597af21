// Package mongo implements storage.Store on MongoDB. Identifiers are
// ObjectIDs inside the database and hex strings everywhere else.
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/eventpro/server/internal/config"
	"github.com/eventpro/server/internal/domain/contacts"
	"github.com/eventpro/server/internal/domain/events"
	"github.com/eventpro/server/internal/domain/registrations"
	"github.com/eventpro/server/internal/domain/users"
	"github.com/eventpro/server/internal/metrics"
	"github.com/eventpro/server/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const driverName = config.DriverMongo

const (
	usersCollection         = "users"
	eventsCollection        = "events"
	registrationsCollection = "registrations"
	contactsCollection      = "contacts"
)

var _ storage.Store = (*Store)(nil)

type Store struct {
	client *mongo.Client
	db     *mongo.Database

	users         *UserRepository
	events        *EventRepository
	registrations *RegistrationRepository
	contacts      *ContactRepository
}

// Open connects to cfg.MongoURI, verifies the connection, creates the
// indexes the repositories rely on and backfills seat counters on event
// documents written without one.
func Open(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	opts := options.Client().ApplyURI(cfg.MongoURI)
	if cfg.MaxConnections > 0 {
		opts.SetMaxPoolSize(uint64(cfg.MaxConnections))
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connection failed: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping failed: %w", err)
	}

	store := New(client, cfg.MongoDatabase)
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	if _, err := store.registrations.backfillSeats(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return store, nil
}

// New wraps a connected client. It does not create indexes.
func New(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		client:        client,
		db:            db,
		users:         &UserRepository{coll: db.Collection(usersCollection)},
		events:        &EventRepository{coll: db.Collection(eventsCollection)},
		registrations: &RegistrationRepository{coll: db.Collection(registrationsCollection), events: db.Collection(eventsCollection)},
		contacts:      &ContactRepository{coll: db.Collection(contactsCollection)},
	}
}

// EnsureIndexes creates the unique and lookup indexes. It is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("users_email_key")},
		},
		eventsCollection: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "date", Value: 1}}, Options: options.Index().SetName("events_status_date_idx")},
			{Keys: bson.D{{Key: "organizer_id", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("events_organizer_created_idx")},
		},
		registrationsCollection: {
			{Keys: bson.D{{Key: "event_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("registrations_event_user_key")},
		},
	}

	for name, models := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

func (s *Store) Users() users.Repository                 { return s.users }
func (s *Store) Events() events.Repository               { return s.events }
func (s *Store) Registrations() registrations.Repository { return s.registrations }
func (s *Store) Contacts() contacts.Repository           { return s.contacts }

func (s *Store) Driver() string { return driverName }

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Reset deletes every document but keeps collections and indexes.
func (s *Store) Reset(ctx context.Context) error {
	for _, name := range []string{registrationsCollection, eventsCollection, contactsCollection, usersCollection} {
		if _, err := s.db.Collection(name).DeleteMany(ctx, bson.M{}); err != nil {
			return fmt.Errorf("reset %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.client.Disconnect(ctx)
}

// objectID parses a hex identifier. Malformed input reports false so
// lookups can treat it as "no such document".
func objectID(hex string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

func record(operation string, start time.Time, err error) {
	if storage.IsDomainOutcome(err) {
		err = nil
	}
	metrics.RecordQuery(driverName, operation, start, err)
}
