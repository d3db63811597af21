package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/eventpro/server/internal/domain/registrations"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ registrations.Repository = (*RegistrationRepository)(nil)

type RegistrationRepository struct {
	coll   *mongo.Collection
	events *mongo.Collection

	// seats adjusts an event's reservedSeats counter. Nil means adjustSeats.
	seats func(ctx context.Context, eventID primitive.ObjectID, delta int) error
}

type registrationDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	EventID      primitive.ObjectID `bson:"event_id"`
	UserID       primitive.ObjectID `bson:"user_id"`
	Status       string             `bson:"status"`
	RegisteredAt time.Time          `bson:"registered_at"`
}

func (d registrationDoc) toDomain() *registrations.Registration {
	return &registrations.Registration{
		ID:           d.ID.Hex(),
		EventID:      d.EventID.Hex(),
		UserID:       d.UserID.Hex(),
		Status:       d.Status,
		RegisteredAt: d.RegisteredAt,
	}
}

func (r *RegistrationRepository) Exists(ctx context.Context, eventID, userID string) (exists bool, err error) {
	event, ok := objectID(eventID)
	user, userOK := objectID(userID)
	if !ok || !userOK {
		return false, nil
	}

	start := time.Now()
	defer func() { record("registrations_exists", start, err) }()

	n, err := r.coll.CountDocuments(ctx, bson.M{"event_id": event, "user_id": user})
	if err != nil {
		return false, fmt.Errorf("check registration: %w", err)
	}
	return n > 0, nil
}

func (r *RegistrationRepository) CountByEvent(ctx context.Context, eventID string) (count int64, err error) {
	event, ok := objectID(eventID)
	if !ok {
		return 0, nil
	}

	start := time.Now()
	defer func() { record("registrations_count", start, err) }()

	count, err = r.coll.CountDocuments(ctx, bson.M{"event_id": event})
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}

// Insert writes the registration and then bumps the event's seat counter so
// the atomic path sees registrations made in optimistic mode too. If the
// counter cannot be bumped the registration is removed again, so a failed
// call leaves nothing behind.
func (r *RegistrationRepository) Insert(ctx context.Context, params registrations.CreateParams) (reg *registrations.Registration, err error) {
	start := time.Now()
	defer func() { record("registrations_insert", start, err) }()

	doc, err := newRegistrationDoc(params)
	if err != nil {
		return nil, err
	}
	if err := r.insert(ctx, doc); err != nil {
		return nil, err
	}
	if err := r.adjust(ctx, doc.EventID, 1); err != nil {
		if _, undoErr := r.coll.DeleteOne(ctx, bson.M{"_id": doc.ID}); undoErr != nil {
			return nil, fmt.Errorf("%w (registration rollback failed: %v)", err, undoErr)
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

// hasFreeSeat matches an event whose reserved seats are below its stored
// capacity. Documents written before the counter existed count as zero.
var hasFreeSeat = bson.M{"$lt": bson.A{
	bson.M{"$ifNull": bson.A{"$reservedSeats", 0}},
	"$maxAttendees",
}}

// InsertWithinCapacity reserves a seat with a conditional increment on the
// event document, then inserts the registration. The capacity comparison
// runs inside the update against the document's own maxAttendees. A failed
// insert gives the seat back.
func (r *RegistrationRepository) InsertWithinCapacity(ctx context.Context, params registrations.CreateParams) (reg *registrations.Registration, err error) {
	start := time.Now()
	defer func() { record("registrations_insert_within_capacity", start, err) }()

	doc, err := newRegistrationDoc(params)
	if err != nil {
		return nil, err
	}

	res, err := r.events.UpdateOne(ctx,
		bson.M{"_id": doc.EventID, "$expr": hasFreeSeat},
		bson.M{"$inc": bson.M{"reservedSeats": 1}},
	)
	if err != nil {
		return nil, fmt.Errorf("reserve seat: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := r.events.CountDocuments(ctx, bson.M{"_id": doc.EventID})
		if err != nil {
			return nil, fmt.Errorf("check event: %w", err)
		}
		if n == 0 {
			return nil, registrations.ErrEventNotFound
		}
		return nil, registrations.ErrEventFull
	}

	if err := r.insert(ctx, doc); err != nil {
		if releaseErr := r.adjust(ctx, doc.EventID, -1); releaseErr != nil {
			return nil, fmt.Errorf("%w (seat release failed: %v)", err, releaseErr)
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func newRegistrationDoc(params registrations.CreateParams) (registrationDoc, error) {
	event, ok := objectID(params.EventID)
	if !ok {
		return registrationDoc{}, registrations.ErrEventNotFound
	}
	user, ok := objectID(params.UserID)
	if !ok {
		return registrationDoc{}, fmt.Errorf("insert registration: invalid user id %q", params.UserID)
	}
	return registrationDoc{
		ID:           primitive.NewObjectID(),
		EventID:      event,
		UserID:       user,
		Status:       params.Status,
		RegisteredAt: params.RegisteredAt,
	}, nil
}

func (r *RegistrationRepository) insert(ctx context.Context, doc registrationDoc) error {
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return registrations.ErrAlreadyRegistered
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (r *RegistrationRepository) adjust(ctx context.Context, eventID primitive.ObjectID, delta int) error {
	if r.seats != nil {
		return r.seats(ctx, eventID, delta)
	}
	return r.adjustSeats(ctx, eventID, delta)
}

// backfillSeats sets reservedSeats on event documents that lack it, from the
// number of registrations they hold. The update is conditional on the field
// still being absent, so it never overwrites a live counter.
func (r *RegistrationRepository) backfillSeats(ctx context.Context) (updated int, err error) {
	start := time.Now()
	defer func() { record("registrations_backfill_seats", start, err) }()

	cursor, err := r.events.Find(ctx,
		bson.M{"reservedSeats": bson.M{"$exists": false}},
		options.Find().SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return 0, fmt.Errorf("find events without seat counter: %w", err)
	}
	var pending []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &pending); err != nil {
		return 0, fmt.Errorf("decode events without seat counter: %w", err)
	}

	for _, event := range pending {
		n, err := r.coll.CountDocuments(ctx, bson.M{"event_id": event.ID})
		if err != nil {
			return updated, fmt.Errorf("count registrations: %w", err)
		}
		res, err := r.events.UpdateOne(ctx,
			bson.M{"_id": event.ID, "reservedSeats": bson.M{"$exists": false}},
			bson.M{"$set": bson.M{"reservedSeats": n}},
		)
		if err != nil {
			return updated, fmt.Errorf("backfill seat counter: %w", err)
		}
		updated += int(res.ModifiedCount)
	}
	return updated, nil
}

func (r *RegistrationRepository) adjustSeats(ctx context.Context, eventID primitive.ObjectID, delta int) error {
	if _, err := r.events.UpdateOne(ctx, bson.M{"_id": eventID}, bson.M{"$inc": bson.M{"reservedSeats": delta}}); err != nil {
		return fmt.Errorf("adjust reserved seats: %w", err)
	}
	return nil
}

func (r *RegistrationRepository) DeleteByEvent(ctx context.Context, eventID string) (purged int64, err error) {
	event, ok := objectID(eventID)
	if !ok {
		return 0, nil
	}

	start := time.Now()
	defer func() { record("registrations_delete_by_event", start, err) }()

	res, err := r.coll.DeleteMany(ctx, bson.M{"event_id": event})
	if err != nil {
		return 0, fmt.Errorf("delete registrations: %w", err)
	}
	return res.DeletedCount, nil
}

// CountOrphaned joins registrations to events and counts the ones with no
// matching event.
func (r *RegistrationRepository) CountOrphaned(ctx context.Context) (count int64, err error) {
	start := time.Now()
	defer func() { record("registrations_count_orphaned", start, err) }()

	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: eventsCollection},
			{Key: "localField", Value: "event_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "event"},
		}}},
		{{Key: "$match", Value: bson.D{{Key: "event", Value: bson.D{{Key: "$size", Value: 0}}}}}},
		{{Key: "$count", Value: "orphaned"}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("count orphaned registrations: %w", err)
	}
	defer cursor.Close(ctx)

	var result []struct {
		Orphaned int64 `bson:"orphaned"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return 0, fmt.Errorf("decode orphan count: %w", err)
	}
	if len(result) == 0 {
		return 0, nil
	}
	return result[0].Orphaned, nil
}
