package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eventpro/server/internal/domain/events"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ events.Repository = (*EventRepository)(nil)

type EventRepository struct {
	coll *mongo.Collection
}

// eventDoc mirrors an event document. ReservedSeats counts confirmed
// registrations and backs the atomic capacity check.
type eventDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Title         string             `bson:"title"`
	Description   string             `bson:"description"`
	Date          string             `bson:"date"`
	Time          string             `bson:"time"`
	Location      string             `bson:"location"`
	Venue         string             `bson:"venue"`
	Category      string             `bson:"category"`
	Price         float64            `bson:"price"`
	MaxAttendees  int                `bson:"maxAttendees"`
	Image         string             `bson:"image"`
	Status        string             `bson:"status"`
	OrganizerID   primitive.ObjectID `bson:"organizer_id"`
	ReservedSeats int64              `bson:"reservedSeats"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

func (d eventDoc) toDomain() events.Event {
	return events.Event{
		ID:           d.ID.Hex(),
		Title:        d.Title,
		Description:  d.Description,
		Date:         d.Date,
		Time:         d.Time,
		Location:     d.Location,
		Venue:        d.Venue,
		Category:     d.Category,
		Price:        d.Price,
		MaxAttendees: d.MaxAttendees,
		Image:        d.Image,
		Status:       d.Status,
		OrganizerID:  d.OrganizerID.Hex(),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func (r *EventRepository) Create(ctx context.Context, params events.CreateParams) (event *events.Event, err error) {
	start := time.Now()
	defer func() { record("events_create", start, err) }()

	organizer, ok := objectID(params.OrganizerID)
	if !ok {
		return nil, fmt.Errorf("insert event: invalid organizer id %q", params.OrganizerID)
	}

	doc := eventDoc{
		ID:           primitive.NewObjectID(),
		Title:        params.Title,
		Description:  params.Description,
		Date:         params.Date,
		Time:         params.Time,
		Location:     params.Location,
		Venue:        params.Venue,
		Category:     params.Category,
		Price:        params.Price,
		MaxAttendees: params.MaxAttendees,
		Image:        params.Image,
		Status:       params.Status,
		OrganizerID:  organizer,
		CreatedAt:    params.CreatedAt,
		UpdatedAt:    params.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	created := doc.toDomain()
	return &created, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (event *events.Event, err error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, events.ErrNotFound
	}

	start := time.Now()
	defer func() { record("events_get", start, err) }()

	var doc eventDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	found := doc.toDomain()
	return &found, nil
}

func (r *EventRepository) ListPublished(ctx context.Context) (items []events.Event, err error) {
	start := time.Now()
	defer func() { record("events_list_published", start, err) }()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}})
	return r.find(ctx, bson.M{"status": events.StatusPublished}, opts)
}

func (r *EventRepository) ListByOrganizer(ctx context.Context, organizerID string) (items []events.Event, err error) {
	organizer, ok := objectID(organizerID)
	if !ok {
		return []events.Event{}, nil
	}

	start := time.Now()
	defer func() { record("events_list_by_organizer", start, err) }()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	return r.find(ctx, bson.M{"organizer_id": organizer}, opts)
}

func (r *EventRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]events.Event, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer cursor.Close(ctx)

	items := make([]events.Event, 0)
	for cursor.Next(ctx) {
		var doc eventDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		items = append(items, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return items, nil
}

// UpdateOwned filters on both _id and organizer_id so the ownership check
// and the write are one atomic document operation.
func (r *EventRepository) UpdateOwned(ctx context.Context, id, organizerID string, patch events.Patch, updatedAt time.Time) (event *events.Event, err error) {
	oid, ok := objectID(id)
	organizer, ownerOK := objectID(organizerID)
	if !ok || !ownerOK {
		return nil, events.ErrNotFoundOrUnauthorized
	}

	start := time.Now()
	defer func() { record("events_update_owned", start, err) }()

	set := patchFields(patch)
	set["updated_at"] = updatedAt

	var doc eventDoc
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "organizer_id": organizer},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, events.ErrNotFoundOrUnauthorized
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	updated := doc.toDomain()
	return &updated, nil
}

func patchFields(p events.Patch) bson.M {
	set := bson.M{}
	for name, value := range map[string]*string{
		"title":       p.Title,
		"description": p.Description,
		"date":        p.Date,
		"time":        p.Time,
		"location":    p.Location,
		"venue":       p.Venue,
		"category":    p.Category,
		"image":       p.Image,
		"status":      p.Status,
	} {
		if value != nil {
			set[name] = *value
		}
	}
	if p.Price != nil {
		set["price"] = *p.Price
	}
	if p.MaxAttendees != nil {
		set["maxAttendees"] = *p.MaxAttendees
	}
	return set
}

func (r *EventRepository) DeleteOwned(ctx context.Context, id, organizerID string) (err error) {
	oid, ok := objectID(id)
	organizer, ownerOK := objectID(organizerID)
	if !ok || !ownerOK {
		return events.ErrNotFoundOrUnauthorized
	}

	start := time.Now()
	defer func() { record("events_delete_owned", start, err) }()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid, "organizer_id": organizer})
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if res.DeletedCount == 0 {
		return events.ErrNotFoundOrUnauthorized
	}
	return nil
}
