package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/eventpro/server/internal/domain/contacts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var _ contacts.Repository = (*ContactRepository)(nil)

type ContactRepository struct {
	coll *mongo.Collection
}

type contactDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Email       string             `bson:"email"`
	Phone       string             `bson:"phone"`
	EventType   string             `bson:"eventType"`
	EventDate   string             `bson:"eventDate"`
	Message     string             `bson:"message"`
	Status      string             `bson:"status"`
	SubmittedAt time.Time          `bson:"submitted_at"`
}

func (r *ContactRepository) Insert(ctx context.Context, c contacts.Contact) (saved *contacts.Contact, err error) {
	start := time.Now()
	defer func() { record("contacts_insert", start, err) }()

	doc := contactDoc{
		ID:          primitive.NewObjectID(),
		Name:        c.Name,
		Email:       c.Email,
		Phone:       c.Phone,
		EventType:   c.EventType,
		EventDate:   c.EventDate,
		Message:     c.Message,
		Status:      c.Status,
		SubmittedAt: c.SubmittedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert contact: %w", err)
	}

	c.ID = doc.ID.Hex()
	return &c, nil
}
