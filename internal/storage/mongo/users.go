package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eventpro/server/internal/domain/users"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var _ users.Repository = (*UserRepository)(nil)

type UserRepository struct {
	coll *mongo.Collection
}

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Phone     string             `bson:"phone"`
	Password  string             `bson:"password"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d userDoc) toDomain() *users.User {
	return &users.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		Phone:        d.Phone,
		PasswordHash: d.Password,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func (r *UserRepository) Create(ctx context.Context, params users.CreateParams) (user *users.User, err error) {
	start := time.Now()
	defer func() { record("users_create", start, err) }()

	doc := userDoc{
		ID:        primitive.NewObjectID(),
		Name:      params.Name,
		Email:     params.Email,
		Phone:     params.Phone,
		Password:  params.PasswordHash,
		CreatedAt: params.CreatedAt,
		UpdatedAt: params.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, users.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*users.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, users.ErrNotFound
	}
	return r.findOne(ctx, "users_get_by_id", bson.M{"_id": oid})
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.findOne(ctx, "users_get_by_email", bson.M{"email": email})
}

func (r *UserRepository) findOne(ctx context.Context, operation string, filter bson.M) (user *users.User, err error) {
	start := time.Now()
	defer func() { record(operation, start, err) }()

	var doc userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, patch users.ProfilePatch, updatedAt time.Time) (err error) {
	start := time.Now()
	defer func() { record("users_update_profile", start, err) }()

	oid, ok := objectID(id)
	if !ok {
		return nil
	}

	set := bson.M{"updated_at": updatedAt}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Phone != nil {
		set["phone"] = *patch.Phone
	}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set}); err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}
	return nil
}
