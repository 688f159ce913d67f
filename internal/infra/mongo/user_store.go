package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quizzie-service/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d userDoc) toDomain() domain.User {
	return domain.User{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Email:     d.Email,
		Password:  d.Password,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// UserStore relies on the unique email index from EnsureIndexes.
type UserStore struct {
	coll *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{coll: db.Collection(usersCollection)}
}

func (s *UserStore) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	doc := userDoc{
		ID:        primitive.NewObjectID(),
		Name:      user.Name,
		Email:     user.Email,
		Password:  user.Password,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
	_, err := s.coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return domain.User{}, domain.ErrEmailTaken
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *UserStore) FindUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *UserStore) FindUserByID(ctx context.Context, id string) (domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.User{}, domain.ErrUserNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *UserStore) UpdateUser(ctx context.Context, user domain.User) (domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return domain.User{}, domain.ErrUserNotFound
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"name":      user.Name,
		"email":     user.Email,
		"password":  user.Password,
		"updatedAt": user.UpdatedAt,
	}})
	if mongo.IsDuplicateKeyError(err) {
		return domain.User{}, domain.ErrEmailTaken
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (domain.User, error) {
	var doc userDoc
	err := s.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}
