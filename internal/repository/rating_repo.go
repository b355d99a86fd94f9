package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quizroom/internal/model"
)

// RatingRepo stores room ratings, at most one per (room, rater)
type RatingRepo interface {
	RoomScoped
	Create(ctx context.Context, rating *model.RoomRating) error
	Exists(ctx context.Context, roomID, raterID string) (bool, error)
	ListByRoom(ctx context.Context, roomID string) ([]*model.RoomRating, error)
}

type ratingRepo struct {
	collection *mongo.Collection
}

// NewRatingRepo creates a new rating repository
func NewRatingRepo(db *mongo.Database) RatingRepo {
	return &ratingRepo{collection: db.Collection(RatingsCollection)}
}

func (r *ratingRepo) Create(ctx context.Context, rating *model.RoomRating) error {
	if rating.ID == "" {
		rating.ID = NewID()
	}
	if rating.CreatedAt.IsZero() {
		rating.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, rating)
	return wrapWriteErr(err)
}

func (r *ratingRepo) Exists(ctx context.Context, roomID, raterID string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"roomId": roomID, "raterId": raterID}, options.Count().SetLimit(1))
	return n > 0, err
}

// ListByRoom returns the ratings of a room, newest first.
func (r *ratingRepo) ListByRoom(ctx context.Context, roomID string) ([]*model.RoomRating, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"roomId": roomID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	ratings := []*model.RoomRating{}
	if err := cursor.All(ctx, &ratings); err != nil {
		return nil, err
	}
	return ratings, nil
}

func (r *ratingRepo) DeleteByRoom(ctx context.Context, roomID string) (int64, error) {
	return deleteByRoom(ctx, r.collection, roomID)
}

func (r *ratingRepo) RoomIDs(ctx context.Context) ([]string, error) {
	return distinctRoomIDs(ctx, r.collection)
}
