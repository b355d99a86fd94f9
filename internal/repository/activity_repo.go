package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quizroom/internal/model"
)

// ActivityRepo stores the room activity log
type ActivityRepo interface {
	RoomScoped
	Create(ctx context.Context, a *model.Activity) error
	ListByRoom(ctx context.Context, roomID string, limit int) ([]*model.Activity, error)
}

type activityRepo struct {
	collection *mongo.Collection
}

// NewActivityRepo creates a new activity repository
func NewActivityRepo(db *mongo.Database) ActivityRepo {
	return &activityRepo{collection: db.Collection(ActivitiesCollection)}
}

func (r *activityRepo) Create(ctx context.Context, a *model.Activity) error {
	if a.ID == "" {
		a.ID = NewID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, a)
	return err
}

// ListByRoom returns the newest entries first.
func (r *activityRepo) ListByRoom(ctx context.Context, roomID string, limit int) ([]*model.Activity, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, bson.M{"roomId": roomID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := []*model.Activity{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *activityRepo) DeleteByRoom(ctx context.Context, roomID string) (int64, error) {
	return deleteByRoom(ctx, r.collection, roomID)
}

func (r *activityRepo) RoomIDs(ctx context.Context) ([]string, error) {
	return distinctRoomIDs(ctx, r.collection)
}
