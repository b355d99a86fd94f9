package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quizroom/internal/model"
)

// SessionRepo records the runs of a room
type SessionRepo interface {
	RoomScoped
	Create(ctx context.Context, session *model.RoomSession) error
	GetActive(ctx context.Context, roomID string) (*model.RoomSession, error)
	End(ctx context.Context, id string, at time.Time) error
	ListByRoom(ctx context.Context, roomID string) ([]*model.RoomSession, error)
}

type sessionRepo struct {
	collection *mongo.Collection
}

// NewSessionRepo creates a new room session repository
func NewSessionRepo(db *mongo.Database) SessionRepo {
	return &sessionRepo{collection: db.Collection(SessionsCollection)}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.RoomSession) error {
	if session.ID == "" {
		session.ID = NewID()
	}
	_, err := r.collection.InsertOne(ctx, session)
	return err
}

func (r *sessionRepo) GetActive(ctx context.Context, roomID string) (*model.RoomSession, error) {
	var session model.RoomSession
	opts := options.FindOne().SetSort(bson.D{{Key: "startedAt", Value: -1}})
	err := r.collection.FindOne(ctx, bson.M{"roomId": roomID, "status": model.SessionActive}, opts).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) End(ctx context.Context, id string, at time.Time) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":  model.SessionEnded,
		"endedAt": at,
	}})
	return err
}

func (r *sessionRepo) ListByRoom(ctx context.Context, roomID string) ([]*model.RoomSession, error) {
	opts := options.Find().SetSort(bson.D{{Key: "startedAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"roomId": roomID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sessions := []*model.RoomSession{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) DeleteByRoom(ctx context.Context, roomID string) (int64, error) {
	return deleteByRoom(ctx, r.collection, roomID)
}

func (r *sessionRepo) RoomIDs(ctx context.Context) ([]string, error) {
	return distinctRoomIDs(ctx, r.collection)
}
