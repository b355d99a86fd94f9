package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quizroom/internal/model"
)

// AnswerRepo is the append-only ledger of participant answers
type AnswerRepo interface {
	RoomScoped
	Create(ctx context.Context, answer *model.ParticipantAnswer) error
	ListByRoom(ctx context.Context, roomID string) ([]*model.ParticipantAnswer, error)
}

type answerRepo struct {
	collection *mongo.Collection
}

// NewAnswerRepo creates a new answer repository
func NewAnswerRepo(db *mongo.Database) AnswerRepo {
	return &answerRepo{collection: db.Collection(AnswersCollection)}
}

func (r *answerRepo) Create(ctx context.Context, answer *model.ParticipantAnswer) error {
	if answer.ID == "" {
		answer.ID = NewID()
	}
	if answer.Timestamp.IsZero() {
		answer.Timestamp = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, answer)
	return wrapWriteErr(err)
}

func (r *answerRepo) ListByRoom(ctx context.Context, roomID string) ([]*model.ParticipantAnswer, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"roomId": roomID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	answers := []*model.ParticipantAnswer{}
	if err := cursor.All(ctx, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *answerRepo) DeleteByRoom(ctx context.Context, roomID string) (int64, error) {
	return deleteByRoom(ctx, r.collection, roomID)
}

func (r *answerRepo) RoomIDs(ctx context.Context) ([]string, error) {
	return distinctRoomIDs(ctx, r.collection)
}
