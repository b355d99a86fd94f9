package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quizroom/internal/model"
)

// RoomQuestionRepo handles the question composition of rooms
type RoomQuestionRepo interface {
	RoomScoped
	Add(ctx context.Context, rq *model.RoomQuestion) error
	ListByRoom(ctx context.Context, roomID string) ([]*model.RoomQuestion, error)
	Get(ctx context.Context, roomID, questionID string) (*model.RoomQuestion, error)
	Remove(ctx context.Context, roomID, questionID string) (bool, error)
	RoomIDsByQuestion(ctx context.Context, questionID string) ([]string, error)
	DeleteByQuestion(ctx context.Context, questionID string) (int64, error)
}

type roomQuestionRepo struct {
	collection *mongo.Collection
}

// NewRoomQuestionRepo creates a new room question repository
func NewRoomQuestionRepo(db *mongo.Database) RoomQuestionRepo {
	return &roomQuestionRepo{collection: db.Collection(RoomQuestionsCollection)}
}

func (r *roomQuestionRepo) Add(ctx context.Context, rq *model.RoomQuestion) error {
	if rq.ID == "" {
		rq.ID = NewID()
	}
	if rq.AddedAt.IsZero() {
		rq.AddedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, rq)
	return wrapWriteErr(err)
}

func (r *roomQuestionRepo) ListByRoom(ctx context.Context, roomID string) ([]*model.RoomQuestion, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "addedAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"roomId": roomID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := []*model.RoomQuestion{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *roomQuestionRepo) Get(ctx context.Context, roomID, questionID string) (*model.RoomQuestion, error) {
	var rq model.RoomQuestion
	err := r.collection.FindOne(ctx, bson.M{"roomId": roomID, "questionId": questionID}).Decode(&rq)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rq, nil
}

func (r *roomQuestionRepo) Remove(ctx context.Context, roomID, questionID string) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"roomId": roomID, "questionId": questionID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *roomQuestionRepo) RoomIDsByQuestion(ctx context.Context, questionID string) ([]string, error) {
	values, err := r.collection.Distinct(ctx, "roomId", bson.M{"questionId": questionID})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids, nil
}

func (r *roomQuestionRepo) DeleteByQuestion(ctx context.Context, questionID string) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"questionId": questionID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *roomQuestionRepo) DeleteByRoom(ctx context.Context, roomID string) (int64, error) {
	return deleteByRoom(ctx, r.collection, roomID)
}

func (r *roomQuestionRepo) RoomIDs(ctx context.Context) ([]string, error) {
	return distinctRoomIDs(ctx, r.collection)
}
