package repository

import (
	"context"
	"errors"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names
const (
	UsersCollection         = "users"
	QuestionsCollection     = "questions"
	RoomsCollection         = "rooms"
	RoomQuestionsCollection = "roomQuestions"
	AnswersCollection       = "participantAnswers"
	RatingsCollection       = "roomRatings"
	ActivitiesCollection    = "roomActivities"
	SessionsCollection      = "roomSessions"
	OTPsCollection          = "otps"
	ContactCollection       = "contactFormSubmissions"
)

// ErrDuplicate is returned when a write violates a unique index.
var ErrDuplicate = errors.New("duplicate key")

// NewID returns a new document identifier.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// RoomScoped is implemented by every collection keyed by room ID. Cascading
// deletes and the orphan sweep work through it.
type RoomScoped interface {
	DeleteByRoom(ctx context.Context, roomID string) (int64, error)
	RoomIDs(ctx context.Context) ([]string, error)
}

func wrapWriteErr(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

// containsFold builds a case-insensitive substring match.
func containsFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

func pageOptions(page, limit int) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		if page < 1 {
			page = 1
		}
		opts.SetSkip(int64((page - 1) * limit)).SetLimit(int64(limit))
	}
	return opts
}

func deleteByRoom(ctx context.Context, coll *mongo.Collection, roomID string) (int64, error) {
	res, err := coll.DeleteMany(ctx, bson.M{"roomId": roomID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func distinctRoomIDs(ctx context.Context, coll *mongo.Collection) ([]string, error) {
	values, err := coll.Distinct(ctx, "roomId", bson.M{})
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
