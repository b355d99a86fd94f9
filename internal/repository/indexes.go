package repository

import (
	"context"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type indexSpec struct {
	collection string
	keys       bson.D
	unique     bool
	ttl        bool // expire documents at the indexed time
}

var indexSpecs = []indexSpec{
	{collection: UsersCollection, keys: bson.D{{Key: "email", Value: 1}}, unique: true},
	{collection: RoomsCollection, keys: bson.D{{Key: "code", Value: 1}}, unique: true},
	{collection: RoomsCollection, keys: bson.D{{Key: "creatorId", Value: 1}, {Key: "createdAt", Value: -1}}},
	{collection: RoomsCollection, keys: bson.D{{Key: "participants.userId", Value: 1}}},
	{collection: RoomsCollection, keys: bson.D{{Key: "isPublic", Value: 1}, {Key: "status", Value: 1}}},
	{collection: QuestionsCollection, keys: bson.D{{Key: "creatorId", Value: 1}}},
	{collection: QuestionsCollection, keys: bson.D{{Key: "isPublic", Value: 1}}},
	{collection: RoomQuestionsCollection, keys: bson.D{{Key: "roomId", Value: 1}, {Key: "questionId", Value: 1}}, unique: true},
	{collection: RoomQuestionsCollection, keys: bson.D{{Key: "questionId", Value: 1}}},
	{collection: AnswersCollection, keys: bson.D{{Key: "roomId", Value: 1}, {Key: "participantId", Value: 1}, {Key: "questionId", Value: 1}}, unique: true},
	{collection: RatingsCollection, keys: bson.D{{Key: "roomId", Value: 1}, {Key: "raterId", Value: 1}}, unique: true},
	{collection: ActivitiesCollection, keys: bson.D{{Key: "roomId", Value: 1}, {Key: "createdAt", Value: -1}}},
	{collection: SessionsCollection, keys: bson.D{{Key: "roomId", Value: 1}, {Key: "status", Value: 1}}},
	{collection: OTPsCollection, keys: bson.D{{Key: "email", Value: 1}, {Key: "type", Value: 1}}},
	{collection: OTPsCollection, keys: bson.D{{Key: "expiresAt", Value: 1}}, ttl: true},
}

// EnsureIndexes creates every index the repositories rely on. Failures are
// logged and counted; the number of failed indexes is returned.
func EnsureIndexes(ctx context.Context, db *mongo.Database, log *zerolog.Logger) int {
	failed := 0
	for _, spec := range indexSpecs {
		if err := createIndex(ctx, db.Collection(spec.collection), spec); err != nil {
			failed++
			log.Warn().Err(err).Str("collection", spec.collection).Msg("failed to create index")
		}
	}
	log.Info().Int("indexes", len(indexSpecs)-failed).Msg("mongo indexes ensured")
	return failed
}

func createIndex(ctx context.Context, coll *mongo.Collection, spec indexSpec) error {
	opts := options.Index().SetUnique(spec.unique)
	if spec.ttl {
		opts.SetExpireAfterSeconds(0)
	}
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: spec.keys, Options: opts})
	return err
}
