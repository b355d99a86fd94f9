package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quizroom/internal/model"
)

// JoinCondition guards an atomic participant append. The append only happens
// while the room is in one of Statuses, below capacity, and holds no
// participant matching the given identity fields.
type JoinCondition struct {
	Statuses      []model.RoomStatus
	UserID        string
	Email         string // authenticated email
	ParticipantID string // guest participant ID
}

// RoomRepo handles MongoDB operations for rooms and their embedded participants
type RoomRepo interface {
	Create(ctx context.Context, room *model.Room) error
	GetByID(ctx context.Context, id string) (*model.Room, error)
	GetByCode(ctx context.Context, code string) (*model.Room, error)
	List(ctx context.Context, f model.RoomFilter) ([]*model.Room, int64, error)
	Update(ctx context.Context, id string, u model.RoomUpdate) (*model.Room, error)
	TransitionStatus(ctx context.Context, id string, from, to model.RoomStatus, at time.Time) (bool, error)
	AddParticipant(ctx context.Context, id string, p model.Participant, cond JoinCondition) (bool, error)
	MarkParticipantLeft(ctx context.Context, id, participantID string, at time.Time) (bool, error)
	RejoinParticipant(ctx context.Context, id, participantID string, statuses []model.RoomStatus, at time.Time) (bool, error)
	ApplyAnswer(ctx context.Context, id, participantID string, points int, at time.Time) error
	SetRatingStats(ctx context.Context, id string, average float64, total int) error
	SetResultStats(ctx context.Context, id string, averageScore, completionRate float64) error
	Delete(ctx context.Context, id string) (bool, error)
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
}

type roomRepo struct {
	collection *mongo.Collection
}

// NewRoomRepo creates a new room repository
func NewRoomRepo(db *mongo.Database) RoomRepo {
	return &roomRepo{collection: db.Collection(RoomsCollection)}
}

func (r *roomRepo) Create(ctx context.Context, room *model.Room) error {
	if room.ID == "" {
		room.ID = NewID()
	}
	if room.Participants == nil {
		room.Participants = []model.Participant{}
	}
	_, err := r.collection.InsertOne(ctx, room)
	return wrapWriteErr(err)
}

func (r *roomRepo) GetByID(ctx context.Context, id string) (*model.Room, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *roomRepo) GetByCode(ctx context.Context, code string) (*model.Room, error) {
	return r.findOne(ctx, bson.M{"code": code})
}

func (r *roomRepo) findOne(ctx context.Context, filter bson.M) (*model.Room, error) {
	var room model.Room
	err := r.collection.FindOne(ctx, filter).Decode(&room)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func roomFilter(f model.RoomFilter) bson.M {
	and := bson.A{}
	if f.PublicOnly {
		and = append(and, bson.M{"isPublic": true})
	}
	if f.CreatorID != "" {
		and = append(and, bson.M{"creatorId": f.CreatorID})
	}
	if f.Participant != "" {
		and = append(and, bson.M{"participants": bson.M{"$elemMatch": bson.M{"userId": f.Participant, "leftAt": nil}}})
	}
	if f.PublicOrOf != "" {
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"isPublic": true},
			bson.M{"creatorId": f.PublicOrOf},
			bson.M{"participants.userId": f.PublicOrOf},
		}})
	}
	if f.Search != "" {
		re := containsFold(f.Search)
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"title": re},
			bson.M{"description": re},
			bson.M{"code": re},
		}})
	}
	if f.Status != "" {
		and = append(and, bson.M{"status": f.Status})
	}
	if f.Category != "" {
		and = append(and, bson.M{"category": containsFold(f.Category)})
	}
	if f.Difficulty != "" {
		and = append(and, bson.M{"difficulty": f.Difficulty})
	}
	if len(and) == 0 {
		return bson.M{}
	}
	return bson.M{"$and": and}
}

func (r *roomRepo) List(ctx context.Context, f model.RoomFilter) ([]*model.Room, int64, error) {
	filter := roomFilter(f)

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	cursor, err := r.collection.Find(ctx, filter, pageOptions(f.Page, f.Limit))
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	rooms := []*model.Room{}
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, 0, err
	}
	return rooms, total, nil
}

func (r *roomRepo) Update(ctx context.Context, id string, u model.RoomUpdate) (*model.Room, error) {
	set := bson.M{"updatedAt": time.Now()}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.MaxParticipants != nil {
		set["maxParticipants"] = *u.MaxParticipants
	}
	if u.IsPublic != nil {
		set["isPublic"] = *u.IsPublic
	}
	if u.AllowLateJoin != nil {
		set["allowLateJoin"] = *u.AllowLateJoin
	}
	if u.ShowLeaderboard != nil {
		set["showLeaderboard"] = *u.ShowLeaderboard
	}
	if u.ShuffleQuestions != nil {
		set["shuffleQuestions"] = *u.ShuffleQuestions
	}
	if u.Category != nil {
		set["category"] = *u.Category
	}
	if u.Difficulty != nil {
		set["difficulty"] = *u.Difficulty
	}
	if u.TimeLimit != nil {
		set["timeLimit"] = *u.TimeLimit
	}
	if u.ScheduledStartTime != nil {
		set["scheduledStartTime"] = *u.ScheduledStartTime
	}
	if u.Settings != nil {
		set["settings"] = *u.Settings
	}

	filter := bson.M{"_id": id}
	if u.MaxParticipants != nil {
		// capacity can never drop below the current head count
		filter["currentParticipants"] = bson.M{"$lte": *u.MaxParticipants}
	}
	res, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

func (r *roomRepo) TransitionStatus(ctx context.Context, id string, from, to model.RoomStatus, at time.Time) (bool, error) {
	set := bson.M{"status": to, "updatedAt": at}
	if to == model.RoomActive && from == model.RoomWaiting {
		set["startedAt"] = at
	}
	if to == model.RoomCompleted {
		set["completedAt"] = at
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "status": from}, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (r *roomRepo) AddParticipant(ctx context.Context, id string, p model.Participant, cond JoinCondition) (bool, error) {
	filter := bson.M{
		"_id":   id,
		"$expr": bson.M{"$lt": bson.A{"$currentParticipants", "$maxParticipants"}},
	}
	if len(cond.Statuses) > 0 {
		filter["status"] = bson.M{"$in": cond.Statuses}
	}
	nor := bson.A{}
	if cond.UserID != "" {
		nor = append(nor, bson.M{"participants.userId": cond.UserID})
	}
	if cond.Email != "" {
		nor = append(nor, bson.M{"participants": bson.M{"$elemMatch": bson.M{"email": cond.Email, "isAuthenticated": true}}})
	}
	if cond.ParticipantID != "" {
		nor = append(nor, bson.M{"participants.id": cond.ParticipantID})
	}
	if len(nor) > 0 {
		filter["$nor"] = nor
	}

	update := bson.M{
		"$push": bson.M{"participants": p},
		"$inc":  bson.M{"currentParticipants": 1},
		"$set":  bson.M{"updatedAt": p.JoinedAt},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// MarkParticipantLeft flags a present participant as departed. The record
// stays in the room so its answers keep their owner.
func (r *roomRepo) MarkParticipantLeft(ctx context.Context, id, participantID string, at time.Time) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{
			"_id":          id,
			"participants": bson.M{"$elemMatch": bson.M{"id": participantID, "leftAt": nil}},
		},
		bson.M{
			"$inc": bson.M{"currentParticipants": -1},
			"$set": bson.M{
				"participants.$.leftAt":   at,
				"participants.$.isActive": false,
				"updatedAt":               at,
			},
		})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// RejoinParticipant brings a departed participant back under the same ID,
// with the same status and capacity guards as AddParticipant.
func (r *roomRepo) RejoinParticipant(ctx context.Context, id, participantID string, statuses []model.RoomStatus, at time.Time) (bool, error) {
	filter := bson.M{
		"_id":          id,
		"$expr":        bson.M{"$lt": bson.A{"$currentParticipants", "$maxParticipants"}},
		"participants": bson.M{"$elemMatch": bson.M{"id": participantID, "leftAt": bson.M{"$ne": nil}}},
	}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	res, err := r.collection.UpdateOne(ctx, filter, bson.M{
		"$unset": bson.M{"participants.$.leftAt": ""},
		"$inc":   bson.M{"currentParticipants": 1},
		"$set": bson.M{
			"participants.$.isActive":     true,
			"participants.$.lastActivity": at,
			"updatedAt":                   at,
		},
	})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (r *roomRepo) ApplyAnswer(ctx context.Context, id, participantID string, points int, at time.Time) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "participants.id": participantID},
		bson.M{
			"$inc": bson.M{
				"participants.$.score":             points,
				"participants.$.answeredQuestions": 1,
			},
			"$set": bson.M{
				"participants.$.lastActivity": at,
				"participants.$.isActive":     true,
			},
		})
	return err
}

func (r *roomRepo) SetRatingStats(ctx context.Context, id string, average float64, total int) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"statistics.averageRating": average,
		"statistics.totalRatings":  total,
		"updatedAt":                time.Now(),
	}})
	return err
}

func (r *roomRepo) SetResultStats(ctx context.Context, id string, averageScore, completionRate float64) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"statistics.averageScore":   averageScore,
		"statistics.completionRate": completionRate,
		"updatedAt":                 time.Now(),
	}})
	return err
}

func (r *roomRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *roomRepo) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	found := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		found[doc.ID] = true
	}
	return found, cursor.Err()
}
