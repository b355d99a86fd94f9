package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"quizroom/internal/model"
)

// QuestionRepo handles MongoDB operations for the question bank
type QuestionRepo interface {
	Create(ctx context.Context, q *model.Question) error
	GetByID(ctx context.Context, id string) (*model.Question, error)
	GetByIDs(ctx context.Context, ids []string) ([]*model.Question, error)
	List(ctx context.Context, f model.QuestionFilter) ([]*model.Question, int64, error)
	Update(ctx context.Context, q *model.Question) (*model.Question, error)
	Delete(ctx context.Context, id string) (bool, error)
	IncrementUsage(ctx context.Context, id string) error
}

type questionRepo struct {
	collection *mongo.Collection
}

// NewQuestionRepo creates a new question repository
func NewQuestionRepo(db *mongo.Database) QuestionRepo {
	return &questionRepo{collection: db.Collection(QuestionsCollection)}
}

func (r *questionRepo) Create(ctx context.Context, q *model.Question) error {
	if q.ID == "" {
		q.ID = NewID()
	}
	now := time.Now()
	q.CreatedAt = now
	q.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, q)
	return wrapWriteErr(err)
}

func (r *questionRepo) GetByID(ctx context.Context, id string) (*model.Question, error) {
	var q model.Question
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&q)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *questionRepo) GetByIDs(ctx context.Context, ids []string) ([]*model.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var questions []*model.Question
	if err := cursor.All(ctx, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func questionFilter(f model.QuestionFilter) bson.M {
	and := bson.A{}
	switch {
	case f.OwnerID != "" && f.IncludePublic:
		and = append(and, bson.M{"$or": bson.A{bson.M{"creatorId": f.OwnerID}, bson.M{"isPublic": true}}})
	case f.OwnerID != "":
		and = append(and, bson.M{"creatorId": f.OwnerID})
	default:
		and = append(and, bson.M{"isPublic": true})
	}
	if f.Search != "" {
		re := containsFold(f.Search)
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"title": re},
			bson.M{"content": re},
			bson.M{"category": re},
			bson.M{"tags": re},
		}})
	}
	if f.Category != "" {
		and = append(and, bson.M{"category": containsFold(f.Category)})
	}
	if f.Difficulty != "" {
		and = append(and, bson.M{"difficulty": f.Difficulty})
	}
	return bson.M{"$and": and}
}

func (r *questionRepo) List(ctx context.Context, f model.QuestionFilter) ([]*model.Question, int64, error) {
	filter := questionFilter(f)

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	cursor, err := r.collection.Find(ctx, filter, pageOptions(f.Page, f.Limit))
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	questions := []*model.Question{}
	if err := cursor.All(ctx, &questions); err != nil {
		return nil, 0, err
	}
	return questions, total, nil
}

// Update writes the editable fields of q and returns the stored question.
// Ownership, creation data and usageCount are left as stored, so concurrent
// IncrementUsage calls are never overwritten.
func (r *questionRepo) Update(ctx context.Context, q *model.Question) (*model.Question, error) {
	update := bson.M{"$set": bson.M{
		"title":         q.Title,
		"content":       q.Content,
		"options":       q.Options,
		"correctAnswer": q.CorrectAnswer,
		"difficulty":    q.Difficulty,
		"category":      q.Category,
		"explanation":   q.Explanation,
		"timeLimit":     q.TimeLimit,
		"points":        q.Points,
		"tags":          q.Tags,
		"isPublic":      q.IsPublic,
		"updatedAt":     time.Now(),
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": q.ID}, update)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, q.ID)
}

func (r *questionRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *questionRepo) IncrementUsage(ctx context.Context, id string) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"usageCount": 1}})
	return err
}
