package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"quizroom/internal/model"
)

type ContactRepo interface {
	Create(ctx context.Context, s *model.ContactSubmission) error
}

type contactRepo struct {
	collection *mongo.Collection
}

func NewContactRepo(db *mongo.Database) ContactRepo {
	return &contactRepo{collection: db.Collection(ContactCollection)}
}

func (r *contactRepo) Create(ctx context.Context, s *model.ContactSubmission) error {
	if s.ID == "" {
		s.ID = NewID()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, s)
	return err
}
