package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quizroom/internal/model"
)

// OTPRepo stores one-time verification codes
type OTPRepo interface {
	Create(ctx context.Context, otp *model.OTP) error
	GetLatest(ctx context.Context, email string, purpose model.OTPPurpose) (*model.OTP, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context, email string, purpose model.OTPPurpose) error
}

type otpRepo struct {
	collection *mongo.Collection
}

// NewOTPRepo creates a new OTP repository
func NewOTPRepo(db *mongo.Database) OTPRepo {
	return &otpRepo{collection: db.Collection(OTPsCollection)}
}

func (r *otpRepo) Create(ctx context.Context, otp *model.OTP) error {
	if otp.ID == "" {
		otp.ID = NewID()
	}
	if otp.CreatedAt.IsZero() {
		otp.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, otp)
	return err
}

func (r *otpRepo) GetLatest(ctx context.Context, email string, purpose model.OTPPurpose) (*model.OTP, error) {
	var otp model.OTP
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	err := r.collection.FindOne(ctx, bson.M{"email": email, "type": purpose}, opts).Decode(&otp)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &otp, nil
}

func (r *otpRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *otpRepo) DeleteAll(ctx context.Context, email string, purpose model.OTPPurpose) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"email": email, "type": purpose})
	return err
}
