package service

import (
	"context"

	"github.com/rs/zerolog"

	"quizroom/internal/model"
	"quizroom/internal/repository"
)

// ActivityRecorder appends to the room activity log and forwards entries to
// the event stream. Recording never fails the calling operation.
type ActivityRecorder struct {
	repo      repository.ActivityRepo
	publisher ActivityPublisher
	log       *zerolog.Logger
}

func NewActivityRecorder(repo repository.ActivityRepo, log *zerolog.Logger) *ActivityRecorder {
	return &ActivityRecorder{repo: repo, log: log}
}

// SetPublisher sets the event stream activities are forwarded to
func (r *ActivityRecorder) SetPublisher(p ActivityPublisher) {
	r.publisher = p
}

func (r *ActivityRecorder) Record(ctx context.Context, roomID string, typ model.ActivityType, actor model.Identity, details map[string]string) {
	a := &model.Activity{
		RoomID:    roomID,
		Type:      typ,
		ActorID:   actorID(actor),
		ActorName: actorName(actor),
		Details:   details,
	}
	if err := r.repo.Create(ctx, a); err != nil {
		r.log.Warn().Err(err).Str("room_id", roomID).Str("type", string(typ)).Msg("failed to record activity")
		return
	}
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(ctx, a); err != nil {
		r.log.Warn().Err(err).Str("room_id", roomID).Str("type", string(typ)).Msg("failed to publish activity")
	}
}

func (r *ActivityRecorder) List(ctx context.Context, roomID string, limit int) ([]*model.Activity, error) {
	return r.repo.ListByRoom(ctx, roomID, limit)
}

func actorID(id model.Identity) string {
	if id.Authenticated {
		return id.UserID
	}
	return id.GuestID
}

func actorName(id model.Identity) string {
	if id.Authenticated {
		return id.Name
	}
	return id.GuestName
}
