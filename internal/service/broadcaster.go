package service

import (
	"context"

	"quizroom/internal/model"
)

// ActivityPublisher forwards room activities to an event stream. Declared here
// so the events package can implement it without importing services.
type ActivityPublisher interface {
	Publish(ctx context.Context, activity *model.Activity) error
}
