package model

import "time"

type ActivityType string

const (
	ActivityRoomCreated       ActivityType = "room_created"
	ActivityRoomUpdated       ActivityType = "room_updated"
	ActivityRoomStatusChanged ActivityType = "room_status_changed"
	ActivityParticipantJoined ActivityType = "participant_joined"
	ActivityParticipantLeft   ActivityType = "participant_left"
	ActivityQuestionAdded     ActivityType = "question_added"
	ActivityQuestionRemoved   ActivityType = "question_removed"
	ActivityAnswerSubmitted   ActivityType = "answer_submitted"
	ActivityRatingSubmitted   ActivityType = "rating_submitted"
)

// Activity is an entry of the room activity log.
type Activity struct {
	ID        string            `json:"id" bson:"_id"`
	RoomID    string            `json:"roomId" bson:"roomId"`
	Type      ActivityType      `json:"type" bson:"type"`
	ActorID   string            `json:"actorId,omitempty" bson:"actorId,omitempty"`
	ActorName string            `json:"actorName,omitempty" bson:"actorName,omitempty"`
	Details   map[string]string `json:"details,omitempty" bson:"details,omitempty"`
	CreatedAt time.Time         `json:"createdAt" bson:"createdAt"`
}
