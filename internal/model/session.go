package model

import "time"

type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionEnded  SessionStatus = "ended"
)

// RoomSession records one run of a room, opened when the room goes active.
type RoomSession struct {
	ID        string        `json:"id" bson:"_id"`
	RoomID    string        `json:"roomId" bson:"roomId"`
	Status    SessionStatus `json:"status" bson:"status"`
	StartedAt time.Time     `json:"startedAt" bson:"startedAt"`
	EndedAt   *time.Time    `json:"endedAt,omitempty" bson:"endedAt,omitempty"`
}
