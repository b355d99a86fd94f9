package model

import "time"

// Participant is a member of a room, embedded in the room document.
// UserID and Email are empty for guests. Leaving keeps the record with LeftAt
// set, so a rejoin gets the same ID back along with its answers.
type Participant struct {
	ID                string     `json:"id" bson:"id"`
	UserID            string     `json:"userId,omitempty" bson:"userId,omitempty"`
	UserName          string     `json:"userName" bson:"userName"`
	Email             string     `json:"email,omitempty" bson:"email,omitempty"`
	IsAuthenticated   bool       `json:"isAuthenticated" bson:"isAuthenticated"`
	JoinedAt          time.Time  `json:"joinedAt" bson:"joinedAt"`
	IsActive          bool       `json:"isActive" bson:"isActive"`
	Score             int        `json:"score" bson:"score"`
	AnsweredQuestions int        `json:"answeredQuestions" bson:"answeredQuestions"`
	LastActivity      time.Time  `json:"lastActivity" bson:"lastActivity"`
	LeftAt            *time.Time `json:"leftAt,omitempty" bson:"leftAt,omitempty"`
}

// Present reports whether the participant is currently in the room.
func (p *Participant) Present() bool {
	return p.LeftAt == nil
}

// JoinResponse is returned when a caller joins a room
type JoinResponse struct {
	Room        *RoomView    `json:"room"`
	Participant *Participant `json:"participant"`
	GuestToken  string       `json:"guestToken,omitempty"`
	Rejoined    bool         `json:"rejoined,omitempty"`
}
