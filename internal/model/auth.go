package model

import (
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are carried by the session token of a registered user.
type SessionClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// GuestClaims are carried by a room-scoped guest token issued on join.
type GuestClaims struct {
	ParticipantID string `json:"participantId"`
	RoomID        string `json:"roomId"`
	Name          string `json:"name"`
	jwt.RegisteredClaims
}

// Identity is the caller as resolved from the request. A zero Identity is an
// anonymous caller.
type Identity struct {
	UserID        string
	Name          string
	Email         string
	Authenticated bool
	GuestID       string // participant ID from a guest token
	GuestRoomID   string
	GuestName     string
}

// GuestFor returns the guest participant ID if the guest token belongs to roomID.
func (i Identity) GuestFor(roomID string) string {
	if i.GuestID != "" && i.GuestRoomID == roomID {
		return i.GuestID
	}
	return ""
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresIn int64     `json:"expiresIn"` // seconds
	User      *UserView `json:"user"`
}
