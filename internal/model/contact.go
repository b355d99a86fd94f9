package model

import "time"

// ContactSubmission is a stored contact-form message.
type ContactSubmission struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	Subject   string    `json:"subject,omitempty" bson:"subject,omitempty"`
	Message   string    `json:"message" bson:"message"`
	UserID    string    `json:"userId,omitempty" bson:"userId,omitempty"`
	IPAddress string    `json:"-" bson:"ipAddress,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
