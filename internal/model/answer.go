package model

import "time"

// ParticipantAnswer is one append-only answer record.
type ParticipantAnswer struct {
	ID             string    `json:"id" bson:"_id"`
	RoomID         string    `json:"roomId" bson:"roomId"`
	ParticipantID  string    `json:"participantId" bson:"participantId"`
	QuestionID     string    `json:"questionId" bson:"questionId"`
	SelectedOption int       `json:"selectedOption" bson:"selectedOption"`
	IsCorrect      bool      `json:"isCorrect" bson:"isCorrect"`
	Points         int       `json:"points" bson:"points"`
	TimeSpent      int       `json:"timeSpent" bson:"timeSpent"` // seconds
	Timestamp      time.Time `json:"timestamp" bson:"timestamp"`
}

// SubmitAnswerRequest is the request body for answering a question
type SubmitAnswerRequest struct {
	QuestionID     string `json:"questionId" validate:"required"`
	SelectedOption int    `json:"selectedOption" validate:"min=0"`
	TimeSpent      int    `json:"timeSpent" validate:"min=0"`
}

// SubmitAnswerResponse reports the outcome of an answer
type SubmitAnswerResponse struct {
	AnswerID      string `json:"answerId"`
	IsCorrect     bool   `json:"isCorrect"`
	Points        int    `json:"points"`
	CorrectAnswer *int   `json:"correctAnswer,omitempty"`
	Explanation   string `json:"explanation,omitempty"`
}
