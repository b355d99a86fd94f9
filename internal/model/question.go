package model

import "time"

// DefaultQuestionPoints is awarded for a correct answer when a question has no explicit points.
const DefaultQuestionPoints = 10

// Question is a reusable multiple-choice question owned by its creator.
type Question struct {
	ID            string     `json:"id" bson:"_id"`
	Title         string     `json:"title" bson:"title"`
	Content       string     `json:"content" bson:"content"`
	Options       []string   `json:"options" bson:"options"`
	CorrectAnswer int        `json:"correctAnswer" bson:"correctAnswer"` // 0-based index into Options
	Difficulty    Difficulty `json:"difficulty" bson:"difficulty"`
	Category      string     `json:"category" bson:"category"`
	Explanation   string     `json:"explanation,omitempty" bson:"explanation,omitempty"`
	TimeLimit     *int       `json:"timeLimit,omitempty" bson:"timeLimit,omitempty"`
	Points        *int       `json:"points,omitempty" bson:"points,omitempty"`
	Tags          []string   `json:"tags,omitempty" bson:"tags,omitempty"`
	CreatorID     string     `json:"creatorId" bson:"creatorId"`
	CreatorName   string     `json:"creatorName" bson:"creatorName"`
	IsPublic      bool       `json:"isPublic" bson:"isPublic"`
	UsageCount    int        `json:"usageCount" bson:"usageCount"`
	CreatedAt     time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// PointValue returns the points a correct answer is worth.
func (q *Question) PointValue() int {
	if q.Points != nil && *q.Points > 0 {
		return *q.Points
	}
	return DefaultQuestionPoints
}

// ReadableBy reports whether userID may read the question.
func (q *Question) ReadableBy(userID string) bool {
	return q.IsPublic || (userID != "" && q.CreatorID == userID)
}

// QuestionScope selects which questions a listing covers
type QuestionScope string

const (
	QuestionScopePublic QuestionScope = "public"
	QuestionScopeMine   QuestionScope = "my"
	QuestionScopeAll    QuestionScope = "all"
)

// QuestionFilter narrows question listings. OwnerID is set for "my"; for "all"
// both OwnerID and IncludePublic are set.
type QuestionFilter struct {
	OwnerID       string
	IncludePublic bool
	Search        string
	Category      string
	Difficulty    Difficulty
	Page          int
	Limit         int
}

// QuestionInput carries the writable fields of a question
type QuestionInput struct {
	Title         string     `json:"title" validate:"required"`
	Content       string     `json:"content" validate:"required"`
	Options       []string   `json:"options" validate:"required,min=2,dive,required"`
	CorrectAnswer int        `json:"correctAnswer" validate:"min=0"`
	Difficulty    Difficulty `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Category      string     `json:"category" validate:"required"`
	Explanation   string     `json:"explanation"`
	TimeLimit     *int       `json:"timeLimit" validate:"omitempty,min=1"`
	Points        *int       `json:"points" validate:"omitempty,min=1"`
	Tags          []string   `json:"tags"`
	IsPublic      bool       `json:"isPublic"`
}

// RoomQuestion attaches a question to a room with a display order.
type RoomQuestion struct {
	ID         string    `json:"id" bson:"_id"`
	RoomID     string    `json:"roomId" bson:"roomId"`
	QuestionID string    `json:"questionId" bson:"questionId"`
	Order      int       `json:"order" bson:"order"`
	AddedAt    time.Time `json:"addedAt" bson:"addedAt"`
}

// RoomQuestionView is a room question as delivered to a participant.
type RoomQuestionView struct {
	Order         int        `json:"order"`
	QuestionID    string     `json:"questionId"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	Options       []string   `json:"options"`
	Difficulty    Difficulty `json:"difficulty"`
	Category      string     `json:"category"`
	TimeLimit     int        `json:"timeLimit"`
	Points        int        `json:"points"`
	CorrectAnswer *int       `json:"correctAnswer,omitempty"`
	Explanation   string     `json:"explanation,omitempty"`
}
