package model

import "time"

// ParticipantResult is one row of the ranked results table.
type ParticipantResult struct {
	ParticipantID   string `json:"participantId"`
	UserID          string `json:"userId,omitempty"`
	UserName        string `json:"userName"`
	IsAuthenticated bool   `json:"isAuthenticated"`
	Left            bool   `json:"left,omitempty"`
	TotalQuestions  int    `json:"totalQuestions"`
	CorrectAnswers  int    `json:"correctAnswers"`
	TotalPoints     int    `json:"totalPoints"`
	TimeSpent       int    `json:"timeSpent"`
	Score           int    `json:"score"`
	Accuracy        int    `json:"accuracy"`
	Rank            int    `json:"rank"`
}

// QuestionStat aggregates all answers to one room question.
type QuestionStat struct {
	QuestionID     string `json:"questionId"`
	Order          int    `json:"order"`
	Title          string `json:"title"`
	Attempts       int    `json:"attempts"`
	CorrectAnswers int    `json:"correctAnswers"`
	CorrectRate    int    `json:"correctRate"`
	AverageTime    int    `json:"averageTime"`
}

// ResultsSummary holds the room-level statistics.
type ResultsSummary struct {
	TotalParticipants int `json:"totalParticipants"`
	TotalQuestions    int `json:"totalQuestions"`
	AverageScore      int `json:"averageScore"`
	CompletionRate    int `json:"completionRate"`
	HighestScore      int `json:"highestScore"`
	LowestScore       int `json:"lowestScore"`
	AverageTime       int `json:"averageTime"`
}

// RoomResults is the full results projection of a room.
type RoomResults struct {
	RoomID       string              `json:"roomId"`
	RoomCode     string              `json:"roomCode"`
	Title        string              `json:"title"`
	Status       RoomStatus          `json:"status"`
	Participants []ParticipantResult `json:"participants"`
	Questions    []QuestionStat      `json:"questions"`
	Summary      ResultsSummary      `json:"summary"`
	ComputedAt   time.Time           `json:"computedAt"`
}

type ExportFormat string

const (
	ExportCSV   ExportFormat = "csv"
	ExportPDF   ExportFormat = "pdf"
	ExportExcel ExportFormat = "excel"
)

func (f ExportFormat) Valid() bool {
	return f == ExportCSV || f == ExportPDF || f == ExportExcel
}

// Leaderboard is the top of a room ranking plus the caller's own rank, which
// is 0 when the caller has no participant record in the room.
type Leaderboard struct {
	Entries []ParticipantResult `json:"entries"`
	MyRank  int                 `json:"myRank,omitempty"`
}
