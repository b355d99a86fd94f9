package model

import "time"

type RoomStatus string

const (
	RoomWaiting   RoomStatus = "waiting"
	RoomActive    RoomStatus = "active"
	RoomPaused    RoomStatus = "paused"
	RoomCompleted RoomStatus = "completed"
	RoomCancelled RoomStatus = "cancelled"
)

// roomTransitions lists the allowed next states for each status.
var roomTransitions = map[RoomStatus][]RoomStatus{
	RoomWaiting: {RoomActive, RoomCancelled},
	RoomActive:  {RoomCompleted, RoomCancelled, RoomPaused},
	RoomPaused:  {RoomActive},
}

// Valid reports whether s is a known room status.
func (s RoomStatus) Valid() bool {
	switch s {
	case RoomWaiting, RoomActive, RoomPaused, RoomCompleted, RoomCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine allows s -> next.
func (s RoomStatus) CanTransitionTo(next RoomStatus) bool {
	for _, allowed := range roomTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Difficulty is shared by questions and rooms
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

const MaxRoomParticipants = 1000

type RoomSettings struct {
	AllowChat    bool `json:"allowChat" bson:"allowChat"`
	AllowSkip    bool `json:"allowSkip" bson:"allowSkip"`
	ShowFeedback bool `json:"showFeedback" bson:"showFeedback"`
}

type RoomStatistics struct {
	AverageRating  float64 `json:"averageRating" bson:"averageRating"`
	TotalRatings   int     `json:"totalRatings" bson:"totalRatings"`
	AverageScore   float64 `json:"averageScore" bson:"averageScore"`
	CompletionRate float64 `json:"completionRate" bson:"completionRate"`
}

// Room is a quiz session. Participants are embedded so joins and score bumps
// are single-document updates; answers, ratings and activities live in their
// own collections keyed by room ID.
type Room struct {
	ID                  string         `json:"id" bson:"_id"`
	Code                string         `json:"code" bson:"code"`
	Title               string         `json:"title" bson:"title"`
	Description         string         `json:"description" bson:"description"`
	CreatorID           string         `json:"creatorId" bson:"creatorId"`
	CreatorName         string         `json:"creatorName" bson:"creatorName"`
	MaxParticipants     int            `json:"maxParticipants" bson:"maxParticipants"`
	CurrentParticipants int            `json:"currentParticipants" bson:"currentParticipants"`
	Status              RoomStatus     `json:"status" bson:"status"`
	Participants        []Participant  `json:"participants" bson:"participants"`
	Settings            RoomSettings   `json:"settings" bson:"settings"`
	Statistics          RoomStatistics `json:"statistics" bson:"statistics"`
	IsPublic            bool           `json:"isPublic" bson:"isPublic"`
	AllowLateJoin       bool           `json:"allowLateJoin" bson:"allowLateJoin"`
	ShowLeaderboard     bool           `json:"showLeaderboard" bson:"showLeaderboard"`
	ShuffleQuestions    bool           `json:"shuffleQuestions" bson:"shuffleQuestions"`
	Category            string         `json:"category" bson:"category"`
	Difficulty          Difficulty     `json:"difficulty" bson:"difficulty"`
	TimeLimit           int            `json:"timeLimit" bson:"timeLimit"` // seconds per question
	ScheduledStartTime  *time.Time     `json:"scheduledStartTime,omitempty" bson:"scheduledStartTime,omitempty"`
	CreatedAt           time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt" bson:"updatedAt"`
	StartedAt           *time.Time     `json:"startedAt,omitempty" bson:"startedAt,omitempty"`
	CompletedAt         *time.Time     `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
}

// FindParticipant returns the participant with the given participant ID.
func (r *Room) FindParticipant(participantID string) *Participant {
	for i := range r.Participants {
		if r.Participants[i].ID == participantID {
			return &r.Participants[i]
		}
	}
	return nil
}

// FindParticipantByUser returns the participant record of an authenticated user.
func (r *Room) FindParticipantByUser(userID string) *Participant {
	if userID == "" {
		return nil
	}
	for i := range r.Participants {
		if r.Participants[i].UserID == userID {
			return &r.Participants[i]
		}
	}
	return nil
}

// HasEmail reports whether an authenticated participant already uses email.
func (r *Room) HasEmail(email string) bool {
	if email == "" {
		return false
	}
	for _, p := range r.Participants {
		if p.IsAuthenticated && p.Email == email {
			return true
		}
	}
	return false
}

// RoomMeta is the cached code -> room index stored in Redis
type RoomMeta struct {
	RoomID    string     `json:"roomId"`
	CreatorID string     `json:"creatorId"`
	Status    RoomStatus `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
}

// RoomView is the projection returned by the API. Participants is only
// populated for the room creator and for participants.
type RoomView struct {
	Room
	Participants []Participant `json:"participants,omitempty"`
	IsCreator    bool          `json:"isCreator"`
	IsJoined     bool          `json:"isJoined"`
}

// RoomFilter narrows room listings
type RoomFilter struct {
	CreatorID   string
	Participant string // user ID
	PublicOrOf  string // public rooms plus rooms created or joined by this user
	PublicOnly  bool
	Search      string
	Status      RoomStatus
	Category    string
	Difficulty  Difficulty
	Page        int
	Limit       int
}

// RoomUpdate holds the whitelisted mutable fields. Nil fields are left untouched.
type RoomUpdate struct {
	Title              *string       `json:"title,omitempty"`
	Description        *string       `json:"description,omitempty"`
	MaxParticipants    *int          `json:"maxParticipants,omitempty"`
	IsPublic           *bool         `json:"isPublic,omitempty"`
	AllowLateJoin      *bool         `json:"allowLateJoin,omitempty"`
	ShowLeaderboard    *bool         `json:"showLeaderboard,omitempty"`
	ShuffleQuestions   *bool         `json:"shuffleQuestions,omitempty"`
	Category           *string       `json:"category,omitempty"`
	Difficulty         *Difficulty   `json:"difficulty,omitempty"`
	TimeLimit          *int          `json:"timeLimit,omitempty"`
	ScheduledStartTime *time.Time    `json:"scheduledStartTime,omitempty"`
	Settings           *RoomSettings `json:"settings,omitempty"`
}

// IsEmpty reports whether no field is set.
func (u RoomUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.MaxParticipants == nil && u.IsPublic == nil &&
		u.AllowLateJoin == nil && u.ShowLeaderboard == nil && u.ShuffleQuestions == nil &&
		u.Category == nil && u.Difficulty == nil && u.TimeLimit == nil &&
		u.ScheduledStartTime == nil && u.Settings == nil
}

// Page describes a paginated listing
type Page struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

// NewPage computes the derived pagination fields.
func NewPage(page, limit int, total int64) Page {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Page{
		Page:    page,
		Limit:   limit,
		Total:   total,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
	}
}
