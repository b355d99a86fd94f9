package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quizroom/internal/model"
	"quizroom/internal/repository"
)

// RoomRepo keeps rooms in a map. Every conditional update runs under the
// write lock so joins behave like single-document updates.
type RoomRepo struct {
	mu    sync.RWMutex
	rooms map[string]model.Room
}

func NewRoomRepo() *RoomRepo {
	return &RoomRepo{rooms: make(map[string]model.Room)}
}

func (r *RoomRepo) Create(_ context.Context, room *model.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rooms {
		if existing.Code == room.Code {
			return repository.ErrDuplicate
		}
	}
	if room.ID == "" {
		room.ID = repository.NewID()
	}
	if room.Participants == nil {
		room.Participants = []model.Participant{}
	}
	r.rooms[room.ID] = cloneRoom(*room)
	return nil
}

func (r *RoomRepo) GetByID(_ context.Context, id string) (*model.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, nil
	}
	room = cloneRoom(room)
	return &room, nil
}

func (r *RoomRepo) GetByCode(_ context.Context, code string) (*model.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, room := range r.rooms {
		if room.Code == code {
			room = cloneRoom(room)
			return &room, nil
		}
	}
	return nil, nil
}

func matchesRoom(room model.Room, f model.RoomFilter) bool {
	if f.PublicOnly && !room.IsPublic {
		return false
	}
	if f.CreatorID != "" && room.CreatorID != f.CreatorID {
		return false
	}
	if f.Participant != "" {
		if p := room.FindParticipantByUser(f.Participant); p == nil || !p.Present() {
			return false
		}
	}
	if f.PublicOrOf != "" && !room.IsPublic && room.CreatorID != f.PublicOrOf && room.FindParticipantByUser(f.PublicOrOf) == nil {
		return false
	}
	if f.Search != "" && !containsFold(room.Title, f.Search) && !containsFold(room.Description, f.Search) && !containsFold(room.Code, f.Search) {
		return false
	}
	if f.Status != "" && room.Status != f.Status {
		return false
	}
	if f.Category != "" && !containsFold(room.Category, f.Category) {
		return false
	}
	if f.Difficulty != "" && room.Difficulty != f.Difficulty {
		return false
	}
	return true
}

func (r *RoomRepo) List(_ context.Context, f model.RoomFilter) ([]*model.Room, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*model.Room
	for _, room := range r.rooms {
		room := room
		if matchesRoom(room, f) {
			room = cloneRoom(room)
			all = append(all, &room)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	return paginate(all, f.Page, f.Limit), int64(len(all)), nil
}

func (r *RoomRepo) Update(_ context.Context, id string, u model.RoomUpdate) (*model.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, nil
	}
	if u.MaxParticipants != nil && room.CurrentParticipants > *u.MaxParticipants {
		return nil, nil
	}
	if u.Title != nil {
		room.Title = *u.Title
	}
	if u.Description != nil {
		room.Description = *u.Description
	}
	if u.MaxParticipants != nil {
		room.MaxParticipants = *u.MaxParticipants
	}
	if u.IsPublic != nil {
		room.IsPublic = *u.IsPublic
	}
	if u.AllowLateJoin != nil {
		room.AllowLateJoin = *u.AllowLateJoin
	}
	if u.ShowLeaderboard != nil {
		room.ShowLeaderboard = *u.ShowLeaderboard
	}
	if u.ShuffleQuestions != nil {
		room.ShuffleQuestions = *u.ShuffleQuestions
	}
	if u.Category != nil {
		room.Category = *u.Category
	}
	if u.Difficulty != nil {
		room.Difficulty = *u.Difficulty
	}
	if u.TimeLimit != nil {
		room.TimeLimit = *u.TimeLimit
	}
	if u.ScheduledStartTime != nil {
		t := *u.ScheduledStartTime
		room.ScheduledStartTime = &t
	}
	if u.Settings != nil {
		room.Settings = *u.Settings
	}
	room.UpdatedAt = time.Now()
	r.rooms[id] = room
	out := cloneRoom(room)
	return &out, nil
}

func (r *RoomRepo) TransitionStatus(_ context.Context, id string, from, to model.RoomStatus, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok || room.Status != from {
		return false, nil
	}
	room.Status = to
	room.UpdatedAt = at
	if to == model.RoomActive && from == model.RoomWaiting {
		room.StartedAt = &at
	}
	if to == model.RoomCompleted {
		room.CompletedAt = &at
	}
	r.rooms[id] = room
	return true, nil
}

func (r *RoomRepo) AddParticipant(_ context.Context, id string, p model.Participant, cond repository.JoinCondition) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok || room.CurrentParticipants >= room.MaxParticipants {
		return false, nil
	}
	if !statusIn(room.Status, cond.Statuses) {
		return false, nil
	}
	if cond.UserID != "" && room.FindParticipantByUser(cond.UserID) != nil {
		return false, nil
	}
	if cond.Email != "" && room.HasEmail(cond.Email) {
		return false, nil
	}
	if cond.ParticipantID != "" && room.FindParticipant(cond.ParticipantID) != nil {
		return false, nil
	}

	room.Participants = append(room.Participants, p)
	room.CurrentParticipants++
	room.UpdatedAt = p.JoinedAt
	r.rooms[id] = room
	return true, nil
}

func (r *RoomRepo) MarkParticipantLeft(_ context.Context, id, participantID string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return false, nil
	}
	p := room.FindParticipant(participantID)
	if p == nil || !p.Present() {
		return false, nil
	}
	left := at
	p.LeftAt = &left
	p.IsActive = false
	room.CurrentParticipants--
	room.UpdatedAt = at
	r.rooms[id] = room
	return true, nil
}

func (r *RoomRepo) RejoinParticipant(_ context.Context, id, participantID string, statuses []model.RoomStatus, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok || room.CurrentParticipants >= room.MaxParticipants || !statusIn(room.Status, statuses) {
		return false, nil
	}
	p := room.FindParticipant(participantID)
	if p == nil || p.Present() {
		return false, nil
	}
	p.LeftAt = nil
	p.IsActive = true
	p.LastActivity = at
	room.CurrentParticipants++
	room.UpdatedAt = at
	r.rooms[id] = room
	return true, nil
}

func statusIn(status model.RoomStatus, statuses []model.RoomStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func (r *RoomRepo) ApplyAnswer(_ context.Context, id, participantID string, points int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil
	}
	if p := room.FindParticipant(participantID); p != nil {
		p.Score += points
		p.AnsweredQuestions++
		p.LastActivity = at
		p.IsActive = true
		r.rooms[id] = room
	}
	return nil
}

func (r *RoomRepo) SetRatingStats(_ context.Context, id string, average float64, total int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok := r.rooms[id]; ok {
		room.Statistics.AverageRating = average
		room.Statistics.TotalRatings = total
		r.rooms[id] = room
	}
	return nil
}

func (r *RoomRepo) SetResultStats(_ context.Context, id string, averageScore, completionRate float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok := r.rooms[id]; ok {
		room.Statistics.AverageScore = averageScore
		room.Statistics.CompletionRate = completionRate
		r.rooms[id] = room
	}
	return nil
}

func (r *RoomRepo) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[id]; !ok {
		return false, nil
	}
	delete(r.rooms, id)
	return true, nil
}

func (r *RoomRepo) ExistingIDs(_ context.Context, ids []string) (map[string]bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	found := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := r.rooms[id]; ok {
			found[id] = true
		}
	}
	return found, nil
}

func cloneRoom(room model.Room) model.Room {
	room.Participants = append([]model.Participant{}, room.Participants...)
	return room
}

var _ repository.RoomRepo = (*RoomRepo)(nil)
