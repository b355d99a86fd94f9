package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quizroom/internal/model"
	"quizroom/internal/repository"
)

type RoomQuestionRepo struct {
	mu  sync.RWMutex
	set roomKeyed[model.RoomQuestion]
}

func NewRoomQuestionRepo() *RoomQuestionRepo {
	return &RoomQuestionRepo{set: roomKeyed[model.RoomQuestion]{room: func(rq model.RoomQuestion) string { return rq.RoomID }}}
}

func (r *RoomQuestionRepo) Add(_ context.Context, rq *model.RoomQuestion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.set.items {
		if it.RoomID == rq.RoomID && it.QuestionID == rq.QuestionID {
			return repository.ErrDuplicate
		}
	}
	if rq.ID == "" {
		rq.ID = repository.NewID()
	}
	if rq.AddedAt.IsZero() {
		rq.AddedAt = time.Now()
	}
	r.set.items = append(r.set.items, *rq)
	return nil
}

func (r *RoomQuestionRepo) ListByRoom(_ context.Context, roomID string) ([]*model.RoomQuestion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*model.RoomQuestion{}
	for _, it := range r.set.items {
		if it.RoomID == roomID {
			it := it
			out = append(out, &it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *RoomQuestionRepo) Get(_ context.Context, roomID, questionID string) (*model.RoomQuestion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, it := range r.set.items {
		if it.RoomID == roomID && it.QuestionID == questionID {
			return &it, nil
		}
	}
	return nil, nil
}

func (r *RoomQuestionRepo) Remove(_ context.Context, roomID, questionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, it := range r.set.items {
		if it.RoomID == roomID && it.QuestionID == questionID {
			r.set.items = append(r.set.items[:i], r.set.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *RoomQuestionRepo) RoomIDsByQuestion(_ context.Context, questionID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := map[string]struct{}{}
	for _, it := range r.set.items {
		if it.QuestionID == questionID {
			set[it.RoomID] = struct{}{}
		}
	}
	return sortedKeys(set), nil
}

func (r *RoomQuestionRepo) DeleteByQuestion(_ context.Context, questionID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.set.items[:0]
	var n int64
	for _, it := range r.set.items {
		if it.QuestionID == questionID {
			n++
			continue
		}
		kept = append(kept, it)
	}
	r.set.items = kept
	return n, nil
}

func (r *RoomQuestionRepo) DeleteByRoom(_ context.Context, roomID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.set.deleteByRoom(roomID), nil
}

func (r *RoomQuestionRepo) RoomIDs(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.set.roomIDs(), nil
}

type AnswerRepo struct {
	mu  sync.RWMutex
	set roomKeyed[model.ParticipantAnswer]
}

func NewAnswerRepo() *AnswerRepo {
	return &AnswerRepo{set: roomKeyed[model.ParticipantAnswer]{room: func(a model.ParticipantAnswer) string { return a.RoomID }}}
}

func (r *AnswerRepo) Create(_ context.Context, a *model.ParticipantAnswer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.set.items {
		if it.RoomID == a.RoomID && it.ParticipantID == a.ParticipantID && it.QuestionID == a.QuestionID {
			return repository.ErrDuplicate
		}
	}
	if a.ID == "" {
		a.ID = repository.NewID()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}
	r.set.items = append(r.set.items, *a)
	return nil
}

func (r *AnswerRepo) ListByRoom(_ context.Context, roomID string) ([]*model.ParticipantAnswer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*model.ParticipantAnswer{}
	for _, it := range r.set.items {
		if it.RoomID == roomID {
			it := it
			out = append(out, &it)
		}
	}
	return out, nil
}

func (r *AnswerRepo) DeleteByRoom(_ context.Context, roomID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.set.deleteByRoom(roomID), nil
}

func (r *AnswerRepo) RoomIDs(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.set.roomIDs(), nil
}

type RatingRepo struct {
	mu  sync.RWMutex
	set roomKeyed[model.RoomRating]
}

func NewRatingRepo() *RatingRepo {
	return &RatingRepo{set: roomKeyed[model.RoomRating]{room: func(rt model.RoomRating) string { return rt.RoomID }}}
}

func (r *RatingRepo) Create(_ context.Context, rating *model.RoomRating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.set.items {
		if it.RoomID == rating.RoomID && it.RaterID == rating.RaterID {
			return repository.ErrDuplicate
		}
	}
	if rating.ID == "" {
		rating.ID = repository.NewID()
	}
	if rating.CreatedAt.IsZero() {
		rating.CreatedAt = time.Now()
	}
	r.set.items = append(r.set.items, *rating)
	return nil
}

func (r *RatingRepo) Exists(_ context.Context, roomID, raterID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, it := range r.set.items {
		if it.RoomID == roomID && it.RaterID == raterID {
			return true, nil
		}
	}
	return false, nil
}

func (r *RatingRepo) ListByRoom(_ context.Context, roomID string) ([]*model.RoomRating, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*model.RoomRating{}
	// appended in insertion order; walk backwards for newest first
	for i := len(r.set.items) - 1; i >= 0; i-- {
		if it := r.set.items[i]; it.RoomID == roomID {
			out = append(out, &it)
		}
	}
	return out, nil
}

func (r *RatingRepo) DeleteByRoom(_ context.Context, roomID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.set.deleteByRoom(roomID), nil
}

func (r *RatingRepo) RoomIDs(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.set.roomIDs(), nil
}

type ActivityRepo struct {
	mu  sync.RWMutex
	set roomKeyed[model.Activity]
}

func NewActivityRepo() *ActivityRepo {
	return &ActivityRepo{set: roomKeyed[model.Activity]{room: func(a model.Activity) string { return a.RoomID }}}
}

func (r *ActivityRepo) Create(_ context.Context, a *model.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == "" {
		a.ID = repository.NewID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	r.set.items = append(r.set.items, *a)
	return nil
}

func (r *ActivityRepo) ListByRoom(_ context.Context, roomID string, limit int) ([]*model.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*model.Activity{}
	for i := len(r.set.items) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		if it := r.set.items[i]; it.RoomID == roomID {
			out = append(out, &it)
		}
	}
	return out, nil
}

func (r *ActivityRepo) DeleteByRoom(_ context.Context, roomID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.set.deleteByRoom(roomID), nil
}

func (r *ActivityRepo) RoomIDs(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.set.roomIDs(), nil
}

type SessionRepo struct {
	mu  sync.RWMutex
	set roomKeyed[model.RoomSession]
}

func NewSessionRepo() *SessionRepo {
	return &SessionRepo{set: roomKeyed[model.RoomSession]{room: func(s model.RoomSession) string { return s.RoomID }}}
}

func (r *SessionRepo) Create(_ context.Context, s *model.RoomSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == "" {
		s.ID = repository.NewID()
	}
	r.set.items = append(r.set.items, *s)
	return nil
}

func (r *SessionRepo) GetActive(_ context.Context, roomID string) (*model.RoomSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.set.items) - 1; i >= 0; i-- {
		if it := r.set.items[i]; it.RoomID == roomID && it.Status == model.SessionActive {
			return &it, nil
		}
	}
	return nil, nil
}

func (r *SessionRepo) End(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.set.items {
		if r.set.items[i].ID == id {
			r.set.items[i].Status = model.SessionEnded
			r.set.items[i].EndedAt = &at
		}
	}
	return nil
}

func (r *SessionRepo) ListByRoom(_ context.Context, roomID string) ([]*model.RoomSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*model.RoomSession{}
	for _, it := range r.set.items {
		if it.RoomID == roomID {
			it := it
			out = append(out, &it)
		}
	}
	return out, nil
}

func (r *SessionRepo) DeleteByRoom(_ context.Context, roomID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.set.deleteByRoom(roomID), nil
}

func (r *SessionRepo) RoomIDs(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.set.roomIDs(), nil
}

var (
	_ repository.RoomQuestionRepo = (*RoomQuestionRepo)(nil)
	_ repository.AnswerRepo       = (*AnswerRepo)(nil)
	_ repository.RatingRepo       = (*RatingRepo)(nil)
	_ repository.ActivityRepo     = (*ActivityRepo)(nil)
	_ repository.SessionRepo      = (*SessionRepo)(nil)
)

var (
	_ repository.RoomQuestionRepo = (*RoomQuestionRepo)(nil)
	_ repository.AnswerRepo       = (*AnswerRepo)(nil)
	_ repository.RatingRepo       = (*RatingRepo)(nil)
	_ repository.ActivityRepo     = (*ActivityRepo)(nil)
	_ repository.SessionRepo      = (*SessionRepo)(nil)
)
