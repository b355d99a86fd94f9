package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quizroom/internal/model"
	"quizroom/internal/repository"
)

type QuestionRepo struct {
	mu        sync.RWMutex
	questions map[string]model.Question
}

func NewQuestionRepo() *QuestionRepo {
	return &QuestionRepo{questions: make(map[string]model.Question)}
}

func (r *QuestionRepo) Create(_ context.Context, q *model.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if q.ID == "" {
		q.ID = repository.NewID()
	}
	now := time.Now()
	q.CreatedAt = now
	q.UpdatedAt = now
	r.questions[q.ID] = cloneQuestion(*q)
	return nil
}

func (r *QuestionRepo) GetByID(_ context.Context, id string) (*model.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.questions[id]
	if !ok {
		return nil, nil
	}
	q = cloneQuestion(q)
	return &q, nil
}

func (r *QuestionRepo) GetByIDs(_ context.Context, ids []string) ([]*model.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Question
	for _, id := range ids {
		if q, ok := r.questions[id]; ok {
			q = cloneQuestion(q)
			out = append(out, &q)
		}
	}
	return out, nil
}

func (r *QuestionRepo) matches(q model.Question, f model.QuestionFilter) bool {
	switch {
	case f.OwnerID != "" && f.IncludePublic:
		if q.CreatorID != f.OwnerID && !q.IsPublic {
			return false
		}
	case f.OwnerID != "":
		if q.CreatorID != f.OwnerID {
			return false
		}
	default:
		if !q.IsPublic {
			return false
		}
	}
	if f.Search != "" {
		hit := containsFold(q.Title, f.Search) || containsFold(q.Content, f.Search) || containsFold(q.Category, f.Search)
		for _, tag := range q.Tags {
			hit = hit || containsFold(tag, f.Search)
		}
		if !hit {
			return false
		}
	}
	if f.Category != "" && !containsFold(q.Category, f.Category) {
		return false
	}
	if f.Difficulty != "" && q.Difficulty != f.Difficulty {
		return false
	}
	return true
}

func (r *QuestionRepo) List(_ context.Context, f model.QuestionFilter) ([]*model.Question, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*model.Question
	for _, q := range r.questions {
		q := q
		if r.matches(q, f) {
			q = cloneQuestion(q)
			all = append(all, &q)
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

func (r *QuestionRepo) Update(_ context.Context, q *model.Question) (*model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.questions[q.ID]
	if !ok {
		return nil, nil
	}
	stored.Title = q.Title
	stored.Content = q.Content
	stored.Options = q.Options
	stored.CorrectAnswer = q.CorrectAnswer
	stored.Difficulty = q.Difficulty
	stored.Category = q.Category
	stored.Explanation = q.Explanation
	stored.TimeLimit = q.TimeLimit
	stored.Points = q.Points
	stored.Tags = q.Tags
	stored.IsPublic = q.IsPublic
	stored.UpdatedAt = time.Now()
	stored = cloneQuestion(stored)
	r.questions[q.ID] = stored
	out := cloneQuestion(stored)
	return &out, nil
}

func (r *QuestionRepo) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.questions[id]; !ok {
		return false, nil
	}
	delete(r.questions, id)
	return true, nil
}

func (r *QuestionRepo) IncrementUsage(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if q, ok := r.questions[id]; ok {
		q.UsageCount++
		r.questions[id] = q
	}
	return nil
}

func cloneQuestion(q model.Question) model.Question {
	q.Options = append([]string(nil), q.Options...)
	q.Tags = append([]string(nil), q.Tags...)
	return q
}

var _ repository.QuestionRepo = (*QuestionRepo)(nil)
