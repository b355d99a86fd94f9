package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"quizroom/internal/model"
	"quizroom/internal/repository"
)

// QuestionService handles the reusable question bank
type QuestionService struct {
	questions     repository.QuestionRepo
	roomQuestions repository.RoomQuestionRepo
	rooms         repository.RoomRepo
	log           *zerolog.Logger
}

// NewQuestionService creates a new question service
func NewQuestionService(
	questions repository.QuestionRepo,
	roomQuestions repository.RoomQuestionRepo,
	rooms repository.RoomRepo,
	log *zerolog.Logger,
) *QuestionService {
	return &QuestionService{questions: questions, roomQuestions: roomQuestions, rooms: rooms, log: log}
}

// ListQuestionsInput holds the query of a question listing
type ListQuestionsInput struct {
	Type       model.QuestionScope
	Search     string
	Category   string
	Difficulty model.Difficulty
	Page       int
	Limit      int
}

// ListQuestions lists the questions visible to the caller. Anonymous callers
// only see public questions.
func (s *QuestionService) ListQuestions(ctx context.Context, caller model.Identity, in ListQuestionsInput) ([]*model.Question, model.Page, error) {
	page, limit := normalizePage(in.Page, in.Limit)
	f := model.QuestionFilter{
		Search:     strings.TrimSpace(in.Search),
		Category:   strings.TrimSpace(in.Category),
		Difficulty: in.Difficulty,
		Page:       page,
		Limit:      limit,
	}
	if f.Difficulty != "" && !f.Difficulty.Valid() {
		return nil, model.Page{}, Validation("difficulty must be easy, medium or hard")
	}

	scope := in.Type
	if !caller.Authenticated {
		scope = model.QuestionScopePublic
	} else if scope == "" {
		scope = model.QuestionScopeAll
	}
	switch scope {
	case model.QuestionScopePublic:
		f.IncludePublic = true
	case model.QuestionScopeMine:
		f.OwnerID = caller.UserID
	case model.QuestionScopeAll:
		f.OwnerID = caller.UserID
		f.IncludePublic = true
	default:
		return nil, model.Page{}, Validation("type must be one of public, my, all")
	}

	items, total, err := s.questions.List(ctx, f)
	if err != nil {
		return nil, model.Page{}, fmt.Errorf("failed to list questions: %w", err)
	}
	return items, model.NewPage(page, limit, total), nil
}

// GetQuestion returns a question readable by the caller
func (s *QuestionService) GetQuestion(ctx context.Context, caller model.Identity, id string) (*model.Question, error) {
	q, err := s.questions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if q == nil || !q.ReadableBy(caller.UserID) {
		return nil, ErrQuestionNotFound
	}
	return q, nil
}

func validateQuestion(in *model.QuestionInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Category = strings.TrimSpace(in.Category)
	if in.Title == "" || in.Content == "" {
		return Validation("title and content are required")
	}
	if in.Category == "" {
		return Validation("category is required")
	}
	if len(in.Options) < 2 {
		return Validation("at least 2 options are required")
	}
	for _, o := range in.Options {
		if strings.TrimSpace(o) == "" {
			return Validation("options cannot be empty")
		}
	}
	if in.CorrectAnswer < 0 || in.CorrectAnswer >= len(in.Options) {
		return Validation("correctAnswer must be a valid option index")
	}
	if in.Difficulty == "" {
		in.Difficulty = model.DifficultyMedium
	}
	if !in.Difficulty.Valid() {
		return Validation("difficulty must be easy, medium or hard")
	}
	if in.TimeLimit != nil && *in.TimeLimit < 1 {
		return Validation("timeLimit must be positive")
	}
	if in.Points != nil && *in.Points < 1 {
		return Validation("points must be positive")
	}
	return nil
}

func applyQuestionInput(q *model.Question, in model.QuestionInput) {
	q.Title = in.Title
	q.Content = in.Content
	q.Options = in.Options
	q.CorrectAnswer = in.CorrectAnswer
	q.Difficulty = in.Difficulty
	q.Category = in.Category
	q.Explanation = strings.TrimSpace(in.Explanation)
	q.TimeLimit = in.TimeLimit
	q.Points = in.Points
	q.Tags = in.Tags
	q.IsPublic = in.IsPublic
}

// CreateQuestion adds a question owned by the caller
func (s *QuestionService) CreateQuestion(ctx context.Context, caller model.Identity, in model.QuestionInput) (*model.Question, error) {
	if !caller.Authenticated {
		return nil, ErrUnauthorized
	}
	if err := validateQuestion(&in); err != nil {
		return nil, err
	}
	now := time.Now()
	q := &model.Question{
		CreatorID:   caller.UserID,
		CreatorName: caller.Name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	applyQuestionInput(q, in)
	if err := s.questions.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	return q, nil
}

func (s *QuestionService) loadOwned(ctx context.Context, caller model.Identity, id string) (*model.Question, error) {
	if !caller.Authenticated {
		return nil, ErrUnauthorized
	}
	q, err := s.questions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if q == nil || q.CreatorID != caller.UserID {
		return nil, ErrQuestionNotFound
	}
	return q, nil
}

// UpdateQuestion replaces the writable fields of a question the caller owns
func (s *QuestionService) UpdateQuestion(ctx context.Context, caller model.Identity, id string, in model.QuestionInput) (*model.Question, error) {
	q, err := s.loadOwned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := validateQuestion(&in); err != nil {
		return nil, err
	}
	applyQuestionInput(q, in)
	updated, err := s.questions.Update(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}
	if updated == nil {
		return nil, ErrQuestionNotFound
	}
	return updated, nil
}

// DeleteQuestion deletes a question the caller owns unless a waiting or
// active room uses it. Remaining room links are removed with it.
func (s *QuestionService) DeleteQuestion(ctx context.Context, caller model.Identity, id string) error {
	if _, err := s.loadOwned(ctx, caller, id); err != nil {
		return err
	}

	roomIDs, err := s.roomQuestions.RoomIDsByQuestion(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to find rooms using question: %w", err)
	}
	for _, roomID := range roomIDs {
		room, err := s.rooms.GetByID(ctx, roomID)
		if err != nil {
			return fmt.Errorf("failed to get room: %w", err)
		}
		if room != nil && (room.Status == model.RoomWaiting || room.Status == model.RoomActive) {
			return ErrQuestionInUse
		}
	}

	deleted, err := s.questions.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	if !deleted {
		return ErrQuestionNotFound
	}
	if n, err := s.roomQuestions.DeleteByQuestion(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("question_id", id).Msg("failed to unlink deleted question from rooms")
	} else if n > 0 {
		s.log.Debug().Str("question_id", id).Int64("links", n).Msg("unlinked deleted question")
	}
	return nil
}
