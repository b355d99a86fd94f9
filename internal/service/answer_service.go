package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"quizroom/internal/cache"
	"quizroom/internal/model"
	"quizroom/internal/repository"
)

// AnswerService records answers into the participation ledger
type AnswerService struct {
	rooms         repository.RoomRepo
	roomQuestions repository.RoomQuestionRepo
	questions     repository.QuestionRepo
	answers       repository.AnswerRepo
	leaderboard   cache.LeaderboardCache
	activity      *ActivityRecorder
	log           *zerolog.Logger
}

// NewAnswerService creates a new answer service
func NewAnswerService(
	rooms repository.RoomRepo,
	roomQuestions repository.RoomQuestionRepo,
	questions repository.QuestionRepo,
	answers repository.AnswerRepo,
	leaderboard cache.LeaderboardCache,
	activity *ActivityRecorder,
	log *zerolog.Logger,
) *AnswerService {
	return &AnswerService{
		rooms:         rooms,
		roomQuestions: roomQuestions,
		questions:     questions,
		answers:       answers,
		leaderboard:   leaderboard,
		activity:      activity,
		log:           log,
	}
}

// SubmitAnswer stores one answer per participant and question, then bumps
// the participant's running score. Time limits are not enforced here.
func (s *AnswerService) SubmitAnswer(ctx context.Context, caller model.Identity, roomID string, req model.SubmitAnswerRequest) (*model.SubmitAnswerResponse, error) {
	if req.SelectedOption < 0 {
		return nil, ErrInvalidOption
	}
	if req.TimeSpent < 0 {
		return nil, Validation("timeSpent cannot be negative")
	}

	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	if room.Status != model.RoomActive {
		return nil, ErrRoomNotActive
	}
	p := participantOf(room, caller)
	if p == nil {
		return nil, ErrNotParticipant
	}

	rq, err := s.roomQuestions.Get(ctx, roomID, req.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room question: %w", err)
	}
	if rq == nil {
		return nil, ErrQuestionNotInRoom
	}
	q, err := s.questions.GetByID(ctx, req.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if q == nil {
		return nil, ErrQuestionNotInRoom
	}
	if req.SelectedOption >= len(q.Options) {
		return nil, ErrInvalidOption
	}

	correct := req.SelectedOption == q.CorrectAnswer
	points := 0
	if correct {
		points = q.PointValue()
	}
	now := time.Now()
	answer := &model.ParticipantAnswer{
		RoomID:         roomID,
		ParticipantID:  p.ID,
		QuestionID:     q.ID,
		SelectedOption: req.SelectedOption,
		IsCorrect:      correct,
		Points:         points,
		TimeSpent:      req.TimeSpent,
		Timestamp:      now,
	}
	if err := s.answers.Create(ctx, answer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyAnswered
		}
		return nil, fmt.Errorf("failed to store answer: %w", err)
	}

	if err := s.rooms.ApplyAnswer(ctx, roomID, p.ID, points, now); err != nil {
		return nil, fmt.Errorf("failed to update participant score: %w", err)
	}
	if err := s.leaderboard.Invalidate(ctx, roomID); err != nil {
		s.log.Warn().Err(err).Str("room_id", roomID).Msg("failed to drop cached leaderboard")
	}
	s.activity.Record(ctx, roomID, model.ActivityAnswerSubmitted, caller, map[string]string{
		"participantId": p.ID,
		"questionId":    q.ID,
		"correct":       strconv.FormatBool(correct),
	})

	resp := &model.SubmitAnswerResponse{AnswerID: answer.ID, IsCorrect: correct, Points: points}
	if room.Settings.ShowFeedback {
		c := q.CorrectAnswer
		resp.CorrectAnswer = &c
		resp.Explanation = q.Explanation
	}
	return resp, nil
}
