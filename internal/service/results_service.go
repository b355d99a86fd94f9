package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"quizroom/internal/cache"
	"quizroom/internal/model"
	"quizroom/internal/repository"
)

// ResultsService aggregates the answer ledger of a room into rankings and statistics
type ResultsService struct {
	rooms         repository.RoomRepo
	answers       repository.AnswerRepo
	roomQuestions repository.RoomQuestionRepo
	questions     repository.QuestionRepo
	leaderboard   cache.LeaderboardCache
	log           *zerolog.Logger
}

// NewResultsService creates a new results service
func NewResultsService(
	rooms repository.RoomRepo,
	answers repository.AnswerRepo,
	roomQuestions repository.RoomQuestionRepo,
	questions repository.QuestionRepo,
	leaderboard cache.LeaderboardCache,
	log *zerolog.Logger,
) *ResultsService {
	return &ResultsService{
		rooms:         rooms,
		answers:       answers,
		roomQuestions: roomQuestions,
		questions:     questions,
		leaderboard:   leaderboard,
		log:           log,
	}
}

func (s *ResultsService) authorized(ctx context.Context, caller model.Identity, roomID string) (*model.Room, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	if room.Status == model.RoomCompleted {
		return room, nil
	}
	if caller.Authenticated && room.CreatorID == caller.UserID {
		return room, nil
	}
	if memberOf(room, caller) != nil {
		return room, nil
	}
	return nil, ErrResultsForbidden
}

// GetResults computes the results of a room for the creator, a participant,
// or anyone once the room is completed.
func (s *ResultsService) GetResults(ctx context.Context, caller model.Identity, roomID string) (*model.RoomResults, error) {
	room, err := s.authorized(ctx, caller, roomID)
	if err != nil {
		return nil, err
	}
	return s.Snapshot(ctx, room)
}

// Snapshot computes the results of room and refreshes the cached leaderboard.
// The cache generation is read before the ledger, so a ranking that an answer
// invalidated in the meantime is not stored.
func (s *ResultsService) Snapshot(ctx context.Context, room *model.Room) (*model.RoomResults, error) {
	gen, genErr := s.leaderboard.Generation(ctx, room.ID)
	if genErr != nil {
		s.log.Warn().Err(genErr).Str("room_id", room.ID).Msg("leaderboard cache unavailable")
	}
	answers, err := s.answers.ListByRoom(ctx, room.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	rqs, err := s.roomQuestions.ListByRoom(ctx, room.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list room questions: %w", err)
	}
	ids := make([]string, 0, len(rqs))
	for _, rq := range rqs {
		ids = append(ids, rq.QuestionID)
	}
	qs, err := s.questions.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	titles := make(map[string]string, len(qs))
	for _, q := range qs {
		titles[q.ID] = q.Title
	}

	res := Compute(room, rqs, titles, answers)

	if genErr == nil {
		stored, err := s.leaderboard.Store(ctx, room.ID, gen, res.Participants)
		if err != nil {
			s.log.Warn().Err(err).Str("room_id", room.ID).Msg("failed to cache leaderboard")
		} else if !stored {
			s.log.Debug().Str("room_id", room.ID).Msg("skipped caching an outdated leaderboard")
		}
	}
	return res, nil
}

// Leaderboard returns the top entries of a room ranking and the caller's own
// rank. The creator can always read it; others need showLeaderboard and
// results access.
func (s *ResultsService) Leaderboard(ctx context.Context, caller model.Identity, roomID string, top int) (*model.Leaderboard, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	if !(caller.Authenticated && room.CreatorID == caller.UserID) {
		if !room.ShowLeaderboard {
			return nil, ErrResultsForbidden
		}
		if _, err := s.authorized(ctx, caller, roomID); err != nil {
			return nil, err
		}
	}
	if top < 1 || top > maxPageLimit {
		top = defaultPageLimit
	}
	me := memberOf(room, caller)

	entries, hit, err := s.leaderboard.Top(ctx, roomID, top)
	if err != nil {
		s.log.Warn().Err(err).Str("room_id", roomID).Msg("leaderboard cache unavailable")
	}
	if hit {
		lb := &model.Leaderboard{Entries: entries}
		if me == nil {
			return lb, nil
		}
		rank, err := s.leaderboard.Rank(ctx, roomID, me.ID)
		if err != nil {
			s.log.Warn().Err(err).Str("room_id", roomID).Msg("leaderboard cache unavailable")
		}
		if rank > 0 {
			lb.MyRank = int(rank)
			return lb, nil
		}
		// cached ranking predates this participant; recompute
	}

	res, err := s.Snapshot(ctx, room)
	if err != nil {
		return nil, err
	}
	lb := &model.Leaderboard{Entries: res.Participants}
	if len(lb.Entries) > top {
		lb.Entries = lb.Entries[:top]
	}
	if me != nil {
		for _, r := range res.Participants {
			if r.ParticipantID == me.ID {
				lb.MyRank = r.Rank
				break
			}
		}
	}
	return lb, nil
}

// Export authorizes an export for the room creator. No export format is
// produced yet, so a valid request always ends in ErrExportUnavailable.
func (s *ResultsService) Export(ctx context.Context, caller model.Identity, roomID string, format model.ExportFormat) error {
	if !caller.Authenticated {
		return ErrUnauthorized
	}
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return ErrRoomNotFound
	}
	if room.CreatorID != caller.UserID {
		return ErrNotRoomCreator
	}
	if !format.Valid() {
		return ErrInvalidFormat
	}
	return ErrExportUnavailable
}

// Compute builds the results of a room from its answer ledger. Every
// participant record is included, departed ones too, and answers without a
// record count nowhere, so rows and question stats tally the same ledger.
// Ranking is score desc, accuracy desc, time spent asc; fully tied
// participants keep join order.
func Compute(room *model.Room, rqs []*model.RoomQuestion, titles map[string]string, answers []*model.ParticipantAnswer) *model.RoomResults {
	type tally struct {
		total, correct, points, time int
	}
	perParticipant := make(map[string]*tally, len(room.Participants))
	for _, p := range room.Participants {
		perParticipant[p.ID] = &tally{}
	}
	perQuestion := make(map[string]*tally, len(rqs))
	for _, a := range answers {
		p := perParticipant[a.ParticipantID]
		if p == nil {
			continue
		}
		q := perQuestion[a.QuestionID]
		if q == nil {
			q = &tally{}
			perQuestion[a.QuestionID] = q
		}
		p.total++
		q.total++
		p.points += a.Points
		p.time += a.TimeSpent
		q.time += a.TimeSpent
		if a.IsCorrect {
			p.correct++
			q.correct++
		}
	}

	results := make([]model.ParticipantResult, 0, len(room.Participants))
	answered := 0
	for _, p := range room.Participants {
		t := perParticipant[p.ID]
		if t.total > 0 {
			answered++
		}
		score := percent(t.correct, t.total)
		results = append(results, model.ParticipantResult{
			ParticipantID:   p.ID,
			UserID:          p.UserID,
			UserName:        p.UserName,
			IsAuthenticated: p.IsAuthenticated,
			Left:            !p.Present(),
			TotalQuestions:  t.total,
			CorrectAnswers:  t.correct,
			TotalPoints:     t.points,
			TimeSpent:       t.time,
			Score:           score,
			Accuracy:        score,
		})
	}
	Rank(results)

	stats := make([]model.QuestionStat, 0, len(rqs))
	for _, rq := range rqs {
		t := perQuestion[rq.QuestionID]
		if t == nil || t.total == 0 {
			continue
		}
		stats = append(stats, model.QuestionStat{
			QuestionID:     rq.QuestionID,
			Order:          rq.Order,
			Title:          titles[rq.QuestionID],
			Attempts:       t.total,
			CorrectAnswers: t.correct,
			CorrectRate:    percent(t.correct, t.total),
			AverageTime:    roundDiv(t.time, t.total),
		})
	}

	summary := model.ResultsSummary{
		TotalParticipants: len(results),
		TotalQuestions:    len(rqs),
	}
	if n := len(results); n > 0 {
		var scoreSum, timeSum int
		for _, r := range results {
			scoreSum += r.Score
			timeSum += r.TimeSpent
		}
		summary.AverageScore = roundDiv(scoreSum, n)
		summary.AverageTime = roundDiv(timeSum, n)
		summary.CompletionRate = percent(answered, n)
		summary.HighestScore = results[0].Score
		summary.LowestScore = results[n-1].Score
	}

	return &model.RoomResults{
		RoomID:       room.ID,
		RoomCode:     room.Code,
		Title:        room.Title,
		Status:       room.Status,
		Participants: results,
		Questions:    stats,
		Summary:      summary,
		ComputedAt:   time.Now(),
	}
}

// Rank sorts results into ranking order and assigns 1-based ranks.
func Rank(results []model.ParticipantResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Accuracy != b.Accuracy {
			return a.Accuracy > b.Accuracy
		}
		return a.TimeSpent < b.TimeSpent
	})
	for i := range results {
		results[i].Rank = i + 1
	}
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

func roundDiv(sum, n int) int {
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}
