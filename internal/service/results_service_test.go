package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"quizroom/internal/cache"
	"quizroom/internal/model"
)

func TestRankOrdersByScoreAccuracyThenTime(t *testing.T) {
	results := []model.ParticipantResult{
		{ParticipantID: "A", Score: 80, Accuracy: 80, TimeSpent: 50},
		{ParticipantID: "B", Score: 80, Accuracy: 80, TimeSpent: 40},
		{ParticipantID: "C", Score: 90, Accuracy: 90, TimeSpent: 100},
		{ParticipantID: "D", Score: 0, Accuracy: 0, TimeSpent: 0},
	}
	Rank(results)

	want := []string{"C", "B", "A", "D"}
	for i, id := range want {
		if results[i].ParticipantID != id || results[i].Rank != i+1 {
			t.Fatalf("position %d: expected %s with rank %d, got %s with rank %d", i, id, i+1, results[i].ParticipantID, results[i].Rank)
		}
	}
}

func TestComputeAggregates(t *testing.T) {
	room := &model.Room{
		ID:   "r1",
		Code: "ABCDEF",
		Participants: []model.Participant{
			{ID: "p1", UserName: "Ann"},
			{ID: "p2", UserName: "Ben"},
			{ID: "p3", UserName: "Cid"},
		},
	}
	rqs := []*model.RoomQuestion{
		{QuestionID: "q1", Order: 0},
		{QuestionID: "q2", Order: 1},
		{QuestionID: "q3", Order: 2},
	}
	answers := []*model.ParticipantAnswer{
		{ParticipantID: "p1", QuestionID: "q1", IsCorrect: true, Points: 10, TimeSpent: 10},
		{ParticipantID: "p1", QuestionID: "q2", IsCorrect: false, TimeSpent: 20},
		{ParticipantID: "p1", QuestionID: "q3", IsCorrect: true, Points: 10, TimeSpent: 5},
		{ParticipantID: "p2", QuestionID: "q1", IsCorrect: true, Points: 10, TimeSpent: 4},
		{ParticipantID: "p2", QuestionID: "gone", IsCorrect: true, Points: 10, TimeSpent: 4},
	}

	res := Compute(room, rqs, map[string]string{"q1": "First"}, answers)

	if len(res.Participants) != 3 {
		t.Fatalf("expected every participant in results, got %d", len(res.Participants))
	}
	top := res.Participants[0]
	if top.ParticipantID != "p2" || top.Score != 100 || top.Accuracy != top.Score || top.TotalPoints != 20 {
		t.Fatalf("unexpected leader: %+v", top)
	}
	second := res.Participants[1]
	if second.ParticipantID != "p1" || second.Score != 67 || second.TimeSpent != 35 || second.CorrectAnswers != 2 {
		t.Fatalf("unexpected second place: %+v", second)
	}
	last := res.Participants[2]
	if last.ParticipantID != "p3" || last.TotalQuestions != 0 || last.Score != 0 || last.Rank != 3 {
		t.Fatalf("unexpected last place: %+v", last)
	}

	if len(res.Questions) != 3 {
		t.Fatalf("expected unknown questions to be dropped, got %d stats", len(res.Questions))
	}
	q1 := res.Questions[0]
	if q1.QuestionID != "q1" || q1.Title != "First" || q1.Attempts != 2 || q1.CorrectRate != 100 || q1.AverageTime != 7 {
		t.Fatalf("unexpected q1 stat: %+v", q1)
	}
	if res.Questions[1].CorrectRate != 0 {
		t.Fatalf("expected q2 correct rate 0, got %d", res.Questions[1].CorrectRate)
	}

	s := res.Summary
	if s.TotalParticipants != 3 || s.AverageScore != 56 || s.CompletionRate != 67 || s.HighestScore != 100 || s.LowestScore != 0 || s.AverageTime != 14 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestComputeCountsOnlyKnownParticipants(t *testing.T) {
	left := time.Now()
	room := &model.Room{
		ID: "r1",
		Participants: []model.Participant{
			{ID: "p1", UserName: "Ann"},
			{ID: "p2", UserName: "Ben", LeftAt: &left},
		},
	}
	rqs := []*model.RoomQuestion{{QuestionID: "q1"}}
	answers := []*model.ParticipantAnswer{
		{ParticipantID: "p1", QuestionID: "q1", IsCorrect: true, Points: 10, TimeSpent: 2},
		{ParticipantID: "p2", QuestionID: "q1", IsCorrect: false, TimeSpent: 4},
		{ParticipantID: "stray", QuestionID: "q1", IsCorrect: true, Points: 10, TimeSpent: 30},
	}

	res := Compute(room, rqs, nil, answers)
	if len(res.Participants) != 2 {
		t.Fatalf("expected departed participants to keep their row, got %d rows", len(res.Participants))
	}
	ben := res.Participants[1]
	if ben.ParticipantID != "p2" || !ben.Left || ben.TotalQuestions != 1 {
		t.Fatalf("unexpected row for the departed participant: %+v", ben)
	}
	if res.Participants[0].Left {
		t.Fatalf("present participant flagged as left")
	}

	attempts := 0
	for _, r := range res.Participants {
		attempts += r.TotalQuestions
	}
	q := res.Questions[0]
	if q.Attempts != attempts || q.Attempts != 2 || q.CorrectRate != 50 || q.AverageTime != 3 {
		t.Fatalf("question stats should tally the same answers as the rows: %+v", q)
	}
}

func TestResultsKeepDepartedParticipants(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	owner := user("u1", "Alice")
	room := e.createRoom(t, owner, 10)
	q := e.createQuestion(t, owner, 1)
	if _, err := e.roomSvc.AddQuestion(ctx, owner, room.ID, AddQuestionInput{QuestionID: q.ID}); err != nil {
		t.Fatalf("add question: %v", err)
	}
	bob := user("u2", "Bob")
	e.join(t, bob, room.Code)
	e.join(t, user("u3", "Carol"), room.Code)
	e.setStatus(t, owner, room.ID, model.RoomActive)
	if _, err := e.answerSvc.SubmitAnswer(ctx, bob, room.ID, model.SubmitAnswerRequest{QuestionID: q.ID, SelectedOption: 1, TimeSpent: 5}); err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	if err := e.participation.LeaveRoom(ctx, bob, room.ID); err != nil {
		t.Fatalf("leave room: %v", err)
	}

	res, err := e.results.GetResults(ctx, bob, room.ID)
	if err != nil {
		t.Fatalf("a departed participant should still read results: %v", err)
	}
	if len(res.Participants) != 2 {
		t.Fatalf("expected both participants in results, got %d", len(res.Participants))
	}
	top := res.Participants[0]
	if top.UserName != "Bob" || !top.Left || top.TotalPoints != model.DefaultQuestionPoints {
		t.Fatalf("expected Bob to keep his result after leaving, got %+v", top)
	}
	if len(res.Questions) != 1 || res.Questions[0].Attempts != 1 {
		t.Fatalf("unexpected question stats: %+v", res.Questions)
	}
	if res.Summary.TotalParticipants != 2 || res.Summary.CompletionRate != 50 {
		t.Fatalf("unexpected summary: %+v", res.Summary)
	}
}

// racingLeaderboard invalidates right after the generation is read, the way
// an answer landing mid-snapshot would.
type racingLeaderboard struct {
	cache.LeaderboardCache
}

func (r racingLeaderboard) Generation(ctx context.Context, roomID string) (int64, error) {
	gen, err := r.LeaderboardCache.Generation(ctx, roomID)
	if err != nil {
		return 0, err
	}
	return gen, r.LeaderboardCache.Invalidate(ctx, roomID)
}

func TestSnapshotSkipsOutdatedRanking(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	owner := user("u1", "Alice")
	room := e.createRoom(t, owner, 10)
	e.join(t, user("u2", "Bob"), room.Code)
	stored, _ := e.rooms.GetByID(ctx, room.ID)

	log := zerolog.Nop()
	racing := NewResultsService(e.rooms, e.answers, e.roomQuestions, e.questions, racingLeaderboard{e.leaderboard}, &log)
	if _, err := racing.Snapshot(ctx, stored); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if e.mr.Exists("room:" + room.ID + ":lb") {
		t.Fatalf("a ranking invalidated mid-snapshot must not be cached")
	}

	if _, err := e.results.Snapshot(ctx, stored); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !e.mr.Exists("room:" + room.ID + ":lb") {
		t.Fatalf("expected an up to date ranking to be cached")
	}
}

func TestComputeEmptyRoom(t *testing.T) {
	res := Compute(&model.Room{ID: "r1"}, nil, nil, nil)
	if len(res.Participants) != 0 || res.Summary.AverageScore != 0 || res.Summary.CompletionRate != 0 {
		t.Fatalf("expected zeroed results, got %+v", res.Summary)
	}
}

func TestResultsAccessAndLeaderboard(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	owner := user("u1", "Alice")
	room, err := e.roomSvc.CreateRoom(ctx, owner, CreateRoomInput{Title: "Quiz", MaxParticipants: 10, ShowLeaderboard: true})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	q := e.createQuestion(t, owner, 1)
	if _, err := e.roomSvc.AddQuestion(ctx, owner, room.ID, AddQuestionInput{QuestionID: q.ID}); err != nil {
		t.Fatalf("add question: %v", err)
	}
	bob := user("u2", "Bob")
	carol := user("u3", "Carol")
	e.join(t, bob, room.Code)
	e.join(t, carol, room.Code)
	e.setStatus(t, owner, room.ID, model.RoomActive)

	if _, err := e.answerSvc.SubmitAnswer(ctx, bob, room.ID, model.SubmitAnswerRequest{QuestionID: q.ID, SelectedOption: 0, TimeSpent: 5}); err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	if _, err := e.answerSvc.SubmitAnswer(ctx, carol, room.ID, model.SubmitAnswerRequest{QuestionID: q.ID, SelectedOption: 1, TimeSpent: 9}); err != nil {
		t.Fatalf("submit answer: %v", err)
	}

	outsider := user("u9", "Eve")
	if _, err := e.results.GetResults(ctx, outsider, room.ID); !errors.Is(err, ErrResultsForbidden) {
		t.Fatalf("expected ErrResultsForbidden, got %v", err)
	}
	res, err := e.results.GetResults(ctx, bob, room.ID)
	if err != nil {
		t.Fatalf("get results: %v", err)
	}
	if res.Participants[0].UserName != "Carol" {
		t.Fatalf("expected Carol to lead, got %s", res.Participants[0].UserName)
	}
	if !e.mr.Exists("room:" + room.ID + ":lb") {
		t.Fatalf("expected leaderboard to be cached")
	}

	top, err := e.results.Leaderboard(ctx, bob, room.ID, 1)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(top.Entries) != 1 || top.Entries[0].UserName != "Carol" || top.Entries[0].Rank != 1 {
		t.Fatalf("unexpected leaderboard: %+v", top.Entries)
	}
	if top.MyRank != 2 {
		t.Fatalf("expected Bob to see his own rank 2, got %d", top.MyRank)
	}
	if owned, err := e.results.Leaderboard(ctx, owner, room.ID, 10); err != nil || owned.MyRank != 0 {
		t.Fatalf("expected no rank for the creator, got %+v (%v)", owned, err)
	}

	e.setStatus(t, owner, room.ID, model.RoomCompleted)
	if _, err := e.results.GetResults(ctx, outsider, room.ID); err != nil {
		t.Fatalf("expected completed results to be public, got %v", err)
	}
	stored, _ := e.rooms.GetByID(ctx, room.ID)
	if stored.Statistics.AverageScore != 50 || stored.Statistics.CompletionRate != 100 {
		t.Fatalf("expected result statistics on completion, got %+v", stored.Statistics)
	}
}

func TestLeaderboardHiddenWhenDisabled(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	owner := user("u1", "Alice")
	room := e.createRoom(t, owner, 10)
	bob := user("u2", "Bob")
	e.join(t, bob, room.Code)

	if _, err := e.results.Leaderboard(ctx, bob, room.ID, 10); !errors.Is(err, ErrResultsForbidden) {
		t.Fatalf("expected ErrResultsForbidden, got %v", err)
	}
	top, err := e.results.Leaderboard(ctx, owner, room.ID, 10)
	if err != nil {
		t.Fatalf("creator leaderboard: %v", err)
	}
	if len(top.Entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(top.Entries))
	}
}

func TestExport(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	owner := user("u1", "Alice")
	room := e.createRoom(t, owner, 10)

	if err := e.results.Export(ctx, user("u2", "Bob"), room.ID, model.ExportCSV); !errors.Is(err, ErrNotRoomCreator) {
		t.Fatalf("expected ErrNotRoomCreator, got %v", err)
	}
	if err := e.results.Export(ctx, owner, room.ID, "docx"); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
	if err := e.results.Export(ctx, owner, room.ID, model.ExportPDF); !errors.Is(err, ErrExportUnavailable) || KindOf(err) != KindNotImplemented {
		t.Fatalf("expected ErrExportUnavailable, got %v", err)
	}
}
