package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"quizroom/internal/cache"
	"quizroom/internal/config"
	"quizroom/internal/model"
	"quizroom/internal/repository"
	"quizroom/internal/repository/memory"
)

type sentOTP struct {
	to      string
	code    string
	purpose model.OTPPurpose
	minutes int
}

type fakeNotifier struct {
	mu           sync.Mutex
	otps         []sentOTP
	changed      []string
	admin        []*model.ContactSubmission
	acks         []*model.ContactSubmission
	failAdmin    bool
	failAck      bool
	failOTP      bool
	failPassword bool
}

func (n *fakeNotifier) SendOTP(to, name, code string, purpose model.OTPPurpose, validMinutes int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failOTP {
		return errors.New("smtp down")
	}
	n.otps = append(n.otps, sentOTP{to: to, code: code, purpose: purpose, minutes: validMinutes})
	return nil
}

func (n *fakeNotifier) SendPasswordChanged(to, name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failPassword {
		return errors.New("smtp down")
	}
	n.changed = append(n.changed, to)
	return nil
}

func (n *fakeNotifier) SendContactAdmin(s *model.ContactSubmission) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failAdmin {
		return errors.New("smtp down")
	}
	n.admin = append(n.admin, s)
	return nil
}

func (n *fakeNotifier) SendContactAck(s *model.ContactSubmission) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failAck {
		return errors.New("smtp down")
	}
	n.acks = append(n.acks, s)
	return nil
}

func (n *fakeNotifier) lastCode(t *testing.T) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.otps) == 0 {
		t.Fatalf("no code was sent")
	}
	return n.otps[len(n.otps)-1].code
}

type testEnv struct {
	mr *miniredis.Miniredis

	users         *memory.UserRepo
	questions     *memory.QuestionRepo
	rooms         *memory.RoomRepo
	roomQuestions *memory.RoomQuestionRepo
	answers       *memory.AnswerRepo
	ratings       *memory.RatingRepo
	activities    *memory.ActivityRepo
	sessions      *memory.SessionRepo
	otps          *memory.OTPRepo
	contacts      *memory.ContactRepo

	notifier    *fakeNotifier
	roomCache   cache.RoomCache
	leaderboard cache.LeaderboardCache

	auth          *AuthService
	otp           *OTPService
	roomSvc       *RoomService
	questionSvc   *QuestionService
	participation *ParticipationService
	answerSvc     *AnswerService
	results       *ResultsService
	ratingSvc     *RatingService
	contact       *ContactService
	sweeper       *Sweeper
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := zerolog.Nop()
	cfg := config.Default()
	cfg.Auth.JWTSecret = "test-secret"

	e := &testEnv{
		mr:            mr,
		users:         memory.NewUserRepo(),
		questions:     memory.NewQuestionRepo(),
		rooms:         memory.NewRoomRepo(),
		roomQuestions: memory.NewRoomQuestionRepo(),
		answers:       memory.NewAnswerRepo(),
		ratings:       memory.NewRatingRepo(),
		activities:    memory.NewActivityRepo(),
		sessions:      memory.NewSessionRepo(),
		otps:          memory.NewOTPRepo(),
		contacts:      memory.NewContactRepo(),
		notifier:      &fakeNotifier{},
		roomCache:     cache.NewRoomCache(client),
		leaderboard:   cache.NewLeaderboardCache(client),
	}
	verified := cache.NewVerificationCache(client)
	activity := NewActivityRecorder(e.activities, &log)

	e.otp = NewOTPService(e.otps, e.users, verified, e.notifier, cfg.OTP, &log)
	e.auth = NewAuthService(e.users, e.otp, verified, e.notifier, cfg.Auth, &log)
	e.results = NewResultsService(e.rooms, e.answers, e.roomQuestions, e.questions, e.leaderboard, &log)
	e.roomSvc = NewRoomService(RoomStores{
		Rooms:         e.rooms,
		RoomQuestions: e.roomQuestions,
		Questions:     e.questions,
		Answers:       e.answers,
		Ratings:       e.ratings,
		Activities:    e.activities,
		Sessions:      e.sessions,
	}, e.roomCache, e.leaderboard, e.results, activity, &log)
	e.questionSvc = NewQuestionService(e.questions, e.roomQuestions, e.rooms, &log)
	e.participation = NewParticipationService(e.rooms, e.roomCache, e.leaderboard, e.auth, activity, &log)
	e.answerSvc = NewAnswerService(e.rooms, e.roomQuestions, e.questions, e.answers, e.leaderboard, activity, &log)
	e.ratingSvc = NewRatingService(e.rooms, e.ratings, activity, &log)
	e.contact = NewContactService(e.contacts, e.notifier, &log)
	e.sweeper = NewSweeper(e.rooms, map[string]repository.RoomScoped{
		repository.RoomQuestionsCollection: e.roomQuestions,
		repository.AnswersCollection:       e.answers,
		repository.ActivitiesCollection:    e.activities,
		repository.SessionsCollection:      e.sessions,
		repository.RatingsCollection:       e.ratings,
	}, &log)
	return e
}

func user(id, name string) model.Identity {
	return model.Identity{UserID: id, Name: name, Email: id + "@example.com", Authenticated: true}
}

// guestOf turns a join response into the identity a guest presents later
func guestOf(resp *model.JoinResponse) model.Identity {
	return model.Identity{GuestID: resp.Participant.ID, GuestRoomID: resp.Room.ID, GuestName: resp.Participant.UserName}
}

func (e *testEnv) createRoom(t *testing.T, owner model.Identity, max int) *model.RoomView {
	t.Helper()
	room, err := e.roomSvc.CreateRoom(context.Background(), owner, CreateRoomInput{Title: "Trivia night", MaxParticipants: max})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	return room
}

func (e *testEnv) createQuestion(t *testing.T, owner model.Identity, correct int) *model.Question {
	t.Helper()
	q, err := e.questionSvc.CreateQuestion(context.Background(), owner, model.QuestionInput{
		Title:         "Capital",
		Content:       "What is the capital of France?",
		Options:       []string{"Berlin", "Paris", "Rome"},
		CorrectAnswer: correct,
		Difficulty:    model.DifficultyEasy,
		Category:      "geography",
	})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	return q
}

func (e *testEnv) setStatus(t *testing.T, owner model.Identity, roomID string, to model.RoomStatus) {
	t.Helper()
	if _, err := e.roomSvc.ChangeStatus(context.Background(), owner, roomID, to); err != nil {
		t.Fatalf("change status to %s: %v", to, err)
	}
}

func (e *testEnv) join(t *testing.T, caller model.Identity, code string) *model.JoinResponse {
	t.Helper()
	resp, err := e.participation.JoinRoom(context.Background(), caller, JoinRequest{RoomCode: code})
	if err != nil {
		t.Fatalf("join room: %v", err)
	}
	return resp
}

func (e *testEnv) verifyUser(t *testing.T, email string) {
	t.Helper()
	ctx := context.Background()
	u, err := e.users.GetByEmail(ctx, email)
	if err != nil || u == nil {
		t.Fatalf("get user %s: %v", email, err)
	}
	verified := true
	if _, err := e.users.Update(ctx, u.ID, model.UpdateUserParams{EmailVerified: &verified}); err != nil {
		t.Fatalf("verify user: %v", err)
	}
}
