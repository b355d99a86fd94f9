package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"quizroom/internal/model"
)

func TestJoinFullRoom(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	room := e.createRoom(t, user("u1", "Alice"), 1)

	resp := e.join(t, user("u2", "Bob"), room.Code)
	if resp.Room.CurrentParticipants != 1 {
		t.Fatalf("expected 1 participant, got %d", resp.Room.CurrentParticipants)
	}

	callers := []model.Identity{user("u3", "Carol"), {}, user("u2", "Bob")}
	for _, c := range callers {
		if _, err := e.participation.JoinRoom(ctx, c, JoinRequest{RoomCode: room.Code}); !errors.Is(err, ErrRoomFull) {
			t.Fatalf("expected ErrRoomFull for %+v, got %v", c, err)
		}
	}
}

func TestJoinRejectionOrder(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	owner := user("u1", "Alice")
	bob := user("u2", "Bob")

	if _, err := e.participation.JoinRoom(ctx, bob, JoinRequest{RoomCode: "QQQQQQ"}); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}

	started := e.createRoom(t, owner, 5)
	e.setStatus(t, owner, started.ID, model.RoomActive)
	if _, err := e.participation.JoinRoom(ctx, bob, JoinRequest{RoomCode: started.Code}); !errors.Is(err, ErrLateJoinDisabled) {
		t.Fatalf("expected ErrLateJoinDisabled, got %v", err)
	}
	e.setStatus(t, owner, started.ID, model.RoomCompleted)
	if _, err := e.participation.JoinRoom(ctx, bob, JoinRequest{RoomCode: started.Code}); !errors.Is(err, ErrAlreadyEnded) {
		t.Fatalf("expected ErrAlreadyEnded, got %v", err)
	}

	cancelled := e.createRoom(t, owner, 5)
	e.setStatus(t, owner, cancelled.ID, model.RoomCancelled)
	if _, err := e.participation.JoinRoom(ctx, bob, JoinRequest{RoomCode: strings.ToLower(cancelled.Code)}); !errors.Is(err, ErrRoomCancelled) {
		t.Fatalf("expected ErrRoomCancelled, got %v", err)
	}

	late, err := e.roomSvc.CreateRoom(ctx, owner, CreateRoomInput{Title: "Late", MaxParticipants: 5, AllowLateJoin: true})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	e.setStatus(t, owner, late.ID, model.RoomActive)
	e.join(t, bob, late.Code)
}

func TestJoinDuplicates(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	room := e.createRoom(t, user("u1", "Alice"), 10)
	bob := user("u2", "Bob")
	e.join(t, bob, room.Code)

	if _, err := e.participation.JoinRoom(ctx, bob, JoinRequest{RoomCode: room.Code}); !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("expected ErrAlreadyJoined by user id, got %v", err)
	}
	sameEmail := model.Identity{UserID: "u7", Name: "Bobby", Email: bob.Email, Authenticated: true}
	if _, err := e.participation.JoinRoom(ctx, sameEmail, JoinRequest{RoomCode: room.Code}); !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("expected ErrAlreadyJoined by email, got %v", err)
	}

	guest, err := e.participation.JoinRoom(ctx, model.Identity{}, JoinRequest{RoomCode: room.Code})
	if err != nil {
		t.Fatalf("guest join: %v", err)
	}
	if guest.GuestToken == "" || !strings.HasPrefix(guest.Participant.UserName, "Guest_") || guest.Participant.IsAuthenticated {
		t.Fatalf("unexpected guest participant: %+v", guest.Participant)
	}
	if !guest.Room.IsJoined || len(guest.Room.Participants) != 2 {
		t.Fatalf("expected joined guest to see the participant list")
	}

	claims, err := e.auth.ParseGuestToken(guest.GuestToken)
	if err != nil {
		t.Fatalf("parse guest token: %v", err)
	}
	if claims.ParticipantID != guest.Participant.ID || claims.RoomID != room.ID {
		t.Fatalf("guest token does not match participant")
	}
	if _, err := e.participation.JoinRoom(ctx, guestOf(guest), JoinRequest{RoomCode: room.Code}); !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("expected ErrAlreadyJoined for a returning guest, got %v", err)
	}

	named, err := e.participation.JoinRoom(ctx, model.Identity{}, JoinRequest{RoomCode: room.Code, GuestName: " Zed "})
	if err != nil {
		t.Fatalf("named guest join: %v", err)
	}
	if named.Participant.UserName != "Zed" {
		t.Fatalf("expected trimmed guest name, got %q", named.Participant.UserName)
	}
}

func TestConcurrentJoinsRespectCapacity(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	room := e.createRoom(t, user("u1", "Alice"), 5)

	var wg sync.WaitGroup
	var mu sync.Mutex
	joined := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.participation.JoinRoom(ctx, model.Identity{}, JoinRequest{RoomCode: room.Code}); err == nil {
				mu.Lock()
				joined++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	stored, _ := e.rooms.GetByID(ctx, room.ID)
	if joined != 5 || stored.CurrentParticipants != 5 || len(stored.Participants) != 5 {
		t.Fatalf("expected exactly 5 joins, got %d (count %d, list %d)", joined, stored.CurrentParticipants, len(stored.Participants))
	}
}

func TestLeaveRoom(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	owner := user("u1", "Alice")
	room := e.createRoom(t, owner, 10)
	bob := user("u2", "Bob")
	e.join(t, bob, room.Code)
	guest := guestOf(e.join(t, model.Identity{}, room.Code))

	if err := e.participation.LeaveRoom(ctx, bob, room.ID); err != nil {
		t.Fatalf("leave room: %v", err)
	}
	if err := e.participation.LeaveRoom(ctx, bob, room.ID); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
	stored, _ := e.rooms.GetByID(ctx, room.ID)
	if stored.CurrentParticipants != 1 || len(stored.Participants) != 2 {
		t.Fatalf("expected 1 present participant out of 2 records, got %d/%d", stored.CurrentParticipants, len(stored.Participants))
	}
	if p := stored.FindParticipantByUser("u2"); p == nil || p.Present() || p.IsActive {
		t.Fatalf("expected the departed record to be kept inactive, got %+v", p)
	}
	view, err := e.roomSvc.GetRoom(ctx, bob, room.ID)
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if view.IsJoined {
		t.Fatalf("a departed participant should not count as joined")
	}

	e.setStatus(t, owner, room.ID, model.RoomActive)
	e.setStatus(t, owner, room.ID, model.RoomCompleted)
	if err := e.participation.LeaveRoom(ctx, guest, room.ID); !errors.Is(err, ErrAlreadyEnded) {
		t.Fatalf("expected ErrAlreadyEnded, got %v", err)
	}
}

func TestRejoinKeepsParticipantAndAnswers(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	owner := user("u1", "Alice")
	room, err := e.roomSvc.CreateRoom(ctx, owner, CreateRoomInput{Title: "Quiz", MaxParticipants: 10, AllowLateJoin: true})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	q := e.createQuestion(t, owner, 1)
	if _, err := e.roomSvc.AddQuestion(ctx, owner, room.ID, AddQuestionInput{QuestionID: q.ID}); err != nil {
		t.Fatalf("add question: %v", err)
	}
	bob := user("u2", "Bob")
	first := e.join(t, bob, room.Code)
	guestResp := e.join(t, model.Identity{}, room.Code)
	guest := guestOf(guestResp)
	e.setStatus(t, owner, room.ID, model.RoomActive)

	req := model.SubmitAnswerRequest{QuestionID: q.ID, SelectedOption: 1, TimeSpent: 4}
	if _, err := e.answerSvc.SubmitAnswer(ctx, bob, room.ID, req); err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	if _, err := e.answerSvc.SubmitAnswer(ctx, guest, room.ID, req); err != nil {
		t.Fatalf("guest answer: %v", err)
	}

	for _, caller := range []model.Identity{bob, guest} {
		if err := e.participation.LeaveRoom(ctx, caller, room.ID); err != nil {
			t.Fatalf("leave room: %v", err)
		}
		if _, err := e.answerSvc.SubmitAnswer(ctx, caller, room.ID, req); !errors.Is(err, ErrNotParticipant) {
			t.Fatalf("expected ErrNotParticipant after leaving, got %v", err)
		}
	}

	again, err := e.participation.JoinRoom(ctx, bob, JoinRequest{RoomCode: room.Code})
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if again.Participant.ID != first.Participant.ID || !again.Rejoined || !again.Room.IsJoined {
		t.Fatalf("expected the same participant back, got %+v", again.Participant)
	}
	if _, err := e.answerSvc.SubmitAnswer(ctx, bob, room.ID, req); !errors.Is(err, ErrAlreadyAnswered) {
		t.Fatalf("expected ErrAlreadyAnswered after rejoining, got %v", err)
	}

	guestAgain, err := e.participation.JoinRoom(ctx, guest, JoinRequest{RoomCode: room.Code})
	if err != nil {
		t.Fatalf("guest rejoin: %v", err)
	}
	if guestAgain.Participant.ID != guestResp.Participant.ID || guestAgain.GuestToken == "" {
		t.Fatalf("expected the guest to resume the same record, got %+v", guestAgain.Participant)
	}
	if _, err := e.answerSvc.SubmitAnswer(ctx, guestOf(guestAgain), room.ID, req); !errors.Is(err, ErrAlreadyAnswered) {
		t.Fatalf("expected ErrAlreadyAnswered for the returning guest, got %v", err)
	}
	if _, err := e.participation.JoinRoom(ctx, bob, JoinRequest{RoomCode: room.Code}); !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("expected ErrAlreadyJoined once back, got %v", err)
	}

	stored, _ := e.rooms.GetByID(ctx, room.ID)
	if stored.CurrentParticipants != 2 || len(stored.Participants) != 2 {
		t.Fatalf("expected 2 present records, got %d/%d", stored.CurrentParticipants, len(stored.Participants))
	}
	p := stored.FindParticipantByUser("u2")
	if p.Score != model.DefaultQuestionPoints || p.AnsweredQuestions != 1 {
		t.Fatalf("expected the score to survive leave and rejoin, got %+v", p)
	}
}

func TestRejoinRespectsCapacity(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	room := e.createRoom(t, user("u1", "Alice"), 1)
	bob := user("u2", "Bob")
	e.join(t, bob, room.Code)
	if err := e.participation.LeaveRoom(ctx, bob, room.ID); err != nil {
		t.Fatalf("leave room: %v", err)
	}
	e.join(t, user("u3", "Carol"), room.Code)

	if _, err := e.participation.JoinRoom(ctx, bob, JoinRequest{RoomCode: room.Code}); !errors.Is(err, ErrRoomFull) {
		t.Fatalf("expected ErrRoomFull, got %v", err)
	}
}
