package service

import (
	"context"
	"errors"
	"testing"

	"quizroom/internal/model"
)

func TestSubmitAnswer(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	owner := user("u1", "Alice")
	room, err := e.roomSvc.CreateRoom(ctx, owner, CreateRoomInput{
		Title:           "Quiz",
		MaxParticipants: 10,
		Settings:        model.RoomSettings{ShowFeedback: true},
	})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	q := e.createQuestion(t, owner, 1)
	other := e.createQuestion(t, owner, 0)
	if _, err := e.roomSvc.AddQuestion(ctx, owner, room.ID, AddQuestionInput{QuestionID: q.ID}); err != nil {
		t.Fatalf("add question: %v", err)
	}
	bob := user("u2", "Bob")
	e.join(t, bob, room.Code)

	req := model.SubmitAnswerRequest{QuestionID: q.ID, SelectedOption: 1, TimeSpent: 12}
	if _, err := e.answerSvc.SubmitAnswer(ctx, bob, room.ID, req); !errors.Is(err, ErrRoomNotActive) {
		t.Fatalf("expected ErrRoomNotActive, got %v", err)
	}
	e.setStatus(t, owner, room.ID, model.RoomActive)

	if _, err := e.answerSvc.SubmitAnswer(ctx, user("u3", "Carol"), room.ID, req); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
	if _, err := e.answerSvc.SubmitAnswer(ctx, bob, room.ID, model.SubmitAnswerRequest{QuestionID: other.ID}); !errors.Is(err, ErrQuestionNotInRoom) {
		t.Fatalf("expected ErrQuestionNotInRoom, got %v", err)
	}
	if _, err := e.answerSvc.SubmitAnswer(ctx, bob, room.ID, model.SubmitAnswerRequest{QuestionID: q.ID, SelectedOption: 3}); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption, got %v", err)
	}

	resp, err := e.answerSvc.SubmitAnswer(ctx, bob, room.ID, req)
	if err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	if !resp.IsCorrect || resp.Points != model.DefaultQuestionPoints {
		t.Fatalf("expected a correct answer worth %d, got %+v", model.DefaultQuestionPoints, resp)
	}
	if resp.CorrectAnswer == nil || *resp.CorrectAnswer != 1 {
		t.Fatalf("expected feedback with the correct answer")
	}

	if _, err := e.answerSvc.SubmitAnswer(ctx, bob, room.ID, req); !errors.Is(err, ErrAlreadyAnswered) {
		t.Fatalf("expected ErrAlreadyAnswered, got %v", err)
	}

	stored, _ := e.rooms.GetByID(ctx, room.ID)
	p := stored.FindParticipantByUser("u2")
	if p.Score != model.DefaultQuestionPoints || p.AnsweredQuestions != 1 {
		t.Fatalf("expected participant score to be updated, got %+v", p)
	}
}

func TestSubmitAnswerAsGuest(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	owner := user("u1", "Alice")
	room := e.createRoom(t, owner, 10)
	q := e.createQuestion(t, owner, 1)
	if _, err := e.roomSvc.AddQuestion(ctx, owner, room.ID, AddQuestionInput{QuestionID: q.ID}); err != nil {
		t.Fatalf("add question: %v", err)
	}
	guest := guestOf(e.join(t, model.Identity{}, room.Code))
	e.setStatus(t, owner, room.ID, model.RoomActive)

	resp, err := e.answerSvc.SubmitAnswer(ctx, guest, room.ID, model.SubmitAnswerRequest{QuestionID: q.ID, SelectedOption: 0, TimeSpent: 3})
	if err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	if resp.IsCorrect || resp.Points != 0 || resp.CorrectAnswer != nil {
		t.Fatalf("expected a wrong answer without feedback, got %+v", resp)
	}

	// a guest token for another room does not make the caller a participant here
	stranger := model.Identity{GuestID: guest.GuestID, GuestRoomID: "other-room"}
	if _, err := e.answerSvc.SubmitAnswer(ctx, stranger, room.ID, model.SubmitAnswerRequest{QuestionID: q.ID}); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
}
