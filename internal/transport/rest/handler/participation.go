package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"quizroom/internal/model"
	"quizroom/internal/service"
	"quizroom/internal/transport/rest/middleware"
)

// ParticipationHandler handles joining, leaving and answering
type ParticipationHandler struct {
	participationSvc *service.ParticipationService
	answerSvc        *service.AnswerService
}

// NewParticipationHandler creates a new participation handler
func NewParticipationHandler(participationSvc *service.ParticipationService, answerSvc *service.AnswerService) *ParticipationHandler {
	return &ParticipationHandler{participationSvc: participationSvc, answerSvc: answerSvc}
}

// Join handles POST /api/rooms/join
func (h *ParticipationHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req service.JoinRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.participationSvc.JoinRoom(r.Context(), middleware.GetIdentity(r.Context()), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if resp.GuestToken != "" {
		w.Header().Set(middleware.GuestTokenHeader, resp.GuestToken)
	}
	message := "joined room"
	if resp.Rejoined {
		message = "rejoined room"
	}
	writeJSON(w, http.StatusOK, envelope{
		"message":     message,
		"room":        resp.Room,
		"participant": resp.Participant,
		"guestToken":  resp.GuestToken,
	})
}

// Leave handles POST /api/rooms/{id}/leave
func (h *ParticipationHandler) Leave(w http.ResponseWriter, r *http.Request) {
	if err := h.participationSvc.LeaveRoom(r.Context(), middleware.GetIdentity(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "left room"})
}

// Answer handles POST /api/rooms/{id}/answers
func (h *ParticipationHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitAnswerRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.answerSvc.SubmitAnswer(r.Context(), middleware.GetIdentity(r.Context()), mux.Vars(r)["id"], req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"answer": resp})
}
