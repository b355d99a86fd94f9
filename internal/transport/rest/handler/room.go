package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"quizroom/internal/model"
	"quizroom/internal/service"
	"quizroom/internal/transport/rest/middleware"
)

// RoomHandler handles the room registry endpoints
type RoomHandler struct {
	roomSvc *service.RoomService
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(roomSvc *service.RoomService) *RoomHandler {
	return &RoomHandler{roomSvc: roomSvc}
}

type changeStatusRequest struct {
	Status model.RoomStatus `json:"status" validate:"required"`
}

// Create handles POST /api/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateRoomInput
	if !decode(w, r, &req) {
		return
	}
	room, err := h.roomSvc.CreateRoom(r.Context(), middleware.GetIdentity(r.Context()), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"room": room})
}

// List handles GET /api/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rooms, page, err := h.roomSvc.ListRooms(r.Context(), middleware.GetIdentity(r.Context()), service.ListRoomsInput{
		Type:       q.Get("type"),
		Page:       queryInt(r, "page", 1),
		Limit:      queryInt(r, "limit", 0),
		Search:     q.Get("search"),
		Status:     model.RoomStatus(q.Get("status")),
		Category:   q.Get("category"),
		Difficulty: model.Difficulty(q.Get("difficulty")),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"rooms": rooms, "pagination": page})
}

// Get handles GET /api/rooms/{id}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	room, err := h.roomSvc.GetRoom(r.Context(), middleware.GetIdentity(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"room": room})
}

// GetByCode handles GET /api/rooms/code/{code}
func (h *RoomHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	room, err := h.roomSvc.GetRoomByCode(r.Context(), middleware.GetIdentity(r.Context()), mux.Vars(r)["code"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"room": room})
}

// Update handles PUT /api/rooms/{id}
func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.RoomUpdate
	if !decode(w, r, &req) {
		return
	}
	room, err := h.roomSvc.UpdateRoom(r.Context(), middleware.GetIdentity(r.Context()), mux.Vars(r)["id"], req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"room": room})
}

// ChangeStatus handles POST /api/rooms/{id}/status
func (h *RoomHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req changeStatusRequest
	if !decode(w, r, &req) {
		return
	}
	room, err := h.roomSvc.ChangeStatus(r.Context(), middleware.GetIdentity(r.Context()), mux.Vars(r)["id"], req.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"room": room})
}

// Delete handles DELETE /api/rooms/{id}
func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.roomSvc.DeleteRoom(r.Context(), middleware.GetIdentity(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "room deleted"})
}

// Activities handles GET /api/rooms/{id}/activities
func (h *RoomHandler) Activities(w http.ResponseWriter, r *http.Request) {
	acts, err := h.roomSvc.ListActivities(r.Context(), middleware.GetIdentity(r.Context()), mux.Vars(r)["id"], queryInt(r, "limit", 50))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"activities": acts})
}

// AddQuestion handles POST /api/rooms/{id}/questions
func (h *RoomHandler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	var req service.AddQuestionInput
	if !decode(w, r, &req) {
		return
	}
	rq, err := h.roomSvc.AddQuestion(r.Context(), middleware.GetIdentity(r.Context()), mux.Vars(r)["id"], req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"roomQuestion": rq})
}

// RemoveQuestion handles DELETE /api/rooms/{id}/questions/{questionId}
func (h *RoomHandler) RemoveQuestion(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.roomSvc.RemoveQuestion(r.Context(), middleware.GetIdentity(r.Context()), vars["id"], vars["questionId"]); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "question removed"})
}

// Questions handles GET /api/rooms/{id}/questions
func (h *RoomHandler) Questions(w http.ResponseWriter, r *http.Request) {
	qs, err := h.roomSvc.ListQuestions(r.Context(), middleware.GetIdentity(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"questions": qs})
}
