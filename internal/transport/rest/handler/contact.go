package handler

import (
	"net/http"

	"quizroom/internal/service"
	"quizroom/internal/transport/rest/middleware"
)

type ContactHandler struct {
	contactSvc *service.ContactService
}

func NewContactHandler(contactSvc *service.ContactService) *ContactHandler {
	return &ContactHandler{contactSvc: contactSvc}
}

// Submit handles POST /api/contact
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req service.ContactRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.contactSvc.Submit(r.Context(), middleware.GetIdentity(r.Context()), req, middleware.ClientIP(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "message sent"})
}
