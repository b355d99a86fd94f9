package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"quizroom/internal/model"
	"quizroom/internal/service"
	"quizroom/internal/transport/rest/middleware"
)

type QuestionHandler struct {
	questionSvc *service.QuestionService
}

func NewQuestionHandler(questionSvc *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionSvc: questionSvc}
}

// List handles GET /api/questions
func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	questions, page, err := h.questionSvc.ListQuestions(r.Context(), middleware.GetIdentity(r.Context()), service.ListQuestionsInput{
		Type:       model.QuestionScope(q.Get("type")),
		Search:     q.Get("search"),
		Category:   q.Get("category"),
		Difficulty: model.Difficulty(q.Get("difficulty")),
		Page:       queryInt(r, "page", 1),
		Limit:      queryInt(r, "limit", 0),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"questions": questions, "pagination": page})
}

// Get handles GET /api/questions/{id}
func (h *QuestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	question, err := h.questionSvc.GetQuestion(r.Context(), middleware.GetIdentity(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"question": question})
}

// Create handles POST /api/questions
func (h *QuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.QuestionInput
	if !decode(w, r, &req) {
		return
	}
	question, err := h.questionSvc.CreateQuestion(r.Context(), middleware.GetIdentity(r.Context()), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"question": question})
}

// Update handles PUT /api/questions/{id}
func (h *QuestionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.QuestionInput
	if !decode(w, r, &req) {
		return
	}
	question, err := h.questionSvc.UpdateQuestion(r.Context(), middleware.GetIdentity(r.Context()), mux.Vars(r)["id"], req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"question": question})
}

// Delete handles DELETE /api/questions/{id}
func (h *QuestionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.questionSvc.DeleteQuestion(r.Context(), middleware.GetIdentity(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "question deleted"})
}
