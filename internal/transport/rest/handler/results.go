package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"quizroom/internal/model"
	"quizroom/internal/service"
	"quizroom/internal/transport/rest/middleware"
)

// ResultsHandler serves results, the leaderboard and ratings
type ResultsHandler struct {
	resultsSvc *service.ResultsService
	ratingSvc  *service.RatingService
}

func NewResultsHandler(resultsSvc *service.ResultsService, ratingSvc *service.RatingService) *ResultsHandler {
	return &ResultsHandler{resultsSvc: resultsSvc, ratingSvc: ratingSvc}
}

type ratingRequest struct {
	Rating int `json:"rating"`
}

// Results handles GET /api/rooms/{id}/results
func (h *ResultsHandler) Results(w http.ResponseWriter, r *http.Request) {
	res, err := h.resultsSvc.GetResults(r.Context(), middleware.GetIdentity(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"results": res})
}

// Export handles GET /api/rooms/{id}/results/export
func (h *ResultsHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := model.ExportFormat(r.URL.Query().Get("format"))
	if err := h.resultsSvc.Export(r.Context(), middleware.GetIdentity(r.Context()), mux.Vars(r)["id"], format); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// Leaderboard handles GET /api/rooms/{id}/leaderboard
func (h *ResultsHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.resultsSvc.Leaderboard(r.Context(), middleware.GetIdentity(r.Context()), mux.Vars(r)["id"], queryInt(r, "top", 10))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp := envelope{"leaderboard": lb.Entries}
	if lb.MyRank > 0 {
		resp["myRank"] = lb.MyRank
	}
	writeJSON(w, http.StatusOK, resp)
}

// Rate handles POST /api/rooms/{id}/rating
func (h *ResultsHandler) Rate(w http.ResponseWriter, r *http.Request) {
	var req ratingRequest
	if !decode(w, r, &req) {
		return
	}
	rating, err := h.ratingSvc.SubmitRating(r.Context(), middleware.GetIdentity(r.Context()), mux.Vars(r)["id"], req.Rating)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"rating": rating})
}

// Ratings handles GET /api/rooms/{id}/ratings
func (h *ResultsHandler) Ratings(w http.ResponseWriter, r *http.Request) {
	summary, err := h.ratingSvc.GetRatings(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"ratings": summary})
}
