package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/swaggo/swag"
	"golang.org/x/time/rate"

	_ "quizroom/docs"
	"quizroom/internal/cache"
	"quizroom/internal/config"
	"quizroom/internal/service"
	"quizroom/internal/transport/rest/handler"
	"quizroom/internal/transport/rest/middleware"
)

// Container holds all dependencies for the router
type Container struct {
	Config               config.Config
	Log                  *zerolog.Logger
	AuthService          *service.AuthService
	OTPService           *service.OTPService
	RoomService          *service.RoomService
	QuestionService      *service.QuestionService
	ParticipationService *service.ParticipationService
	AnswerService        *service.AnswerService
	ResultsService       *service.ResultsService
	RatingService        *service.RatingService
	ContactService       *service.ContactService
	RateLimits           cache.RateLimitCache
}

// NewRouter creates the HTTP handler with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService, c.OTPService, c.Config.Auth.CookieName, c.Config.Auth.CookieSecure)
	roomHandler := handler.NewRoomHandler(c.RoomService)
	questionHandler := handler.NewQuestionHandler(c.QuestionService)
	participationHandler := handler.NewParticipationHandler(c.ParticipationService, c.AnswerService)
	resultsHandler := handler.NewResultsHandler(c.ResultsService, c.RatingService)
	contactHandler := handler.NewContactHandler(c.ContactService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService, c.Config.Auth.CookieName)
	limiter := middleware.NewRateLimiter(c.RateLimits, c.Config.RateLimit.Requests, c.Config.RateLimit.Window)
	limit := func(endpoint string, h http.HandlerFunc) http.Handler {
		return limiter.Limit(endpoint, h)
	}
	user := func(h http.HandlerFunc) http.Handler {
		return authMW.RequireUser(h)
	}

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.HandleFunc("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(doc))
	}).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Auth routes share a process-wide throttle on top of the per-IP windows
	auth := api.NewRoute().Subrouter()
	auth.Use(middleware.Throttle(rate.NewLimiter(rate.Limit(c.Config.RateLimit.GlobalRPS), c.Config.RateLimit.Burst)))
	auth.Handle("/register", limit("register", authHandler.Register)).Methods("POST")
	auth.Handle("/login", limit("login", authHandler.Login)).Methods("POST")
	auth.HandleFunc("/logout", authHandler.Logout).Methods("POST")
	auth.Handle("/send-otp", limit("send-otp", authHandler.SendOTP)).Methods("POST")
	auth.Handle("/verify", limit("verify", authHandler.Verify)).Methods("POST")
	auth.Handle("/reset-password", limit("reset-password", authHandler.ResetPassword)).Methods("POST")

	api.Handle("/profile", user(authHandler.Profile)).Methods("GET")
	api.Handle("/profile", user(authHandler.UpdateProfile)).Methods("PUT")
	api.Handle("/contact", limit("contact", contactHandler.Submit)).Methods("POST")

	// Rooms
	api.HandleFunc("/rooms", roomHandler.List).Methods("GET")
	api.Handle("/rooms", user(roomHandler.Create)).Methods("POST")
	api.HandleFunc("/rooms/join", participationHandler.Join).Methods("POST")
	api.HandleFunc("/rooms/code/{code}", roomHandler.GetByCode).Methods("GET")
	api.HandleFunc("/rooms/{id}", roomHandler.Get).Methods("GET")
	api.Handle("/rooms/{id}", user(roomHandler.Update)).Methods("PUT")
	api.Handle("/rooms/{id}", user(roomHandler.Delete)).Methods("DELETE")
	api.Handle("/rooms/{id}/status", user(roomHandler.ChangeStatus)).Methods("POST")
	api.Handle("/rooms/{id}/activities", user(roomHandler.Activities)).Methods("GET")
	api.HandleFunc("/rooms/{id}/questions", roomHandler.Questions).Methods("GET")
	api.Handle("/rooms/{id}/questions", user(roomHandler.AddQuestion)).Methods("POST")
	api.Handle("/rooms/{id}/questions/{questionId}", user(roomHandler.RemoveQuestion)).Methods("DELETE")

	// Participation: signed-in users or guests holding a guest token
	api.HandleFunc("/rooms/{id}/leave", participationHandler.Leave).Methods("POST")
	api.HandleFunc("/rooms/{id}/answers", participationHandler.Answer).Methods("POST")

	// Results and ratings
	api.HandleFunc("/rooms/{id}/results", resultsHandler.Results).Methods("GET")
	api.HandleFunc("/rooms/{id}/results/export", resultsHandler.Export).Methods("GET")
	api.HandleFunc("/rooms/{id}/leaderboard", resultsHandler.Leaderboard).Methods("GET")
	api.HandleFunc("/rooms/{id}/rating", resultsHandler.Rate).Methods("POST")
	api.HandleFunc("/rooms/{id}/ratings", resultsHandler.Ratings).Methods("GET")

	// Question bank
	api.HandleFunc("/questions", questionHandler.List).Methods("GET")
	api.Handle("/questions", user(questionHandler.Create)).Methods("POST")
	api.HandleFunc("/questions/{id}", questionHandler.Get).Methods("GET")
	api.Handle("/questions/{id}", user(questionHandler.Update)).Methods("PUT")
	api.Handle("/questions/{id}", user(questionHandler.Delete)).Methods("DELETE")

	corsMW := cors.New(cors.Options{
		AllowedOrigins:   c.Config.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", middleware.GuestTokenHeader},
		ExposedHeaders:   []string{middleware.GuestTokenHeader, "Retry-After"},
		AllowCredentials: true,
	})

	// Outermost first: logging, CORS, identity, then the page gate
	var h http.Handler = middleware.AccessGate(r)
	h = authMW.Identify(h)
	h = corsMW.Handler(h)
	return middleware.RequestLogger(c.Log)(h)
}
