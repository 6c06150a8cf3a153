package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"nenegana-backend/internal/handlers"
	"nenegana-backend/internal/middleware"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	Kana     *handlers.KanaHandler
	Quiz     *handlers.QuizHandler
	Attempts *handlers.AttemptHandler
	WS       http.HandlerFunc
}

func New(jwtAuth *middleware.JWTAuth, authLimiter *middleware.RateLimiter, h Handlers, frontendURL string) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(frontendURL))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/guest", h.Auth.Guest)
		})

		// ──── Kana Catalog (public) ────
		r.Get("/kana", h.Kana.List)
		r.Get("/kana/groups", h.Kana.Groups)
		r.Post("/answers/check", handlers.CheckAnswer)

		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)

			r.Get("/me", h.Auth.Me)
			r.Get("/practice", h.Kana.Practice)

			// ──── Quiz Routes ────
			r.Route("/quizzes", func(r chi.Router) {
				r.Use(chimiddleware.Timeout(15 * time.Second))
				r.Post("/", h.Quiz.Start)
				r.Get("/{id}", h.Quiz.Get)
				r.Delete("/{id}", h.Quiz.Abandon)
				r.Post("/{id}/answer", h.Quiz.Answer)
				r.Post("/{id}/speech", h.Quiz.Speech)
				r.Get("/{id}/results", h.Quiz.Results)
			})

			r.Get("/attempts", h.Attempts.List)
			r.Get("/leaderboard", h.Attempts.Leaderboard)
		})

		// ──── WebSocket ────
		r.Get("/ws", h.WS)
	})

	return r
}
