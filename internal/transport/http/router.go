package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires pages, the session API, and the countdown websocket.
func NewRouter(handler *Handler) http.Handler {
	ws := NewWSHandler(handler)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/healthz"))

	// Pages.
	r.Get("/", handler.Home)
	r.Get("/register", handler.Register)
	r.Post("/register", handler.Register)
	r.Get("/login", handler.Login)
	r.Post("/login", handler.Login)
	r.Get("/logout", handler.Logout)
	r.Get("/quiz", handler.requirePageUser(handler.Quiz))
	r.Post("/quiz", handler.requirePageUser(handler.Quiz))
	r.Get("/quiz_results", handler.requirePageUser(handler.Results))
	r.Post("/quiz/abandon", handler.requirePageUser(handler.AbandonQuiz))

	// Session API.
	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/session/status", handler.requireAPIUser(handler.SessionStatus))
		api.Post("/session/heartbeat", handler.requireAPIUser(handler.SessionHeartbeat))
		api.Post("/session/create", handler.requireAPIUser(handler.SessionCreate))
		api.Post("/session/abandon", handler.requireAPIUser(handler.SessionAbandon))
		api.Post("/session/extend", handler.requireAPIUser(handler.SessionExtend))
		api.Get("/questions", handler.requireAPIUser(handler.Questions))
	})

	// Countdown websocket.
	r.Get("/ws/countdown", ws.ServeCountdown)

	return r
}
