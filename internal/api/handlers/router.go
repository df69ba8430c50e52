package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dvloznov/fintalk/internal/api/middleware"
)

// NewRouter wires the HTTP routes to the conversation engine.
func NewRouter(engine Engine, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.CORS)

	conv := NewConversationHandler(engine, log)

	r.Route("/api", func(api chi.Router) {
		api.Post("/messages", conv.PostMessage)
		api.Post("/actions", conv.PostAction)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
