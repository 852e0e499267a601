package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/pulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulse/internal/httpserver/handlers"
)

func init() { RegisterStream("stream", registerStream) }

func registerStream(r chi.Router, d deps.Deps) {
	r.Get("/api/stream", handlers.Stream(d))
}
