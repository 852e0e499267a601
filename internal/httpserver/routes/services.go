package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/pulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulse/internal/httpserver/handlers"
)

func init() { Register("services", registerServices) }

func registerServices(r chi.Router, d deps.Deps) {
	r.Route("/api/services", func(r chi.Router) {
		r.Get("/", handlers.ListServices(d))
		r.Post("/", handlers.CreateService(d))
		r.Get("/{id}", handlers.GetService(d))
		r.Patch("/{id}", handlers.UpdateService(d))
		r.Delete("/{id}", handlers.DeleteService(d))
		r.Get("/{id}/events", handlers.Events(d))
		r.Post("/{id}/events/next", handlers.NextEvents(d))
	})
	r.Get("/api/board", handlers.Board(d))
	r.Post("/api/poll", handlers.Poll(d))
	r.Get("/api/cache", handlers.Cache(d))
}
