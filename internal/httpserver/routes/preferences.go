package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/pulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulse/internal/httpserver/handlers"
)

func init() { Register("preferences", registerPreferences) }

func registerPreferences(r chi.Router, d deps.Deps) {
	r.Route("/api/preferences", func(r chi.Router) {
		r.Get("/", handlers.GetPreferences(d))
		r.Put("/", handlers.PutPreferences(d))
		r.Delete("/", handlers.ResetPreferences(d))
		r.Post("/theme/toggle", handlers.ToggleTheme(d))
		r.Post("/sidebar/toggle", handlers.ToggleSidebar(d))
	})
}
