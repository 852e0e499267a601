package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/pulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulse/internal/httpserver/handlers"
)

func init() { Register("notifications", registerNotifications) }

func registerNotifications(r chi.Router, d deps.Deps) {
	r.Route("/api/notifications", func(r chi.Router) {
		r.Get("/", handlers.ListNotifications(d))
		r.Delete("/", handlers.ClearNotifications(d))
		r.Post("/{id}/read", handlers.MarkNotificationRead(d))
		r.Delete("/{id}", handlers.RemoveNotification(d))
	})
}
