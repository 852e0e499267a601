package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/pulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulse/internal/notify"
)

type notificationsResponse struct {
	Notifications []notify.Notification `json:"notifications"`
	Unread        int                   `json:"unread"`
}

func ListNotifications(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, d.Logger, http.StatusOK, notificationsResponse{
			Notifications: d.Notifications.List(),
			Unread:        d.Notifications.Unread(),
		})
	}
}

func MarkNotificationRead(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.Notifications.MarkRead(chi.URLParam(r, "id")) {
			writeJSON(w, d.Logger, http.StatusNotFound, errorResponse{Error: "notification not found"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func RemoveNotification(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.Notifications.Remove(chi.URLParam(r, "id")) {
			writeJSON(w, d.Logger, http.StatusNotFound, errorResponse{Error: "notification not found"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ClearNotifications(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Notifications.Clear()
		w.WriteHeader(http.StatusNoContent)
	}
}
