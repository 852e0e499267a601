package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/pulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulse/internal/logger"
)

type pollResponse struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message"`
}

// Poll asks the poller for an immediate status check.
func Poll(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case d.PollTrigger <- struct{}{}:
			d.Logger.Info("manual poll triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, d.Logger, http.StatusAccepted, pollResponse{
				Triggered: true,
				Message:   "poll triggered",
			})
		default:
			d.Logger.Warn("poll already queued",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, d.Logger, http.StatusTooManyRequests, pollResponse{
				Message: "poll already queued, please wait",
			})
		}
	}
}
