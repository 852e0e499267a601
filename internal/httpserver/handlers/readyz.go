package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/pulse/internal/cache"
	"github.com/MrSnakeDoc/pulse/internal/httpserver/deps"
)

type componentStatus struct {
	OK    bool   `json:"ok"`
	Mode  string `json:"mode,omitempty"`
	Error string `json:"error,omitempty"`
}

type readyzResponse struct {
	Ready      bool                       `json:"ready"`
	Components map[string]componentStatus `json:"components"`
}

// Readyz reports ready once the preference store answers. A missing status
// snapshot is reported but does not block readiness: the poller retries.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"preferences": checkPreferences(r.Context(), d),
			"polling":     checkPolling(d),
		}

		status := http.StatusOK
		ready := components["preferences"].OK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, d.Logger, status, readyzResponse{
			Ready:      ready,
			Components: components,
		})
	}
}

func checkPreferences(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{OK: true, Mode: "memory"}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{OK: false, Mode: "redis", Error: err.Error()}
	}
	return componentStatus{OK: true, Mode: "redis"}
}

func checkPolling(d deps.Deps) componentStatus {
	e, ok := d.Queries.Cache().Read(cache.StatusPolling())
	if !ok {
		return componentStatus{OK: false, Error: "no snapshot yet"}
	}
	return componentStatus{OK: true, Mode: "last poll " + e.UpdatedAt.Format(time.RFC3339)}
}
