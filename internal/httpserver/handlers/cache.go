package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/pulse/internal/cache"
	"github.com/MrSnakeDoc/pulse/internal/httpserver/deps"
)

type cacheEntry struct {
	Key         string           `json:"key"`
	Family      cache.Family     `json:"family"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	Stale       bool             `json:"stale"`
	Invalidated bool             `json:"invalidated"`
	Observed    bool             `json:"observed"`
	Provenance  cache.Provenance `json:"provenance"`
}

type cacheResponse struct {
	Entries          []cacheEntry `json:"entries"`
	InFlight         []string     `json:"inFlight"`
	PendingMutations int          `json:"pendingMutations"`
}

// Cache lists what the query cache currently holds.
func Cache(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := d.Queries.Cache()
		entries := c.Entries("")
		out := make([]cacheEntry, 0, len(entries))
		for _, e := range entries {
			out = append(out, cacheEntry{
				Key:         e.Key,
				Family:      cache.FamilyOf(e.Key),
				UpdatedAt:   e.UpdatedAt,
				Stale:       e.Stale,
				Invalidated: e.Invalidated,
				Observed:    c.Observed(e.Key),
				Provenance:  e.Provenance,
			})
		}

		writeJSON(w, d.Logger, http.StatusOK, cacheResponse{
			Entries:          out,
			InFlight:         d.Queries.InFlight(),
			PendingMutations: d.Mutations.Pending(),
		})
	}
}
