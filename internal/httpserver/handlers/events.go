package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/pulse/internal/httpserver/deps"
)

// Events serves the loaded state of a service's event feed, fetching the
// first page when nothing is cached.
func Events(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		feed, err := d.Feeds.Load(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, d.Logger, http.StatusOK, feed)
	}
}

// NextEvents appends the next page. Concurrent calls share one fetch and
// a feed without more pages is returned unchanged.
func NextEvents(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		feed, err := d.Feeds.FetchNext(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, d.Logger, http.StatusOK, feed)
	}
}
