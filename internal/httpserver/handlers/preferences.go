package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/pulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulse/internal/prefs"
)

func GetPreferences(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, d.Logger, http.StatusOK, d.Preferences.Get())
	}
}

func PutPreferences(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p prefs.Preferences
		if err := decode(w, r, &p); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		reply(w, d, func() (prefs.Preferences, error) {
			return d.Preferences.Replace(r.Context(), p)
		})
	}
}

func ToggleTheme(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply(w, d, func() (prefs.Preferences, error) {
			return d.Preferences.ToggleTheme(r.Context())
		})
	}
}

func ToggleSidebar(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply(w, d, func() (prefs.Preferences, error) {
			return d.Preferences.ToggleSidebar(r.Context())
		})
	}
}

func ResetPreferences(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply(w, d, func() (prefs.Preferences, error) {
			return d.Preferences.Reset(r.Context())
		})
	}
}

func reply(w http.ResponseWriter, d deps.Deps, fn func() (prefs.Preferences, error)) {
	p, err := fn()
	if err != nil {
		writeError(w, d.Logger, err)
		return
	}
	writeJSON(w, d.Logger, http.StatusOK, p)
}
