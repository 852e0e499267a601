package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/pulse/internal/domain"
	"github.com/MrSnakeDoc/pulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulse/internal/logger"
)

// ListServices serves one page of the filtered listing. A cached page is
// returned even when stale; the refresh happens in the background.
func ListServices(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := domain.ParseListParams(r.URL.Query())
		env, err := d.Services.List(r.Context(), params)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, d.Logger, http.StatusOK, env)
	}
}

func GetService(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc, err := d.Services.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, d.Logger, http.StatusOK, svc)
	}
}

func CreateService(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.CreateServiceRequest
		if err := decode(w, r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		svc, err := d.Mutations.Create(r.Context(), req)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		d.Logger.Info("service created",
			logger.String("id", svc.ID),
			logger.String("name", svc.Name))
		writeJSON(w, d.Logger, http.StatusCreated, svc)
	}
}

func UpdateService(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.UpdateServiceRequest
		if err := decode(w, r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		svc, err := d.Mutations.Update(r.Context(), chi.URLParam(r, "id"), req)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, d.Logger, http.StatusOK, svc)
	}
}

func DeleteService(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Mutations.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Board serves the list screen: the filtered services with per-status
// counts over everything known.
func Board(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := domain.ParseListParams(r.URL.Query())
		board, err := d.Mutations.Board(r.Context(), params.ServiceFilters)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, d.Logger, http.StatusOK, board)
	}
}
