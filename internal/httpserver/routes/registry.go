package routes

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/pulse/internal/httpserver/deps"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type entry struct {
	name      string
	reg       Registrar
	mws       []Middleware
	longLived bool
}

var registry []entry

// Register adds a named route group with optional per-group middlewares.
// Groups are mounted in name order so the router does not depend on file
// init order.
func Register(name string, reg Registrar, mws ...Middleware) {
	add(entry{name: name, reg: reg, mws: mws})
}

// RegisterStream adds a group of long-lived routes (websockets). They are
// mounted without the request-bounding middlewares.
func RegisterStream(name string, reg Registrar, mws ...Middleware) {
	add(entry{name: name, reg: reg, mws: mws, longLived: true})
}

func add(e entry) {
	registry = append(registry, e)
	sort.SliceStable(registry, func(i, j int) bool { return registry[i].name < registry[j].name })
}

// Groups lists the registered group names.
func Groups() []string {
	names := make([]string, 0, len(registry))
	for _, e := range registry {
		names = append(names, e.name)
	}
	return names
}

// RegisterAll mounts every group. bounded applies to regular groups only.
// Called once from server.NewRouter().
func RegisterAll(r chi.Router, d deps.Deps, bounded ...Middleware) {
	for _, e := range registry {
		mws := e.mws
		if !e.longLived {
			mws = append(append([]Middleware{}, bounded...), e.mws...)
		}
		if len(mws) == 0 {
			e.reg(r, d)
			continue
		}
		sub := r.With(mws...) // apply per-group middlewares
		e.reg(sub, d)
	}
}
