package mutation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/pulse/internal/cache"
	"github.com/MrSnakeDoc/pulse/internal/domain"
	"github.com/MrSnakeDoc/pulse/internal/fetch"
	"github.com/MrSnakeDoc/pulse/internal/logger"
	"github.com/MrSnakeDoc/pulse/internal/notify"
	"github.com/MrSnakeDoc/pulse/internal/query"
	"github.com/MrSnakeDoc/pulse/internal/sources/seed"
	"github.com/MrSnakeDoc/pulse/internal/store/memory"
)

var fastRetry = query.RetryPolicy{Retries: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}

// hook lets a test hold, fail or pass store calls per operation.
type hook struct {
	mu      sync.Mutex
	holds   map[memory.Op]chan struct{}
	fails   map[memory.Op]error
	entered chan memory.Op
}

func newHook() *hook {
	return &hook{
		holds:   make(map[memory.Op]chan struct{}),
		fails:   make(map[memory.Op]error),
		entered: make(chan memory.Op, 64),
	}
}

func (h *hook) hold(op memory.Op) func() {
	ch := make(chan struct{})
	h.mu.Lock()
	h.holds[op] = ch
	h.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (h *hook) fail(op memory.Op, err error) {
	h.mu.Lock()
	h.fails[op] = err
	h.mu.Unlock()
}

func (h *hook) intercept(ctx context.Context, op memory.Op) error {
	h.mu.Lock()
	ch := h.holds[op]
	err := h.fails[op]
	h.mu.Unlock()

	if ch != nil {
		h.entered <- op
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (h *hook) waitFor(t *testing.T, op memory.Op) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case got := <-h.entered:
			if got == op {
				return
			}
		case <-timeout:
			t.Fatalf("no %s call reached the store", op)
		}
	}
}

type env struct {
	store   *memory.Store
	client  *fetch.Client
	cache   *cache.Cache
	queries *query.Coordinator
	reads   *query.Services
	center  *notify.Center
	hook    *hook
	m       *Coordinator

	mu          sync.Mutex
	transitions []Mutation
}

func newEnv(t *testing.T, s seed.Seed) *env {
	return newEnvWithReader(t, s, nil)
}

// newEnvWithReader builds the engine; wrap, when set, decorates the read
// path so tests can hold a response after the store has answered.
func newEnvWithReader(t *testing.T, s seed.Seed, wrap func(query.Reader) query.Reader) *env {
	t.Helper()
	e := &env{hook: newHook()}
	e.store = memory.New(s, memory.Options{Faults: memory.NoFaults(), Interceptor: e.hook.intercept})
	e.client = fetch.New(e.store, logger.NewNop())
	e.cache = cache.New(cache.Options{})
	e.queries = query.New(query.Options{Cache: e.cache, Retry: fastRetry})
	t.Cleanup(e.queries.Close)

	var reader query.Reader = e.client
	if wrap != nil {
		reader = wrap(reader)
	}
	e.reads = query.NewServices(e.queries, reader, 10)
	e.center = notify.NewCenter(notify.Options{AutoDismiss: -1})
	e.m = New(Options{
		Queries:  e.queries,
		Services: e.reads,
		Writer:   e.client,
		Notifier: e.center,
		Retry:    fastRetry,
		OnTransition: func(mut Mutation) {
			e.mu.Lock()
			e.transitions = append(e.transitions, mut)
			e.mu.Unlock()
		},
	})
	return e
}

func (e *env) states() []State {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]State, 0, len(e.transitions))
	for _, tr := range e.transitions {
		out = append(out, tr.State)
	}
	return out
}

func (e *env) list(t *testing.T) domain.Envelope[domain.Service] {
	t.Helper()
	v, _, ok := cache.ReadAs[domain.Envelope[domain.Service]](e.cache, cache.ServiceList(e.reads.Normalize(domain.ListParams{})))
	require.True(t, ok, "list is cached")
	return v
}

func (e *env) snapshot(t *testing.T) []domain.Service {
	t.Helper()
	v, _, ok := cache.ReadAs[[]domain.Service](e.cache, cache.StatusPolling())
	require.True(t, ok, "polling snapshot is cached")
	return v
}

func ids(services []domain.Service) []string {
	out := make([]string, 0, len(services))
	for _, s := range services {
		out = append(out, s.ID)
	}
	return out
}

func find(services []domain.Service, id string) (domain.Service, bool) {
	for _, s := range services {
		if s.ID == id {
			return s, true
		}
	}
	return domain.Service{}, false
}

func twoServices() seed.Seed {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return seed.Seed{Services: []domain.Service{
		{ID: "A", Name: "Alpha", Type: domain.TypeAPI, Status: domain.StatusOnline, CreatedAt: created, UpdatedAt: created},
		{ID: "B", Name: "Bravo", Type: domain.TypeDatabase, Status: domain.StatusDegraded, CreatedAt: created, UpdatedAt: created},
	}}
}

func titles(c *notify.Center) []string {
	var out []string
	for _, n := range c.List() {
		out = append(out, n.Title)
	}
	return out
}
