package memory

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/pulse/internal/domain"
	"github.com/MrSnakeDoc/pulse/internal/sources/seed"
)

const (
	// DefaultListLimit is the page size of listServices when none is given.
	DefaultListLimit = 10
	// DefaultEventLimit is the page size of listEvents when none is given.
	DefaultEventLimit = 20
	// DefaultStatusChangeRate is the per-service chance a poll re-checks it.
	DefaultStatusChangeRate = 0.1
)

// Options configures a Store. Zero values fall back to the defaults.
type Options struct {
	Faults      FaultPolicy
	Interceptor Interceptor
	// StatusChangeRate is the per-service re-check probability of a poll.
	// Zero means DefaultStatusChangeRate, negative disables re-checks.
	StatusChangeRate float64
	ListLimit        int
	EventLimit       int
	Rand             *rand.Rand
	Now              func() time.Time
	NewID            func() string
}

// Store is the simulated remote authority. It exclusively owns the
// canonical services and events; callers only ever get copies.
type Store struct {
	mu       sync.RWMutex
	services []domain.Service      // insertion order
	events   []domain.ServiceEvent // append-only, insertion order

	rngMu sync.Mutex
	rng   *rand.Rand

	callsMu sync.Mutex
	calls   map[Op]int

	faults      FaultPolicy
	interceptor Interceptor
	changeRate  float64
	listLimit   int
	eventLimit  int
	now         func() time.Time
	newID       func() string
}

// New creates a store holding a copy of s.
func New(s seed.Seed, opts Options) *Store {
	st := &Store{
		services:    make([]domain.Service, 0, len(s.Services)),
		events:      make([]domain.ServiceEvent, 0, len(s.Events)),
		calls:       make(map[Op]int),
		faults:      opts.Faults,
		interceptor: opts.Interceptor,
		changeRate:  opts.StatusChangeRate,
		listLimit:   opts.ListLimit,
		eventLimit:  opts.EventLimit,
		rng:         opts.Rand,
		now:         opts.Now,
		newID:       opts.NewID,
	}
	if st.faults == nil {
		st.faults = DefaultFaults()
	}
	if st.changeRate == 0 {
		st.changeRate = DefaultStatusChangeRate
	}
	if st.listLimit <= 0 {
		st.listLimit = DefaultListLimit
	}
	if st.eventLimit <= 0 {
		st.eventLimit = DefaultEventLimit
	}
	if st.rng == nil {
		st.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if st.now == nil {
		st.now = time.Now
	}
	if st.newID == nil {
		st.newID = uuid.NewString
	}

	st.services = append(st.services, s.Services...)
	for _, ev := range s.Events {
		st.events = append(st.events, ev.Clone())
	}
	return st
}

// ListServices returns one page of the services matching params.
// Filtering happens before pagination; total is the match count.
func (s *Store) ListServices(ctx context.Context, params domain.ListParams) (domain.Envelope[domain.Service], error) {
	if err := s.simulate(ctx, OpListServices); err != nil {
		return domain.Envelope[domain.Service]{}, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = s.listLimit
	}

	s.mu.RLock()
	matched := params.Filter(s.services)
	s.mu.RUnlock()

	return domain.Paginate(matched, params.Page, limit), nil
}

// GetService returns the service with the given id.
func (s *Store) GetService(ctx context.Context, id string) (domain.Service, error) {
	if err := s.simulate(ctx, OpGetService); err != nil {
		return domain.Service{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.Service{}, domain.NotFound(id)
	}
	return s.services[i], nil
}

// CreateService stores a new service: status Online, all timestamps now.
func (s *Store) CreateService(ctx context.Context, req domain.CreateServiceRequest) (domain.Service, error) {
	if err := req.Validate(); err != nil {
		return domain.Service{}, err
	}
	if err := s.simulate(ctx, OpCreateService); err != nil {
		return domain.Service{}, err
	}

	now := s.now().UTC()
	svc := domain.Service{
		ID:          s.newID(),
		Name:        req.Name,
		Type:        req.Type,
		Status:      domain.StatusOnline,
		Description: req.Description,
		Endpoint:    req.Endpoint,
		CreatedAt:   now,
		UpdatedAt:   now,
		LastCheck:   now,
	}

	s.mu.Lock()
	s.services = append(s.services, svc)
	s.mu.Unlock()

	return svc, nil
}

// UpdateService merges the set fields of req into the service.
func (s *Store) UpdateService(ctx context.Context, id string, req domain.UpdateServiceRequest) (domain.Service, error) {
	if err := req.Validate(); err != nil {
		return domain.Service{}, err
	}
	if err := s.simulate(ctx, OpUpdateService); err != nil {
		return domain.Service{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.Service{}, domain.NotFound(id)
	}

	updated := s.services[i].Apply(req)
	updated.UpdatedAt = s.stamp(updated.CreatedAt)
	s.services[i] = updated
	return updated, nil
}

// DeleteService removes the service and every event that belongs to it.
func (s *Store) DeleteService(ctx context.Context, id string) error {
	if err := s.simulate(ctx, OpDeleteService); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.NotFound(id)
	}
	s.services = append(s.services[:i:i], s.services[i+1:]...)

	kept := s.events[:0:0]
	for _, ev := range s.events {
		if ev.ServiceID != id {
			kept = append(kept, ev)
		}
	}
	s.events = kept

	return nil
}

// ListEvents returns one page of a service's timeline, oldest first.
// An unknown service simply has no events.
func (s *Store) ListEvents(ctx context.Context, serviceID string, page, limit int) (domain.Envelope[domain.ServiceEvent], error) {
	if err := s.simulate(ctx, OpListEvents); err != nil {
		return domain.Envelope[domain.ServiceEvent]{}, err
	}
	if limit <= 0 {
		limit = s.eventLimit
	}

	s.mu.RLock()
	matched := make([]domain.ServiceEvent, 0)
	for _, ev := range s.events {
		if ev.ServiceID == serviceID {
			matched = append(matched, ev.Clone())
		}
	}
	s.mu.RUnlock()

	return domain.Paginate(matched, page, limit), nil
}

// Poll re-checks every service. Each one is re-checked with probability
// StatusChangeRate; a re-check draws a status and stamps LastCheck, and a
// draw that differs from the current status records a status_change event
// and bumps UpdatedAt. It returns the full current set.
func (s *Store) Poll(ctx context.Context) ([]domain.Service, error) {
	if err := s.simulate(ctx, OpPoll); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.services {
		if s.float() >= s.changeRate {
			continue
		}

		svc := &s.services[i]
		next := domain.PolledStatuses[s.intN(len(domain.PolledStatuses))]
		now := s.stamp(svc.CreatedAt)
		svc.LastCheck = now

		if next == svc.Status {
			continue
		}

		s.events = append(s.events, domain.ServiceEvent{
			ID:        s.newID(),
			ServiceID: svc.ID,
			Type:      domain.EventStatusChange,
			Status:    next,
			Message:   "Service status changed to " + string(next),
			Timestamp: now,
			Severity:  domain.SeverityFor(next),
		})
		svc.Status = next
		svc.UpdatedAt = now
	}

	out := make([]domain.Service, len(s.services))
	copy(out, s.services)
	return out, nil
}

// AppendEvent records an event for an existing service. It bypasses fault
// injection; it exists for seeding timelines at runtime.
func (s *Store) AppendEvent(ev domain.ServiceEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(ev.ServiceID) < 0 {
		return domain.NotFound(ev.ServiceID)
	}
	if ev.ID == "" {
		ev.ID = s.newID()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = s.now().UTC()
	}
	s.events = append(s.events, ev.Clone())
	return nil
}

// Services returns a copy of every service without simulation.
func (s *Store) Services() []domain.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Service, len(s.services))
	copy(out, s.services)
	return out
}

// Count returns the number of services.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.services)
}

// Calls returns how many times op has been invoked, failed calls included.
func (s *Store) Calls(op Op) int {
	s.callsMu.Lock()
	defer s.callsMu.Unlock()

	return s.calls[op]
}

// simulate applies the fault policy for op: delay, interceptor, random
// failure. It honours ctx during the delay.
func (s *Store) simulate(ctx context.Context, op Op) error {
	s.callsMu.Lock()
	s.calls[op]++
	s.callsMu.Unlock()

	f := s.faults(op)
	if d := s.delay(f); d > 0 {
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if s.interceptor != nil {
		if err := s.interceptor(ctx, op); err != nil {
			return err
		}
	}

	if f.FailureRate > 0 && s.float() < f.FailureRate {
		return domain.Transient(failureMessages[op])
	}
	return nil
}

func (s *Store) delay(f Fault) time.Duration {
	if f.MaxDelay <= f.MinDelay {
		return f.MinDelay
	}
	span := f.MaxDelay - f.MinDelay
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return f.MinDelay + time.Duration(s.rng.Int64N(int64(span)))
}

func (s *Store) float() float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64()
}

func (s *Store) intN(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.IntN(n)
}

// stamp returns now, never earlier than floor. Callers hold s.mu.
func (s *Store) stamp(floor time.Time) time.Time {
	now := s.now().UTC()
	if now.Before(floor) {
		return floor
	}
	return now
}

// indexOf returns the position of id or -1. Callers hold s.mu.
func (s *Store) indexOf(id string) int {
	for i := range s.services {
		if s.services[i].ID == id {
			return i
		}
	}
	return -1
}
