package mutation

import (
	"github.com/MrSnakeDoc/pulse/internal/domain"
	"github.com/MrSnakeDoc/pulse/internal/fetch"
)

// reconcile is the query coordinator's hook: it merges a fetched value
// with the mutations in flight, by id. Optimistic fields win until their
// mutation settles and deleted records stay deleted.
func (m *Coordinator) reconcile(key string, data any, seq uint64) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.overlays) == 0 && len(m.tombstones) == 0 {
		return data, nil
	}

	switch v := data.(type) {
	case domain.Envelope[domain.Service]:
		kept, removed := m.merge(v.Data, seq)
		v.Data = kept
		if removed > 0 {
			v = v.WithTotal(-removed)
		}
		return v, nil

	case []domain.Service:
		kept, _ := m.merge(v, seq)
		return kept, nil

	case domain.Service:
		if t, ok := m.tombstones[v.ID]; ok && t.hides(seq) {
			return nil, &domain.OpError{Op: fetch.OpGetService, ID: v.ID, Err: domain.NotFound(v.ID)}
		}
		if o, ok := m.overlays[v.ID]; ok {
			v = o.apply(v, seq)
		}
		return v, nil
	}
	return data, nil
}

// merge returns a fresh slice without hidden records and with overlays
// applied. Callers hold m.mu.
func (m *Coordinator) merge(services []domain.Service, seq uint64) ([]domain.Service, int) {
	out := make([]domain.Service, 0, len(services))
	removed := 0
	for _, svc := range services {
		if t, ok := m.tombstones[svc.ID]; ok && t.hides(seq) {
			removed++
			continue
		}
		if o, ok := m.overlays[svc.ID]; ok {
			svc = o.apply(svc, seq)
		}
		out = append(out, svc)
	}
	return out, removed
}

// Prune forgets committed overlays and tombstones that no running fetch
// can contradict any more. It returns how many were dropped.
func (m *Coordinator) Prune() int {
	oldest, running := m.coord.OldestInFlight()

	m.mu.Lock()
	defer m.mu.Unlock()

	settled := func(seq uint64) bool { return !running || oldest > seq }

	n := 0
	for id, t := range m.tombstones {
		if !t.pending && settled(t.seq) {
			delete(m.tombstones, id)
			n++
		}
	}
	for id, o := range m.overlays {
		if len(o.pending) > 0 {
			continue
		}
		if o.committed == nil || settled(o.committedSeq) {
			delete(m.overlays, id)
			n++
		}
	}
	return n
}
