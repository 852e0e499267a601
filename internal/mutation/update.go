package mutation

import (
	"context"

	"github.com/MrSnakeDoc/pulse/internal/cache"
	"github.com/MrSnakeDoc/pulse/internal/domain"
	"github.com/MrSnakeDoc/pulse/internal/fetch"
	"github.com/MrSnakeDoc/pulse/internal/notify"
	"github.com/MrSnakeDoc/pulse/internal/query"
)

// Update changes a service. The new fields show in its detail, in every
// listing and in the polling snapshot before the store answers. A failure
// puts back exactly what was there before, except in the polling snapshot
// where newer poll data is kept. Either way detail, listings and the
// snapshot are invalidated once the store has answered.
func (m *Coordinator) Update(ctx context.Context, id string, req domain.UpdateServiceRequest) (domain.Service, error) {
	mut := m.begin(Update, id)
	if err := req.Validate(); err != nil {
		m.notify(notify.Failure, TitleUpdateFailed, domain.Message(err))
		return domain.Service{}, err
	}

	c := m.coord.Cache()
	p := patch{mutation: mut.Seq, fields: req, updatedAt: m.stamp()}

	var (
		prevDetail cache.Entry
		hadDetail  bool
		prevItems  = make(map[string]domain.Service)
	)
	m.coord.Exclusive(func() {
		// In-flight reads predate the edit; their answers must not land.
		m.coord.CancelKey(cache.ServiceDetail(id))
		m.coord.Cancel(cache.ServiceLists())

		m.mu.Lock()
		o, ok := m.overlays[id]
		if !ok {
			o = &overlay{}
			m.overlays[id] = o
		}
		o.pending = append(o.pending, p)
		m.mu.Unlock()

		prevDetail, hadDetail = c.Read(cache.ServiceDetail(id))
		cache.PatchAs(c, cache.ServiceDetail(id), func(svc domain.Service) (domain.Service, bool) {
			return p.on(svc), true
		})
		for _, key := range serviceKeys(c) {
			patchItem(c, key, id, func(svc domain.Service) domain.Service {
				prevItems[key] = svc
				return p.on(svc)
			})
		}
	})
	m.transition(&mut, OptimisticApplied, nil)

	svc, err := query.Retry(ctx, m.retry, m.log, fetch.OpUpdateService, func(ctx context.Context) (domain.Service, error) {
		return m.writer.UpdateService(ctx, id, req)
	})
	if err != nil {
		m.coord.Exclusive(func() {
			m.mu.Lock()
			if o, ok := m.overlays[id]; ok {
				o.drop(mut.Seq)
			}
			m.mu.Unlock()

			if hadDetail {
				c.Restore(prevDetail)
			}
			for key, prev := range prevItems {
				if key == cache.StatusPolling() {
					// A poll may have landed meanwhile; keep what it brought.
					patchItem(c, key, id, func(cur domain.Service) domain.Service { return p.undo(cur, prev) })
					continue
				}
				patchItem(c, key, id, func(domain.Service) domain.Service { return prev })
			}
		})
		m.transition(&mut, RolledBack, err)
		m.notify(notify.Failure, TitleUpdateFailed, domain.Message(err))
		m.settleUpdate(id)
		return domain.Service{}, err
	}

	issued := m.coord.Issued()
	var detail domain.Service
	m.coord.Exclusive(func() {
		m.mu.Lock()
		o, ok := m.overlays[id]
		if !ok {
			o = &overlay{}
			m.overlays[id] = o
		}
		o.drop(mut.Seq)
		o.committed = &patch{mutation: mut.Seq, fields: req, updatedAt: svc.UpdatedAt}
		o.committedSeq = issued
		// Later edits still in flight stay visible on top of the answer.
		detail = o.apply(svc, issued+1)
		m.mu.Unlock()
	})
	m.coord.Put(cache.ServiceDetail(id), detail)

	m.transition(&mut, Committed, nil)
	m.notify(notify.Success, TitleUpdated, `Successfully updated service "`+svc.Name+`"`)
	m.settleUpdate(id)
	return svc, nil
}

// undo reverts the fields p set on cur to their value in prev. A field
// that no longer holds what p wrote was changed since and is kept.
func (p patch) undo(cur, prev domain.Service) domain.Service {
	f := p.fields
	if f.Name != nil && cur.Name == *f.Name {
		cur.Name = prev.Name
	}
	if f.Type != nil && cur.Type == *f.Type {
		cur.Type = prev.Type
	}
	if f.Status != nil && cur.Status == *f.Status {
		cur.Status = prev.Status
	}
	if f.Description != nil && cur.Description == *f.Description {
		cur.Description = prev.Description
	}
	if f.Endpoint != nil && cur.Endpoint == *f.Endpoint {
		cur.Endpoint = prev.Endpoint
	}
	if cur.UpdatedAt.Equal(p.updatedAt) {
		cur.UpdatedAt = prev.UpdatedAt
	}
	return cur
}

func (m *Coordinator) settleUpdate(id string) {
	c := m.coord.Cache()
	c.Invalidate(cache.ServiceDetail(id))
	c.Invalidate(cache.ServiceLists())
	c.Invalidate(cache.StatusPolling())
}
