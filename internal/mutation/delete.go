package mutation

import (
	"context"

	"github.com/MrSnakeDoc/pulse/internal/cache"
	"github.com/MrSnakeDoc/pulse/internal/domain"
	"github.com/MrSnakeDoc/pulse/internal/fetch"
	"github.com/MrSnakeDoc/pulse/internal/notify"
	"github.com/MrSnakeDoc/pulse/internal/query"
)

// Delete removes a service. It disappears from every listing and the
// polling snapshot at once and its detail is evicted. A failure restores
// the listings verbatim. Responses to fetches issued before the store
// confirmed never bring it back.
func (m *Coordinator) Delete(ctx context.Context, id string) error {
	mut := m.begin(Delete, id)
	c := m.coord.Cache()

	var snapshots []cache.Entry
	m.coord.Exclusive(func() {
		m.coord.Cancel(cache.ServiceLists())
		m.coord.CancelKey(cache.ServiceDetail(id))

		m.mu.Lock()
		m.tombstones[id] = tombstone{mutation: mut.Seq, pending: true}
		m.mu.Unlock()

		for _, key := range serviceKeys(c) {
			snap, ok := c.Read(key)
			if ok && removeItem(c, key, id) {
				snapshots = append(snapshots, snap)
			}
		}
		c.Remove(cache.ServiceDetail(id))
	})
	m.transition(&mut, OptimisticApplied, nil)

	_, err := query.Retry(ctx, m.retry, m.log, fetch.OpDeleteService, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, m.writer.DeleteService(ctx, id)
	})
	if err != nil {
		m.coord.Exclusive(func() {
			m.mu.Lock()
			if t, ok := m.tombstones[id]; ok && t.mutation == mut.Seq {
				delete(m.tombstones, id)
			}
			m.mu.Unlock()

			for _, snap := range snapshots {
				c.Restore(snap)
			}
		})
		m.transition(&mut, RolledBack, err)
		m.notify(notify.Failure, TitleDeleteFailed, domain.Message(err))
		c.Invalidate(cache.ServiceLists())
		return err
	}

	issued := m.coord.Issued()
	m.coord.Exclusive(func() {
		m.mu.Lock()
		m.tombstones[id] = tombstone{mutation: mut.Seq, seq: issued}
		delete(m.overlays, id)
		m.mu.Unlock()
	})

	m.transition(&mut, Committed, nil)
	m.notify(notify.Success, TitleDeleted, msgDeleted)
	c.Invalidate(cache.ServiceLists())
	return nil
}
