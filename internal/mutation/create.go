package mutation

import (
	"context"

	"github.com/MrSnakeDoc/pulse/internal/cache"
	"github.com/MrSnakeDoc/pulse/internal/domain"
	"github.com/MrSnakeDoc/pulse/internal/fetch"
	"github.com/MrSnakeDoc/pulse/internal/notify"
	"github.com/MrSnakeDoc/pulse/internal/query"
)

// Create adds a service. Nothing is written to the cache before the store
// confirms; on success the record heads every first-page listing it
// matches and seeds its detail key. Listing and polling fetches still in
// flight at that point are superseded.
func (m *Coordinator) Create(ctx context.Context, req domain.CreateServiceRequest) (domain.Service, error) {
	mut := m.begin(Create, req.Name)
	if err := req.Validate(); err != nil {
		m.notify(notify.Failure, TitleCreateFailed, domain.Message(err))
		return domain.Service{}, err
	}
	m.transition(&mut, OptimisticApplied, nil)

	svc, err := query.Retry(ctx, m.retry, m.log, fetch.OpCreateService, func(ctx context.Context) (domain.Service, error) {
		return m.writer.CreateService(ctx, req)
	})
	if err != nil {
		m.transition(&mut, RolledBack, err)
		m.notify(notify.Failure, TitleCreateFailed, domain.Message(err))
		return domain.Service{}, err
	}
	mut.Target = svc.ID

	c := m.coord.Cache()
	m.coord.Exclusive(func() {
		// Reads issued before the store confirmed cannot contain the record.
		m.coord.Cancel(cache.ServiceLists())
		m.coord.CancelKey(cache.StatusPolling())

		for _, key := range c.Keys(cache.ServiceLists()) {
			params, ok := cache.ListParamsOf(key)
			if !ok || !params.Matches(svc) {
				continue
			}
			cache.PatchAs(c, key, func(env domain.Envelope[domain.Service]) (domain.Envelope[domain.Service], bool) {
				if env.Pagination.Page <= 1 {
					env.Data = prepend(svc, env.Data, env.Pagination.Limit)
				}
				return env.WithTotal(1), true
			})
		}
		cache.PatchAs(c, cache.StatusPolling(), func(all []domain.Service) ([]domain.Service, bool) {
			out := make([]domain.Service, 0, len(all)+1)
			return append(append(out, all...), svc), true
		})
	})
	m.coord.Put(cache.ServiceDetail(svc.ID), svc)
	c.Invalidate(cache.ServiceLists())

	m.transition(&mut, Committed, nil)
	m.notify(notify.Success, TitleCreated, `Successfully created service "`+svc.Name+`"`)
	return svc, nil
}
