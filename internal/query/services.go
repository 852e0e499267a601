package query

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/pulse/internal/cache"
	"github.com/MrSnakeDoc/pulse/internal/domain"
)

// DefaultListLimit is the page size used when a listing names none.
const DefaultListLimit = 10

// Reader is the read side of the fetch client.
type Reader interface {
	ListServices(ctx context.Context, params domain.ListParams) (domain.Envelope[domain.Service], error)
	GetService(ctx context.Context, id string) (domain.Service, error)
	ListEvents(ctx context.Context, serviceID string, page, limit int) (domain.Envelope[domain.ServiceEvent], error)
	Poll(ctx context.Context) ([]domain.Service, error)
}

// Services are the typed queries of the dashboard.
type Services struct {
	coord     *Coordinator
	reader    Reader
	listLimit int
}

func NewServices(coord *Coordinator, reader Reader, listLimit int) *Services {
	if listLimit <= 0 {
		listLimit = DefaultListLimit
	}
	return &Services{coord: coord, reader: reader, listLimit: listLimit}
}

// Normalize fills in the default page and limit so equal listings share
// one cache key.
func (s *Services) Normalize(params domain.ListParams) domain.ListParams {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = s.listLimit
	}
	return params
}

// List returns one page of services, stale-while-revalidate.
func (s *Services) List(ctx context.Context, params domain.ListParams) (domain.Envelope[domain.Service], error) {
	params = s.Normalize(params)
	v, err := s.coord.Query(ctx, cache.ServiceList(params), s.listFetcher(params))
	if err != nil {
		return domain.Envelope[domain.Service]{}, err
	}
	return as[domain.Envelope[domain.Service]](v)
}

// Get returns one service, stale-while-revalidate.
func (s *Services) Get(ctx context.Context, id string) (domain.Service, error) {
	v, err := s.coord.Query(ctx, cache.ServiceDetail(id), s.detailFetcher(id))
	if err != nil {
		return domain.Service{}, err
	}
	return as[domain.Service](v)
}

// PollStatuses fetches the full status snapshot into the polling key.
// Overlapping calls share one fetch.
func (s *Services) PollStatuses(ctx context.Context) ([]domain.Service, error) {
	v, err := s.coord.Fetch(ctx, cache.StatusPolling(), s.pollFetcher())
	if err != nil {
		return nil, err
	}
	return as[[]domain.Service](v)
}

// ObserveList keeps the listing of params fresh while subscribed.
func (s *Services) ObserveList(params domain.ListParams, cb func(cache.Notice)) func() {
	params = s.Normalize(params)
	return s.coord.Observe(cache.ServiceList(params), s.listFetcher(params), cb)
}

// ObserveDetail keeps one service fresh while subscribed.
func (s *Services) ObserveDetail(id string, cb func(cache.Notice)) func() {
	return s.coord.Observe(cache.ServiceDetail(id), s.detailFetcher(id), cb)
}

func (s *Services) listFetcher(params domain.ListParams) Fetcher {
	return func(ctx context.Context) (any, error) {
		return s.reader.ListServices(ctx, params)
	}
}

func (s *Services) detailFetcher(id string) Fetcher {
	return func(ctx context.Context) (any, error) {
		return s.reader.GetService(ctx, id)
	}
}

func (s *Services) pollFetcher() Fetcher {
	return func(ctx context.Context) (any, error) {
		return s.reader.Poll(ctx)
	}
}

func as[T any](v any) (T, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cached value is %T, want %T", v, zero)
	}
	return t, nil
}
