package query

import (
	"context"

	"github.com/MrSnakeDoc/pulse/internal/cache"
	"github.com/MrSnakeDoc/pulse/internal/domain"
)

// DefaultEventLimit is the page size of an event feed.
const DefaultEventLimit = 20

// Feed is the accumulated state of one service's event timeline.
type Feed struct {
	ServiceID  string                `json:"serviceId"`
	Events     []domain.ServiceEvent `json:"events"`
	Page       int                   `json:"page"`
	Limit      int                   `json:"limit"`
	Total      int                   `json:"total"`
	TotalPages int                   `json:"totalPages"`
	HasMore    bool                  `json:"hasMore"`
}

// append returns a new feed with env's page added.
func (f Feed) append(env domain.Envelope[domain.ServiceEvent]) Feed {
	events := make([]domain.ServiceEvent, 0, len(f.Events)+len(env.Data))
	events = append(events, f.Events...)
	events = append(events, env.Data...)

	p := env.Pagination
	return Feed{
		ServiceID:  f.ServiceID,
		Events:     events,
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      p.Total,
		TotalPages: p.TotalPages,
		HasMore:    p.HasMore(),
	}
}

// Feeds manages the infinite event feeds. Pages of one feed are fetched
// strictly in order: a FetchNext that arrives while another is running
// joins it instead of requesting a page of its own.
type Feeds struct {
	coord  *Coordinator
	reader Reader
	limit  int
}

func NewFeeds(coord *Coordinator, reader Reader, limit int) *Feeds {
	if limit <= 0 {
		limit = DefaultEventLimit
	}
	return &Feeds{coord: coord, reader: reader, limit: limit}
}

// Load returns the feed of serviceID, fetching its first page when it has
// never been loaded. A stale feed is returned and reloaded in the
// background.
func (f *Feeds) Load(ctx context.Context, serviceID string) (Feed, error) {
	v, err := f.coord.Query(ctx, cache.ServiceEvents(serviceID), f.reload(serviceID))
	if err != nil {
		return Feed{}, err
	}
	return as[Feed](v)
}

// FetchNext appends the next page. Without a next page it returns the
// current feed and touches nothing.
func (f *Feeds) FetchNext(ctx context.Context, serviceID string) (Feed, error) {
	key := cache.ServiceEvents(serviceID)
	cur, _, ok := cache.ReadAs[Feed](f.coord.Cache(), key)
	if !ok {
		return f.Load(ctx, serviceID)
	}
	if !cur.HasMore {
		return cur, nil
	}

	v, err := f.coord.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		// Re-read: a fetch that finished since the check may have advanced it.
		cur, _, ok := cache.ReadAs[Feed](f.coord.Cache(), key)
		if !ok {
			cur = Feed{ServiceID: serviceID}
		}
		if ok && !cur.HasMore {
			return cur, nil
		}
		env, err := f.reader.ListEvents(ctx, serviceID, cur.Page+1, f.limit)
		if err != nil {
			return nil, err
		}
		return cur.append(env), nil
	})
	if err != nil {
		return Feed{}, err
	}
	return as[Feed](v)
}

// Refresh refetches every loaded page in order and replaces the feed.
func (f *Feeds) Refresh(ctx context.Context, serviceID string) (Feed, error) {
	v, err := f.coord.Fetch(ctx, cache.ServiceEvents(serviceID), f.reload(serviceID))
	if err != nil {
		return Feed{}, err
	}
	return as[Feed](v)
}

// reload fetches pages 1..n, n being the number of pages loaded so far
// (at least one).
func (f *Feeds) reload(serviceID string) Fetcher {
	key := cache.ServiceEvents(serviceID)
	return func(ctx context.Context) (any, error) {
		pages := 1
		if cur, _, ok := cache.ReadAs[Feed](f.coord.Cache(), key); ok && cur.Page > 1 {
			pages = cur.Page
		}

		next := Feed{ServiceID: serviceID, Events: []domain.ServiceEvent{}}
		for page := 1; page <= pages; page++ {
			env, err := f.reader.ListEvents(ctx, serviceID, page, f.limit)
			if err != nil {
				return nil, err
			}
			next = next.append(env)
			if !next.HasMore {
				break
			}
		}
		return next, nil
	}
}
