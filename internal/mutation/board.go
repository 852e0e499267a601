package mutation

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/pulse/internal/cache"
	"github.com/MrSnakeDoc/pulse/internal/domain"
)

// Board sources.
const (
	SourcePolling = "polling"
	SourceList    = "list"
)

// Board is the list screen: filtered services plus status counts over
// everything known.
type Board struct {
	Services  []domain.Service             `json:"services"`
	Counts    map[domain.ServiceStatus]int `json:"counts"`
	Total     int                          `json:"total"`
	Matched   int                          `json:"matched"`
	Source    string                       `json:"source"`
	UpdatedAt time.Time                    `json:"updatedAt"`
}

// Board prefers the reconciled polling snapshot and falls back to the
// first page of the unfiltered listing. Filters apply client-side.
func (m *Coordinator) Board(ctx context.Context, filters domain.ServiceFilters) (Board, error) {
	c := m.coord.Cache()
	if all, e, ok := cache.ReadAs[[]domain.Service](c, cache.StatusPolling()); ok {
		return newBoard(all, filters, SourcePolling, e.UpdatedAt), nil
	}

	params := m.services.Normalize(domain.ListParams{})
	env, err := m.services.List(ctx, params)
	if err != nil {
		return Board{}, err
	}
	var updated time.Time
	if e, ok := c.Read(cache.ServiceList(params)); ok {
		updated = e.UpdatedAt
	}
	return newBoard(env.Data, filters, SourceList, updated), nil
}

func newBoard(all []domain.Service, filters domain.ServiceFilters, source string, updated time.Time) Board {
	matched := filters.Filter(all)
	return Board{
		Services:  matched,
		Counts:    domain.CountByStatus(all),
		Total:     len(all),
		Matched:   len(matched),
		Source:    source,
		UpdatedAt: updated,
	}
}
