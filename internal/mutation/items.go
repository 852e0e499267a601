package mutation

import (
	"slices"

	"github.com/MrSnakeDoc/pulse/internal/cache"
	"github.com/MrSnakeDoc/pulse/internal/domain"
)

// serviceKeys are the cached keys that hold many services: every listing
// plus the polling snapshot.
func serviceKeys(c *cache.Cache) []string {
	return append(c.Keys(cache.ServiceLists()), cache.StatusPolling())
}

// patchItem rewrites the record id inside a listing or snapshot entry.
func patchItem(c *cache.Cache, key, id string, fn func(domain.Service) domain.Service) bool {
	return c.Patch(key, func(data any) (any, bool) {
		switch v := data.(type) {
		case domain.Envelope[domain.Service]:
			items, ok := replaceItem(v.Data, id, fn)
			if !ok {
				return data, false
			}
			v.Data = items
			return v, true
		case []domain.Service:
			items, ok := replaceItem(v, id, fn)
			if !ok {
				return data, false
			}
			return items, true
		}
		return data, false
	})
}

// removeItem drops the record id from a listing (and its total) or
// snapshot entry.
func removeItem(c *cache.Cache, key, id string) bool {
	return c.Patch(key, func(data any) (any, bool) {
		switch v := data.(type) {
		case domain.Envelope[domain.Service]:
			items, ok := without(v.Data, id)
			if !ok {
				return data, false
			}
			v.Data = items
			return v.WithTotal(-1), true
		case []domain.Service:
			items, ok := without(v, id)
			if !ok {
				return data, false
			}
			return items, true
		}
		return data, false
	})
}

func indexOf(items []domain.Service, id string) int {
	return slices.IndexFunc(items, func(s domain.Service) bool { return s.ID == id })
}

func replaceItem(items []domain.Service, id string, fn func(domain.Service) domain.Service) ([]domain.Service, bool) {
	i := indexOf(items, id)
	if i < 0 {
		return items, false
	}
	out := slices.Clone(items)
	out[i] = fn(out[i])
	return out, true
}

func without(items []domain.Service, id string) ([]domain.Service, bool) {
	i := indexOf(items, id)
	if i < 0 {
		return items, false
	}
	out := make([]domain.Service, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...), true
}

// prepend puts svc at the head of items, keeping at most limit records.
func prepend(svc domain.Service, items []domain.Service, limit int) []domain.Service {
	out := make([]domain.Service, 0, len(items)+1)
	out = append(out, svc)
	out = append(out, items...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
