package domain

import (
	"net/url"
	"strconv"
	"strings"
)

// ServiceFilters narrows a service listing. Zero values mean "no filter".
// All set filters must match (AND).
type ServiceFilters struct {
	Status   ServiceStatus `json:"status,omitempty"`
	Type     ServiceType   `json:"type,omitempty"`
	NameLike string        `json:"name_like,omitempty"`
}

// Matches reports whether s satisfies every set filter. The name filter is a
// case-insensitive substring match.
func (f ServiceFilters) Matches(s Service) bool {
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	if f.Type != "" && s.Type != f.Type {
		return false
	}
	if f.NameLike != "" && !strings.Contains(strings.ToLower(s.Name), strings.ToLower(f.NameLike)) {
		return false
	}
	return true
}

// Filter returns the services matching f, preserving order.
func (f ServiceFilters) Filter(services []Service) []Service {
	out := make([]Service, 0, len(services))
	for _, s := range services {
		if f.Matches(s) {
			out = append(out, s)
		}
	}
	return out
}

// ListParams is a filtered, paginated listing request.
type ListParams struct {
	ServiceFilters
	Page  int `json:"page,omitempty"`
	Limit int `json:"limit,omitempty"`
}

// Encode renders the params in a stable form used for cache keys.
func (p ListParams) Encode() string {
	v := url.Values{}
	if p.Status != "" {
		v.Set("status", string(p.Status))
	}
	if p.Type != "" {
		v.Set("type", string(p.Type))
	}
	if p.NameLike != "" {
		v.Set("name_like", p.NameLike)
	}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	// url.Values.Encode sorts by key.
	return v.Encode()
}

// ParseListParams is the inverse of Encode. Unknown keys are ignored and bad
// integers fall back to zero (the store default).
func ParseListParams(q url.Values) ListParams {
	p := ListParams{
		ServiceFilters: ServiceFilters{
			Status:   ServiceStatus(q.Get("status")),
			Type:     ServiceType(q.Get("type")),
			NameLike: q.Get("name_like"),
		},
	}
	if n, err := strconv.Atoi(q.Get("page")); err == nil {
		p.Page = n
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil {
		p.Limit = n
	}
	return p
}
