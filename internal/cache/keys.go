package cache

import (
	"net/url"
	"strings"

	"github.com/MrSnakeDoc/pulse/internal/domain"
)

// Query keys are "/"-separated segments: entity kind, operation, parameters.
// Ids are path-escaped so they never introduce a segment of their own.
const (
	servicesPrefix = "services"
	listPrefix     = servicesPrefix + "/list"
	detailPrefix   = servicesPrefix + "/detail"
	eventsSuffix   = "events"
	pollingKey     = "status/polling"
)

// Family groups keys that share a staleness policy.
type Family string

const (
	FamilyList    Family = "list"
	FamilyDetail  Family = "detail"
	FamilyEvents  Family = "events"
	FamilyPolling Family = "polling"
	FamilyOther   Family = "other"
)

// Services matches every service query.
func Services() string { return servicesPrefix }

// ServiceLists matches every list query, whatever its filters.
func ServiceLists() string { return listPrefix }

// ServiceList is the key of one filtered, paginated listing.
func ServiceList(params domain.ListParams) string {
	enc := params.Encode()
	if enc == "" {
		enc = "-"
	}
	return listPrefix + "/" + enc
}

// ServiceDetails matches every detail query (and their event feeds).
func ServiceDetails() string { return detailPrefix }

// ServiceDetail is the key of one service. It prefixes its event feed.
func ServiceDetail(id string) string {
	return detailPrefix + "/" + url.PathEscape(id)
}

// ServiceEvents is the key of a service's accumulated event feed.
func ServiceEvents(id string) string {
	return ServiceDetail(id) + "/" + eventsSuffix
}

// StatusPolling is the dedicated key the poller writes into.
func StatusPolling() string { return pollingKey }

// ListParamsOf recovers the params of a ServiceList key.
func ListParamsOf(key string) (domain.ListParams, bool) {
	rest, ok := strings.CutPrefix(key, listPrefix+"/")
	if !ok || strings.Contains(rest, "/") {
		return domain.ListParams{}, false
	}
	if rest == "-" {
		return domain.ListParams{}, true
	}
	q, err := url.ParseQuery(rest)
	if err != nil {
		return domain.ListParams{}, false
	}
	return domain.ParseListParams(q), true
}

// FamilyOf classifies key.
func FamilyOf(key string) Family {
	switch {
	case key == pollingKey:
		return FamilyPolling
	case HasPrefix(key, listPrefix):
		return FamilyList
	case HasPrefix(key, detailPrefix):
		rest := strings.TrimPrefix(key, detailPrefix+"/")
		if strings.HasSuffix(rest, "/"+eventsSuffix) {
			return FamilyEvents
		}
		return FamilyDetail
	default:
		return FamilyOther
	}
}

// HasPrefix reports whether key equals prefix or lies under it. Matching
// stops at segment boundaries: "services/detail/1" does not match
// "services/detail/10".
func HasPrefix(key, prefix string) bool {
	if prefix == "" {
		return true
	}
	return key == prefix || strings.HasPrefix(key, prefix+"/")
}
