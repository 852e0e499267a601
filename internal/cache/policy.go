package cache

import "time"

// Policy is the lifetime of one key family. A zero StaleTime means entries
// are always stale and every read refetches. GCTime is how long an entry
// may sit unread with no subscriber before Collect evicts it.
type Policy struct {
	StaleTime time.Duration
	GCTime    time.Duration
}

// Policies holds one Policy per family.
type Policies struct {
	List    Policy
	Detail  Policy
	Events  Policy
	Polling Policy
	Other   Policy
}

// DefaultGCTime is the idle eviction window of every family but polling.
const DefaultGCTime = 10 * time.Minute

// DefaultPolicies returns the dashboard lifetimes with gcTime as the idle
// window (DefaultGCTime when zero). The polling snapshot keeps its own
// one minute window.
func DefaultPolicies(gcTime time.Duration) Policies {
	if gcTime <= 0 {
		gcTime = DefaultGCTime
	}
	return Policies{
		List:    Policy{StaleTime: 5 * time.Minute, GCTime: gcTime},
		Detail:  Policy{StaleTime: 2 * time.Minute, GCTime: gcTime},
		Events:  Policy{StaleTime: time.Minute, GCTime: gcTime},
		Polling: Policy{StaleTime: 0, GCTime: time.Minute},
		Other:   Policy{StaleTime: 0, GCTime: gcTime},
	}
}

// For returns the policy that applies to key.
func (p Policies) For(key string) Policy {
	switch FamilyOf(key) {
	case FamilyList:
		return p.List
	case FamilyDetail:
		return p.Detail
	case FamilyEvents:
		return p.Events
	case FamilyPolling:
		return p.Polling
	default:
		return p.Other
	}
}
