package domain

import (
	"maps"
	"time"
)

// EventType classifies a timeline entry.
type EventType string

const (
	EventStatusChange EventType = "status_change"
	EventMaintenance  EventType = "maintenance"
	EventIncident     EventType = "incident"
	EventDeployment   EventType = "deployment"
)

// Severity is ordered: low < medium < high < critical.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Rank returns the position of s in the severity order, -1 if unknown.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// Less reports whether s is strictly less severe than o.
func (s Severity) Less(o Severity) bool {
	return s.Rank() < o.Rank()
}

// ServiceEvent is an append-only timeline entry for a service.
// Events are immutable once created; they go away only when the owning
// service is deleted.
type ServiceEvent struct {
	ID        string         `json:"id" yaml:"id"`
	ServiceID string         `json:"serviceId" yaml:"serviceId"`
	Type      EventType      `json:"type" yaml:"type"`
	Status    ServiceStatus  `json:"status" yaml:"status"`
	Message   string         `json:"message" yaml:"message"`
	Timestamp time.Time      `json:"timestamp" yaml:"timestamp"`
	Severity  Severity       `json:"severity" yaml:"severity"`
	Metadata  map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Clone returns a copy that shares no mutable state with e.
func (e ServiceEvent) Clone() ServiceEvent {
	if e.Metadata != nil {
		e.Metadata = maps.Clone(e.Metadata)
	}
	return e
}
