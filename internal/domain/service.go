package domain

import "time"

// ServiceType classifies what a service is.
type ServiceType string

const (
	TypeAPI            ServiceType = "API"
	TypeDatabase       ServiceType = "Database"
	TypeMicroservice   ServiceType = "Microservice"
	TypeInfrastructure ServiceType = "Infrastructure"
	TypeMonitoring     ServiceType = "Monitoring"
	TypeCache          ServiceType = "Cache"
)

// ServiceTypes lists every known type in display order.
var ServiceTypes = []ServiceType{
	TypeAPI, TypeDatabase, TypeMicroservice, TypeInfrastructure, TypeMonitoring, TypeCache,
}

// Valid reports whether t is one of the known service types.
func (t ServiceType) Valid() bool {
	for _, known := range ServiceTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Service is the canonical record of a monitored service.
//
// The Entity Store owns the canonical copy. Everything else (cache entries,
// HTTP responses, poll snapshots) holds a value copy, so a Service can be
// passed around freely without aliasing store state.
type Service struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is opaque and never reused once a service has been deleted.
	ID string `json:"id" yaml:"id"`

	// ─────────────────────────────
	// Functional description
	// ─────────────────────────────

	Name        string        `json:"name" yaml:"name"`
	Type        ServiceType   `json:"type" yaml:"type"`
	Status      ServiceStatus `json:"status" yaml:"status"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Endpoint    string        `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// ─────────────────────────────
	// Timestamps
	// ─────────────────────────────

	// CreatedAt is set once by the store.
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`

	// UpdatedAt is bumped on every mutation and status change.
	// Invariant: UpdatedAt >= CreatedAt.
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`

	// LastCheck is set whenever the status is (re)checked.
	LastCheck time.Time `json:"lastCheck,omitzero" yaml:"lastCheck,omitempty"`
}

// Apply returns a copy of s with the non-nil fields of req merged in.
func (s Service) Apply(req UpdateServiceRequest) Service {
	if req.Name != nil {
		s.Name = *req.Name
	}
	if req.Type != nil {
		s.Type = *req.Type
	}
	if req.Status != nil {
		s.Status = *req.Status
	}
	if req.Description != nil {
		s.Description = *req.Description
	}
	if req.Endpoint != nil {
		s.Endpoint = *req.Endpoint
	}
	return s
}
