package seed

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/pulse/internal/domain"
)

// Seed is the initial content of the entity store.
type Seed struct {
	Services []domain.Service
	Events   []domain.ServiceEvent
}

// Mapper converts a seed Config into domain records.
type Mapper struct {
	now func() time.Time
}

// NewMapper creates a mapper stamping missing timestamps with time.Now.
func NewMapper() *Mapper {
	return &Mapper{now: time.Now}
}

// Map validates config and converts it. Missing ids get a fresh uuid,
// missing status is Online, missing timestamps are now.
func (m *Mapper) Map(config Config) (Seed, error) {
	now := m.now().UTC()
	out := Seed{
		Services: make([]domain.Service, 0, len(config.Services)),
		Events:   make([]domain.ServiceEvent, 0, len(config.Events)),
	}

	ids := make(map[string]bool, len(config.Services))
	for i, props := range config.Services {
		svc, err := mapService(props, now)
		if err != nil {
			return Seed{}, fmt.Errorf("service #%d: %w", i+1, err)
		}
		if ids[svc.ID] {
			return Seed{}, fmt.Errorf("service #%d: duplicate id %q", i+1, svc.ID)
		}
		ids[svc.ID] = true
		out.Services = append(out.Services, svc)
	}

	for i, props := range config.Events {
		if !ids[props.ServiceID] {
			return Seed{}, fmt.Errorf("event #%d: unknown serviceId %q", i+1, props.ServiceID)
		}
		ev, err := mapEvent(props, now)
		if err != nil {
			return Seed{}, fmt.Errorf("event #%d: %w", i+1, err)
		}
		out.Events = append(out.Events, ev)
	}

	return out, nil
}

func mapService(props ServiceProps, now time.Time) (domain.Service, error) {
	if props.Name == "" {
		return domain.Service{}, fmt.Errorf("name is required")
	}

	typ := domain.ServiceType(props.Type)
	if !typ.Valid() {
		return domain.Service{}, fmt.Errorf("invalid type %q", props.Type)
	}

	status := domain.StatusOnline
	if props.Status != "" {
		status = domain.ServiceStatus(props.Status)
		if !status.Valid() {
			return domain.Service{}, fmt.Errorf("invalid status %q", props.Status)
		}
	}

	createdAt, err := parseTime(props.CreatedAt, now)
	if err != nil {
		return domain.Service{}, fmt.Errorf("createdAt: %w", err)
	}
	updatedAt, err := parseTime(props.UpdatedAt, createdAt)
	if err != nil {
		return domain.Service{}, fmt.Errorf("updatedAt: %w", err)
	}
	if updatedAt.Before(createdAt) {
		return domain.Service{}, fmt.Errorf("updatedAt %s is before createdAt %s",
			updatedAt.Format(time.RFC3339), createdAt.Format(time.RFC3339))
	}
	lastCheck, err := parseTime(props.LastCheck, updatedAt)
	if err != nil {
		return domain.Service{}, fmt.Errorf("lastCheck: %w", err)
	}

	id := props.ID
	if id == "" {
		id = uuid.NewString()
	}

	return domain.Service{
		ID:          id,
		Name:        props.Name,
		Type:        typ,
		Status:      status,
		Description: props.Description,
		Endpoint:    props.Endpoint,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
		LastCheck:   lastCheck,
	}, nil
}

func mapEvent(props EventProps, now time.Time) (domain.ServiceEvent, error) {
	status := domain.ServiceStatus(props.Status)
	if !status.Valid() {
		return domain.ServiceEvent{}, fmt.Errorf("invalid status %q", props.Status)
	}

	typ := domain.EventType(props.Type)
	switch typ {
	case domain.EventStatusChange, domain.EventMaintenance, domain.EventIncident, domain.EventDeployment:
	default:
		return domain.ServiceEvent{}, fmt.Errorf("invalid event type %q", props.Type)
	}

	severity := domain.SeverityFor(status)
	if props.Severity != "" {
		severity = domain.Severity(props.Severity)
		if severity.Rank() < 0 {
			return domain.ServiceEvent{}, fmt.Errorf("invalid severity %q", props.Severity)
		}
	}

	ts, err := parseTime(props.Timestamp, now)
	if err != nil {
		return domain.ServiceEvent{}, fmt.Errorf("timestamp: %w", err)
	}

	id := props.ID
	if id == "" {
		id = uuid.NewString()
	}

	return domain.ServiceEvent{
		ID:        id,
		ServiceID: props.ServiceID,
		Type:      typ,
		Status:    status,
		Message:   props.Message,
		Timestamp: ts,
		Severity:  severity,
		Metadata:  props.Metadata,
	}, nil
}

func parseTime(v string, def time.Time) (time.Time, error) {
	if v == "" {
		return def, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
