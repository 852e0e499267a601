package seed

import (
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/pulse/internal/domain"
)

func fixedMapper() *Mapper {
	return &Mapper{now: func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }}
}

func TestMapperDefaults(t *testing.T) {
	s, err := fixedMapper().Map(Config{
		Services: []ServiceProps{{Name: "svc", Type: "API"}},
	})
	if err != nil {
		t.Fatalf("Map() error = %v", err)
	}

	svc := s.Services[0]
	if svc.ID == "" {
		t.Error("Map() should generate an id")
	}
	if svc.Status != domain.StatusOnline {
		t.Errorf("Map() status = %v, want Online", svc.Status)
	}
	want := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if !svc.CreatedAt.Equal(want) || !svc.UpdatedAt.Equal(want) || !svc.LastCheck.Equal(want) {
		t.Errorf("Map() timestamps = %v/%v/%v, want %v", svc.CreatedAt, svc.UpdatedAt, svc.LastCheck, want)
	}
}

func TestMapperErrors(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		errSub string
	}{
		{
			name:   "missing name",
			config: Config{Services: []ServiceProps{{Type: "API"}}},
			errSub: "name is required",
		},
		{
			name:   "bad type",
			config: Config{Services: []ServiceProps{{Name: "x", Type: "Queue"}}},
			errSub: "invalid type",
		},
		{
			name:   "bad status",
			config: Config{Services: []ServiceProps{{Name: "x", Type: "API", Status: "Sleeping"}}},
			errSub: "invalid status",
		},
		{
			name: "duplicate id",
			config: Config{Services: []ServiceProps{
				{ID: "1", Name: "x", Type: "API"},
				{ID: "1", Name: "y", Type: "API"},
			}},
			errSub: "duplicate id",
		},
		{
			name: "updated before created",
			config: Config{Services: []ServiceProps{{
				Name: "x", Type: "API",
				CreatedAt: "2024-02-01T00:00:00Z", UpdatedAt: "2024-01-01T00:00:00Z",
			}}},
			errSub: "before createdAt",
		},
		{
			name: "orphan event",
			config: Config{
				Services: []ServiceProps{{ID: "1", Name: "x", Type: "API"}},
				Events:   []EventProps{{ServiceID: "2", Type: "incident", Status: "Offline"}},
			},
			errSub: "unknown serviceId",
		},
		{
			name: "bad event type",
			config: Config{
				Services: []ServiceProps{{ID: "1", Name: "x", Type: "API"}},
				Events:   []EventProps{{ServiceID: "1", Type: "reboot", Status: "Offline"}},
			},
			errSub: "invalid event type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fixedMapper().Map(tt.config)
			if err == nil {
				t.Fatalf("Map() error = nil, want error containing %q", tt.errSub)
			}
			if !strings.Contains(err.Error(), tt.errSub) {
				t.Errorf("Map() error = %v, want it to contain %q", err, tt.errSub)
			}
		})
	}
}

func TestMapperEventSeverityFromStatus(t *testing.T) {
	s, err := fixedMapper().Map(Config{
		Services: []ServiceProps{{ID: "1", Name: "x", Type: "API"}},
		Events:   []EventProps{{ServiceID: "1", Type: "status_change", Status: "Offline"}},
	})
	if err != nil {
		t.Fatalf("Map() error = %v", err)
	}
	if got := s.Events[0].Severity; got != domain.SeverityHigh {
		t.Errorf("Map() severity = %v, want high", got)
	}
}

func TestDefaultSeed(t *testing.T) {
	s := Default()
	if len(s.Services) != 6 {
		t.Errorf("Default() services = %d, want 6", len(s.Services))
	}
	if len(s.Events) != 3 {
		t.Errorf("Default() events = %d, want 3", len(s.Events))
	}
	if s.Services[2].Status != domain.StatusDegraded {
		t.Errorf("Default() Payment Gateway status = %v, want Degraded", s.Services[2].Status)
	}
}
