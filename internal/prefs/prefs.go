// Package prefs keeps the dashboard's theme and layout preferences as one
// opaque blob in a key-value store.
package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/MrSnakeDoc/pulse/internal/domain"
	"github.com/MrSnakeDoc/pulse/internal/logger"
)

const (
	ModeLight = "light"
	ModeDark  = "dark"
)

type Theme struct {
	Mode      string `json:"mode" validate:"required,oneof=light dark"`
	Primary   string `json:"primary" validate:"required,hexcolor"`
	Secondary string `json:"secondary" validate:"required,hexcolor"`
	Accent    string `json:"accent" validate:"required,hexcolor"`
}

type Preferences struct {
	Theme       Theme `json:"theme" validate:"required"`
	SidebarOpen bool  `json:"sidebarOpen"`
}

// Defaults are the preferences of a first visit.
func Defaults() Preferences {
	return Preferences{
		Theme: Theme{
			Mode:      ModeDark,
			Primary:   "#3B82F6",
			Secondary: "#10B981",
			Accent:    "#F59E0B",
		},
		SidebarOpen: false,
	}
}

// Store persists the blob.
type Store interface {
	Load(ctx context.Context) ([]byte, bool, error)
	Save(ctx context.Context, data []byte) error
}

// blob is the persisted layout: versioned so the format can evolve.
type blob struct {
	State   Preferences `json:"state"`
	Version int         `json:"version"`
}

const blobVersion = 0

// Service serializes every read-modify-write of the preferences.
type Service struct {
	mu      sync.Mutex
	store   Store
	log     logger.Logger
	current Preferences
}

// Open loads the saved preferences. A missing or unreadable blob yields
// the defaults; only a failing store is an error.
func Open(ctx context.Context, store Store, log logger.Logger) (*Service, error) {
	s := &Service{store: store, log: log, current: Defaults()}

	data, ok, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return s, nil
	}

	var b blob
	if err := json.Unmarshal(data, &b); err != nil {
		log.Warn("ignoring unreadable preferences", logger.Error(err))
		return s, nil
	}
	if err := domain.Validate(b.State); err != nil {
		log.Warn("ignoring invalid preferences", logger.Error(err))
		return s, nil
	}
	s.current = b.State
	return s, nil
}

// Get returns the current preferences.
func (s *Service) Get() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Replace validates and stores p as a whole.
func (s *Service) Replace(ctx context.Context, p Preferences) (Preferences, error) {
	if err := domain.Validate(p); err != nil {
		return Preferences{}, err
	}
	return s.update(ctx, func(Preferences) Preferences { return p })
}

// SetTheme validates and stores t.
func (s *Service) SetTheme(ctx context.Context, t Theme) (Preferences, error) {
	if err := domain.Validate(t); err != nil {
		return Preferences{}, err
	}
	return s.update(ctx, func(p Preferences) Preferences {
		p.Theme = t
		return p
	})
}

// ToggleTheme flips between light and dark.
func (s *Service) ToggleTheme(ctx context.Context) (Preferences, error) {
	return s.update(ctx, func(p Preferences) Preferences {
		if p.Theme.Mode == ModeDark {
			p.Theme.Mode = ModeLight
		} else {
			p.Theme.Mode = ModeDark
		}
		return p
	})
}

func (s *Service) ToggleSidebar(ctx context.Context) (Preferences, error) {
	return s.update(ctx, func(p Preferences) Preferences {
		p.SidebarOpen = !p.SidebarOpen
		return p
	})
}

func (s *Service) SetSidebarOpen(ctx context.Context, open bool) (Preferences, error) {
	return s.update(ctx, func(p Preferences) Preferences {
		p.SidebarOpen = open
		return p
	})
}

// Reset goes back to the defaults.
func (s *Service) Reset(ctx context.Context) (Preferences, error) {
	return s.update(ctx, func(Preferences) Preferences { return Defaults() })
}

// update persists fn's result before making it current, so a failed save
// changes nothing.
func (s *Service) update(ctx context.Context, fn func(Preferences) Preferences) (Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := fn(s.current)
	data, err := json.Marshal(blob{State: next, Version: blobVersion})
	if err != nil {
		return Preferences{}, fmt.Errorf("failed to encode preferences: %w", err)
	}
	if err := s.store.Save(ctx, data); err != nil {
		return Preferences{}, err
	}
	s.current = next
	return next, nil
}

// MemoryStore keeps the blob in process memory. It serves when no Redis
// is configured.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

func (m *MemoryStore) Load(context.Context) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, false, nil
	}
	return append([]byte(nil), m.data...), true, nil
}

func (m *MemoryStore) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	return nil
}
