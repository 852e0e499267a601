// Package notify keeps the operator-facing notifications (toasts).
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/pulse/internal/logger"
)

type Kind string

const (
	Success Kind = "success"
	Failure Kind = "error"
	Warning Kind = "warning"
	Info    Kind = "info"
)

// DefaultAutoDismiss is how long a success notification stays up.
const DefaultAutoDismiss = 5 * time.Second

type Notification struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

type Options struct {
	// AutoDismiss removes success notifications after this long. Negative
	// keeps them until removed.
	AutoDismiss time.Duration
	Now         func() time.Time
	Log         logger.Logger
}

// Center holds notifications newest first.
type Center struct {
	mu     sync.Mutex
	items  []Notification
	timers map[string]*time.Timer
	closed bool

	autoDismiss time.Duration
	now         func() time.Time
	log         logger.Logger
}

func NewCenter(opts Options) *Center {
	c := &Center{
		timers:      make(map[string]*time.Timer),
		autoDismiss: opts.AutoDismiss,
		now:         opts.Now,
		log:         opts.Log,
	}
	if c.autoDismiss == 0 {
		c.autoDismiss = DefaultAutoDismiss
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.log == nil {
		c.log = logger.NewNop()
	}
	return c
}

// Add records a notification and returns it.
func (c *Center) Add(kind Kind, title, message string) Notification {
	n := Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Title:     title,
		Message:   message,
		Timestamp: c.now().UTC(),
	}

	c.mu.Lock()
	c.items = append([]Notification{n}, c.items...)
	if kind == Success && c.autoDismiss > 0 && !c.closed {
		id := n.ID
		c.timers[id] = time.AfterFunc(c.autoDismiss, func() { c.Remove(id) })
	}
	c.mu.Unlock()

	c.log.Debug("notification",
		logger.String("kind", string(kind)),
		logger.String("title", title),
		logger.String("message", message),
	)
	return n
}

// List returns a copy of every notification, newest first.
func (c *Center) List() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Notification, len(c.items))
	copy(out, c.items)
	return out
}

// Unread counts the notifications not yet marked read.
func (c *Center) Unread() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, it := range c.items {
		if !it.Read {
			n++
		}
	}
	return n
}

// MarkRead flags one notification as read.
func (c *Center) MarkRead(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Read = true
			return true
		}
	}
	return false
}

// Remove drops one notification.
func (c *Center) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}
	for i := range c.items {
		if c.items[i].ID == id {
			c.items = append(c.items[:i:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear drops everything.
func (c *Center) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTimers()
	c.items = nil
}

// Close stops pending auto-dismiss timers. Notifications stay listed.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.stopTimers()
}

func (c *Center) stopTimers() {
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
}
