// Package cache keeps the last observed result of every query key. All
// mutation goes through Write, Patch, Restore, Invalidate and Remove so
// subscribers hear about every change.
package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/pulse/internal/logger"
)

// Provenance tells where an entry's data came from.
type Provenance string

const (
	FromQuery      Provenance = "query"
	FromOptimistic Provenance = "optimistic"
)

// Kind is the change a subscriber is told about.
type Kind string

const (
	Written     Kind = "write"
	Patched     Kind = "patch"
	Invalidated Kind = "invalidate"
	Removed     Kind = "remove"
)

// Notice is delivered to subscribers after the change is visible.
type Notice struct {
	Key  string
	Kind Kind
}

// Entry is a read-only snapshot of a cached result. Data must be treated
// as immutable; updaters return a new value instead of editing it.
type Entry struct {
	Key         string
	Data        any
	UpdatedAt   time.Time
	Invalidated bool
	Stale       bool
	Provenance  Provenance
	Version     uint64
}

type entry struct {
	data        any
	updatedAt   time.Time
	lastAccess  time.Time
	invalidated bool
	provenance  Provenance
	version     uint64
}

// Options configures a Cache.
type Options struct {
	Policies Policies
	Now      func() time.Time
	Log      logger.Logger
}

// Cache is safe for concurrent use. Every operation is atomic with respect
// to the others; callbacks run after the lock is released.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	subs    map[string]map[uint64]func(Notice)
	nextSub uint64
	version uint64

	policies Policies
	now      func() time.Time
	log      logger.Logger
}

func New(opts Options) *Cache {
	c := &Cache{
		entries:  make(map[string]*entry),
		subs:     make(map[string]map[uint64]func(Notice)),
		policies: opts.Policies,
		now:      opts.Now,
		log:      opts.Log,
	}
	if c.policies == (Policies{}) {
		c.policies = DefaultPolicies(0)
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.log == nil {
		c.log = logger.NewNop()
	}
	return c
}

// Read returns the entry at key. A stale entry is still returned; the
// caller decides whether to refresh it.
func (c *Cache) Read(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	now := c.now()
	e.lastAccess = now
	return c.snapshot(key, e, now), true
}

// Write replaces the data at key with a query result.
func (c *Cache) Write(key string, data any) Entry {
	c.mu.Lock()
	now := c.now()
	e := c.put(key, data, now, FromQuery)
	snap := c.snapshot(key, e, now)
	notify := c.collectSubs(key, Written)
	c.mu.Unlock()

	c.log.Debug("cache write", logger.String("key", key), logger.Uint64("version", snap.Version))
	notify()
	return snap
}

// Restore puts a previously read snapshot back verbatim: data, timestamp
// and provenance. It is the rollback path of optimistic updates.
func (c *Cache) Restore(snap Entry) {
	c.mu.Lock()
	e := c.put(snap.Key, snap.Data, snap.UpdatedAt, snap.Provenance)
	e.invalidated = snap.Invalidated
	notify := c.collectSubs(snap.Key, Written)
	c.mu.Unlock()

	c.log.Debug("cache restore", logger.String("key", snap.Key))
	notify()
}

// Patch applies fn to the data at key. fn must be pure and return a new
// value; returning false leaves the entry untouched. Absent keys are not
// created. It reports whether the entry changed.
func (c *Cache) Patch(key string, fn func(data any) (any, bool)) bool {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return false
	}
	next, changed := fn(e.data)
	if !changed {
		c.mu.Unlock()
		return false
	}
	now := c.now()
	c.version++
	e.data = next
	e.updatedAt = now
	e.provenance = FromOptimistic
	e.version = c.version
	notify := c.collectSubs(key, Patched)
	c.mu.Unlock()

	c.log.Debug("cache patch", logger.String("key", key))
	notify()
	return true
}

// Invalidate marks every entry under prefix stale and tells their
// subscribers, which refetch. Subscribers of keys with no entry yet are
// told as well. It returns the number of entries marked.
func (c *Cache) Invalidate(prefix string) int {
	c.mu.Lock()
	n := 0
	for key, e := range c.entries {
		if HasPrefix(key, prefix) {
			e.invalidated = true
			n++
		}
	}
	notify := c.collectPrefix(prefix, Invalidated)
	c.mu.Unlock()

	c.log.Debug("cache invalidate", logger.String("prefix", prefix), logger.Int("entries", n))
	notify()
	return n
}

// Remove evicts every entry under prefix. Subscriptions survive eviction.
func (c *Cache) Remove(prefix string) int {
	c.mu.Lock()
	n := 0
	for key := range c.entries {
		if HasPrefix(key, prefix) {
			delete(c.entries, key)
			n++
		}
	}
	notify := c.collectPrefix(prefix, Removed)
	c.mu.Unlock()

	c.log.Debug("cache remove", logger.String("prefix", prefix), logger.Int("entries", n))
	notify()
	return n
}

// Subscribe registers cb for changes to key. The returned function
// unsubscribes and is safe to call more than once.
func (c *Cache) Subscribe(key string, cb func(Notice)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextSub++
	id := c.nextSub
	if c.subs[key] == nil {
		c.subs[key] = make(map[uint64]func(Notice))
	}
	c.subs[key][id] = cb
	if e, ok := c.entries[key]; ok {
		e.lastAccess = c.now()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subs[key], id)
			if len(c.subs[key]) == 0 {
				delete(c.subs, key)
				// Idle time counts from the last subscriber leaving.
				if e, ok := c.entries[key]; ok {
					e.lastAccess = c.now()
				}
			}
		})
	}
}

// Observed reports whether key has at least one subscriber.
func (c *Cache) Observed(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs[key]) > 0
}

// Keys lists the cached keys under prefix, sorted.
func (c *Cache) Keys(prefix string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		if HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Entries snapshots every entry under prefix, sorted by key, without
// touching their access time.
func (c *Cache) Entries(prefix string) []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	out := make([]Entry, 0, len(c.entries))
	for key, e := range c.entries {
		if HasPrefix(key, prefix) {
			out = append(out, c.snapshot(key, e, now))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Collect evicts entries that have had no subscriber and no read for
// longer than their family's GC time. It returns the evicted keys.
func (c *Cache) Collect() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var evicted []string
	for key, e := range c.entries {
		if len(c.subs[key]) > 0 {
			continue
		}
		if now.Sub(e.lastAccess) >= c.policies.For(key).GCTime {
			delete(c.entries, key)
			evicted = append(evicted, key)
		}
	}
	sort.Strings(evicted)
	return evicted
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) put(key string, data any, updatedAt time.Time, prov Provenance) *entry {
	c.version++
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	e.data = data
	e.updatedAt = updatedAt
	e.lastAccess = c.now()
	e.invalidated = false
	e.provenance = prov
	e.version = c.version
	return e
}

func (c *Cache) snapshot(key string, e *entry, now time.Time) Entry {
	return Entry{
		Key:         key,
		Data:        e.data,
		UpdatedAt:   e.updatedAt,
		Invalidated: e.invalidated,
		Stale:       e.invalidated || now.Sub(e.updatedAt) >= c.policies.For(key).StaleTime,
		Provenance:  e.provenance,
		Version:     e.version,
	}
}

// collectSubs copies the callbacks of key under the lock and returns a
// function that runs them once the lock is gone.
func (c *Cache) collectSubs(key string, kind Kind) func() {
	cbs := make([]func(Notice), 0, len(c.subs[key]))
	for _, cb := range c.subs[key] {
		cbs = append(cbs, cb)
	}
	return func() {
		for _, cb := range cbs {
			cb(Notice{Key: key, Kind: kind})
		}
	}
}

func (c *Cache) collectPrefix(prefix string, kind Kind) func() {
	type call struct {
		cb     func(Notice)
		notice Notice
	}
	var calls []call
	for key, subs := range c.subs {
		if !HasPrefix(key, prefix) {
			continue
		}
		for _, cb := range subs {
			calls = append(calls, call{cb: cb, notice: Notice{Key: key, Kind: kind}})
		}
	}
	return func() {
		for _, cl := range calls {
			cl.cb(cl.notice)
		}
	}
}

// ReadAs reads key and asserts its data to T.
func ReadAs[T any](c *Cache, key string) (T, Entry, bool) {
	e, ok := c.Read(key)
	if !ok {
		var zero T
		return zero, Entry{}, false
	}
	v, ok := e.Data.(T)
	return v, e, ok
}

// PatchAs is Patch for entries holding a T. Entries of another type are
// left alone.
func PatchAs[T any](c *Cache, key string, fn func(T) (T, bool)) bool {
	return c.Patch(key, func(data any) (any, bool) {
		v, ok := data.(T)
		if !ok {
			return data, false
		}
		return fn(v)
	})
}
