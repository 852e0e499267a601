// Package query coordinates reads against the cache: one in-flight fetch
// per key, retries, stale-while-revalidate and ordered application of
// responses.
package query

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/MrSnakeDoc/pulse/internal/cache"
	"github.com/MrSnakeDoc/pulse/internal/logger"
)

// Fetcher loads the current value of one key from the store.
type Fetcher func(ctx context.Context) (any, error)

// Reconciler sees every fetched value before it is written. seq is the
// issuance number of the fetch. It returns the value to write; an error
// drops the response and is returned to the callers instead.
type Reconciler func(key string, data any, seq uint64) (any, error)

// Options configures a Coordinator.
type Options struct {
	Cache *cache.Cache
	Retry RetryPolicy
	Log   logger.Logger
}

type keyState struct {
	issued    uint64 // newest fetch started
	applied   uint64 // newest response written
	cancelled uint64 // responses at or below this are ignored
}

// Coordinator is safe for concurrent use.
type Coordinator struct {
	cache *cache.Cache
	retry RetryPolicy
	log   logger.Logger
	group singleflight.Group

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// applyMu orders response application against Exclusive sections.
	applyMu    sync.Mutex
	reconciler Reconciler

	mu       sync.Mutex
	seq      uint64
	keys     map[string]*keyState
	inflight map[uint64]string
}

func New(opts Options) *Coordinator {
	base, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		cache:    opts.Cache,
		retry:    opts.Retry,
		log:      opts.Log,
		base:     base,
		cancel:   cancel,
		keys:     make(map[string]*keyState),
		inflight: make(map[uint64]string),
	}
	if c.log == nil {
		c.log = logger.NewNop()
	}
	if c.retry == (RetryPolicy{}) {
		c.retry = QueryRetry()
	}
	return c
}

// Cache returns the cache the coordinator writes into.
func (c *Coordinator) Cache() *cache.Cache { return c.cache }

// SetReconciler installs the hook that vets fetched values. Call it before
// the first fetch.
func (c *Coordinator) SetReconciler(r Reconciler) {
	c.applyMu.Lock()
	c.reconciler = r
	c.applyMu.Unlock()
}

// Fetch loads key unconditionally. Concurrent callers for the same key
// share a single in-flight fetch. The fetch itself runs detached from ctx;
// a caller whose ctx ends stops waiting without cancelling it for others.
func (c *Coordinator) Fetch(ctx context.Context, key string, fetch Fetcher) (any, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		return c.run(key, fetch)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.log.Debug("joined in-flight fetch", logger.String("key", key))
		}
		return res.Val, res.Err
	}
}

// Query returns the cached value of key when fresh. A stale value is
// returned as is and refreshed in the background. An absent key is
// fetched.
func (c *Coordinator) Query(ctx context.Context, key string, fetch Fetcher) (any, error) {
	if e, ok := c.cache.Read(key); ok {
		if e.Stale {
			c.Refresh(key, fetch)
		}
		return e.Data, nil
	}
	return c.Fetch(ctx, key, fetch)
}

// Refresh starts a background fetch of key. Errors are logged; the cache
// keeps its last good value.
func (c *Coordinator) Refresh(key string, fetch Fetcher) {
	if c.base.Err() != nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if _, err := c.Fetch(c.base, key, fetch); err != nil && c.base.Err() == nil {
			c.log.Warn("background refresh failed", logger.String("key", key), logger.Error(err))
		}
	}()
}

// Observe subscribes cb to key and refetches it in the background
// whenever it is invalidated while observed.
func (c *Coordinator) Observe(key string, fetch Fetcher, cb func(cache.Notice)) (unsubscribe func()) {
	return c.cache.Subscribe(key, func(n cache.Notice) {
		if n.Kind == cache.Invalidated {
			c.Refresh(key, fetch)
		}
		if cb != nil {
			cb(n)
		}
	})
}

// Cancel supersedes every in-flight fetch under prefix. Their responses
// are ignored when they arrive; the next fetch of those keys starts fresh.
func (c *Coordinator) Cancel(prefix string) {
	c.cancelMatching(func(key string) bool { return cache.HasPrefix(key, prefix) })
}

// CancelKey is Cancel for exactly one key.
func (c *Coordinator) CancelKey(key string) {
	c.cancelMatching(func(k string) bool { return k == key })
}

func (c *Coordinator) cancelMatching(match func(key string) bool) {
	c.mu.Lock()
	var keys []string
	for key, ks := range c.keys {
		if !match(key) || ks.issued <= ks.cancelled || ks.issued <= ks.applied {
			continue
		}
		ks.cancelled = ks.issued
		keys = append(keys, key)
	}
	c.mu.Unlock()

	for _, key := range keys {
		c.group.Forget(key)
		c.log.Debug("cancelled in-flight fetch", logger.String("key", key))
	}
}

// Put writes data as the newest result of key, superseding any fetch
// issued before it.
func (c *Coordinator) Put(key string, data any) {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()

	c.mu.Lock()
	c.seq++
	ks := c.state(key)
	ks.issued = c.seq
	ks.applied = c.seq
	c.mu.Unlock()

	c.cache.Write(key, data)
}

// Exclusive runs fn while no response is being applied. Mutations use it
// to change what the reconciler sees and patch the cache in one step.
func (c *Coordinator) Exclusive(fn func()) {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()
	fn()
}

// Issued returns the issuance number of the newest fetch.
func (c *Coordinator) Issued() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// OldestInFlight returns the issuance number of the oldest fetch still
// running, or false when none is.
func (c *Coordinator) OldestInFlight() (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var oldest uint64
	for seq := range c.inflight {
		if oldest == 0 || seq < oldest {
			oldest = seq
		}
	}
	return oldest, oldest != 0
}

// InFlight lists the keys with a fetch running, sorted.
func (c *Coordinator) InFlight() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]bool, len(c.inflight))
	keys := make([]string, 0, len(c.inflight))
	for _, key := range c.inflight {
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Close stops background refreshes and waits for them to return.
func (c *Coordinator) Close() {
	c.cancel()
	c.wg.Wait()
}

func (c *Coordinator) run(key string, fetch Fetcher) (any, error) {
	seq := c.issue(key)
	defer c.finish(seq)

	data, err := Retry(c.base, c.retry, c.log, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		return nil, err
	}
	return c.apply(key, seq, data)
}

func (c *Coordinator) issue(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	c.state(key).issued = c.seq
	c.inflight[c.seq] = key
	return c.seq
}

func (c *Coordinator) finish(seq uint64) {
	c.mu.Lock()
	delete(c.inflight, seq)
	c.mu.Unlock()
}

// apply writes a response unless a newer one was applied or the fetch was
// cancelled. A superseded response yields the current cached value.
func (c *Coordinator) apply(key string, seq uint64, data any) (any, error) {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()

	c.mu.Lock()
	ks := c.state(key)
	superseded := seq <= ks.applied || seq <= ks.cancelled
	if !superseded {
		ks.applied = seq
	}
	c.mu.Unlock()

	if superseded {
		c.log.Warn("discarded superseded response", logger.String("key", key), logger.Uint64("seq", seq))
		if e, ok := c.cache.Read(key); ok {
			return e.Data, nil
		}
		// Nothing newer to hand out: the waiters get this answer, vetted
		// but not stored.
		if c.reconciler != nil {
			return c.reconciler(key, data, seq)
		}
		return data, nil
	}

	if c.reconciler != nil {
		reconciled, err := c.reconciler(key, data, seq)
		if err != nil {
			c.log.Debug("reconciler dropped response", logger.String("key", key), logger.Error(err))
			return nil, err
		}
		data = reconciled
	}

	c.cache.Write(key, data)
	return data, nil
}

// Forget drops the ordering state of keys that have no fetch running.
// The garbage collector calls it for evicted keys.
func (c *Coordinator) Forget(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	running := make(map[string]bool, len(c.inflight))
	for _, key := range c.inflight {
		running[key] = true
	}
	for _, key := range keys {
		if !running[key] {
			delete(c.keys, key)
		}
	}
}

// state returns the bookkeeping of key. Callers hold c.mu.
func (c *Coordinator) state(key string) *keyState {
	ks, ok := c.keys[key]
	if !ok {
		ks = &keyState{}
		c.keys[key] = ks
	}
	return ks
}
