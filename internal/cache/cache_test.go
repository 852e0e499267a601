package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestCache(clk *clock) *Cache {
	return New(Options{Now: clk.Now})
}

type recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *recorder) record(n Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
}

func (r *recorder) kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Kind, 0, len(r.notices))
	for _, n := range r.notices {
		out = append(out, n.Kind)
	}
	return out
}

func TestReadIsIdempotent(t *testing.T) {
	c := newTestCache(newClock())
	c.Write("services/detail/1", "A")

	first, ok := c.Read("services/detail/1")
	require.True(t, ok)
	second, ok := c.Read("services/detail/1")
	require.True(t, ok)

	assert.Equal(t, first, second)
	assert.Equal(t, FromQuery, first.Provenance)
}

func TestReadAbsent(t *testing.T) {
	c := newTestCache(newClock())
	_, ok := c.Read("services/detail/nope")
	assert.False(t, ok)
}

func TestStalenessFollowsFamilyPolicy(t *testing.T) {
	clk := newClock()
	c := newTestCache(clk)

	c.Write(ServiceList(listPage(1)), "list")
	c.Write(ServiceDetail("1"), "detail")
	c.Write(ServiceEvents("1"), "events")
	c.Write(StatusPolling(), "poll")

	stale := func(key string) bool {
		e, ok := c.Read(key)
		require.True(t, ok)
		return e.Stale
	}

	assert.True(t, stale(StatusPolling()), "polling snapshot is always stale")
	assert.False(t, stale(ServiceEvents("1")))

	clk.Advance(time.Minute)
	assert.True(t, stale(ServiceEvents("1")))
	assert.False(t, stale(ServiceDetail("1")))

	clk.Advance(time.Minute)
	assert.True(t, stale(ServiceDetail("1")))
	assert.False(t, stale(ServiceList(listPage(1))))

	clk.Advance(3 * time.Minute)
	assert.True(t, stale(ServiceList(listPage(1))))
}

func TestWriteNotifiesSubscribers(t *testing.T) {
	c := newTestCache(newClock())
	var rec recorder
	unsubscribe := c.Subscribe("k", rec.record)

	c.Write("k", 1)
	c.Write("other", 2)
	unsubscribe()
	unsubscribe()
	c.Write("k", 3)

	assert.Equal(t, []Kind{Written}, rec.kinds())
	assert.False(t, c.Observed("k"))
}

func TestPatch(t *testing.T) {
	c := newTestCache(newClock())
	var rec recorder
	c.Subscribe("k", rec.record)

	assert.False(t, c.Patch("absent", func(v any) (any, bool) { return v, true }))

	c.Write("k", 1)
	before, _ := c.Read("k")

	changed := PatchAs(c, "k", func(v int) (int, bool) { return v + 1, true })
	require.True(t, changed)

	got, e, ok := ReadAs[int](c, "k")
	require.True(t, ok)
	assert.Equal(t, 2, got)
	assert.Equal(t, FromOptimistic, e.Provenance)
	assert.Greater(t, e.Version, before.Version)

	assert.False(t, PatchAs(c, "k", func(v int) (int, bool) { return v, false }))
	assert.False(t, PatchAs(c, "k", func(v string) (string, bool) { return v + "x", true }), "wrong type is left alone")

	assert.Equal(t, []Kind{Written, Patched}, rec.kinds())
}

func TestRestorePutsSnapshotBack(t *testing.T) {
	clk := newClock()
	c := newTestCache(clk)
	c.Write("k", "original")
	snap, _ := c.Read("k")

	clk.Advance(time.Second)
	c.Patch("k", func(any) (any, bool) { return "optimistic", true })
	c.Restore(snap)

	got, _ := c.Read("k")
	assert.Equal(t, "original", got.Data)
	assert.Equal(t, snap.UpdatedAt, got.UpdatedAt)
	assert.Equal(t, FromQuery, got.Provenance)
}

func TestInvalidatePrefix(t *testing.T) {
	c := newTestCache(newClock())
	lists := []string{ServiceList(listPage(1)), ServiceList(listPage(2))}
	for _, k := range lists {
		c.Write(k, "x")
	}
	c.Write(ServiceDetail("1"), "d")

	var listRec, detailRec, pendingRec recorder
	c.Subscribe(lists[0], listRec.record)
	c.Subscribe(ServiceDetail("1"), detailRec.record)
	c.Subscribe(ServiceList(listPage(9)), pendingRec.record)

	n := c.Invalidate(ServiceLists())
	assert.Equal(t, 2, n)

	for _, k := range lists {
		e, _ := c.Read(k)
		assert.True(t, e.Invalidated)
		assert.True(t, e.Stale)
		assert.Equal(t, "x", e.Data, "invalidation keeps the last value")
	}
	d, _ := c.Read(ServiceDetail("1"))
	assert.False(t, d.Invalidated)

	assert.Equal(t, []Kind{Invalidated}, listRec.kinds())
	assert.Empty(t, detailRec.kinds())
	assert.Equal(t, []Kind{Invalidated}, pendingRec.kinds(), "subscribers without data are told too")

	c.Write(lists[0], "y")
	e, _ := c.Read(lists[0])
	assert.False(t, e.Invalidated)
}

func TestRemovePrefix(t *testing.T) {
	c := newTestCache(newClock())
	c.Write(ServiceDetail("1"), "d1")
	c.Write(ServiceEvents("1"), "e1")
	c.Write(ServiceDetail("10"), "d10")

	var rec recorder
	c.Subscribe(ServiceDetail("1"), rec.record)

	assert.Equal(t, 2, c.Remove(ServiceDetail("1")))
	assert.Equal(t, []string{ServiceDetail("10")}, c.Keys(ServiceDetails()))
	assert.Equal(t, []Kind{Removed}, rec.kinds())
	assert.True(t, c.Observed(ServiceDetail("1")), "subscription survives eviction")
}

func TestCollectEvictsIdleUnobservedEntries(t *testing.T) {
	clk := newClock()
	c := newTestCache(clk)

	c.Write(StatusPolling(), "poll")
	c.Write(ServiceDetail("1"), "watched")
	c.Write(ServiceDetail("2"), "idle")
	unsubscribe := c.Subscribe(ServiceDetail("1"), func(Notice) {})

	clk.Advance(time.Minute)
	assert.Equal(t, []string{StatusPolling()}, c.Collect())

	clk.Advance(DefaultGCTime)
	assert.Equal(t, []string{ServiceDetail("2")}, c.Collect())

	unsubscribe()
	assert.Empty(t, c.Collect(), "idle time restarts when the last subscriber leaves")

	clk.Advance(DefaultGCTime)
	assert.Equal(t, []string{ServiceDetail("1")}, c.Collect())
	assert.Equal(t, 0, c.Len())
}

func TestCallbacksMayReenterCache(t *testing.T) {
	c := newTestCache(newClock())
	done := make(chan struct{})
	c.Subscribe("k", func(n Notice) {
		if n.Kind == Invalidated {
			c.Write("k", "refetched")
			close(done)
		}
	})
	c.Write("k", "v")
	c.Invalidate("k")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback did not run")
	}
	e, _ := c.Read("k")
	assert.Equal(t, "refetched", e.Data)
}

func TestEntriesSnapshot(t *testing.T) {
	c := newTestCache(newClock())
	c.Write("b", 2)
	c.Write("a", 1)

	entries := c.Entries("")
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Key)
	assert.Equal(t, "b", entries[1].Key)
}
