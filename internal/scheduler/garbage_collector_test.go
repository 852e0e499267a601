package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/pulse/internal/cache"
	"github.com/MrSnakeDoc/pulse/internal/logger"
)

type fakePruner struct{ n int }

func (f *fakePruner) Prune() int { return f.n }

type forgetter struct {
	mu   sync.Mutex
	keys []string
}

func (f *forgetter) Forget(keys ...string) {
	f.mu.Lock()
	f.keys = append(f.keys, keys...)
	f.mu.Unlock()
}

func TestGarbageCollector_Collect(t *testing.T) {
	log := logger.New("error", false)

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := cache.New(cache.Options{Now: clock})

	c.Write(cache.StatusPolling(), "snapshot")
	c.Write(cache.ServiceDetail("watched"), "a")
	c.Write(cache.ServiceDetail("idle"), "b")
	c.Subscribe(cache.ServiceDetail("watched"), func(cache.Notice) {})

	fg := &forgetter{}
	gc := NewGarbageCollector(c, fg, &fakePruner{n: 2}, log, time.Minute)

	now = now.Add(2 * time.Minute)
	evicted, pruned := gc.Collect(context.Background())
	if evicted != 1 {
		t.Errorf("Collect() evicted = %d, want 1 (polling snapshot)", evicted)
	}
	if pruned != 2 {
		t.Errorf("Collect() pruned = %d, want 2", pruned)
	}

	now = now.Add(cache.DefaultGCTime)
	evicted, _ = gc.Collect(context.Background())
	if evicted != 1 {
		t.Errorf("Collect() evicted = %d, want 1 (idle detail)", evicted)
	}

	if _, ok := c.Read(cache.ServiceDetail("watched")); !ok {
		t.Error("Observed entry was incorrectly evicted")
	}
	if len(fg.keys) != 2 {
		t.Errorf("Forget() saw %v, want 2 keys", fg.keys)
	}
}

func TestGarbageCollector_StartStop(t *testing.T) {
	c := cache.New(cache.Options{})
	gc := NewGarbageCollector(c, nil, nil, logger.NewNop(), 5*time.Millisecond)

	if err := gc.Start(context.Background()); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	gc.Stop()
	gc.Stop()
}
