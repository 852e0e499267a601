package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/pulse/internal/logger"
)

// DefaultGCInterval is how often the garbage collector runs.
const DefaultGCInterval = time.Minute

// EntryCollector evicts idle cache entries and returns their keys.
type EntryCollector interface {
	Collect() []string
}

// KeyForgetter drops per-key bookkeeping of evicted keys.
type KeyForgetter interface {
	Forget(keys ...string)
}

// Pruner drops settled mutation state.
type Pruner interface {
	Prune() int
}

// GarbageCollector evicts idle cache entries and settled mutation state.
type GarbageCollector struct {
	cache    EntryCollector
	queries  KeyForgetter
	pruner   Pruner
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewGarbageCollector creates a new garbage collector. queries and pruner
// may be nil.
func NewGarbageCollector(
	cache EntryCollector,
	queries KeyForgetter,
	pruner Pruner,
	log logger.Logger,
	interval time.Duration,
) *GarbageCollector {
	if interval <= 0 {
		interval = DefaultGCInterval
	}

	return &GarbageCollector{
		cache:    cache,
		queries:  queries,
		pruner:   pruner,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic garbage collection process
func (gc *GarbageCollector) Start(ctx context.Context) error {
	gc.Collect(ctx)

	ticker := time.NewTicker(gc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				gc.Collect(ctx)
			case <-gc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the garbage collector
func (gc *GarbageCollector) Stop() {
	gc.stopOnce.Do(func() { close(gc.stopCh) })
}

// Collect runs one pass and returns how many cache entries and mutation
// records it dropped.
func (gc *GarbageCollector) Collect(ctx context.Context) (evicted, pruned int) {
	keys := gc.cache.Collect()
	if gc.queries != nil && len(keys) > 0 {
		gc.queries.Forget(keys...)
	}
	if gc.pruner != nil {
		pruned = gc.pruner.Prune()
	}

	if len(keys) > 0 || pruned > 0 {
		gc.logger.Info("garbage collection completed",
			logger.Int("entries_evicted", len(keys)),
			logger.Strings("keys", keys),
			logger.Int("mutations_pruned", pruned))
	} else {
		gc.logger.Debug("nothing to garbage collect")
	}

	return len(keys), pruned
}
