package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/pulse/internal/domain"
	"github.com/MrSnakeDoc/pulse/internal/logger"
)

// DefaultPollInterval is how often service statuses are re-checked.
const DefaultPollInterval = 15 * time.Second

// StatusSource fetches the full status snapshot into the cache.
type StatusSource interface {
	PollStatuses(ctx context.Context) ([]domain.Service, error)
}

// Poller refreshes the status snapshot on a fixed interval, whether or not
// anyone is looking.
type Poller struct {
	source        StatusSource
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}
}

// NewPoller creates a poller. A send on manualTrigger polls right away.
func NewPoller(
	source StatusSource,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		source:        source,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start polls once, then keeps polling in the background. A failing first
// poll is logged, not fatal: the store fails transiently by nature.
func (p *Poller) Start(ctx context.Context) error {
	if err := p.Poll(ctx); err != nil {
		p.logger.Warn("initial poll failed", logger.Error(err))
	}

	ticker := time.NewTicker(p.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := p.Poll(ctx); err != nil {
					p.logger.Error("failed to poll service statuses", logger.Error(err))
				}
			case <-p.manualTrigger:
				p.logger.Info("manual poll triggered")
				if err := p.Poll(ctx); err != nil {
					p.logger.Error("failed to poll service statuses", logger.Error(err))
				}
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the poller. It is safe to call more than once.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
}

// Poll runs one tick.
func (p *Poller) Poll(ctx context.Context) error {
	start := time.Now()
	services, err := p.source.PollStatuses(ctx)
	if err != nil {
		return err
	}

	counts := domain.CountByStatus(services)
	p.logger.Debug("polled service statuses",
		logger.Int("services", len(services)),
		logger.Int("online", counts[domain.StatusOnline]),
		logger.Int("degraded", counts[domain.StatusDegraded]),
		logger.Int("offline", counts[domain.StatusOffline]),
		logger.Duration("took", time.Since(start)))
	return nil
}
