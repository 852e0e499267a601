// Package fetch is the only door to the entity store. It adds no caching
// and no retries; it names every failure with its operation and target.
package fetch

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/pulse/internal/domain"
	"github.com/MrSnakeDoc/pulse/internal/logger"
)

// Operation names carried by *domain.OpError.
const (
	OpListServices  = "listServices"
	OpGetService    = "getService"
	OpCreateService = "createService"
	OpUpdateService = "updateService"
	OpDeleteService = "deleteService"
	OpListEvents    = "listEvents"
	OpPoll          = "poll"
)

// Backend is the entity store contract.
type Backend interface {
	ListServices(ctx context.Context, params domain.ListParams) (domain.Envelope[domain.Service], error)
	GetService(ctx context.Context, id string) (domain.Service, error)
	CreateService(ctx context.Context, req domain.CreateServiceRequest) (domain.Service, error)
	UpdateService(ctx context.Context, id string, req domain.UpdateServiceRequest) (domain.Service, error)
	DeleteService(ctx context.Context, id string) error
	ListEvents(ctx context.Context, serviceID string, page, limit int) (domain.Envelope[domain.ServiceEvent], error)
	Poll(ctx context.Context) ([]domain.Service, error)
}

// Client exposes one typed call per store operation.
type Client struct {
	backend Backend
	log     logger.Logger
}

func New(backend Backend, log logger.Logger) *Client {
	return &Client{backend: backend, log: log}
}

func (c *Client) ListServices(ctx context.Context, params domain.ListParams) (domain.Envelope[domain.Service], error) {
	start := time.Now()
	env, err := c.backend.ListServices(ctx, params)
	return env, c.done(OpListServices, params.Encode(), start, err)
}

func (c *Client) GetService(ctx context.Context, id string) (domain.Service, error) {
	start := time.Now()
	svc, err := c.backend.GetService(ctx, id)
	return svc, c.done(OpGetService, id, start, err)
}

func (c *Client) CreateService(ctx context.Context, req domain.CreateServiceRequest) (domain.Service, error) {
	start := time.Now()
	svc, err := c.backend.CreateService(ctx, req)
	return svc, c.done(OpCreateService, "", start, err)
}

func (c *Client) UpdateService(ctx context.Context, id string, req domain.UpdateServiceRequest) (domain.Service, error) {
	start := time.Now()
	svc, err := c.backend.UpdateService(ctx, id, req)
	return svc, c.done(OpUpdateService, id, start, err)
}

func (c *Client) DeleteService(ctx context.Context, id string) error {
	start := time.Now()
	err := c.backend.DeleteService(ctx, id)
	return c.done(OpDeleteService, id, start, err)
}

func (c *Client) ListEvents(ctx context.Context, serviceID string, page, limit int) (domain.Envelope[domain.ServiceEvent], error) {
	start := time.Now()
	env, err := c.backend.ListEvents(ctx, serviceID, page, limit)
	return env, c.done(OpListEvents, serviceID, start, err)
}

func (c *Client) Poll(ctx context.Context) ([]domain.Service, error) {
	start := time.Now()
	services, err := c.backend.Poll(ctx)
	return services, c.done(OpPoll, "", start, err)
}

// done logs the call and wraps a failure. The underlying error is kept
// verbatim so its message still reaches the operator.
func (c *Client) done(op, target string, start time.Time, err error) error {
	took := time.Since(start)
	if err == nil {
		c.log.Debug("store call",
			logger.String("op", op),
			logger.String("target", target),
			logger.Duration("took", took),
		)
		return nil
	}

	c.log.Debug("store call failed",
		logger.String("op", op),
		logger.String("target", target),
		logger.Duration("took", took),
		logger.Error(err),
	)

	id := target
	if op == OpListServices {
		id = ""
	}
	return &domain.OpError{Op: op, ID: id, Err: err}
}
