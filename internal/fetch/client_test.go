package fetch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/pulse/internal/domain"
	"github.com/MrSnakeDoc/pulse/internal/logger"
	"github.com/MrSnakeDoc/pulse/internal/sources/seed"
	"github.com/MrSnakeDoc/pulse/internal/store/memory"
)

func newClient(faults memory.FaultPolicy) (*Client, *memory.Store) {
	st := memory.New(seed.Default(), memory.Options{Faults: faults})
	return New(st, logger.NewNop()), st
}

func TestClientPassesResultsThrough(t *testing.T) {
	c, _ := newClient(memory.NoFaults())
	ctx := context.Background()

	env, err := c.ListServices(ctx, domain.ListParams{ServiceFilters: domain.ServiceFilters{Status: domain.StatusOnline}})
	require.NoError(t, err)
	assert.Equal(t, 4, env.Pagination.Total)

	svc, err := c.GetService(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, "Payment Gateway", svc.Name)

	services, err := c.Poll(ctx)
	require.NoError(t, err)
	assert.Len(t, services, 6)
}

func TestClientNamesFailures(t *testing.T) {
	c, _ := newClient(memory.FailAlways(memory.OpDeleteService))
	ctx := context.Background()

	err := c.DeleteService(ctx, "2")
	require.Error(t, err)

	var opErr *domain.OpError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, OpDeleteService, opErr.Op)
	assert.Equal(t, "2", opErr.ID)
	assert.ErrorIs(t, err, domain.ErrTransient)
	assert.Equal(t, "failed to delete service", domain.Message(err))
	assert.False(t, domain.IsClientFault(err))
}

func TestClientSurfacesNotFound(t *testing.T) {
	c, _ := newClient(memory.NoFaults())

	_, err := c.GetService(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.True(t, domain.IsClientFault(err))
	assert.EqualError(t, err, "getService nope: service nope not found (404)")
}

func TestClientListErrorHasNoID(t *testing.T) {
	c, _ := newClient(memory.FailAlways(memory.OpListServices))

	_, err := c.ListServices(context.Background(), domain.ListParams{Page: 2})
	var opErr *domain.OpError
	require.True(t, errors.As(err, &opErr))
	assert.Empty(t, opErr.ID)
	assert.EqualError(t, err, "listServices: failed to fetch services")
}
