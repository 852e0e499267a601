package memory

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/pulse/internal/domain"
	"github.com/MrSnakeDoc/pulse/internal/sources/seed"
)

func newTestStore(t *testing.T, s seed.Seed, opts Options) *Store {
	t.Helper()
	if opts.Faults == nil {
		opts.Faults = NoFaults()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(1, 2))
	}
	return New(s, opts)
}

func TestListServicesMatchesFilters(t *testing.T) {
	st := newTestStore(t, seed.Default(), Options{})
	all := st.Services()
	ctx := context.Background()

	filterSets := []domain.ServiceFilters{{}}
	for _, status := range append(domain.ServiceStatuses, "") {
		for _, typ := range append(domain.ServiceTypes, "") {
			for _, name := range []string{"", "a", "DATA", "zzz"} {
				filterSets = append(filterSets, domain.ServiceFilters{Status: status, Type: typ, NameLike: name})
			}
		}
	}

	for _, f := range filterSets {
		for _, limit := range []int{1, 2, 10} {
			want := f.Filter(all)
			got, err := st.ListServices(ctx, domain.ListParams{ServiceFilters: f, Page: 1, Limit: limit})
			require.NoError(t, err)

			assert.Equal(t, len(want), got.Pagination.Total, "filters %+v", f)
			assert.Equal(t, domain.TotalPages(len(want), limit), got.Pagination.TotalPages)
			assert.LessOrEqual(t, len(got.Data), limit)
			for i, s := range got.Data {
				assert.Equal(t, want[i].ID, s.ID)
			}
		}
	}
}

func TestListServicesDefaultsLimit(t *testing.T) {
	st := newTestStore(t, seed.Default(), Options{ListLimit: 4})
	env, err := st.ListServices(context.Background(), domain.ListParams{})
	require.NoError(t, err)
	assert.Len(t, env.Data, 4)
	assert.Equal(t, 1, env.Pagination.Page)
	assert.Equal(t, 2, env.Pagination.TotalPages)
}

func TestCreateThenGet(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	st := newTestStore(t, seed.Seed{}, Options{Now: func() time.Time { return now }})
	ctx := context.Background()

	req := domain.CreateServiceRequest{
		Name:        "Search API",
		Type:        domain.TypeAPI,
		Description: "full text search",
		Endpoint:    "https://search.example.com",
	}
	created, err := st.CreateService(ctx, req)
	require.NoError(t, err)

	got, err := st.GetService(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, req.Name, got.Name)
	assert.Equal(t, req.Type, got.Type)
	assert.Equal(t, req.Description, got.Description)
	assert.Equal(t, req.Endpoint, got.Endpoint)
	assert.Equal(t, domain.StatusOnline, got.Status)
	assert.Equal(t, now, got.CreatedAt)
	assert.Equal(t, now, got.UpdatedAt)
	assert.Equal(t, now, got.LastCheck)
}

func TestCreateRejectsInvalid(t *testing.T) {
	st := newTestStore(t, seed.Seed{}, Options{})
	_, err := st.CreateService(context.Background(), domain.CreateServiceRequest{Name: "x", Type: "Nope"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 0, st.Calls(OpCreateService), "validation happens before the remote call")
	assert.Equal(t, 0, st.Count())
}

func TestUpdateService(t *testing.T) {
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	st := newTestStore(t, seed.Default(), Options{Now: func() time.Time { return clock }})
	ctx := context.Background()

	name := "Auth"
	updated, err := st.UpdateService(ctx, "1", domain.UpdateServiceRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Auth", updated.Name)
	assert.Equal(t, clock, updated.UpdatedAt)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	_, err = st.UpdateService(ctx, "missing", domain.UpdateServiceRequest{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteCascadesEvents(t *testing.T) {
	st := newTestStore(t, seed.Default(), Options{})
	ctx := context.Background()

	events, err := st.ListEvents(ctx, "3", 1, 20)
	require.NoError(t, err)
	require.Len(t, events.Data, 1)

	require.NoError(t, st.DeleteService(ctx, "3"))

	_, err = st.GetService(ctx, "3")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	events, err = st.ListEvents(ctx, "3", 1, 20)
	require.NoError(t, err)
	assert.Empty(t, events.Data)
	assert.Equal(t, 0, events.Pagination.Total)

	assert.ErrorIs(t, st.DeleteService(ctx, "3"), domain.ErrNotFound)
	assert.Equal(t, 5, st.Count())
}

func TestListEventsPages(t *testing.T) {
	st := newTestStore(t, seed.Seed{Services: []domain.Service{{ID: "s", Name: "s", Type: domain.TypeAPI}}}, Options{})
	for i := 0; i < 25; i++ {
		require.NoError(t, st.AppendEvent(domain.ServiceEvent{
			ServiceID: "s", Type: domain.EventIncident, Status: domain.StatusOnline,
			Message: fmt.Sprintf("event %d", i), Severity: domain.SeverityLow,
		}))
	}
	ctx := context.Background()

	first, err := st.ListEvents(ctx, "s", 1, 20)
	require.NoError(t, err)
	assert.Len(t, first.Data, 20)
	assert.Equal(t, "event 0", first.Data[0].Message)
	assert.True(t, first.Pagination.HasMore())

	second, err := st.ListEvents(ctx, "s", 2, 20)
	require.NoError(t, err)
	assert.Len(t, second.Data, 5)
	assert.False(t, second.Pagination.HasMore())
}

func TestPollRecordsStatusChanges(t *testing.T) {
	clock := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	st := newTestStore(t, seed.Default(), Options{
		StatusChangeRate: 1,
		Now:              func() time.Time { return clock },
	})
	before := st.Services()

	after, err := st.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, after, len(before))

	changed := 0
	for i := range after {
		assert.Equal(t, clock, after[i].LastCheck, "every service was re-checked")
		assert.NotEqual(t, domain.StatusUnknown, after[i].Status)
		if after[i].Status == before[i].Status {
			continue
		}
		changed++
		assert.Equal(t, clock, after[i].UpdatedAt)

		events, err := st.ListEvents(context.Background(), after[i].ID, 1, 100)
		require.NoError(t, err)
		last := events.Data[len(events.Data)-1]
		assert.Equal(t, domain.EventStatusChange, last.Type)
		assert.Equal(t, after[i].Status, last.Status)
		assert.Equal(t, domain.SeverityFor(after[i].Status), last.Severity)
	}
	t.Logf("%d of %d services changed status", changed, len(after))
}

func TestPollWithoutRechecksIsStable(t *testing.T) {
	st := newTestStore(t, seed.Default(), Options{StatusChangeRate: -1})
	before := st.Services()
	after, err := st.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFailureInjection(t *testing.T) {
	st := newTestStore(t, seed.Default(), Options{Faults: FailAlways(OpGetService)})
	ctx := context.Background()

	_, err := st.GetService(ctx, "1")
	assert.ErrorIs(t, err, domain.ErrTransient)
	assert.EqualError(t, err, "failed to fetch service")

	_, err = st.ListServices(ctx, domain.ListParams{})
	assert.NoError(t, err)
}

func TestFailedMutationLeavesStoreUntouched(t *testing.T) {
	st := newTestStore(t, seed.Default(), Options{Faults: FailAlways(OpDeleteService, OpUpdateService)})
	ctx := context.Background()
	before := st.Services()

	assert.Error(t, st.DeleteService(ctx, "1"))
	name := "x"
	_, err := st.UpdateService(ctx, "1", domain.UpdateServiceRequest{Name: &name})
	assert.Error(t, err)

	assert.Equal(t, before, st.Services())
}

func TestInterceptor(t *testing.T) {
	boom := errors.New("held and failed")
	var mu sync.Mutex
	seen := []Op{}
	st := newTestStore(t, seed.Default(), Options{Interceptor: func(ctx context.Context, op Op) error {
		mu.Lock()
		seen = append(seen, op)
		mu.Unlock()
		if op == OpDeleteService {
			return boom
		}
		return nil
	}})

	err := st.DeleteService(context.Background(), "1")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 6, st.Count())
	assert.Equal(t, []Op{OpDeleteService}, seen)
}

func TestSimulatedDelayHonoursContext(t *testing.T) {
	st := newTestStore(t, seed.Default(), Options{Faults: func(Op) Fault {
		return Fault{MinDelay: time.Hour, MaxDelay: time.Hour}
	}})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := st.Poll(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCallsCountsInvocations(t *testing.T) {
	st := newTestStore(t, seed.Default(), Options{})
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, _ = st.GetService(ctx, "1")
	}
	assert.Equal(t, 3, st.Calls(OpGetService))
	assert.Equal(t, 0, st.Calls(OpPoll))
}
