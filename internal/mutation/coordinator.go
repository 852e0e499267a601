// Package mutation runs create, update and delete against the store with
// optimistic cache updates, rollback on failure and invalidation on
// settle. It also decides, per record, whether a fetched copy or an
// in-flight mutation wins.
package mutation

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/pulse/internal/domain"
	"github.com/MrSnakeDoc/pulse/internal/logger"
	"github.com/MrSnakeDoc/pulse/internal/notify"
	"github.com/MrSnakeDoc/pulse/internal/query"
)

// Writer is the write side of the fetch client.
type Writer interface {
	CreateService(ctx context.Context, req domain.CreateServiceRequest) (domain.Service, error)
	UpdateService(ctx context.Context, id string, req domain.UpdateServiceRequest) (domain.Service, error)
	DeleteService(ctx context.Context, id string) error
}

// Notifier receives the outcome of every mutation.
type Notifier interface {
	Add(kind notify.Kind, title, message string) notify.Notification
}

// Kind of mutation.
type Kind string

const (
	Create Kind = "create"
	Update Kind = "update"
	Delete Kind = "delete"
)

// State of one mutation. Every mutation moves idle → optimistic-applied →
// committed or rolled-back.
type State string

const (
	Idle              State = "idle"
	OptimisticApplied State = "optimistic-applied"
	Committed         State = "committed"
	RolledBack        State = "rolled-back"
)

// Mutation describes one mutation at a state transition.
type Mutation struct {
	Seq    uint64
	Kind   Kind
	Target string
	State  State
	Err    error
}

// Notification titles and messages.
const (
	TitleCreated      = "Service Created"
	TitleCreateFailed = "Creation Failed"
	TitleUpdated      = "Service Updated"
	TitleUpdateFailed = "Update Failed"
	TitleDeleted      = "Service Deleted"
	TitleDeleteFailed = "Deletion Failed"

	msgDeleted = "Service has been successfully removed"
)

// Options configures a Coordinator.
type Options struct {
	Queries  *query.Coordinator
	Services *query.Services
	Writer   Writer
	Notifier Notifier
	Retry    query.RetryPolicy
	Log      logger.Logger
	Now      func() time.Time
	// OnTransition, when set, sees every state change.
	OnTransition func(Mutation)
}

// Coordinator is safe for concurrent use.
type Coordinator struct {
	coord    *query.Coordinator
	services *query.Services
	writer   Writer
	notifier Notifier
	retry    query.RetryPolicy
	log      logger.Logger
	now      func() time.Time
	observe  func(Mutation)

	mu         sync.Mutex
	seq        uint64
	overlays   map[string]*overlay
	tombstones map[string]tombstone
}

// New builds the coordinator and installs its reconciler on the query
// coordinator.
func New(opts Options) *Coordinator {
	m := &Coordinator{
		coord:      opts.Queries,
		services:   opts.Services,
		writer:     opts.Writer,
		notifier:   opts.Notifier,
		retry:      opts.Retry,
		log:        opts.Log,
		now:        opts.Now,
		observe:    opts.OnTransition,
		overlays:   make(map[string]*overlay),
		tombstones: make(map[string]tombstone),
	}
	if m.retry == (query.RetryPolicy{}) {
		m.retry = query.MutationRetry()
	}
	if m.log == nil {
		m.log = logger.NewNop()
	}
	if m.now == nil {
		m.now = time.Now
	}
	m.coord.SetReconciler(m.reconcile)
	return m
}

// Authority reports whether a mutation in flight currently overrides
// fetched copies of id.
func (m *Coordinator) Authority(id string) Authority {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.tombstones[id]; ok && t.pending {
		return AuthorityOptimistic
	}
	if o, ok := m.overlays[id]; ok && len(o.pending) > 0 {
		return AuthorityOptimistic
	}
	return AuthorityServer
}

// Pending counts the mutations in flight.
func (m *Coordinator) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, t := range m.tombstones {
		if t.pending {
			n++
		}
	}
	for _, o := range m.overlays {
		n += len(o.pending)
	}
	return n
}

func (m *Coordinator) begin(kind Kind, target string) Mutation {
	m.mu.Lock()
	m.seq++
	mut := Mutation{Seq: m.seq, Kind: kind, Target: target, State: Idle}
	m.mu.Unlock()
	return mut
}

func (m *Coordinator) transition(mut *Mutation, state State, err error) {
	mut.State = state
	mut.Err = err

	fields := []logger.Field{
		logger.Uint64("mutation", mut.Seq),
		logger.String("kind", string(mut.Kind)),
		logger.String("target", mut.Target),
		logger.String("state", string(state)),
	}
	switch state {
	case Committed:
		m.log.Info("mutation committed", fields...)
	case RolledBack:
		m.log.Warn("mutation rolled back", append(fields, logger.Error(err))...)
	default:
		m.log.Debug("mutation", fields...)
	}

	if m.observe != nil {
		m.observe(*mut)
	}
}

func (m *Coordinator) notify(kind notify.Kind, title, message string) {
	if m.notifier != nil {
		m.notifier.Add(kind, title, message)
	}
}

func (m *Coordinator) stamp() time.Time {
	return m.now().UTC()
}
