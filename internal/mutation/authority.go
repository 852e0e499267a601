package mutation

import (
	"time"

	"github.com/MrSnakeDoc/pulse/internal/domain"
)

// Authority tells whose value of a record currently wins.
type Authority string

const (
	// AuthorityServer means fetched data is taken as is.
	AuthorityServer Authority = "server"
	// AuthorityOptimistic means a mutation in flight overrides fetched data.
	AuthorityOptimistic Authority = "optimistic-pending"
)

type patch struct {
	mutation  uint64
	fields    domain.UpdateServiceRequest
	updatedAt time.Time
}

// overlay is what fetched copies of one record must be corrected with.
// Pending patches apply to every response. A committed update applies to
// responses issued no later than committedSeq, which may predate it.
type overlay struct {
	pending      []patch
	committed    *patch
	committedSeq uint64
}

func (o *overlay) apply(svc domain.Service, seq uint64) domain.Service {
	if o.committed != nil && seq <= o.committedSeq {
		svc = o.committed.on(svc)
	}
	for _, p := range o.pending {
		svc = p.on(svc)
	}
	return svc
}

func (o *overlay) drop(mutation uint64) {
	for i, p := range o.pending {
		if p.mutation == mutation {
			o.pending = append(o.pending[:i:i], o.pending[i+1:]...)
			return
		}
	}
}

func (p patch) on(svc domain.Service) domain.Service {
	svc = svc.Apply(p.fields)
	if p.updatedAt.After(svc.UpdatedAt) {
		svc.UpdatedAt = p.updatedAt
	}
	return svc
}

// tombstone hides a deleted record. While pending it hides the record
// from every response; once committed only from responses issued no later
// than seq.
type tombstone struct {
	mutation uint64
	pending  bool
	seq      uint64
}

func (t tombstone) hides(seq uint64) bool {
	return t.pending || seq <= t.seq
}
