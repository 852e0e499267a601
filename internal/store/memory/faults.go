package memory

import (
	"context"
	"time"
)

// Op names an entity store operation.
type Op string

const (
	OpListServices  Op = "listServices"
	OpGetService    Op = "getService"
	OpCreateService Op = "createService"
	OpUpdateService Op = "updateService"
	OpDeleteService Op = "deleteService"
	OpListEvents    Op = "listEvents"
	OpPoll          Op = "poll"
)

// failureMessages are the texts of injected transient faults.
var failureMessages = map[Op]string{
	OpListServices:  "failed to fetch services",
	OpGetService:    "failed to fetch service",
	OpCreateService: "failed to create service",
	OpUpdateService: "failed to update service",
	OpDeleteService: "failed to delete service",
	OpListEvents:    "failed to fetch service events",
	OpPoll:          "failed to poll service statuses",
}

// Fault describes the simulated network behaviour of one operation: a
// uniformly random delay in [MinDelay, MaxDelay] followed by a failure with
// probability FailureRate.
type Fault struct {
	MinDelay    time.Duration
	MaxDelay    time.Duration
	FailureRate float64
}

// FaultPolicy picks the Fault for an operation.
type FaultPolicy func(op Op) Fault

// Interceptor runs after the simulated delay and before the operation is
// applied. A non-nil error fails the call with that error. Tests use it to
// hold a call open or to force a specific failure.
type Interceptor func(ctx context.Context, op Op) error

// DefaultFaults is the production simulation: 300ms to 1s and a 5% failure
// rate for every call, 100 to 300ms for polls.
func DefaultFaults() FaultPolicy {
	return SplitFaults(
		Fault{MinDelay: 300 * time.Millisecond, MaxDelay: time.Second, FailureRate: 0.05},
		Fault{MinDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond, FailureRate: 0.05},
	)
}

// SplitFaults uses poll for OpPoll and regular for everything else.
func SplitFaults(regular, poll Fault) FaultPolicy {
	return func(op Op) Fault {
		if op == OpPoll {
			return poll
		}
		return regular
	}
}

// NoFaults completes every call immediately and successfully.
func NoFaults() FaultPolicy {
	return func(Op) Fault { return Fault{} }
}

// FailAlways makes the listed operations fail on every call and leaves the
// others instant and reliable.
func FailAlways(ops ...Op) FaultPolicy {
	failing := make(map[Op]bool, len(ops))
	for _, op := range ops {
		failing[op] = true
	}
	return func(op Op) Fault {
		if failing[op] {
			return Fault{FailureRate: 1}
		}
		return Fault{}
	}
}
