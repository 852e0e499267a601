package query

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/MrSnakeDoc/pulse/internal/domain"
	"github.com/MrSnakeDoc/pulse/internal/logger"
)

const (
	// DefaultQueryRetries is how often a failed read is retried.
	DefaultQueryRetries = 3
	// DefaultMutationRetries is how often a failed mutation is retried.
	DefaultMutationRetries = 2
)

// RetryPolicy bounds how a failing call is retried. Attempts are spaced by
// an exponential backoff between BaseDelay and MaxDelay.
type RetryPolicy struct {
	Retries   int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// QueryRetry is the read policy: 3 retries, 1s doubling up to 30s.
func QueryRetry() RetryPolicy {
	return RetryPolicy{Retries: DefaultQueryRetries, BaseDelay: time.Second, MaxDelay: 30 * time.Second}
}

// MutationRetry is the write policy: 2 retries, 1s doubling up to 30s.
func MutationRetry() RetryPolicy {
	return RetryPolicy{Retries: DefaultMutationRetries, BaseDelay: time.Second, MaxDelay: 30 * time.Second}
}

func (p RetryPolicy) backOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	if p.BaseDelay > 0 {
		bo.InitialInterval = p.BaseDelay
	}
	if p.MaxDelay > 0 {
		bo.MaxInterval = p.MaxDelay
	}
	if bo.MaxInterval < bo.InitialInterval {
		bo.MaxInterval = bo.InitialInterval
	}
	return bo
}

// Retry runs op until it succeeds, fails with a client fault, or has been
// attempted Retries+1 times. Client faults are returned after one attempt.
func Retry[T any](ctx context.Context, p RetryPolicy, log logger.Logger, name string, op func(ctx context.Context) (T, error)) (T, error) {
	retries := p.Retries
	if retries < 0 {
		retries = 0
	}
	attempt := 0

	operation := func() (T, error) {
		attempt++
		v, err := op(ctx)
		if err != nil && domain.IsClientFault(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	notify := func(err error, next time.Duration) {
		log.Debug("retrying",
			logger.String("call", name),
			logger.Int("attempt", attempt),
			logger.Duration("next", next),
			logger.Error(err),
		)
	}

	v, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(uint(retries+1)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify),
	)
	// The last attempt may still carry the permanent wrapper.
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Unwrap()
	}
	return v, err
}
