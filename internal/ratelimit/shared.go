package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Counter is an external store that applies one fixed-window admission step
// atomically, e.g. a DynamoDB table with conditional writes.
type Counter interface {
	Increment(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (bool, error)
}

// Shared is a Limiter backed by a Counter. Keys are namespaced by policy name
// so several policies can share one table.
type Shared struct {
	policy  Policy
	counter Counter
	now     Clock
}

// NewShared creates a limiter that delegates to counter.
func NewShared(policy Policy, counter Counter) (*Shared, error) {
	if err := policy.validate(); err != nil {
		return nil, err
	}
	if counter == nil {
		return nil, errors.New("ratelimit: counter must not be nil")
	}
	return &Shared{policy: policy, counter: counter, now: time.Now}, nil
}

// Allow applies the policy to key through the external counter.
func (s *Shared) Allow(ctx context.Context, key string) (bool, error) {
	ok, err := s.counter.Increment(ctx, s.policy.Name+"#"+key, s.policy.Limit, s.policy.Window, s.now())
	if err != nil {
		return false, fmt.Errorf("ratelimit: %s: %w", s.policy.Name, err)
	}
	return ok, nil
}
