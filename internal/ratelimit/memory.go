package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sweepEvery controls how often expired records are dropped from the map.
const sweepEvery = 256

// FixedWindow is an in-process limiter. The table lives as long as the process,
// so a cold start forgets every window.
type FixedWindow struct {
	policy Policy
	now    Clock

	mu      sync.Mutex
	records map[string]*Record
	calls   int
}

// Option configures a FixedWindow.
type Option func(*FixedWindow)

// WithClock replaces time.Now.
func WithClock(c Clock) Option {
	return func(f *FixedWindow) {
		if c != nil {
			f.now = c
		}
	}
}

// NewFixedWindow creates an in-memory limiter for policy.
func NewFixedWindow(policy Policy, opts ...Option) (*FixedWindow, error) {
	if err := policy.validate(); err != nil {
		return nil, err
	}
	f := &FixedWindow{
		policy:  policy,
		now:     time.Now,
		records: make(map[string]*Record),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Allow never returns an error; the signature matches Limiter.
func (f *FixedWindow) Allow(_ context.Context, key string) (bool, error) {
	now := f.now()

	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.calls%sweepEvery == 0 {
		f.sweepLocked(now)
	}

	rec, ok := f.records[key]
	if !ok || now.After(rec.ResetTime) {
		f.records[key] = &Record{Count: 1, ResetTime: now.Add(f.policy.Window)}
		return true, nil
	}
	if rec.Count >= f.policy.Limit {
		return false, nil
	}
	rec.Count++
	return true, nil
}

// Snapshot returns a copy of the record for key.
func (f *FixedWindow) Snapshot(key string) (Record, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[key]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

func (f *FixedWindow) sweepLocked(now time.Time) {
	for k, rec := range f.records {
		if now.After(rec.ResetTime) {
			delete(f.records, k)
		}
	}
}
