// Package ratelimit implements fixed-window admission control keyed by client identity.
//
// # Algorithm
//
// For key K at time now:
//
//  1. No record, or now is past the record's window end: store count=1,
//     windowEnd=now+Window and admit.
//  2. count >= Limit: reject without incrementing.
//  3. Otherwise increment count and admit.
//
// FixedWindow keeps records in process memory. Shared delegates the same
// decision to an external Counter so several instances see one window.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

// Limiter admits or rejects one request for key.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Policy is a named limit over a fixed window.
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
}

func (p Policy) validate() error {
	if p.Name == "" {
		return errors.New("ratelimit: policy name must not be empty")
	}
	if p.Limit <= 0 {
		return errors.New("ratelimit: policy limit must be positive")
	}
	if p.Window <= 0 {
		return errors.New("ratelimit: policy window must be positive")
	}
	return nil
}

// Policies used by the public endpoints.
var (
	AppointmentByIP    = Policy{Name: "appointment_ip", Limit: 5, Window: time.Hour}
	AppointmentByEmail = Policy{Name: "appointment_email", Limit: 3, Window: time.Hour}
	ContactByIP        = Policy{Name: "contact_ip", Limit: 5, Window: time.Hour}
	ChatByIP           = Policy{Name: "chat_ip", Limit: 20, Window: time.Minute}
)

// Record is a single window.
type Record struct {
	Count     int
	ResetTime time.Time
}

// Clock returns the current time. Tests substitute it.
type Clock func() time.Time
