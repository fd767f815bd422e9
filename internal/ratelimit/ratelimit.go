// Package ratelimit caps the request rate of each actor on the API.
package ratelimit

import (
	"context"
	"time"
)

// Class groups endpoints sharing one limit.
type Class string

const (
	ClassRead  Class = "read"
	ClassWrite Class = "write"
)

// Limit allows Requests per Window.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Result is the state of a key after one check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int
}

// Store counts requests per key over a sliding window.
type Store interface {
	Allow(ctx context.Context, key string, limit Limit) (Result, error)
}
