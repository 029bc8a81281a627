// ABOUTME: Retry utilities for LLM backend calls with exponential backoff
// ABOUTME: Adapts the jittered backoff to go-retry so calls stop at the context deadline
package util

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
)

// CalculateBackoff returns exponential backoff with jitter
// Base delay is doubled each attempt, with random jitter up to 25%
func CalculateBackoff(baseDelay time.Duration, attempt int) time.Duration {
	if attempt <= 0 || baseDelay <= 0 {
		return 0
	}
	// Cap attempt to avoid overflow in bit shift (max 30 for safety)
	if attempt > 30 {
		attempt = 30
	}
	// Exponential: 2^attempt * base
	backoff := baseDelay * time.Duration(1<<uint(attempt))
	// Cap at 30 seconds
	if backoff > 30*time.Second || backoff <= 0 {
		backoff = 30 * time.Second
	}
	if backoff < 4 {
		return backoff
	}
	// Add jitter: -25% to +25% using auto-seeded math/rand/v2
	jitter := time.Duration(rand.Int64N(int64(backoff)/2)) - backoff/4
	return backoff + jitter
}

// Backoff returns a go-retry backoff that yields CalculateBackoff delays for
// at most maxRetries retries. Each call returns an independent sequence.
func Backoff(baseDelay time.Duration, maxRetries int) retry.Backoff {
	if maxRetries < 0 {
		maxRetries = 0
	}
	var (
		mu      sync.Mutex
		attempt int
	)
	next := retry.BackoffFunc(func() (time.Duration, bool) {
		mu.Lock()
		defer mu.Unlock()
		attempt++
		return CalculateBackoff(baseDelay, attempt), false
	})
	return retry.WithMaxRetries(uint64(maxRetries), next)
}
