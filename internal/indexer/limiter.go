package indexer

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// MaxConcurrentSearches bounds in-flight searches per indexer instance so
// a burst of requests cannot hammer a single tracker.
const MaxConcurrentSearches = 2

// concurrencyLimiter is a per-indexer slot limiter. One limiter is created
// when an indexer is loaded and dropped when it is unloaded.
type concurrencyLimiter struct {
	sem *semaphore.Weighted
}

func newConcurrencyLimiter() *concurrencyLimiter {
	return &concurrencyLimiter{sem: semaphore.NewWeighted(MaxConcurrentSearches)}
}

// acquire blocks until a search slot is free or the context is done.
func (l *concurrencyLimiter) acquire(ctx context.Context) error {
	return l.sem.Acquire(ctx, 1)
}

func (l *concurrencyLimiter) release() {
	l.sem.Release(1)
}
