// Package ratelimit provides hourly query and grab budgets per indexer,
// separate from the per-indexer concurrency cap enforced by the manager.
package ratelimit

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config defines rate limit configuration.
type Config struct {
	// QueryLimit is the maximum number of queries allowed in the period
	QueryLimit int
	// QueryPeriod is the time period for query limiting
	QueryPeriod time.Duration
	// GrabLimit is the maximum number of grabs allowed in the period
	GrabLimit int
	// GrabPeriod is the time period for grab limiting
	GrabPeriod time.Duration
}

// DefaultConfig returns the default rate limit configuration.
func DefaultConfig() Config {
	return Config{
		QueryLimit:  100,
		QueryPeriod: time.Hour,
		GrabLimit:   25,
		GrabPeriod:  time.Hour,
	}
}

// Limiter tracks query/grab counts per indexer.
type Limiter struct {
	logger zerolog.Logger
	config Config

	mu          sync.Mutex
	queryCounts map[uuid.UUID]*rateBucket
	grabCounts  map[uuid.UUID]*rateBucket
}

// rateBucket tracks rate limit state for a single indexer.
type rateBucket struct {
	count     int
	resetTime time.Time
}

// NewLimiter creates a new rate limiter.
func NewLimiter(config Config, logger zerolog.Logger) *Limiter {
	return &Limiter{
		logger:      logger.With().Str("component", "rate-limiter").Logger(),
		config:      config,
		queryCounts: make(map[uuid.UUID]*rateBucket),
		grabCounts:  make(map[uuid.UUID]*rateBucket),
	}
}

// CheckQueryLimit returns whether the indexer has reached its query limit.
func (l *Limiter) CheckQueryLimit(indexerID uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	bucket := l.bucket(l.queryCounts, indexerID, l.config.QueryPeriod)
	l.maybeReset(bucket, l.config.QueryPeriod)

	if bucket.count >= l.config.QueryLimit {
		l.logger.Warn().
			Str("indexerId", indexerID.String()).
			Int("count", bucket.count).
			Int("limit", l.config.QueryLimit).
			Msg("Query rate limit reached")
		return true
	}
	return false
}

// CheckGrabLimit returns whether the indexer has reached its grab limit.
func (l *Limiter) CheckGrabLimit(indexerID uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	bucket := l.bucket(l.grabCounts, indexerID, l.config.GrabPeriod)
	l.maybeReset(bucket, l.config.GrabPeriod)

	if bucket.count >= l.config.GrabLimit {
		l.logger.Warn().
			Str("indexerId", indexerID.String()).
			Int("count", bucket.count).
			Int("limit", l.config.GrabLimit).
			Msg("Grab rate limit reached")
		return true
	}
	return false
}

// RecordQuery records a query for rate limiting purposes.
func (l *Limiter) RecordQuery(indexerID uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	bucket := l.bucket(l.queryCounts, indexerID, l.config.QueryPeriod)
	l.maybeReset(bucket, l.config.QueryPeriod)
	bucket.count++
}

// RecordGrab records a grab for rate limiting purposes.
func (l *Limiter) RecordGrab(indexerID uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	bucket := l.bucket(l.grabCounts, indexerID, l.config.GrabPeriod)
	l.maybeReset(bucket, l.config.GrabPeriod)
	bucket.count++
}

// GetLimits returns the current rate limit status for an indexer.
func (l *Limiter) GetLimits(indexerID uuid.UUID) *LimitStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	status := &LimitStatus{
		IndexerID:      indexerID,
		QueryLimit:     l.config.QueryLimit,
		GrabLimit:      l.config.GrabLimit,
		QueryResetTime: time.Now().Add(l.config.QueryPeriod),
		GrabResetTime:  time.Now().Add(l.config.GrabPeriod),
	}

	if bucket, ok := l.queryCounts[indexerID]; ok && time.Now().Before(bucket.resetTime) {
		status.QueryCount = bucket.count
		status.QueryResetTime = bucket.resetTime
	}
	if bucket, ok := l.grabCounts[indexerID]; ok && time.Now().Before(bucket.resetTime) {
		status.GrabCount = bucket.count
		status.GrabResetTime = bucket.resetTime
	}

	status.QueryLimited = status.QueryCount >= status.QueryLimit
	status.GrabLimited = status.GrabCount >= status.GrabLimit
	return status
}

// Reset clears the rate limit state for an indexer.
func (l *Limiter) Reset(indexerID uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.queryCounts, indexerID)
	delete(l.grabCounts, indexerID)
}

// ResetAll clears all rate limit state.
func (l *Limiter) ResetAll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.queryCounts = make(map[uuid.UUID]*rateBucket)
	l.grabCounts = make(map[uuid.UUID]*rateBucket)
}

func (l *Limiter) bucket(buckets map[uuid.UUID]*rateBucket, indexerID uuid.UUID, period time.Duration) *rateBucket {
	if bucket, ok := buckets[indexerID]; ok {
		return bucket
	}
	bucket := &rateBucket{resetTime: time.Now().Add(period)}
	buckets[indexerID] = bucket
	return bucket
}

func (l *Limiter) maybeReset(bucket *rateBucket, period time.Duration) {
	if time.Now().After(bucket.resetTime) {
		bucket.count = 0
		bucket.resetTime = time.Now().Add(period)
	}
}

// LimitStatus represents the current rate limit status for an indexer.
type LimitStatus struct {
	IndexerID      uuid.UUID `json:"indexerId"`
	QueryCount     int       `json:"queryCount"`
	QueryLimit     int       `json:"queryLimit"`
	QueryResetTime time.Time `json:"queryResetTime"`
	GrabCount      int       `json:"grabCount"`
	GrabLimit      int       `json:"grabLimit"`
	GrabResetTime  time.Time `json:"grabResetTime"`
	QueryLimited   bool      `json:"queryLimited"`
	GrabLimited    bool      `json:"grabLimited"`
}
