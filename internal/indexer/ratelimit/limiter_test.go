package ratelimit

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestQueryLimit(t *testing.T) {
	limiter := NewLimiter(Config{
		QueryLimit:  3,
		QueryPeriod: time.Hour,
		GrabLimit:   1,
		GrabPeriod:  time.Hour,
	}, zerolog.Nop())

	id := uuid.New()

	for i := 0; i < 3; i++ {
		assert.False(t, limiter.CheckQueryLimit(id))
		limiter.RecordQuery(id)
	}
	assert.True(t, limiter.CheckQueryLimit(id))

	// Other indexers are unaffected.
	assert.False(t, limiter.CheckQueryLimit(uuid.New()))
}

func TestGrabLimit(t *testing.T) {
	limiter := NewLimiter(Config{
		QueryLimit:  10,
		QueryPeriod: time.Hour,
		GrabLimit:   1,
		GrabPeriod:  time.Hour,
	}, zerolog.Nop())

	id := uuid.New()

	assert.False(t, limiter.CheckGrabLimit(id))
	limiter.RecordGrab(id)
	assert.True(t, limiter.CheckGrabLimit(id))
}

func TestBucketResetsAfterPeriod(t *testing.T) {
	limiter := NewLimiter(Config{
		QueryLimit:  1,
		QueryPeriod: 10 * time.Millisecond,
		GrabLimit:   1,
		GrabPeriod:  time.Hour,
	}, zerolog.Nop())

	id := uuid.New()
	limiter.RecordQuery(id)
	assert.True(t, limiter.CheckQueryLimit(id))

	time.Sleep(20 * time.Millisecond)
	assert.False(t, limiter.CheckQueryLimit(id))
}

func TestReset(t *testing.T) {
	limiter := NewLimiter(DefaultConfig(), zerolog.Nop())

	id := uuid.New()
	limiter.RecordQuery(id)
	limiter.RecordGrab(id)

	limiter.Reset(id)
	status := limiter.GetLimits(id)
	assert.Equal(t, 0, status.QueryCount)
	assert.Equal(t, 0, status.GrabCount)
}
