package indexer

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestErrorMessageIncludesCause(t *testing.T) {
	id := uuid.New()

	withCause := NewSearchError(id, "Seabird", errors.New("tracker down"))
	assert.Equal(t, "[SEARCH_ERROR] Seabird: search failed: tracker down", withCause.Error())

	withoutCause := NewRateLimitError(id, "Seabird")
	assert.Equal(t, "[RATE_LIMIT_ERROR] Seabird: rate limit exceeded", withoutCause.Error())

	anonymous := &Error{Code: ErrCodeParse, Message: "parse error", Cause: errors.New("bad xml")}
	assert.Equal(t, "[PARSE_ERROR] parse error: bad xml", anonymous.Error())
}

func TestErrorUnwrapAndMatching(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewNetworkError(uuid.New(), "Seabird", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, ErrCodeNetwork, GetErrorCode(err))
}
