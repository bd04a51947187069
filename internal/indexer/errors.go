package indexer

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error codes for categorizing indexer errors
const (
	ErrCodeAuthentication   = "AUTH_ERROR"
	ErrCodeSearch           = "SEARCH_ERROR"
	ErrCodeDownload         = "DOWNLOAD_ERROR"
	ErrCodeConfiguration    = "CONFIG_ERROR"
	ErrCodeRateLimit        = "RATE_LIMIT_ERROR"
	ErrCodeNetwork          = "NETWORK_ERROR"
	ErrCodeParse            = "PARSE_ERROR"
	ErrCodeNotLoaded        = "NOT_LOADED_ERROR"
	ErrCodeNotImplemented   = "NOT_IMPLEMENTED_ERROR"
	ErrCodeUnsupportedQuery = "UNSUPPORTED_QUERY_ERROR"
	ErrCodePanic            = "PANIC_ERROR"
)

// Error represents a categorized error from an indexer operation.
type Error struct {
	Code        string    // Error category code
	Message     string    // Human-readable message
	IndexerID   uuid.UUID // ID of the affected indexer (zero if not applicable)
	IndexerName string    // Name of the affected indexer
	Retryable   bool      // Whether the operation can be retried
	Cause       error     // Underlying error
}

// Error implements the error interface. The underlying cause is part of
// the message; it is the only detail callers can act on.
func (e *Error) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	if e.IndexerName != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.IndexerName, msg)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements error matching for errors.Is().
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Common error instances for comparison
var (
	ErrAuthentication   = &Error{Code: ErrCodeAuthentication, Message: "authentication failed"}
	ErrSearch           = &Error{Code: ErrCodeSearch, Message: "search failed"}
	ErrDownload         = &Error{Code: ErrCodeDownload, Message: "download failed"}
	ErrConfiguration    = &Error{Code: ErrCodeConfiguration, Message: "configuration error"}
	ErrRateLimit        = &Error{Code: ErrCodeRateLimit, Message: "rate limit exceeded"}
	ErrNetwork          = &Error{Code: ErrCodeNetwork, Message: "network error"}
	ErrParse            = &Error{Code: ErrCodeParse, Message: "parse error"}
	ErrNotLoaded        = &Error{Code: ErrCodeNotLoaded, Message: "indexer not loaded"}
	ErrNotImplemented   = &Error{Code: ErrCodeNotImplemented, Message: "not implemented"}
	ErrUnsupportedQuery = &Error{Code: ErrCodeUnsupportedQuery, Message: "query not supported"}
)

// NewAuthError creates an authentication error.
func NewAuthError(id uuid.UUID, name string, cause error) *Error {
	return &Error{
		Code:        ErrCodeAuthentication,
		Message:     "authentication failed",
		IndexerID:   id,
		IndexerName: name,
		Retryable:   false, // Auth errors usually need credential fixes
		Cause:       cause,
	}
}

// NewSearchError creates a search error.
func NewSearchError(id uuid.UUID, name string, cause error) *Error {
	return &Error{
		Code:        ErrCodeSearch,
		Message:     "search failed",
		IndexerID:   id,
		IndexerName: name,
		Retryable:   true,
		Cause:       cause,
	}
}

// NewDownloadError creates a download error.
func NewDownloadError(id uuid.UUID, name string, cause error) *Error {
	return &Error{
		Code:        ErrCodeDownload,
		Message:     "download failed",
		IndexerID:   id,
		IndexerName: name,
		Retryable:   true,
		Cause:       cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(id uuid.UUID, name string, message string) *Error {
	return &Error{
		Code:        ErrCodeConfiguration,
		Message:     message,
		IndexerID:   id,
		IndexerName: name,
		Retryable:   false,
	}
}

// NewRateLimitError creates a rate limit error.
func NewRateLimitError(id uuid.UUID, name string) *Error {
	return &Error{
		Code:        ErrCodeRateLimit,
		Message:     "rate limit exceeded",
		IndexerID:   id,
		IndexerName: name,
		Retryable:   true, // Can retry after backoff
	}
}

// NewNetworkError creates a network error.
func NewNetworkError(id uuid.UUID, name string, cause error) *Error {
	return &Error{
		Code:        ErrCodeNetwork,
		Message:     "network error",
		IndexerID:   id,
		IndexerName: name,
		Retryable:   true,
		Cause:       cause,
	}
}

// NewParseError creates a parsing error.
func NewParseError(id uuid.UUID, name string, message string, cause error) *Error {
	return &Error{
		Code:        ErrCodeParse,
		Message:     message,
		IndexerID:   id,
		IndexerName: name,
		Retryable:   false, // Parse errors are usually definition bugs
		Cause:       cause,
	}
}

// NewNotLoadedError creates an error for operations on an unloaded indexer.
func NewNotLoadedError(id uuid.UUID) *Error {
	return &Error{
		Code:      ErrCodeNotLoaded,
		Message:   fmt.Sprintf("indexer %s is not loaded", id),
		IndexerID: id,
		Retryable: false,
	}
}

// NewNotImplementedError marks an operation a backend does not provide.
func NewNotImplementedError(id uuid.UUID, name string, operation string) *Error {
	return &Error{
		Code:        ErrCodeNotImplemented,
		Message:     operation + " is not implemented",
		IndexerID:   id,
		IndexerName: name,
		Retryable:   false,
	}
}

// NewUnsupportedQueryError marks a query an indexer cannot serve.
func NewUnsupportedQueryError(id uuid.UUID, name string) *Error {
	return &Error{
		Code:        ErrCodeUnsupportedQuery,
		Message:     "query not supported",
		IndexerID:   id,
		IndexerName: name,
		Retryable:   false,
	}
}

// NewPanicError wraps a recovered panic from a backend search.
func NewPanicError(id uuid.UUID, name string, recovered any) *Error {
	return &Error{
		Code:        ErrCodePanic,
		Message:     fmt.Sprintf("indexer panicked: %v", recovered),
		IndexerID:   id,
		IndexerName: name,
		Retryable:   false,
	}
}

// IsRetryable returns whether the error is retryable.
func IsRetryable(err error) bool {
	var indexerErr *Error
	if errors.As(err, &indexerErr) {
		return indexerErr.Retryable
	}
	return false
}

// IsAuthError returns whether the error is an authentication error.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuthentication)
}

// IsRateLimitError returns whether the error is a rate limit error.
func IsRateLimitError(err error) bool {
	return errors.Is(err, ErrRateLimit)
}

// IsNotLoadedError returns whether the error is a not-loaded error.
func IsNotLoadedError(err error) bool {
	return errors.Is(err, ErrNotLoaded)
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	var indexerErr *Error
	if errors.As(err, &indexerErr) {
		return indexerErr.Code
	}
	return ""
}
