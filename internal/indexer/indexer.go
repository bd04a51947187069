// Package indexer defines the indexer contract and the manager that
// fans search requests out across loaded indexer backends.
package indexer

import (
	"context"

	"github.com/google/uuid"

	"github.com/spindrift-media/spindrift/internal/torznab"
)

// TrackerType classifies how open a tracker is.
type TrackerType string

const (
	TrackerPublic      TrackerType = "public"
	TrackerSemiPrivate TrackerType = "semi-private"
	TrackerPrivate     TrackerType = "private"
)

// Implementation kinds for stored indexer instances.
const (
	TypeNewznab   = "newznab"
	TypeCardigann = "cardigann"
)

// Indexer is one search backend. Implementations must be safe for
// concurrent use; the manager bounds in-flight searches per instance.
type Indexer interface {
	// ID returns the instance identifier of this configured indexer.
	ID() uuid.UUID

	// Name returns the indexer display name.
	Name() string

	// Description returns a short human description.
	Description() string

	// SiteLink returns the tracker's website URL.
	SiteLink() string

	// Language returns the primary content language as a BCP 47 tag.
	Language() string

	// TrackerType reports how open the tracker is.
	TrackerType() TrackerType

	// Capabilities returns the supported search modes and category map.
	Capabilities() *torznab.Capabilities

	// IsConfigured reports whether all required settings are present.
	IsConfigured() bool

	// CanHandleQuery reports whether this indexer can serve the query's
	// type and categories.
	CanHandleQuery(q *torznab.Query) bool

	// SupportsPagination reports whether offset paging is honored.
	SupportsPagination() bool

	// Test verifies connectivity and credentials against the tracker.
	Test(ctx context.Context) error

	// Search executes a query and returns matching releases. The manager
	// stamps IndexerID and IndexerName on the results afterwards.
	Search(ctx context.Context, q *torznab.Query) ([]torznab.ReleaseInfo, error)

	// Download fetches the torrent file behind a result link.
	Download(ctx context.Context, link string) ([]byte, error)
}

// Config is one stored indexer instance: a definition bound to a user's
// settings and credentials. Credentials are decrypted before the config
// reaches a backend.
type Config struct {
	ID           uuid.UUID         `json:"id"`
	UserID       int64             `json:"userId"`
	Type         string            `json:"type"`
	DefinitionID string            `json:"definitionId,omitempty"`
	Name         string            `json:"name"`
	Enabled      bool              `json:"enabled"`
	BaseURL      string            `json:"baseUrl"`
	Priority     int               `json:"priority"`
	Settings     map[string]string `json:"settings,omitempty"`
	Credentials  map[string]string `json:"-"`
}

// Factory builds a backend for a stored indexer config.
type Factory interface {
	Build(cfg Config) (Indexer, error)
}

// Store persists indexer configs and per-indexer health bookkeeping.
type Store interface {
	// ListEnabled returns the enabled indexer configs for a user, with
	// credentials still encrypted.
	ListEnabled(ctx context.Context, userID int64) ([]Config, error)

	// Get returns one indexer config with credentials still encrypted.
	Get(ctx context.Context, id uuid.UUID) (*Config, error)

	// EncryptionKey returns the user's base64-encoded credential key.
	EncryptionKey(ctx context.Context, userID int64) (string, error)

	// RecordSuccess clears the error state after a successful operation.
	RecordSuccess(ctx context.Context, id uuid.UUID) error

	// RecordError stores the most recent failure for an indexer.
	RecordError(ctx context.Context, id uuid.UUID, message string) error
}

// EventPublisher pushes search lifecycle events to connected clients.
type EventPublisher interface {
	Publish(event string, payload any)
}
