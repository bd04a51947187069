package indexer

import "github.com/google/uuid"

// WebSocket event types for indexer operations.
const (
	EventSearchStarted   = "search:started"
	EventSearchCompleted = "search:completed"
	EventGrabStarted     = "grab:started"
	EventGrabCompleted   = "grab:completed"
	EventIndexerStatus   = "indexer:status"
)

// SearchStartedPayload is sent when a search begins.
type SearchStartedPayload struct {
	Query      string      `json:"query,omitempty"`
	Type       string      `json:"type"`
	IndexerIDs []uuid.UUID `json:"indexerIds,omitempty"`
}

// SearchCompletedPayload is sent when a search finishes.
type SearchCompletedPayload struct {
	Query        string   `json:"query,omitempty"`
	Type         string   `json:"type"`
	TotalResults int      `json:"totalResults"`
	IndexersUsed int      `json:"indexersUsed"`
	Errors       []string `json:"errors,omitempty"`
	ElapsedMs    int64    `json:"elapsedMs"`
}

// GrabStartedPayload is sent when a torrent download begins.
type GrabStartedPayload struct {
	IndexerID uuid.UUID `json:"indexerId"`
	Link      string    `json:"link"`
}

// GrabCompletedPayload is sent when a torrent download finishes.
type GrabCompletedPayload struct {
	IndexerID uuid.UUID `json:"indexerId"`
	Success   bool      `json:"success"`
	Size      int       `json:"size,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// IndexerStatusPayload is sent when indexer status changes.
type IndexerStatusPayload struct {
	IndexerID   uuid.UUID `json:"indexerId"`
	IndexerName string    `json:"indexerName"`
	Status      string    `json:"status"` // healthy, warning, disabled
	Message     string    `json:"message,omitempty"`
}
