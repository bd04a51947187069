package torznab

import (
	"time"

	"github.com/google/uuid"
)

// ReleaseInfo is one search result returned by an indexer backend.
// IndexerID and IndexerName are stamped by the manager after the backend
// returns, never by the backend itself.
type ReleaseInfo struct {
	Title       string    `json:"title"`
	GUID        string    `json:"guid"`
	PublishDate time.Time `json:"publishDate"`

	Description string `json:"description,omitempty"`
	InfoURL     string `json:"infoUrl,omitempty"`
	DownloadURL string `json:"downloadUrl,omitempty"`
	MagnetURI   string `json:"magnetUri,omitempty"`
	InfoHash    string `json:"infoHash,omitempty"`
	CoverURL    string `json:"coverUrl,omitempty"`

	Size       *int64 `json:"size,omitempty"`
	Seeders    *int   `json:"seeders,omitempty"`
	Peers      *int   `json:"peers,omitempty"`
	Grabs      *int   `json:"grabs,omitempty"`
	Categories []int  `json:"categories,omitempty"`

	// Ratio accounting. Both factors default to 1.0; a release is freeleech
	// when DownloadVolumeFactor is exactly 0.
	DownloadVolumeFactor float64 `json:"downloadVolumeFactor"`
	UploadVolumeFactor   float64 `json:"uploadVolumeFactor"`

	MinimumRatio    float64 `json:"minimumRatio,omitempty"`
	MinimumSeedTime int64   `json:"minimumSeedTime,omitempty"`

	ImdbID   int `json:"imdbId,omitempty"`
	TvdbID   int `json:"tvdbId,omitempty"`
	TmdbID   int `json:"tmdbId,omitempty"`
	TvMazeID int `json:"tvMazeId,omitempty"`
	TraktID  int `json:"traktId,omitempty"`
	DoubanID int `json:"doubanId,omitempty"`

	IndexerID   uuid.UUID `json:"indexerId,omitempty"`
	IndexerName string    `json:"indexerName,omitempty"`
}

// NewReleaseInfo returns a ReleaseInfo with volume factors at their
// defaults.
func NewReleaseInfo(title, guid string, publishDate time.Time) ReleaseInfo {
	return ReleaseInfo{
		Title:                title,
		GUID:                 guid,
		PublishDate:          publishDate,
		DownloadVolumeFactor: 1.0,
		UploadVolumeFactor:   1.0,
	}
}

// IsFreeleech reports whether downloading this release does not count
// against the user's tracker ratio.
func (r *ReleaseInfo) IsFreeleech() bool {
	return r.DownloadVolumeFactor == 0.0
}

// Leechers returns peers minus seeders when both counts are known.
func (r *ReleaseInfo) Leechers() (int, bool) {
	if r.Seeders == nil || r.Peers == nil {
		return 0, false
	}
	return *r.Peers - *r.Seeders, true
}

// Link returns the preferred download link: the direct download URL when
// present, otherwise the magnet URI.
func (r *ReleaseInfo) Link() string {
	if r.DownloadURL != "" {
		return r.DownloadURL
	}
	return r.MagnetURI
}
