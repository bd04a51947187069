package torznab

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewReleaseInfoDefaults(t *testing.T) {
	r := NewReleaseInfo("Test.Release.1080p", "guid-1", time.Now())

	assert.Equal(t, 1.0, r.DownloadVolumeFactor)
	assert.Equal(t, 1.0, r.UploadVolumeFactor)
	assert.False(t, r.IsFreeleech())
}

func TestReleaseInfoIsFreeleech(t *testing.T) {
	r := NewReleaseInfo("Test", "guid", time.Now())
	r.DownloadVolumeFactor = 0.0
	assert.True(t, r.IsFreeleech())

	r.DownloadVolumeFactor = 0.5
	assert.False(t, r.IsFreeleech())
}

func TestReleaseInfoLeechers(t *testing.T) {
	r := NewReleaseInfo("Test", "guid", time.Now())

	_, ok := r.Leechers()
	assert.False(t, ok)

	seeders := 10
	r.Seeders = &seeders
	_, ok = r.Leechers()
	assert.False(t, ok)

	peers := 15
	r.Peers = &peers
	leechers, ok := r.Leechers()
	assert.True(t, ok)
	assert.Equal(t, 5, leechers)
}

func TestReleaseInfoLink(t *testing.T) {
	r := NewReleaseInfo("Test", "guid", time.Now())
	r.MagnetURI = "magnet:?xt=urn:btih:abc"
	assert.Equal(t, "magnet:?xt=urn:btih:abc", r.Link())

	r.DownloadURL = "https://tracker.example/dl/1"
	assert.Equal(t, "https://tracker.example/dl/1", r.Link())
}
