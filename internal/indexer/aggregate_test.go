package indexer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spindrift-media/spindrift/internal/torznab"
)

func release(title, guid, hash string, seeders int, published time.Time) torznab.ReleaseInfo {
	r := torznab.NewReleaseInfo(title, guid, published)
	r.InfoHash = hash
	r.Seeders = &seeders
	return r
}

func TestMergeResultsDeduplicatesByInfoHash(t *testing.T) {
	now := time.Now()
	results := []SearchResult{
		{Releases: []torznab.ReleaseInfo{release("Same.Release", "guid-a", "ABCDEF", 5, now)}},
		{Releases: []torznab.ReleaseInfo{release("Same.Release", "guid-b", "abcdef", 20, now)}},
	}

	merged := MergeResults(results)
	require.Len(t, merged, 1)
	assert.Equal(t, 20, *merged[0].Seeders, "the better seeded duplicate wins")
}

func TestMergeResultsFallsBackToGUID(t *testing.T) {
	now := time.Now()
	results := []SearchResult{
		{Releases: []torznab.ReleaseInfo{release("A", " guid-1 ", "", 1, now)}},
		{Releases: []torznab.ReleaseInfo{release("A", "GUID-1", "", 2, now)}},
		{Releases: []torznab.ReleaseInfo{release("B", "guid-2", "", 3, now)}},
	}

	merged := MergeResults(results)
	assert.Len(t, merged, 2)
}

func TestMergeResultsSortsNewestFirst(t *testing.T) {
	old := release("Old", "g1", "", 1, time.Now().Add(-time.Hour))
	fresh := release("Fresh", "g2", "", 1, time.Now())

	merged := MergeResults([]SearchResult{{Releases: []torznab.ReleaseInfo{old, fresh}}})
	require.Len(t, merged, 2)
	assert.Equal(t, "Fresh", merged[0].Title)
}

func TestMergeResultsSkipsFailedIndexers(t *testing.T) {
	ok := SearchResult{Releases: []torznab.ReleaseInfo{release("R", "g", "", 1, time.Now())}}
	failed := SearchResult{Err: assert.AnError}

	merged := MergeResults([]SearchResult{ok, failed})
	assert.Len(t, merged, 1)
}

func TestFilterFreeleech(t *testing.T) {
	paid := release("Paid", "g1", "", 1, time.Now())
	free := release("Free", "g2", "", 1, time.Now())
	free.DownloadVolumeFactor = 0

	filtered := FilterFreeleech([]torznab.ReleaseInfo{paid, free})
	require.Len(t, filtered, 1)
	assert.Equal(t, "Free", filtered[0].Title)
}
