package indexer

import (
	"sort"
	"strings"

	"github.com/spindrift-media/spindrift/internal/torznab"
)

// MergeResults flattens per-indexer search results into one release list,
// deduplicated across indexers and sorted by publish date descending.
// Failed results contribute nothing.
func MergeResults(results []SearchResult) []torznab.ReleaseInfo {
	releases := make([]torznab.ReleaseInfo, 0)
	for _, result := range results {
		if result.Err != nil {
			continue
		}
		releases = append(releases, result.Releases...)
	}

	releases = dedupeReleases(releases)
	sortReleases(releases)
	return releases
}

// dedupeReleases removes duplicates across indexers. The info hash is the
// identity when present, otherwise the normalized GUID. Among duplicates
// the release with the most seeders wins.
func dedupeReleases(releases []torznab.ReleaseInfo) []torznab.ReleaseInfo {
	if len(releases) == 0 {
		return releases
	}

	seen := make(map[string]int)
	result := make([]torznab.ReleaseInfo, 0, len(releases))

	for _, release := range releases {
		var identity string
		if release.InfoHash != "" {
			identity = "hash:" + strings.ToLower(release.InfoHash)
		} else {
			identity = "guid:" + strings.ToLower(strings.TrimSpace(release.GUID))
		}

		existingIdx, exists := seen[identity]
		if !exists {
			seen[identity] = len(result)
			result = append(result, release)
			continue
		}

		if seeders(release) > seeders(result[existingIdx]) {
			result[existingIdx] = release
		}
	}
	return result
}

func seeders(r torznab.ReleaseInfo) int {
	if r.Seeders == nil {
		return -1
	}
	return *r.Seeders
}

// sortReleases orders newest first.
func sortReleases(releases []torznab.ReleaseInfo) {
	sort.SliceStable(releases, func(i, j int) bool {
		return releases[i].PublishDate.After(releases[j].PublishDate)
	})
}

// FilterFreeleech returns only releases that do not count against ratio.
func FilterFreeleech(releases []torznab.ReleaseInfo) []torznab.ReleaseInfo {
	filtered := make([]torznab.ReleaseInfo, 0)
	for _, release := range releases {
		if release.IsFreeleech() {
			filtered = append(filtered, release)
		}
	}
	return filtered
}
