// Package torznab implements the canonical search model and the Torznab
// XML wire protocol used to query torrent/usenet indexers uniformly.
package torznab

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// QueryType identifies the kind of search being performed.
type QueryType string

const (
	QueryTypeSearch QueryType = "search"
	QueryTypeTV     QueryType = "tvsearch"
	QueryTypeMovie  QueryType = "movie"
	QueryTypeMusic  QueryType = "music"
	QueryTypeBook   QueryType = "book"
	QueryTypeCaps   QueryType = "caps"
)

// QueryTypeFromParam maps a Torznab "t" parameter to a QueryType.
// Returns false for unrecognized values.
func QueryTypeFromParam(t string) (QueryType, bool) {
	switch t {
	case "search":
		return QueryTypeSearch, true
	case "tvsearch":
		return QueryTypeTV, true
	case "movie", "movie-search", "moviesearch":
		return QueryTypeMovie, true
	case "music", "music-search", "musicsearch":
		return QueryTypeMusic, true
	case "book", "book-search", "booksearch":
		return QueryTypeBook, true
	case "caps", "capabilities":
		return QueryTypeCaps, true
	default:
		return "", false
	}
}

// Query is one canonical search request. Only the fields relevant to Type
// are meaningful; the rest are ignored by convention.
type Query struct {
	Type       QueryType `json:"t"`
	SearchTerm string    `json:"q"`
	Categories []int     `json:"cat"`
	Limit      int       `json:"limit"`
	Offset     int       `json:"offset"`

	// Cache controls whether a cached result may satisfy this query and
	// whether a live result may be stored.
	Cache bool `json:"cache"`

	// TV
	Season  int `json:"season"`
	Episode int `json:"ep"`

	// External metadata IDs
	ImdbID   string `json:"imdbid"`
	TvdbID   int    `json:"tvdbid"`
	TmdbID   int    `json:"tmdbid"`
	TvMazeID int    `json:"tvmazeid"`
	TraktID  int    `json:"traktid"`
	DoubanID int    `json:"doubanid"`

	Year  int    `json:"year"`
	Genre string `json:"genre"`

	// Music
	Album  string `json:"album"`
	Artist string `json:"artist"`
	Label  string `json:"label"`
	Track  string `json:"track"`

	// Book
	Title     string `json:"title"`
	Author    string `json:"author"`
	Publisher string `json:"publisher"`
}

// CacheKey returns the hex SHA-256 digest of the query's canonical
// serialization. Queries with identical field values produce identical keys
// regardless of category construction order; changing any field changes
// the key.
func (q Query) CacheKey() string {
	canonical := q
	if len(q.Categories) > 0 {
		cats := make([]int, len(q.Categories))
		copy(cats, q.Categories)
		sort.Ints(cats)
		canonical.Categories = cats
	} else {
		canonical.Categories = nil
	}

	// Struct field order is fixed, so encoding/json output is deterministic.
	data, err := json.Marshal(canonical)
	if err != nil {
		// Query contains only plain scalar and slice fields.
		panic("torznab: query serialization failed: " + err.Error())
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HasCategory reports whether the query requests the given Torznab category.
// An empty category set matches everything.
func (q Query) HasCategory(cat int) bool {
	if len(q.Categories) == 0 {
		return true
	}
	for _, c := range q.Categories {
		if c == cat {
			return true
		}
	}
	return false
}
