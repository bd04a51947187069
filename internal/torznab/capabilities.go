package torznab

import "strings"

// SearchParam is one supported query parameter for a search mode.
type SearchParam string

const (
	ParamQ         SearchParam = "q"
	ParamSeason    SearchParam = "season"
	ParamEp        SearchParam = "ep"
	ParamImdbID    SearchParam = "imdbid"
	ParamTvdbID    SearchParam = "tvdbid"
	ParamRID       SearchParam = "rid"
	ParamTmdbID    SearchParam = "tmdbid"
	ParamTvMazeID  SearchParam = "tvmazeid"
	ParamTraktID   SearchParam = "traktid"
	ParamDoubanID  SearchParam = "doubanid"
	ParamYear      SearchParam = "year"
	ParamGenre     SearchParam = "genre"
	ParamAlbum     SearchParam = "album"
	ParamArtist    SearchParam = "artist"
	ParamLabel     SearchParam = "label"
	ParamTrack     SearchParam = "track"
	ParamTitle     SearchParam = "title"
	ParamAuthor    SearchParam = "author"
	ParamPublisher SearchParam = "publisher"
)

// SearchParamFromName maps a definition parameter name to a SearchParam.
func SearchParamFromName(name string) (SearchParam, bool) {
	switch strings.ToLower(name) {
	case "q":
		return ParamQ, true
	case "season":
		return ParamSeason, true
	case "ep":
		return ParamEp, true
	case "imdbid":
		return ParamImdbID, true
	case "tvdbid":
		return ParamTvdbID, true
	case "rid":
		return ParamRID, true
	case "tmdbid":
		return ParamTmdbID, true
	case "tvmazeid":
		return ParamTvMazeID, true
	case "traktid":
		return ParamTraktID, true
	case "doubanid":
		return ParamDoubanID, true
	case "year":
		return ParamYear, true
	case "genre":
		return ParamGenre, true
	case "album":
		return ParamAlbum, true
	case "artist":
		return ParamArtist, true
	case "label":
		return ParamLabel, true
	case "track":
		return ParamTrack, true
	case "title":
		return ParamTitle, true
	case "author":
		return ParamAuthor, true
	case "publisher":
		return ParamPublisher, true
	default:
		return "", false
	}
}

// CategoryMapping maps one tracker-local category ID to one Torznab
// category. The relation is many-to-many: a tracker category may appear in
// multiple mappings and vice versa.
type CategoryMapping struct {
	TrackerID   string `json:"trackerId"`
	TorznabCat  int    `json:"torznabCat"`
	Description string `json:"description,omitempty"`
}

// Capabilities declares which search modes an indexer supports and how its
// local categories map onto Torznab categories. A mode is available iff its
// parameter list is non-empty.
type Capabilities struct {
	SearchParams      []SearchParam `json:"searchParams,omitempty"`
	TVSearchParams    []SearchParam `json:"tvSearchParams,omitempty"`
	MovieSearchParams []SearchParam `json:"movieSearchParams,omitempty"`
	MusicSearchParams []SearchParam `json:"musicSearchParams,omitempty"`
	BookSearchParams  []SearchParam `json:"bookSearchParams,omitempty"`

	Categories []CategoryMapping `json:"categories,omitempty"`

	LimitsDefault int `json:"limitsDefault,omitempty"`
	LimitsMax     int `json:"limitsMax,omitempty"`
}

// DefaultCapabilities returns capabilities for a plain keyword-search
// indexer with standard page limits.
func DefaultCapabilities() *Capabilities {
	return &Capabilities{
		SearchParams:  []SearchParam{ParamQ},
		LimitsDefault: 100,
		LimitsMax:     100,
	}
}

func (c *Capabilities) SupportsSearch() bool      { return len(c.SearchParams) > 0 }
func (c *Capabilities) SupportsTVSearch() bool    { return len(c.TVSearchParams) > 0 }
func (c *Capabilities) SupportsMovieSearch() bool { return len(c.MovieSearchParams) > 0 }
func (c *Capabilities) SupportsMusicSearch() bool { return len(c.MusicSearchParams) > 0 }
func (c *Capabilities) SupportsBookSearch() bool  { return len(c.BookSearchParams) > 0 }

// SupportsQueryType reports whether the given query type can be served.
// Caps requests are always answerable.
func (c *Capabilities) SupportsQueryType(t QueryType) bool {
	switch t {
	case QueryTypeSearch:
		return c.SupportsSearch()
	case QueryTypeTV:
		return c.SupportsTVSearch()
	case QueryTypeMovie:
		return c.SupportsMovieSearch()
	case QueryTypeMusic:
		return c.SupportsMusicSearch()
	case QueryTypeBook:
		return c.SupportsBookSearch()
	case QueryTypeCaps:
		return true
	default:
		return false
	}
}

// MapTrackerToTorznab returns the Torznab categories configured for the
// given tracker-local category IDs, deduplicated, in mapping order.
func (c *Capabilities) MapTrackerToTorznab(trackerIDs []string) []int {
	seen := make(map[int]bool)
	result := make([]int, 0, len(trackerIDs))

	for _, mapping := range c.Categories {
		for _, id := range trackerIDs {
			if mapping.TrackerID != id || seen[mapping.TorznabCat] {
				continue
			}
			seen[mapping.TorznabCat] = true
			result = append(result, mapping.TorznabCat)
		}
	}
	return result
}

// MapTorznabToTracker returns every configured tracker-local ID whose
// mapped Torznab category either matches a requested category exactly or
// shares its thousands-family, so a request for any Movies/* category
// matches any configured Movies/* tracker category.
func (c *Capabilities) MapTorznabToTracker(cats []int) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(cats))

	for _, mapping := range c.Categories {
		for _, cat := range cats {
			if mapping.TorznabCat != cat && CategoryFamily(mapping.TorznabCat) != CategoryFamily(cat) {
				continue
			}
			if seen[mapping.TrackerID] {
				continue
			}
			seen[mapping.TrackerID] = true
			result = append(result, mapping.TrackerID)
		}
	}
	return result
}

// supportedParams renders a mode's parameter list for the caps XML.
// The list always begins with "q".
func supportedParams(params []SearchParam) string {
	names := make([]string, 0, len(params)+1)
	names = append(names, string(ParamQ))
	for _, p := range params {
		if p == ParamQ {
			continue
		}
		names = append(names, string(p))
	}
	return strings.Join(names, ",")
}
