// Package newznab implements an indexer backend that federates searches
// to an upstream Newznab/Torznab API endpoint.
package newznab

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/spindrift-media/spindrift/internal/indexer"
	"github.com/spindrift-media/spindrift/internal/torznab"
)

const (
	defaultTimeout = 30 * time.Second

	// maxResponseSize caps how much of an upstream response we read.
	maxResponseSize = 16 << 20
)

// Indexer speaks the Torznab API of an upstream indexer or proxy
// (Jackett, Prowlarr, NZBHydra, a native newznab site).
type Indexer struct {
	cfg    indexer.Config
	client *http.Client
	logger zerolog.Logger

	capsMu sync.RWMutex
	caps   *torznab.Capabilities
}

// New creates a newznab backend from a stored config. Capabilities start
// at a permissive default and are replaced by the upstream's caps document
// after the first successful Test.
func New(cfg indexer.Config, logger zerolog.Logger) (*Indexer, error) {
	if cfg.BaseURL == "" {
		return nil, indexer.NewConfigError(cfg.ID, cfg.Name, "base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, indexer.NewConfigError(cfg.ID, cfg.Name, "invalid base URL: "+cfg.BaseURL)
	}

	return &Indexer{
		cfg:    cfg,
		client: &http.Client{Timeout: defaultTimeout},
		logger: logger.With().Str("component", "newznab").Str("indexer", cfg.Name).Logger(),
		caps:   defaultCaps(),
	}, nil
}

// defaultCaps assumes the common newznab surface until the upstream tells
// us otherwise. The standard movie and TV categories are advertised so
// category-scoped queries route here before the first caps fetch.
func defaultCaps() *torznab.Capabilities {
	var cats []torznab.CategoryMapping
	for _, id := range append(torznab.MovieCategories(), torznab.TVCategories()...) {
		cats = append(cats, torznab.CategoryMapping{
			TrackerID:   strconv.Itoa(id),
			TorznabCat:  id,
			Description: torznab.CategoryName(id),
		})
	}
	return &torznab.Capabilities{
		SearchParams:      []torznab.SearchParam{torznab.ParamQ},
		TVSearchParams:    []torznab.SearchParam{torznab.ParamQ, torznab.ParamSeason, torznab.ParamEp, torznab.ParamImdbID, torznab.ParamTvdbID},
		MovieSearchParams: []torznab.SearchParam{torznab.ParamQ, torznab.ParamImdbID},
		Categories:        cats,
		LimitsDefault:     100,
		LimitsMax:         100,
	}
}

func (n *Indexer) ID() uuid.UUID    { return n.cfg.ID }
func (n *Indexer) Name() string     { return n.cfg.Name }
func (n *Indexer) SiteLink() string { return n.cfg.BaseURL }

func (n *Indexer) Description() string {
	if desc, ok := n.cfg.Settings["description"]; ok {
		return desc
	}
	return "Newznab/Torznab API indexer"
}

func (n *Indexer) Language() string {
	if lang, ok := n.cfg.Settings["language"]; ok {
		return lang
	}
	return "en-US"
}

func (n *Indexer) TrackerType() indexer.TrackerType {
	if n.apiKey() != "" {
		return indexer.TrackerPrivate
	}
	return indexer.TrackerPublic
}

func (n *Indexer) Capabilities() *torznab.Capabilities {
	n.capsMu.RLock()
	defer n.capsMu.RUnlock()
	return n.caps
}

func (n *Indexer) IsConfigured() bool {
	return n.cfg.BaseURL != ""
}

func (n *Indexer) SupportsPagination() bool { return true }

// CanHandleQuery checks the query type against upstream caps and, when
// categories are requested, requires at least one overlap with the
// upstream's category list.
func (n *Indexer) CanHandleQuery(q *torznab.Query) bool {
	caps := n.Capabilities()
	if !caps.SupportsQueryType(q.Type) {
		return false
	}
	if len(q.Categories) == 0 || len(caps.Categories) == 0 {
		return true
	}
	for _, cat := range q.Categories {
		for _, mapping := range caps.Categories {
			if mapping.TorznabCat == cat || torznab.CategoryFamily(mapping.TorznabCat) == torznab.CategoryFamily(cat) {
				return true
			}
		}
	}
	return false
}

// Test fetches the upstream caps document and adopts it on success.
func (n *Indexer) Test(ctx context.Context) error {
	endpoint, err := n.apiURL(url.Values{"t": {"caps"}})
	if err != nil {
		return err
	}

	body, err := n.fetch(ctx, endpoint)
	if err != nil {
		return err
	}

	caps, err := torznab.ParseCaps(body)
	if err != nil {
		return indexer.NewParseError(n.cfg.ID, n.cfg.Name, "invalid caps response", err)
	}

	n.capsMu.Lock()
	n.caps = caps
	n.capsMu.Unlock()

	n.logger.Debug().
		Int("categories", len(caps.Categories)).
		Msg("Adopted upstream capabilities")
	return nil
}

// Search executes a query against the upstream API.
func (n *Indexer) Search(ctx context.Context, q *torznab.Query) ([]torznab.ReleaseInfo, error) {
	endpoint, err := n.apiURL(n.queryParams(q))
	if err != nil {
		return nil, err
	}

	body, err := n.fetch(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	feed, err := torznab.ParseFeed(body)
	if err != nil {
		var protoErr *torznab.Error
		if errors.As(err, &protoErr) {
			return nil, indexer.NewSearchError(n.cfg.ID, n.cfg.Name, protoErr)
		}
		return nil, indexer.NewParseError(n.cfg.ID, n.cfg.Name, "invalid search response", err)
	}

	releases := make([]torznab.ReleaseInfo, 0, len(feed.Channel.Items))
	for i := range feed.Channel.Items {
		releases = append(releases, feed.Channel.Items[i].ReleaseInfo())
	}
	return releases, nil
}

// Download fetches a torrent file from the upstream.
func (n *Indexer) Download(ctx context.Context, link string) ([]byte, error) {
	if link == "" {
		return nil, indexer.NewDownloadError(n.cfg.ID, n.cfg.Name, fmt.Errorf("empty download link"))
	}
	if strings.HasPrefix(link, "magnet:") {
		return nil, indexer.NewDownloadError(n.cfg.ID, n.cfg.Name, fmt.Errorf("magnet links have no file to download"))
	}
	return n.fetch(ctx, link)
}

// queryParams maps a canonical query onto newznab API parameters. Only
// fields meaningful to the query type are emitted.
func (n *Indexer) queryParams(q *torznab.Query) url.Values {
	params := url.Values{}

	switch q.Type {
	case torznab.QueryTypeTV:
		params.Set("t", "tvsearch")
	case torznab.QueryTypeMovie:
		params.Set("t", "movie")
	case torznab.QueryTypeMusic:
		params.Set("t", "music")
	case torznab.QueryTypeBook:
		params.Set("t", "book")
	default:
		params.Set("t", "search")
	}

	if q.SearchTerm != "" {
		params.Set("q", q.SearchTerm)
	}
	if len(q.Categories) > 0 {
		cats := make([]string, len(q.Categories))
		for i, cat := range q.Categories {
			cats[i] = strconv.Itoa(cat)
		}
		params.Set("cat", strings.Join(cats, ","))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}

	switch q.Type {
	case torznab.QueryTypeTV:
		if q.Season > 0 {
			params.Set("season", strconv.Itoa(q.Season))
		}
		if q.Episode > 0 {
			params.Set("ep", strconv.Itoa(q.Episode))
		}
		if q.TvdbID > 0 {
			params.Set("tvdbid", strconv.Itoa(q.TvdbID))
		}
		if q.TvMazeID > 0 {
			params.Set("tvmazeid", strconv.Itoa(q.TvMazeID))
		}
	case torznab.QueryTypeMovie:
		if q.TmdbID > 0 {
			params.Set("tmdbid", strconv.Itoa(q.TmdbID))
		}
		if q.TraktID > 0 {
			params.Set("traktid", strconv.Itoa(q.TraktID))
		}
		if q.Year > 0 {
			params.Set("year", strconv.Itoa(q.Year))
		}
	case torznab.QueryTypeMusic:
		if q.Album != "" {
			params.Set("album", q.Album)
		}
		if q.Artist != "" {
			params.Set("artist", q.Artist)
		}
		if q.Label != "" {
			params.Set("label", q.Label)
		}
		if q.Track != "" {
			params.Set("track", q.Track)
		}
	case torznab.QueryTypeBook:
		if q.Title != "" {
			params.Set("title", q.Title)
		}
		if q.Author != "" {
			params.Set("author", q.Author)
		}
		if q.Publisher != "" {
			params.Set("publisher", q.Publisher)
		}
	}

	if q.ImdbID != "" {
		params.Set("imdbid", q.ImdbID)
	}
	if q.Genre != "" {
		params.Set("genre", q.Genre)
	}
	return params
}

// apiURL builds the API endpoint URL with the API key applied.
func (n *Indexer) apiURL(params url.Values) (string, error) {
	base, err := url.Parse(strings.TrimSuffix(n.cfg.BaseURL, "/") + "/api")
	if err != nil {
		return "", indexer.NewConfigError(n.cfg.ID, n.cfg.Name, "invalid base URL")
	}
	if key := n.apiKey(); key != "" {
		params.Set("apikey", key)
	}
	base.RawQuery = params.Encode()
	return base.String(), nil
}

func (n *Indexer) apiKey() string {
	if key, ok := n.cfg.Credentials["apikey"]; ok {
		return key
	}
	return n.cfg.Settings["apikey"]
}

func (n *Indexer) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, indexer.NewNetworkError(n.cfg.ID, n.cfg.Name, err)
	}
	req.Header.Set("Accept", "application/rss+xml, application/xml")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, indexer.NewNetworkError(n.cfg.ID, n.cfg.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, indexer.NewAuthError(n.cfg.ID, n.cfg.Name, fmt.Errorf("upstream returned %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, indexer.NewNetworkError(n.cfg.ID, n.cfg.Name, fmt.Errorf("upstream returned %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, indexer.NewNetworkError(n.cfg.ID, n.cfg.Name, err)
	}
	return body, nil
}
