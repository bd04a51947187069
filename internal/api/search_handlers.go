package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/spindrift-media/spindrift/internal/indexer"
	"github.com/spindrift-media/spindrift/internal/torznab"
)

// searchResponse is the JSON shape of an aggregated search.
type searchResponse struct {
	Releases []torznab.ReleaseInfo `json:"releases"`
	Indexers []indexerOutcome      `json:"indexers"`
}

type indexerOutcome struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Results   int       `json:"results"`
	FromCache bool      `json:"fromCache"`
	ElapsedMs int64     `json:"elapsedMs"`
	Error     string    `json:"error,omitempty"`
}

// GET /api/v1/search
//
// Fans the query out to every loaded indexer that can handle it, or to
// the explicit set in the indexers parameter, and returns merged,
// deduplicated releases newest first.
func (s *Server) search(c echo.Context) error {
	q, err := queryFromParams(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var results []indexer.SearchResult
	if raw := c.QueryParam("indexers"); raw != "" {
		ids, err := parseUUIDList(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		results = s.manager.SearchIndexers(c.Request().Context(), ids, q)
	} else {
		results = s.manager.SearchAll(c.Request().Context(), s.userID, q)
	}

	resp := searchResponse{
		Releases: indexer.MergeResults(results),
		Indexers: make([]indexerOutcome, 0, len(results)),
	}
	if c.QueryParam("freeleech") == "true" {
		resp.Releases = indexer.FilterFreeleech(resp.Releases)
	}

	for _, result := range results {
		outcome := indexerOutcome{
			ID:        result.IndexerID,
			Name:      result.IndexerName,
			Results:   len(result.Releases),
			FromCache: result.FromCache,
			ElapsedMs: result.Elapsed.Milliseconds(),
		}
		if result.Err != nil {
			outcome.Error = result.Err.Error()
		}
		resp.Indexers = append(resp.Indexers, outcome)
	}
	return c.JSON(http.StatusOK, resp)
}

// POST /api/v1/indexers/:id/grab
//
// Downloads the torrent file behind a release link through the
// originating indexer, so private tracker auth is reused.
func (s *Server) grabRelease(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid indexer id")
	}

	var body struct {
		Link string `json:"link"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if body.Link == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "link is required")
	}

	ctx := c.Request().Context()
	if _, err := s.manager.EnsureLoaded(ctx, id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}

	data, err := s.manager.DownloadRelease(ctx, id, body.Link)
	if err != nil {
		if indexer.IsRateLimitError(err) {
			return echo.NewHTTPError(http.StatusTooManyRequests, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.Blob(http.StatusOK, "application/x-bittorrent", data)
}

// queryFromParams builds a canonical query from request parameters.
// Caching defaults on; cache=false forces a live search.
func queryFromParams(c echo.Context) (*torznab.Query, error) {
	t := c.QueryParam("t")
	if t == "" {
		t = "search"
	}
	queryType, ok := torznab.QueryTypeFromParam(t)
	if !ok || queryType == torznab.QueryTypeCaps {
		return nil, errors.New("unknown query type: " + t)
	}

	q := &torznab.Query{
		Type:       queryType,
		SearchTerm: c.QueryParam("q"),
		Cache:      c.QueryParam("cache") != "false",

		ImdbID: strings.TrimPrefix(c.QueryParam("imdbid"), "tt"),
		Genre:  c.QueryParam("genre"),

		Album:  c.QueryParam("album"),
		Artist: c.QueryParam("artist"),
		Label:  c.QueryParam("label"),
		Track:  c.QueryParam("track"),

		Title:     c.QueryParam("title"),
		Author:    c.QueryParam("author"),
		Publisher: c.QueryParam("publisher"),
	}

	cats, err := parseCategoryList(c.QueryParam("cat"))
	if err != nil {
		return nil, err
	}
	q.Categories = cats

	for param, dst := range map[string]*int{
		"limit":    &q.Limit,
		"offset":   &q.Offset,
		"season":   &q.Season,
		"ep":       &q.Episode,
		"tvdbid":   &q.TvdbID,
		"tmdbid":   &q.TmdbID,
		"tvmazeid": &q.TvMazeID,
		"traktid":  &q.TraktID,
		"doubanid": &q.DoubanID,
		"year":     &q.Year,
	} {
		if raw := c.QueryParam(param); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, errors.New("invalid " + param)
			}
			*dst = n
		}
	}
	return q, nil
}

func parseCategoryList(raw string) ([]int, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	cats := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		cat, err := strconv.Atoi(part)
		if err != nil {
			return nil, errors.New("invalid category: " + part)
		}
		cats = append(cats, cat)
	}
	return cats, nil
}

func parseUUIDList(raw string) ([]uuid.UUID, error) {
	parts := strings.Split(raw, ",")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, errors.New("invalid indexer id: " + part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
