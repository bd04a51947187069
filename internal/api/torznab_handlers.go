package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/spindrift-media/spindrift/internal/indexer"
	"github.com/spindrift-media/spindrift/internal/torznab"
)

// handleTorznab serves the Torznab endpoint for one configured indexer.
// Per the Torznab convention every response, including logical errors,
// is HTTP 200; errors travel as an XML error document with code 201
// (bad request) or 900 (internal/indexer failure).
func (s *Server) handleTorznab(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return s.torznabError(c, torznab.ErrCodeBadRequest, "Invalid indexer ID")
	}

	ctx := c.Request().Context()
	cfg, err := s.store.Get(ctx, id)
	if err != nil {
		return s.torznabError(c, torznab.ErrCodeServer, err.Error())
	}
	switch cfg.Type {
	case indexer.TypeNewznab, indexer.TypeCardigann:
	default:
		return s.torznabError(c, torznab.ErrCodeBadRequest, "Unsupported indexer type: "+cfg.Type)
	}

	t := c.QueryParam("t")
	queryType, ok := torznab.QueryTypeFromParam(t)
	if !ok {
		return s.torznabError(c, torznab.ErrCodeBadRequest, "Unknown query type: "+t)
	}

	if queryType == torznab.QueryTypeCaps {
		return s.torznabCaps(c, cfg)
	}
	return s.torznabSearch(c, cfg, queryType)
}

// torznabCaps builds the backend and serializes its capabilities.
// Capabilities do not need credentials, so the backend is constructed
// straight from the stored config rather than loaded into the manager.
func (s *Server) torznabCaps(c echo.Context, cfg *indexer.Config) error {
	backend, err := s.factory.Build(*cfg)
	if err != nil {
		return s.torznabError(c, torznab.ErrCodeServer, err.Error())
	}

	data, err := torznab.EncodeCaps(backend.Name(), backend.Capabilities())
	if err != nil {
		return s.torznabError(c, torznab.ErrCodeServer, err.Error())
	}
	return c.Blob(http.StatusOK, torznab.ContentTypeXML, data)
}

// torznabSearch runs a cached search through the manager and encodes
// the releases as a Torznab RSS feed.
func (s *Server) torznabSearch(c echo.Context, cfg *indexer.Config, queryType torznab.QueryType) error {
	q, err := queryFromParams(c)
	if err != nil {
		return s.torznabError(c, torznab.ErrCodeBadRequest, err.Error())
	}
	q.Type = queryType
	q.Cache = true

	ctx := c.Request().Context()
	if _, err := s.manager.EnsureLoaded(ctx, cfg.ID); err != nil {
		return s.torznabError(c, torznab.ErrCodeServer, err.Error())
	}

	result := s.manager.SearchSingle(ctx, cfg.ID, q)
	if result.Err != nil {
		return s.torznabError(c, torznab.ErrCodeServer, result.Err.Error())
	}

	data, err := torznab.EncodeResults(cfg.Name, s.torznabLink(c, cfg.ID), result.Releases)
	if err != nil {
		return s.torznabError(c, torznab.ErrCodeServer, err.Error())
	}
	return c.Blob(http.StatusOK, torznab.ContentTypeRSS, data)
}

// torznabLink reconstructs the feed's own URL for the channel link
// element.
func (s *Server) torznabLink(c echo.Context, id uuid.UUID) string {
	scheme := c.Scheme()
	if scheme == "" {
		scheme = "http"
	}
	return scheme + "://" + c.Request().Host + "/torznab/" + id.String()
}

func (s *Server) torznabError(c echo.Context, code int, description string) error {
	data, err := torznab.EncodeError(code, description)
	if err != nil {
		return c.NoContent(http.StatusInternalServerError)
	}
	return c.Blob(http.StatusOK, torznab.ContentTypeXML, data)
}
