package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/spindrift-media/spindrift/internal/crypto"
	"github.com/spindrift-media/spindrift/internal/indexer"
	"github.com/spindrift-media/spindrift/internal/indexer/definition"
	"github.com/spindrift-media/spindrift/internal/indexer/store"
)

// indexerInput is the request body for creating or updating an indexer.
// Credentials arrive in plaintext and are encrypted before they hit the
// store; on update an empty credentials map keeps the stored values.
type indexerInput struct {
	Type         string            `json:"type"`
	DefinitionID string            `json:"definitionId"`
	Name         string            `json:"name"`
	Enabled      bool              `json:"enabled"`
	BaseURL      string            `json:"baseUrl"`
	Priority     int               `json:"priority"`
	Settings     map[string]string `json:"settings"`
	Credentials  map[string]string `json:"credentials"`
}

func (in *indexerInput) validate() error {
	switch in.Type {
	case indexer.TypeNewznab, indexer.TypeCardigann:
	default:
		return fmt.Errorf("unsupported indexer type: %s", in.Type)
	}
	if in.Name == "" {
		return errors.New("name is required")
	}
	if in.Type == indexer.TypeCardigann && in.DefinitionID == "" {
		return errors.New("definitionId is required for definition-backed indexers")
	}
	return nil
}

// GET /api/v1/indexers
func (s *Server) listIndexers(c echo.Context) error {
	configs, err := s.store.ListByUser(c.Request().Context(), s.userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, configs)
}

// GET /api/v1/indexers/:id
func (s *Server) getIndexer(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid indexer id")
	}

	cfg, err := s.store.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "indexer not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, cfg)
}

// POST /api/v1/indexers
func (s *Server) createIndexer(c echo.Context) error {
	var input indexerInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := input.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	cfg := indexer.Config{
		ID:           uuid.New(),
		UserID:       s.userID,
		Type:         input.Type,
		DefinitionID: input.DefinitionID,
		Name:         input.Name,
		Enabled:      input.Enabled,
		BaseURL:      input.BaseURL,
		Priority:     input.Priority,
		Settings:     input.Settings,
	}

	encrypted, err := s.encryptCredentials(ctx, input.Credentials)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	cfg.Credentials = encrypted

	if err := s.store.Create(ctx, cfg); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if cfg.Enabled {
		if _, err := s.manager.EnsureLoaded(ctx, cfg.ID); err != nil {
			s.logger.Warn().Err(err).Str("name", cfg.Name).Msg("Created indexer failed to load")
		}
	}
	return c.JSON(http.StatusCreated, cfg)
}

// PUT /api/v1/indexers/:id
func (s *Server) updateIndexer(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid indexer id")
	}

	var input indexerInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := input.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "indexer not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	cfg := indexer.Config{
		ID:           id,
		UserID:       existing.UserID,
		Type:         input.Type,
		DefinitionID: input.DefinitionID,
		Name:         input.Name,
		Enabled:      input.Enabled,
		BaseURL:      input.BaseURL,
		Priority:     input.Priority,
		Settings:     input.Settings,
		Credentials:  existing.Credentials,
	}

	if len(input.Credentials) > 0 {
		encrypted, err := s.encryptCredentials(ctx, input.Credentials)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		cfg.Credentials = encrypted
	}

	if err := s.store.Update(ctx, cfg); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "indexer not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	s.manager.UnloadIndexer(id)
	if cfg.Enabled {
		if _, err := s.manager.EnsureLoaded(ctx, id); err != nil {
			s.logger.Warn().Err(err).Str("name", cfg.Name).Msg("Updated indexer failed to load")
		}
	}
	return c.JSON(http.StatusOK, cfg)
}

// DELETE /api/v1/indexers/:id
func (s *Server) deleteIndexer(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid indexer id")
	}

	s.manager.UnloadIndexer(id)
	if err := s.store.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "indexer not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// POST /api/v1/indexers/:id/enable
func (s *Server) setIndexerEnabled(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid indexer id")
	}

	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if err := s.store.SetEnabled(ctx, id, body.Enabled); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "indexer not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if body.Enabled {
		if _, err := s.manager.EnsureLoaded(ctx, id); err != nil {
			s.logger.Warn().Err(err).Str("indexerId", id.String()).Msg("Enabled indexer failed to load")
		}
	} else {
		s.manager.UnloadIndexer(id)
	}
	return c.JSON(http.StatusOK, map[string]bool{"enabled": body.Enabled})
}

// POST /api/v1/indexers/:id/test
func (s *Server) testIndexer(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid indexer id")
	}

	ctx := c.Request().Context()
	if _, err := s.manager.EnsureLoaded(ctx, id); err != nil {
		return c.JSON(http.StatusOK, map[string]any{"success": false, "error": err.Error()})
	}
	if err := s.manager.TestIndexer(ctx, id); err != nil {
		return c.JSON(http.StatusOK, map[string]any{"success": false, "error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// GET /api/v1/indexers/:id/status
func (s *Server) getIndexerStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid indexer id")
	}

	status, err := s.store.GetStatus(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status": status,
		"limits": s.manager.RateLimits(id),
	})
}

// definitionSummary is the list form of a definition, without the login
// and search blocks.
type definitionSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Language    string   `json:"language"`
	SiteLink    string   `json:"siteLink"`
	Settings    []string `json:"requiredSettings"`
}

func summarize(def *definition.Definition) definitionSummary {
	required := def.RequiredSettings()
	names := make([]string, 0, len(required))
	for _, setting := range required {
		names = append(names, setting.Name)
	}
	return definitionSummary{
		ID:          def.ID,
		Name:        def.Name,
		Description: def.Description,
		Type:        def.Type,
		Language:    def.Language,
		SiteLink:    def.SiteLink(),
		Settings:    names,
	}
}

// GET /api/v1/definitions
func (s *Server) listDefinitions(c echo.Context) error {
	defs := s.defs.List()
	summaries := make([]definitionSummary, 0, len(defs))
	for _, def := range defs {
		summaries = append(summaries, summarize(def))
	}
	return c.JSON(http.StatusOK, summaries)
}

// GET /api/v1/definitions/:id
func (s *Server) getDefinition(c echo.Context) error {
	def, ok := s.defs.Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "definition not found")
	}
	return c.JSON(http.StatusOK, def)
}

// encryptCredentials encrypts plaintext credential values with the
// user's key before storage.
func (s *Server) encryptCredentials(ctx context.Context, plain map[string]string) (map[string]string, error) {
	if len(plain) == 0 {
		return nil, nil
	}

	key, err := s.store.EncryptionKey(ctx, s.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load encryption key: %w", err)
	}
	secrets, err := crypto.NewFromBase64Key(key)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}

	encrypted := make(map[string]string, len(plain))
	for name, value := range plain {
		ciphertext, err := secrets.Encrypt(value)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt credential %s: %w", name, err)
		}
		encrypted[name] = ciphertext
	}
	return encrypted, nil
}
