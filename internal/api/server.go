// Package api exposes the HTTP surface: the JSON management API and the
// Torznab endpoint downstream applications consume.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	apimw "github.com/spindrift-media/spindrift/internal/api/middleware"
	"github.com/spindrift-media/spindrift/internal/config"
	"github.com/spindrift-media/spindrift/internal/indexer"
	"github.com/spindrift-media/spindrift/internal/indexer/definition"
	"github.com/spindrift-media/spindrift/internal/indexer/store"
	"github.com/spindrift-media/spindrift/internal/scheduler"
	"github.com/spindrift-media/spindrift/internal/websocket"
)

// Deps carries the services the server routes requests to.
type Deps struct {
	Config    *config.Config
	Store     *store.Store
	Manager   *indexer.Manager
	Factory   indexer.Factory
	Defs      *definition.Repository
	Hub       *websocket.Hub
	Scheduler *scheduler.Scheduler

	// UserID scopes management API operations. Spindrift runs
	// single-user; main resolves or creates the user at startup.
	UserID int64
}

// Server handles HTTP requests.
type Server struct {
	echo    *echo.Echo
	cfg     *config.Config
	logger  zerolog.Logger
	store   *store.Store
	manager *indexer.Manager
	factory indexer.Factory
	defs    *definition.Repository
	hub     *websocket.Hub
	sched   *scheduler.Scheduler
	userID  int64
}

// NewServer creates the API server and wires up middleware and routes.
func NewServer(deps Deps, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		cfg:     deps.Config,
		logger:  logger.With().Str("component", "api").Logger(),
		store:   deps.Store,
		manager: deps.Manager,
		factory: deps.Factory,
		defs:    deps.Defs,
		hub:     deps.Hub,
		sched:   deps.Scheduler,
		userID:  deps.UserID,
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(apimw.SecurityHeaders())
	s.echo.Use(middleware.BodyLimit("2M"))
	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Skipper: func(c echo.Context) bool {
			// WebSocket upgrades must not go through the gzip writer.
			return c.Request().Header.Get("Upgrade") == "websocket"
		},
	}))

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			evt := s.logger.Info()
			if v.Error != nil {
				evt = s.logger.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))
}

// Start begins listening for HTTP requests. Blocks until the server stops.
func (s *Server) Start() error {
	addr := s.cfg.Server.Address()
	s.logger.Info().Str("addr", addr).Msg("Starting HTTP server")

	err := s.echo.Start(addr)
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}
