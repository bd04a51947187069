package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.health)
	s.echo.GET("/ws", s.hub.HandleWS)

	// Torznab endpoint, one per configured indexer. Downstream apps
	// expect both the bare path and the /api suffix.
	s.echo.GET("/torznab/:id", s.handleTorznab)
	s.echo.GET("/torznab/:id/api", s.handleTorznab)

	v1 := s.echo.Group("/api/v1")

	indexers := v1.Group("/indexers")
	indexers.GET("", s.listIndexers)
	indexers.POST("", s.createIndexer)
	indexers.GET("/:id", s.getIndexer)
	indexers.PUT("/:id", s.updateIndexer)
	indexers.DELETE("/:id", s.deleteIndexer)
	indexers.POST("/:id/enable", s.setIndexerEnabled)
	indexers.POST("/:id/test", s.testIndexer)
	indexers.GET("/:id/status", s.getIndexerStatus)
	indexers.POST("/:id/grab", s.grabRelease)

	definitions := v1.Group("/definitions")
	definitions.GET("", s.listDefinitions)
	definitions.GET("/:id", s.getDefinition)

	v1.GET("/search", s.search)

	tasks := v1.Group("/tasks")
	tasks.GET("", s.listTasks)
	tasks.POST("/:id/run", s.runTask)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"loaded":  len(s.manager.LoadedIDs()),
		"clients": s.hub.ClientCount(),
	})
}

func (s *Server) listTasks(c echo.Context) error {
	if s.sched == nil {
		return c.JSON(http.StatusOK, []any{})
	}
	return c.JSON(http.StatusOK, s.sched.ListTasks())
}

func (s *Server) runTask(c echo.Context) error {
	if s.sched == nil {
		return echo.NewHTTPError(http.StatusNotFound, "scheduler not running")
	}
	if err := s.sched.RunNow(c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "started"})
}
