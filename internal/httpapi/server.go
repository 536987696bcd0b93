// Package httpapi exposes the document store over REST. It is the wire
// contract the remote-proxy mode speaks: every store operation, with
// failures mapped to {code, error} bodies carrying the store's stable
// error codes.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Skizziik/tryll-dataset-builder/internal/store"
)

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// RateLimit is requests per second per client IP. Zero disables the
	// limiter.
	RateLimit float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:      "localhost",
		Port:      8765,
		RateLimit: 50,
	}
}

// Server serves the dataset REST API.
type Server struct {
	echo   *echo.Echo
	api    store.API
	logger *zap.Logger
	config *Config
}

// NewServer creates the REST server over the given store API.
func NewServer(cfg *Config, api store.API, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if api == nil {
		return nil, errors.New("store api is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiter(
			middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimit))))
	}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})

	s := &Server{
		echo:   e,
		api:    api,
		logger: logger,
		config: cfg,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")

	v1.GET("/projects", s.handleListProjects)
	v1.POST("/projects", s.handleCreateProject)
	v1.GET("/projects/:project", s.handleGetProject)
	v1.DELETE("/projects/:project", s.handleDeleteProject)
	v1.GET("/projects/:project/stats", s.handleGetStats)
	v1.GET("/projects/:project/export", s.handleExportProject)
	v1.POST("/projects/:project/import", s.handleImport)
	v1.POST("/projects/:project/merge-into/:target", s.handleMerge)

	v1.POST("/projects/:project/categories", s.handleCreateCategory)
	v1.PUT("/projects/:project/categories/:category", s.handleRenameCategory)
	v1.DELETE("/projects/:project/categories/:category", s.handleDeleteCategory)
	v1.GET("/projects/:project/categories/:category/export", s.handleExportCategory)

	v1.POST("/projects/:project/chunks", s.handleAddChunk)
	v1.POST("/projects/:project/chunks/bulk", s.handleBulkAddChunks)
	v1.GET("/projects/:project/chunks/:id", s.handleGetChunk)
	v1.PATCH("/projects/:project/chunks/:id", s.handleUpdateChunk)
	v1.DELETE("/projects/:project/chunks/:id", s.handleDeleteChunk)
	v1.POST("/projects/:project/chunks/:id/duplicate", s.handleDuplicateChunk)
	v1.POST("/projects/:project/chunks/:id/move", s.handleMoveChunk)
	v1.GET("/projects/:project/search", s.handleSearch)
	v1.POST("/projects/:project/metadata", s.handleBulkUpdateMetadata)

	v1.GET("/projects/:project/history", s.handleHistory)
	v1.GET("/projects/:project/history/:commit", s.handleGetCommit)
	v1.POST("/projects/:project/history/:commit/rollback", s.handleRollback)
}

// Start runs the server until Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the echo engine for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
