// Package mcp exposes the document store as MCP tools over the stdio
// transport, using the MCP SDK (github.com/modelcontextprotocol/go-sdk).
//
// The tool surface is mode-agnostic: it is built over store.API, so the
// same tools run against the local file-backed store or the remote
// proxy.
package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/Skizziik/tryll-dataset-builder/internal/store"
)

// Server serves the dataset tools over MCP stdio.
type Server struct {
	mcp     *mcp.Server
	api     store.API
	metrics *Metrics
	logger  *zap.Logger
}

// Config configures the MCP server.
type Config struct {
	// Name is the server implementation name.
	Name string

	// Version is the server version string.
	Version string

	// Logger for structured logging.
	Logger *zap.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:    "tryll-dataset-builder",
		Version: "1.0.0",
		Logger:  zap.NewNop(),
	}
}

// NewServer creates an MCP server over the given store API.
func NewServer(cfg *Config, api store.API) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if api == nil {
		return nil, errors.New("store api is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		},
		nil,
	)

	s := &Server{
		mcp:     mcpServer,
		api:     api,
		metrics: NewMetrics(cfg.Logger),
		logger:  cfg.Logger,
	}
	s.registerTools()
	return s, nil
}

// registerTools registers the full tool surface.
func (s *Server) registerTools() {
	s.registerProjectTools()
	s.registerCategoryTools()
	s.registerChunkTools()
	s.registerHistoryTools()
}

// Run serves MCP on the stdio transport until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP server on stdio transport")
	transport := &mcp.StdioTransport{}
	if err := s.mcp.Run(ctx, transport); err != nil {
		return fmt.Errorf("server run failed: %w", err)
	}
	return nil
}
