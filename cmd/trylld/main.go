// Trylld is a dataset-builder daemon speaking MCP over stdio.
//
// In local mode it owns a directory of project documents and serves the
// full tool surface against them. With --remote it forwards every tool
// call to another trylld's REST API instead. --http additionally exposes
// the REST surface so other instances (or tryllctl) can connect.
//
// Configuration is loaded from an optional YAML file overridden by
// TRYLL_-prefixed environment variables.
//
// Usage:
//
//	# Serve the local store over MCP stdio
//	trylld
//
//	# Also expose the REST API
//	trylld --http
//
//	# Proxy all tool calls to a remote instance
//	trylld --remote http://build-host:8765
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Skizziik/tryll-dataset-builder/internal/config"
	"github.com/Skizziik/tryll-dataset-builder/internal/history"
	"github.com/Skizziik/tryll-dataset-builder/internal/httpapi"
	"github.com/Skizziik/tryll-dataset-builder/internal/logging"
	"github.com/Skizziik/tryll-dataset-builder/internal/mcp"
	"github.com/Skizziik/tryll-dataset-builder/internal/monitor"
	"github.com/Skizziik/tryll-dataset-builder/internal/remote"
	"github.com/Skizziik/tryll-dataset-builder/internal/storage"
	"github.com/Skizziik/tryll-dataset-builder/internal/store"
	"github.com/Skizziik/tryll-dataset-builder/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var (
	configPath = flag.String("config", "", "path to YAML config file")
	httpFlag   = flag.Bool("http", false, "expose the REST API alongside MCP stdio")
	remoteURL  = flag.String("remote", "", "forward all tool calls to this server URL")
)

func main() {
	flag.Parse()

	if args := flag.Args(); len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  trylld             Start the daemon on MCP stdio\n")
			fmt.Fprintf(os.Stderr, "  trylld version     Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "trylld: %v\n", err)
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("trylld\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run wires the daemon and blocks until ctx is cancelled. MCP stdio is
// the primary transport; the REST server and data-directory watcher run
// alongside it when enabled.
func run(ctx context.Context) error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if *remoteURL != "" {
		cfg.Remote.URL = *remoteURL
	}
	if *httpFlag {
		cfg.Server.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	tel, err := telemetry.Setup(ctx, &telemetry.Config{
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: cfg.Telemetry.ServiceName,
	}, logger)
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	api, backend, err := buildAPI(cfg, logger)
	if err != nil {
		return err
	}

	var watcher *monitor.Watcher
	if backend != nil && cfg.Store.Watch {
		watcher, err = monitor.NewWatcher(backend.Dir(), backend.RecentlyWrote, logger)
		if err != nil {
			logger.Warn("data directory watcher unavailable", zap.Error(err))
		} else {
			go watcher.Run(ctx)
			defer watcher.Close() //nolint:errcheck
		}
	}

	var rest *httpapi.Server
	if cfg.Server.Enabled {
		restCfg := httpapi.DefaultConfig()
		restCfg.Host = cfg.Server.Host
		restCfg.Port = cfg.Server.Port
		rest, err = httpapi.NewServer(restCfg, api, logger)
		if err != nil {
			return fmt.Errorf("initialize REST server: %w", err)
		}
		go func() {
			if err := rest.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("REST server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := rest.Shutdown(shutdownCtx); err != nil {
				logger.Warn("REST server shutdown failed", zap.Error(err))
			}
		}()
	}

	srv, err := mcp.NewServer(&mcp.Config{
		Name:    "tryll-dataset-builder",
		Version: version,
		Logger:  logger,
	}, api)
	if err != nil {
		return fmt.Errorf("initialize MCP server: %w", err)
	}

	logger.Info("trylld starting",
		zap.String("version", version),
		zap.Bool("http", cfg.Server.Enabled),
		zap.Bool("remote", cfg.Remote.URL != ""))

	return srv.Run(ctx)
}

// buildAPI selects the operating mode: a remote proxy when a server URL
// is configured, the local file-backed store otherwise. The backend is
// nil in remote mode.
func buildAPI(cfg *config.Config, logger *zap.Logger) (store.API, *storage.FSBackend, error) {
	if cfg.Remote.URL != "" {
		client, err := remote.NewClient(remote.Config{
			BaseURL: cfg.Remote.URL,
			Logger:  logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("initialize remote client: %w", err)
		}
		logger.Info("running in remote mode", zap.String("server", cfg.Remote.URL))
		return client, nil, nil
	}

	backend, err := storage.NewFSBackend(cfg.Store.DataDir, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize storage: %w", err)
	}
	ledger, err := history.NewLedger(backend, cfg.Store.HistoryLimit, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize history: %w", err)
	}
	svc, err := store.NewService(&store.Config{
		DefaultLicense: cfg.Store.DefaultLicense,
		ImportCategory: cfg.Store.ImportCategory,
	}, backend, ledger, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize store: %w", err)
	}
	logger.Info("running in local mode", zap.String("data_dir", cfg.Store.DataDir))
	return svc, backend, nil
}
