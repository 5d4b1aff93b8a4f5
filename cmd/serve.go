package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/regevbr/anydo/internal/instrumentation"
	"github.com/regevbr/anydo/internal/server"
	"github.com/regevbr/anydo/internal/tools/anydo_tools"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

func newServeCmd() *cobra.Command {
	var (
		debugMode      bool
		transport      string
		httpAddr       string
		yolo           bool
		pollInterval   time.Duration
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the calendar daemon and MCP server",
		Long: `Run anydo as a long-lived daemon: every Any.do list plus every
configured custom list becomes a calendar that is refreshed on a fixed
interval. The calendars are exposed three ways:

  - an MCP server over stdio for AI assistants (default transport)
  - an HTTP sidecar with health and calendar JSON endpoints
  - a dedicated Prometheus metrics server

By default the MCP server runs in read-only mode: the task creation tool
is not registered. Use --yolo to enable write operations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			metricsConfig := MetricsConfig{
				Enabled: metricsEnabled,
				Addr:    metricsAddr,
			}
			return runServe(transport, debugMode, httpAddr, yolo, pollInterval, metricsConfig)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport type: stdio (MCP over stdio) or none (daemon only)")
	cmd.Flags().StringVar(&httpAddr, "http-addr", ":8080", "Address for the HTTP sidecar (health and calendar endpoints)")
	cmd.Flags().BoolVar(&yolo, "yolo", false, "Enable write operations (task creation). Default is read-only mode.")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", 0, "Calendar refresh interval (default: from config, 15m)")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(transport string, debugMode bool, httpAddr string, yolo bool, pollInterval time.Duration, metricsConfig MetricsConfig) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// With stdio transport the MCP protocol owns stdout, so all logging
	// goes to stderr.
	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Load metrics config from environment if not set via flags
	if !metricsConfig.Enabled {
		if os.Getenv("METRICS_ENABLED") == "true" {
			metricsConfig.Enabled = true
		}
	}
	if metricsConfig.Addr == "" || metricsConfig.Addr == ":9090" {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			metricsConfig.Addr = addr
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if pollInterval <= 0 {
		pollInterval = cfg.PollInterval
	}

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error during instrumentation shutdown", "error", err)
		}
	}()

	// Start metrics server if enabled
	var metricsServer *server.MetricsServer
	if metricsConfig.Enabled && provider.Enabled() {
		var err error
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    metricsConfig.Addr,
			Enabled:                 true,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		// Use ready channel to confirm metrics server started successfully
		metricsReady := make(chan struct{})
		metricsErr := make(chan error, 1)
		go func() {
			if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && !errors.Is(err, http.ErrServerClosed) {
				metricsErr <- err
			}
			close(metricsErr)
		}()

		// Wait for metrics server to be ready or fail
		select {
		case <-metricsReady:
			logger.Info("Metrics server started", "addr", metricsServer.Addr())
		case err := <-metricsErr:
			return fmt.Errorf("metrics server failed to start: %w", err)
		case <-time.After(5 * time.Second):
			return fmt.Errorf("metrics server startup timed out")
		}
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	adapters, err := buildAdapters(shutdownCtx, client, cfg)
	if err != nil {
		return err
	}

	serverContext, err := server.NewServerContext(shutdownCtx, client, adapters,
		server.WithLogger(logger),
		server.WithMetrics(provider.Metrics()),
	)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		// Shutdown metrics server first
		if metricsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("Error during metrics server shutdown", "error", err)
			}
		}
		if err := serverContext.Shutdown(); err != nil {
			logger.Error("Error during server context shutdown", "error", err)
		}
	}()

	// First update before anything is served, so the calendars are never
	// empty-by-accident. A failed cycle is not fatal; the poll loop and
	// the readiness probe take it from here.
	if err := serverContext.UpdateAll(shutdownCtx); err != nil {
		logger.Error("Initial calendar update failed", "error", err)
	}

	go runPollLoop(shutdownCtx, serverContext, pollInterval, logger)

	// HTTP sidecar: health probes and calendar JSON. Readiness turns stale
	// when updates stop landing for two full intervals.
	healthChecker := server.NewHealthChecker(serverContext, 2*pollInterval)
	calendarHandler := server.NewCalendarHandler(serverContext, provider.Metrics())

	mux := http.NewServeMux()
	healthChecker.RegisterHealthEndpoints(mux)
	calendarHandler.RegisterEndpoints(mux)

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	httpDone := make(chan error, 1)
	go func() {
		defer close(httpDone)
		logger.Info("HTTP sidecar started", "addr", httpAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpDone <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error during HTTP sidecar shutdown", "error", err)
		}
	}()

	// Create MCP server
	mcpSrv := mcpserver.NewMCPServer("anydo", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
	)

	// readOnly is the inverse of yolo
	readOnly := !yolo
	if readOnly {
		logger.Info("Starting server in READ-ONLY mode (use --yolo to enable write operations)")
	} else {
		logger.Info("Starting server with WRITE operations enabled (--yolo flag is set)")
	}

	if err := anydo_tools.RegisterAnydoTools(mcpSrv, serverContext, readOnly); err != nil {
		return fmt.Errorf("failed to register tools: %w", err)
	}

	switch transport {
	case "stdio":
		return runStdioServer(shutdownCtx, mcpSrv, httpDone)
	case "none":
		select {
		case <-shutdownCtx.Done():
			logger.Info("Shutdown signal received")
			return nil
		case err := <-httpDone:
			if err != nil {
				return fmt.Errorf("HTTP sidecar stopped with error: %w", err)
			}
			return nil
		}
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, none)", transport)
	}
}

// runPollLoop refreshes every calendar on a fixed interval until the
// context is cancelled.
func runPollLoop(ctx context.Context, sc *server.ServerContext, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sc.UpdateAll(ctx); err != nil {
				logger.Error("Calendar update failed", "error", err)
			}
		}
	}
}

func runStdioServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, httpDone <-chan error) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-httpDone:
		if err != nil {
			return fmt.Errorf("HTTP sidecar stopped with error: %w", err)
		}
		return nil
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	}
}
