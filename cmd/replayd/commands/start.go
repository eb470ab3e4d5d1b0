package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/replayd/replayd/internal/logger"
	"github.com/replayd/replayd/internal/telemetry"
	"github.com/replayd/replayd/pkg/api"
	"github.com/replayd/replayd/pkg/config"
	"github.com/replayd/replayd/pkg/forward"
	"github.com/replayd/replayd/pkg/matcher"
	"github.com/replayd/replayd/pkg/metrics"
	"github.com/replayd/replayd/pkg/session"
)

var (
	portOverride int
	threadsHint  int
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the replayd proxy",
	Long: `Start the proxy with the given configuration. Without --config, the
default location is tried and missing files fall back to built-in defaults
(in-memory storage, record mode, 127.0.0.1:8080).

Examples:
  # Start with defaults
  replayd start

  # Start with a config file and a port override
  replayd start --config /etc/replayd/config.yaml --port 9090

  # Environment variable override of a key the config file sets
  REPLAYD_LOGGING_LEVEL=DEBUG replayd start`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().IntVarP(&portOverride, "port", "p", 0, "Override server.port")
	startCmd.Flags().IntVarP(&threadsHint, "threads", "t", 0, "Worker threads hint (advisory, sets GOMAXPROCS)")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if portOverride > 0 {
		cfg.Server.Port = portOverride
	}
	if threadsHint > 0 {
		runtime.GOMAXPROCS(threadsHint)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "replayd",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.IsInsecure(),
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown error", logger.KeyError, err)
		}
	}()

	logger.Info("configuration loaded", "source", configSource())
	if telemetry.IsEnabled() {
		logger.Info("telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}

	// Interaction store
	interactionStore, storeType, err := config.CreateStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := interactionStore.Close(); err != nil {
			logger.Error("store close error", logger.KeyError, err)
		}
	}()
	logger.Info("storage initialized", logger.KeyStoreType, storeType, logger.KeyStorePath, cfg.Storage.Path)

	// Metrics (optional)
	var proxyMetrics *metrics.Metrics
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		proxyMetrics = metrics.New(prometheus.DefaultRegisterer)
		metricsServer = metrics.NewServer(cfg.Metrics.Port, prometheus.DefaultGatherer)
		logger.Info("metrics enabled", "port", cfg.Metrics.Port)
	} else {
		logger.Info("metrics collection disabled")
	}

	defaultMode, err := session.ParseMode(cfg.Proxy.DefaultMode)
	if err != nil {
		return err
	}

	manager := session.NewManager(session.ManagerOptions{
		Store:          interactionStore,
		StoreType:      storeType,
		Forwarder:      forward.New(forward.Options{MaxBodySize: cfg.Proxy.MaxBodySize.Int64(), ForwardHost: cfg.Proxy.ForwardHost()}),
		BodyComparator: matcher.JSONSubset{},
		Metrics:        proxyMetrics,
		DefaultTarget:  cfg.Proxy.DefaultTarget,
		DefaultMode:    defaultMode,
		AutoGenerate:   cfg.AutoGenerateSessions,
	})

	router := api.NewRouter(manager, cfg.Proxy.MaxBodySize.Int64(), Version)
	server := api.NewServer(cfg.Server, router)

	// Hot-reload the logging section on config file edits.
	if path := GetConfigFile(); path != "" {
		if err := config.WatchLogging(ctx, path); err != nil {
			logger.Warn("config watcher unavailable", logger.KeyError, err)
		}
	}

	// Start servers in the background.
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Start(ctx)
	}()

	metricsDone := make(chan error, 1)
	if metricsServer != nil {
		go func() {
			metricsDone <- metricsServer.Start(ctx)
		}()
	}

	logger.Info("replayd is running", "addr", server.Addr(), logger.KeyMode, cfg.Proxy.DefaultMode)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, initiating graceful shutdown")
		cancel()

		if err := <-serverDone; err != nil {
			return err
		}
		if metricsServer != nil {
			if err := <-metricsDone; err != nil {
				logger.Error("metrics server shutdown error", logger.KeyError, err)
			}
		}
		logger.Info("replayd stopped gracefully")
		return nil

	case err := <-serverDone:
		signal.Stop(sigChan)
		cancel()
		if err != nil {
			return err
		}
		return nil
	}
}

// configSource describes where the configuration was loaded from.
func configSource() string {
	if cfgFile != "" {
		return cfgFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}
