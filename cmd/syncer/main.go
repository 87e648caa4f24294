package main

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

	"github.com/rickgao/dao-risk/internal/api"
	"github.com/rickgao/dao-risk/internal/config"
	"github.com/rickgao/dao-risk/internal/database"
	"github.com/rickgao/dao-risk/internal/metrics"
	"github.com/rickgao/dao-risk/internal/store"
	"github.com/rickgao/dao-risk/internal/syncer"
	"github.com/rickgao/dao-risk/internal/treasury"
	"github.com/rickgao/dao-risk/internal/version"
)

const appName = "dao-risk-syncer"

var (
	configPath string
	forceReset bool
	logLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "syncer",
		Short: "Replicates a governance space into Postgres",
		Long: `Syncer keeps the proposals and votes of one governance space in sync
with Postgres, and serves cached treasury valuations for risk metrics.
Run one instance per space.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/syncer.local.yaml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the sync loop and the health/metrics server",
		RunE:  runSyncer,
	}
	runCmd.Flags().BoolVar(&forceReset, "force-reset", false, "reset both stream cursors before the first cycle")

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset both stream cursors and exit",
		RunE:  runReset,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.String())
		},
	}

	rootCmd.AddCommand(runCmd, resetCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

func runSyncer(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	logger.Info("starting syncer",
		"version", version.Version,
		"commit", version.Commit,
		"config", configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger = logger.With("instance_id", cfg.Instance.ID, "space", cfg.Instance.Space)

	logger.Info("configuration loaded",
		"hub_url", cfg.API.HubURL,
		"poll_interval", cfg.Sync.PollInterval,
	)

	// Cancel on shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Postgres.Host,
		"port", cfg.Database.Postgres.Port,
		"database", cfg.Database.Postgres.Name,
	)
	pool, err := database.Connect(ctx, cfg.Database.Postgres, appName)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("database connected")

	m := metrics.New("daorisk")

	// Governance hub
	hubClient := api.NewClient("hub", cfg.API.HubURL,
		api.WithAPIKey(cfg.API.APIKey),
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, time.Second),
	)
	hub := api.NewHubSource(hubClient, cfg.Instance.Space, cfg.Sync.PageSize)

	engine := syncer.New(
		syncer.Config{
			PollInterval:   cfg.Sync.PollInterval,
			FetchTimeout:   cfg.Sync.FetchTimeout,
			PersistTimeout: cfg.Sync.PersistTimeout,
		},
		hub, hub,
		store.NewPostgres(pool, cfg.Instance.Space, logger),
		logger,
		syncer.WithMetrics(m),
	)

	// Treasury valuations are optional
	var treasurySvc *treasury.Service
	if cfg.Treasury.DAO != "" {
		treasuryClient := api.NewClient("treasury", cfg.API.TreasuryURL,
			api.WithLogger(logger),
			api.WithTimeout(cfg.API.Timeout),
			api.WithRetries(cfg.API.MaxRetries, time.Second),
		)
		provider := treasury.NewBreaker(
			api.NewTreasuryProvider(treasuryClient, cfg.Treasury.DAO),
			treasury.BreakerConfig{
				Name:        "treasury",
				MaxRequests: cfg.Treasury.BreakerMaxRequests,
				Interval:    cfg.Treasury.BreakerInterval,
				Timeout:     cfg.Treasury.BreakerTimeout,
				Failures:    cfg.Treasury.BreakerFailures,
			},
			logger,
		)
		treasurySvc = treasury.New(treasury.Config{
			Name:     "treasury",
			TTL:      cfg.Cache.TTL,
			Lookback: cfg.Treasury.Lookback,
			Window:   cfg.Treasury.Window,

			FetchTimeout: cfg.Sync.FetchTimeout,
		}, provider, logger, treasury.WithMetrics(m))
	}

	// Health server
	healthServer := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: newRouter(routerDeps{
			db:          pool,
			engine:      engine,
			treasury:    treasurySvc,
			metrics:     m,
			metricsPath: cfg.Metrics.Path,
			logger:      logger,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("starting health server", "port", cfg.Metrics.Port)
		if err := healthServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server error", "error", err)
		}
	}()

	// Sync engine
	if err := engine.Start(ctx, forceReset); err != nil {
		return fmt.Errorf("start sync engine: %w", err)
	}

	logger.Info("syncer running",
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Metrics.Port),
	)

	// Wait for shutdown or a halted engine
	select {
	case <-ctx.Done():
		logger.Info("shutting down...")
	case <-engine.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := engine.Stop(shutdownCtx); err != nil {
		logger.Warn("sync engine did not stop cleanly", "error", err)
	}
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("health server shutdown", "error", err)
	}

	if err := engine.Err(); err != nil {
		return fmt.Errorf("sync engine halted: %w", err)
	}

	logger.Info("syncer stopped")
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := config.LoadAndValidate(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.Database.Postgres, appName)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	engine := syncer.New(syncer.Config{}, nil, nil,
		store.NewPostgres(pool, cfg.Instance.Space, logger), logger)
	if err := engine.Reset(ctx); err != nil {
		return err
	}

	logger.Info("cursors reset", "space", cfg.Instance.Space)
	return nil
}
