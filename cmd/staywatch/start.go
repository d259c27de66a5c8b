package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/staywatch/internal/metrics"
	"github.com/amishk599/staywatch/internal/scheduler"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the monitoring daemon",
	Long:  "Start the scheduler daemon; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	logger.Info("config loaded",
		"interval", cfg.PollingInterval.String(),
		"sites", len(cfg.EnabledSites()),
		"max_concurrent_sites", cfg.MaxConcurrentSites,
		"store", cfg.Store.Type,
		"notification", cfg.Notification.Type,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{Timeout: 30 * time.Second}
	n, closeNotifier, err := setupNotifier(ctx, cfg, httpClient, logger)
	if err != nil {
		logger.Error("failed to set up notifier", "error", err)
		return err
	}
	defer closeNotifier()

	storeFor, closeStore, err := setupStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		return err
	}
	defer closeStore()

	renderer, err := setupRenderer(cfg, logger)
	if err != nil {
		logger.Error("failed to start browser", "error", err)
		return err
	}
	defer renderer.Close()

	m := metrics.New()
	go func() {
		if err := m.Serve(ctx, cfg.Metrics.Addr, logger); err != nil {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	pollers := buildPollers(cfg, pollerDeps{
		renderer: renderer,
		storeFor: storeFor,
		notifier: n,
		cooldown: setupCooldown(cfg, logger),
		metrics:  m,
		seed:     cfg.SeedOnFirstRun,
	}, logger)
	if len(pollers) == 0 {
		logger.Error("no sites to poll")
		return errNoSites
	}

	sched := scheduler.NewScheduler(pollers, cfg.PollingInterval, cfg.MaxConcurrentSites, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		return err
	}

	logger.Info("goodbye")
	return nil
}
