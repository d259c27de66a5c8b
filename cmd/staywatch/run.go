package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/staywatch/internal/scheduler"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one pass over every site and exit",
	Long:  "Runs a single pass with the configured store and notifier, prints a summary per site, then exits.",
	RunE:  runOnce,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

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

	pollers := buildPollers(cfg, pollerDeps{
		renderer: renderer,
		storeFor: storeFor,
		notifier: n,
		seed:     cfg.SeedOnFirstRun,
	}, logger)
	if len(pollers) == 0 {
		logger.Error("no sites to poll")
		return errNoSites
	}

	sched := scheduler.NewScheduler(pollers, cfg.PollingInterval, cfg.MaxConcurrentSites, logger)
	sums := sched.RunOnce(ctx)

	fmt.Printf("\n%-10s %8s %8s %10s %8s %9s %7s\n", "Site", "Queries", "Errors", "Extracted", "Matched", "Notified", "Failed")
	for _, s := range sums {
		fmt.Printf("%-10s %8d %8d %10d %8d %9d %7d\n", s.Site, s.Queries, s.QueryErrors, s.Extracted, s.Matched, s.Notified, s.Failed)
	}
	return nil
}
