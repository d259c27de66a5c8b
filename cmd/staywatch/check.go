package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/staywatch/internal/model"
	"github.com/amishk599/staywatch/internal/notifier"
	"github.com/amishk599/staywatch/internal/scheduler"
	"github.com/amishk599/staywatch/internal/store"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Render every query once, log matches, exit",
	Long:  "One-shot pass: renders every configured query, logs listings that pass the rules, exits. Nothing is sent and the seen store is not touched.",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	logger.Info("check mode: no listings will be marked as seen")

	renderer, err := setupRenderer(cfg, logger)
	if err != nil {
		logger.Error("failed to start browser", "error", err)
		return err
	}
	defer renderer.Close()

	nopStore := store.NewNopStore()
	pollers := buildPollers(cfg, pollerDeps{
		renderer: renderer,
		storeFor: func(string) model.SeenStore { return nopStore },
		notifier: notifier.NewLogNotifier(logger),
	}, logger)
	if len(pollers) == 0 {
		logger.Error("no sites to poll")
		return errNoSites
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler.NewScheduler(pollers, cfg.PollingInterval, cfg.MaxConcurrentSites, logger).RunOnce(ctx)

	logger.Info("check complete")
	return nil
}
