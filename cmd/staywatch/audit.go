package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/amishk599/staywatch/internal/adapter"
	"github.com/amishk599/staywatch/internal/audit"
	"github.com/amishk599/staywatch/internal/config"
	"github.com/amishk599/staywatch/internal/diag"
	"github.com/amishk599/staywatch/internal/model"
	"github.com/amishk599/staywatch/internal/render"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Browse extracted listings against the rules (TUI)",
	Long:  "Shows the search picker TUI, renders the chosen page, then launches the split-pane audit view.",
	RunE:  runAuditCmd,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}

func runAuditCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	// Audit mode runs a TUI and any log output once the alt-screen starts
	// corrupts the display.
	silentLogger := slog.New(slog.NewTextHandler(io.Discard, nil))

	renderer, err := setupRenderer(cfg, silentLogger)
	if err != nil {
		logger.Error("failed to start browser", "error", err)
		return err
	}
	defer renderer.Close()

	storeFor, closeStore, err := setupStore(context.Background(), cfg, silentLogger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		return err
	}
	defer closeStore()

	runAudit(cfg, renderer, storeFor, silentLogger)
	return nil
}

func runAudit(cfg *config.Config, renderer render.Renderer, storeFor func(string) model.SeenStore, logger *slog.Logger) {
	var targets []audit.Target
	for _, s := range cfg.EnabledSites() {
		for _, q := range s.Queries {
			targets = append(targets, audit.Target{Site: s.Name, Query: q})
		}
	}
	if len(targets) == 0 {
		fmt.Println("No enabled sites in config.")
		return
	}

	dumper := diag.NewDumper(cfg.DebugDir, logger)

	for {
		choice, err := audit.RunPicker(targets)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return
		}
		if choice < 0 {
			return
		}
		target := targets[choice]

		spec, err := adapter.Lookup(target.Site)
		if err != nil {
			fmt.Printf("Unsupported site: %s\n", target.Site)
			continue
		}
		a := adapter.NewSiteAdapter(spec, renderer, dumper, adapterOptions(cfg), logger)

		timeout := cfg.Browser.NavTimeout + cfg.Browser.WaitTimeout*3
		listings, err := audit.RunLoader(target.Site+" / "+target.Query.Name, timeout, func(ctx context.Context) ([]model.Listing, error) {
			return a.FetchListings(ctx, target.Query.URL)
		})
		if err != nil {
			fmt.Printf("Error fetching listings: %v\n", err)
			continue
		}

		seen, err := storeFor(target.Site).Load(context.Background())
		if err != nil {
			fmt.Printf("Seen store unavailable, showing every listing as new: %v\n", err)
			seen = nil
		}

		wantQuit, err := audit.RunAuditTUI(listings, cfg.Rules, seen)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return
		}
		// else: loop → back to picker
	}
}
