package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/staywatch/internal/adapter"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List configured sites and queries",
	Long:  "Reads the config and prints a table of all configured sites and their search URLs.",
	RunE:  runSites,
}

func init() {
	rootCmd.AddCommand(sitesCmd)
}

func runSites(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%-10s %-20s %-9s %s\n", "Site", "Query", "Status", "URL")
	fmt.Println(strings.Repeat("─", 80))

	enabled, disabled := 0, 0
	for _, s := range cfg.Sites {
		status := "enabled"
		if !s.Enabled {
			status = "disabled"
			disabled++
		} else {
			enabled++
		}
		for _, q := range s.Queries {
			fmt.Printf("%-10s %-20s %-9s %s\n", s.Name, q.Name, status, q.URL)
		}
	}

	fmt.Printf("\nTotal: %d sites (%d enabled, %d disabled)\n", len(cfg.Sites), enabled, disabled)
	fmt.Printf("Supported: %s\n", strings.Join(adapter.Sites(), ", "))
	return nil
}
