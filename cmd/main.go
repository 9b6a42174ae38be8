package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fernway/transit/api"
	"github.com/fernway/transit/config"
	"github.com/fernway/transit/index"
	"github.com/fernway/transit/reports"
)

var rootCmd = &cobra.Command{
	Use:          "transit",
	Short:        "Transit trip planner and arrival-time estimator",
	Long:         "Queries a static GTFS feed, an optional GTFS-Realtime feed, and crowd-sourced arrival reports",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(etaCmd)
	rootCmd.AddCommand(planCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// buildAPI wires the composition root from the environment, the way
// every subcommand (and a real HTTP adapter) would.
func buildAPI() (*api.API, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	idx, err := index.Load(cfg.GTFSDir)
	if err != nil {
		return nil, fmt.Errorf("loading static feed: %w", err)
	}

	store := reports.NewMemory(10000)

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	a, err := api.New(cfg, idx, store, log)
	if err != nil {
		return nil, fmt.Errorf("constructing API: %w", err)
	}
	return a, nil
}
