// Package config loads the environment-driven settings every
// composition root (cmd/ subcommands, tests) needs to wire up the
// core.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/fernway/transit/errors"
)

// Config holds every environment-driven setting named in the external
// interfaces section: feed locations, poll cadence, fusion and walk
// parameters, safety file paths, and the walk-directions provider
// credentials.
type Config struct {
	GTFSDir             string
	TripUpdatesURL      string
	PollIntervalSeconds int
	ReportDecaySeconds  int
	MaxWalkMeters       float64
	DangerMapPath       string
	SafetyZonesPath     string

	WalkDirectionsBaseURL string
	WalkDirectionsToken   string
}

const (
	defaultPollIntervalSeconds = 12
	defaultReportDecaySeconds  = 600
	defaultMaxWalkMeters       = 800
)

// Load reads configuration from the environment, seeding it first from
// a ".env" file if present (missing .env is not an error — production
// deployments set real environment variables instead).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		GTFSDir:               os.Getenv("GTFS_DIR"),
		TripUpdatesURL:        os.Getenv("TRIP_UPDATES_URL"),
		PollIntervalSeconds:   defaultPollIntervalSeconds,
		ReportDecaySeconds:    defaultReportDecaySeconds,
		MaxWalkMeters:         defaultMaxWalkMeters,
		DangerMapPath:         os.Getenv("DANGER_MAP_PATH"),
		SafetyZonesPath:       os.Getenv("SAFETY_ZONES_PATH"),
		WalkDirectionsBaseURL: os.Getenv("WALK_DIRECTIONS_BASE_URL"),
		WalkDirectionsToken:   os.Getenv("WALK_DIRECTIONS_TOKEN"),
	}

	if cfg.GTFSDir == "" {
		return nil, errors.ConfigErrorf("GTFS_DIR is required")
	}

	if v := os.Getenv("POLL_INTERVAL_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.ConfigErrorf("invalid POLL_INTERVAL_SECONDS %q: %v", v, err)
		}
		cfg.PollIntervalSeconds = n
	}

	if v := os.Getenv("REPORT_DECAY_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.ConfigErrorf("invalid REPORT_DECAY_SECONDS %q: %v", v, err)
		}
		cfg.ReportDecaySeconds = n
	}

	if v := os.Getenv("MAX_WALK_METERS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.ConfigErrorf("invalid MAX_WALK_METERS %q: %v", v, err)
		}
		cfg.MaxWalkMeters = f
	}

	return cfg, nil
}
