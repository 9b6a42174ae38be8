package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fernway/transit/api"
	"github.com/fernway/transit/planner"
)

var (
	planMaxTransfers  int
	planMaxWalkM      float64
	planSafety        string
	planEnhanceWalk   bool
	planAllowWalkOnly bool
)

func init() {
	planCmd.Flags().IntVar(&planMaxTransfers, "max-transfers", 1, "0 or 1")
	planCmd.Flags().Float64Var(&planMaxWalkM, "max-walk-m", 800, "maximum walk distance to/from a stop, in meters")
	planCmd.Flags().StringVar(&planSafety, "safety", "off", "off, prefer, or strict")
	planCmd.Flags().BoolVar(&planEnhanceWalk, "enhance-walk", false, "call the walk directions provider")
	planCmd.Flags().BoolVar(&planAllowWalkOnly, "allow-walk-only", true, "fall back to a walk-only itinerary when nothing else is found")
}

var planCmd = &cobra.Command{
	Use:   "plan <from-lat,from-lng> <to-lat,to-lng>",
	Short: "Plan a trip between two coordinates",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fromLat, fromLng, err := parseLatLng(args[0])
		if err != nil {
			return fmt.Errorf("parsing origin: %w", err)
		}
		toLat, toLng, err := parseLatLng(args[1])
		if err != nil {
			return fmt.Errorf("parsing destination: %w", err)
		}

		a, err := buildAPI()
		if err != nil {
			return err
		}

		req := api.PlanRequest{
			OriginLat:        fromLat,
			OriginLng:        fromLng,
			DestLat:          toLat,
			DestLng:          toLng,
			MaxTransfers:     planMaxTransfers,
			MaxWalkM:         planMaxWalkM,
			UseRealtime:      true,
			EnhanceWalk:      planEnhanceWalk,
			WalkAlternatives: 3,
			Safety:           planner.SafetyMode(planSafety),
			AllowWalkOnly:    planAllowWalkOnly,
			WalkOnlyMaxM:     planMaxWalkM * 4,
		}

		result, err := a.Plan(cmd.Context(), req)
		if err != nil {
			return err
		}

		for i, it := range result.Itineraries {
			fmt.Printf("itinerary %d: duration=%ds transfers=%d\n", i+1, it.DurationSec, it.Transfers)
			for _, leg := range it.Legs {
				fmt.Printf("  %s %ds\n", leg.Type, leg.DurationSec)
			}
			for _, note := range it.Notes {
				fmt.Printf("  note: %s\n", note)
			}
		}
		return nil
	},
}

func parseLatLng(s string) (lat, lng float64, err error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("'%s' is not on form <lat>,<lng>", s)
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid lat: %w", err)
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid lng: %w", err)
	}
	return lat, lng, nil
}
