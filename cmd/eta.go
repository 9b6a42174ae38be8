package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var etaLine string

func init() {
	etaCmd.Flags().StringVarP(&etaLine, "line", "l", "", "restrict the estimate to this route")
}

var etaCmd = &cobra.Command{
	Use:   "eta <stop_id>",
	Short: "Estimate the next arrival at a stop",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildAPI()
		if err != nil {
			return err
		}

		var lineID *string
		if etaLine != "" {
			lineID = &etaLine
		}

		result, err := a.ETA(cmd.Context(), args[0], lineID)
		if err != nil {
			return err
		}

		fmt.Printf("stop=%s eta_seconds=%d source=%s\n", result.StopID, result.ETASeconds, result.Source)
		return nil
	},
}
