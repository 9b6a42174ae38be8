package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the realtime delay-cache poller and block",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildAPI()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a.Run(ctx)
		return nil
	},
}
