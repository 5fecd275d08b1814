package main

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/deusflow/cryptonews/internal/app"
)

func newRunCmd() *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline: coins, news, content, cleanup",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}

			if schedule == "" {
				return a.Run(ctx)
			}

			// Scheduler mode: keep the process alive and run on the cron spec.
			c := cron.New()
			if _, err := c.AddFunc(schedule, func() {
				if err := a.Run(ctx); err != nil {
					slog.Error("scheduled run failed", "error", err)
				}
			}); err != nil {
				return fmt.Errorf("invalid schedule %q: %w", schedule, err)
			}

			slog.Info("scheduler started", "schedule", schedule)
			c.Start()

			<-ctx.Done()
			<-c.Stop().Done()
			return ctx.Err()
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "cron expression; run as a long-lived scheduler instead of once")
	return cmd
}
