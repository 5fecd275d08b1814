package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/deusflow/cryptonews/internal/render"
)

func newCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove content files older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := render.NewWriter(cfg.ContentDir).Cleanup(cfg.DaysToKeep)
			if err != nil {
				return err
			}
			slog.Info("cleanup finished", "removed", removed, "days_kept", cfg.DaysToKeep)
			return nil
		},
	}
}
