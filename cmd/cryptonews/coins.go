package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/deusflow/cryptonews/internal/coins"
	"github.com/deusflow/cryptonews/internal/retry"
)

func newCoinsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "coins",
		Short: "Fetch the coin catalog and save the local snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			policy := retry.Policy{
				MaxAttempts:   cfg.RetryAttempts,
				BaseDelay:     cfg.RetryBaseDelay,
				BackoffFactor: 2,
			}
			client := coins.NewClient(cfg.CoinGeckoAPIKey, cfg.UserAgent, cfg.CoinGeckoRateLimit, cfg.RequestTimeout, policy)

			list, err := client.FetchTop(ctx, cfg.TopNCoins)
			if err != nil {
				return err
			}

			if err := coins.NewStore(cfg.CoinsFilePath).Save(list); err != nil {
				return err
			}

			names := make([]string, 0, 10)
			for i, c := range list {
				if i >= 10 {
					break
				}
				names = append(names, c.Name)
			}
			slog.Info("coin catalog saved", "count", len(list), "path", cfg.CoinsFilePath, "top", names)
			return nil
		},
	}
}
