package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/deusflow/cryptonews/internal/coins"
	"github.com/deusflow/cryptonews/internal/gnews"
	"github.com/deusflow/cryptonews/internal/match"
	"github.com/deusflow/cryptonews/internal/ratelimit"
	"github.com/deusflow/cryptonews/internal/retry"
)

// newNewsCmd fetches and matches news against the cached coin snapshot
// without writing any content. Useful for checking query and match quality.
func newNewsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "news",
		Short: "Fetch and match news against the cached coin catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			coinList, err := coins.NewStore(cfg.CoinsFilePath).Load()
			if err != nil {
				return err
			}
			if len(coinList) == 0 {
				return fmt.Errorf("no cached coins at %s, run 'cryptonews coins' first", cfg.CoinsFilePath)
			}

			terms, err := match.LoadQueryTerms(cfg.QueryTermsPath)
			if err != nil {
				slog.Warn("failed to load query terms, using defaults", "error", err)
				terms = match.DefaultGenericTerms
			}
			query := match.BuildQuery(coinList, cfg.QueryTopCoins, terms)
			slog.Info("search query built", "query", query)

			policy := retry.Policy{
				MaxAttempts:   cfg.RetryAttempts,
				BaseDelay:     cfg.RetryBaseDelay,
				BackoffFactor: 2,
			}
			budget := ratelimit.NewBudget(map[string]int{"gnews": cfg.GNewsDailyLimit})
			client := gnews.NewClient(cfg.GNewsAPIKey, cfg.NewsLanguage, cfg.NewsCountry, cfg.UserAgent, cfg.RequestTimeout, policy, budget)

			articles, err := client.Search(ctx, query, cfg.MaxArticlesPerRun)
			if err != nil {
				return err
			}

			matched := match.Dedupe(match.Match(articles, coinList, cfg.MatchTopCoins))
			slog.Info("news matched", "fetched", len(articles), "matched", len(matched))
			for _, a := range matched {
				coinIDs := make([]string, 0, len(a.Coins))
				for _, c := range a.Coins {
					coinIDs = append(coinIDs, c.ID)
				}
				slog.Info("article", "title", a.Title, "source", a.Source.Name, "coins", coinIDs)
			}
			return nil
		},
	}
}
