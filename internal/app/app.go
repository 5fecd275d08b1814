// Package app wires the pipeline stages together and runs them in sequence:
// catalog, news, render, cleanup. Each stage is independently fault-tolerant;
// only a missing coin catalog is fatal.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/deusflow/cryptonews/internal/coins"
	"github.com/deusflow/cryptonews/internal/config"
	"github.com/deusflow/cryptonews/internal/enhance"
	"github.com/deusflow/cryptonews/internal/gnews"
	"github.com/deusflow/cryptonews/internal/match"
	"github.com/deusflow/cryptonews/internal/metrics"
	"github.com/deusflow/cryptonews/internal/ratelimit"
	"github.com/deusflow/cryptonews/internal/render"
	"github.com/deusflow/cryptonews/internal/retry"
	"github.com/deusflow/cryptonews/internal/rewrite"
	"github.com/deusflow/cryptonews/internal/scraper"
)

// CatalogClient fetches the ranked coin catalog.
type CatalogClient interface {
	FetchTop(ctx context.Context, n int) ([]coins.Coin, error)
}

// SnapshotStore persists the catalog between runs.
type SnapshotStore interface {
	Save(coins []coins.Coin) error
	Load() ([]coins.Coin, error)
}

// NewsClient runs the aggregated search call.
type NewsClient interface {
	Search(ctx context.Context, query string, maxArticles int) ([]gnews.Article, error)
}

// ArticleEnhancer is the optional scrape + rewrite stage.
type ArticleEnhancer interface {
	Enhance(ctx context.Context, articles []match.Article) []match.Article
}

// ContentWriter renders documents and prunes old ones.
type ContentWriter interface {
	Write(article match.Article) (string, bool, error)
	Cleanup(daysToKeep int) (int, error)
}

type App struct {
	cfg        *config.Config
	catalog    CatalogClient
	snapshot   SnapshotStore
	news       NewsClient
	enhancer   ArticleEnhancer
	writer     ContentWriter
	queryTerms []string
}

// New wires the real components from config.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	policy := retry.Policy{
		MaxAttempts:   cfg.RetryAttempts,
		BaseDelay:     cfg.RetryBaseDelay,
		BackoffFactor: 2,
	}

	budget := ratelimit.NewBudget(map[string]int{
		"gnews":   cfg.GNewsDailyLimit,
		"rewrite": cfg.RewriteDailyLimit,
	})

	terms, err := match.LoadQueryTerms(cfg.QueryTermsPath)
	if err != nil {
		slog.Warn("failed to load query terms, using defaults", "path", cfg.QueryTermsPath, "error", err)
		terms = match.DefaultGenericTerms
	}

	a := &App{
		cfg:        cfg,
		catalog:    coins.NewClient(cfg.CoinGeckoAPIKey, cfg.UserAgent, cfg.CoinGeckoRateLimit, cfg.RequestTimeout, policy),
		snapshot:   coins.NewStore(cfg.CoinsFilePath),
		news:       gnews.NewClient(cfg.GNewsAPIKey, cfg.NewsLanguage, cfg.NewsCountry, cfg.UserAgent, cfg.RequestTimeout, policy, budget),
		writer:     render.NewWriter(cfg.ContentDir),
		queryTerms: terms,
	}

	if cfg.EnhanceEnabled {
		rewriter, err := buildRewriter(ctx, cfg, policy)
		if err != nil {
			slog.Warn("enhancement enabled but no rewrite backend available, disabling", "error", err)
		} else {
			a.enhancer = enhance.New(scraper.New(cfg.ScrapeTimeout, cfg.UserAgent), rewriter, budget, cfg.ScrapeDelay)
		}
	}

	return a, nil
}

func buildRewriter(ctx context.Context, cfg *config.Config, policy retry.Policy) (rewrite.Rewriter, error) {
	var backends []rewrite.Rewriter

	if cfg.OpenAIAPIKey != "" {
		backends = append(backends, rewrite.NewOpenAIRewriter(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIMaxTokens, cfg.RewriteLanguage, policy))
	}
	if cfg.GeminiAPIKey != "" {
		gemini, err := rewrite.NewGeminiRewriter(ctx, cfg.GeminiAPIKey, cfg.RewriteLanguage, policy)
		if err != nil {
			slog.Warn("failed to create Gemini rewriter", "error", err)
		} else {
			backends = append(backends, gemini)
		}
	}

	if len(backends) == 0 {
		return nil, fmt.Errorf("neither OPENAI_API_KEY nor GEMINI_API_KEY is set")
	}
	return rewrite.NewChain(backends...), nil
}

// Run executes one full pipeline pass. The run succeeds iff the catalog
// stage produced a non-empty coin set; news, render and cleanup failures are
// logged and absorbed.
func (a *App) Run(ctx context.Context) error {
	start := time.Now()
	slog.Info("starting daily crypto news update")

	// Step 1/4: coin catalog, with snapshot fallback.
	slog.Info("[Step 1/4] fetching top cryptocurrencies", "count", a.cfg.TopNCoins)
	catalog, err := a.catalog.FetchTop(ctx, a.cfg.TopNCoins)
	if err != nil {
		slog.Error("✗ failed to fetch coins, falling back to snapshot", "error", err)
		catalog, err = a.snapshot.Load()
		if err != nil {
			slog.Error("✗ failed to load coin snapshot", "error", err)
		}
		if len(catalog) == 0 {
			metrics.Global.SetError("no coins available")
			return fmt.Errorf("no cached coins available, cannot continue")
		}
		slog.Info("✓ loaded coins from snapshot", "count", len(catalog))
	} else {
		slog.Info("✓ fetched coins", "count", len(catalog))
		if err := a.snapshot.Save(catalog); err != nil {
			slog.Warn("failed to save coin snapshot", "error", err)
		}
	}
	metrics.Global.SetCoinsFetched(len(catalog))

	// Step 2/4: one aggregated search call, then matching and dedupe.
	slog.Info("[Step 2/4] fetching cryptocurrency news")
	articles := a.fetchAndMatch(ctx, catalog)
	slog.Info("✓ prepared articles", "count", len(articles))

	if a.enhancer != nil && len(articles) > 0 {
		slog.Info("enhancing articles", "count", len(articles))
		articles = a.enhancer.Enhance(ctx, articles)
		slog.Info("✓ enhanced articles", "count", len(articles))
	}

	// Step 3/4: render markdown documents, skipping existing files.
	slog.Info("[Step 3/4] generating content files")
	written := a.renderAll(articles)
	slog.Info("✓ generated content files", "count", written)

	// Step 4/4: retention cleanup; failures never affect the verdict.
	slog.Info("[Step 4/4] cleaning up old articles")
	removed, err := a.writer.Cleanup(a.cfg.DaysToKeep)
	if err != nil {
		slog.Error("✗ failed to clean up old articles", "error", err)
	} else {
		slog.Info("✓ cleanup complete", "removed", removed)
		metrics.Global.AddFilesPruned(removed)
	}

	duration := time.Since(start)
	metrics.Global.SetLastRun(duration)
	printSummary(len(catalog), len(articles), written, duration)

	slog.Info("✓ daily update completed successfully")
	return nil
}

// fetchAndMatch runs the news stage. Any failure yields an empty article set
// so the downstream stages simply do nothing.
func (a *App) fetchAndMatch(ctx context.Context, catalog []coins.Coin) []match.Article {
	query := match.BuildQuery(catalog, a.cfg.QueryTopCoins, a.queryTerms)

	raw, err := a.news.Search(ctx, query, a.cfg.MaxArticlesPerRun)
	if err != nil {
		slog.Error("✗ failed to fetch news, continuing with empty set", "error", err)
		return nil
	}
	metrics.Global.SetArticlesFetched(len(raw))

	enriched := match.Match(raw, catalog, a.cfg.MatchTopCoins)
	unique := match.Dedupe(enriched)
	metrics.Global.AddDuplicatesFiltered(len(enriched) - len(unique))

	if len(unique) > a.cfg.MaxArticlesPerRun {
		unique = unique[:a.cfg.MaxArticlesPerRun]
		slog.Info("limited articles", "max", a.cfg.MaxArticlesPerRun)
	}

	metrics.Global.SetArticlesMatched(len(unique))
	return unique
}

// renderAll writes every article, containing failures to the article that
// caused them.
func (a *App) renderAll(articles []match.Article) int {
	written := 0
	for _, article := range articles {
		filename, created, err := a.writer.Write(article)
		if err != nil {
			slog.Error("failed to write article", "filename", filename, "error", err)
			continue
		}
		if created {
			written++
		}
	}
	metrics.Global.AddFilesWritten(written)
	return written
}

func printSummary(coinsCount, articlesCount, filesGenerated int, duration time.Duration) {
	slog.Info("=== DAILY RUN SUMMARY ===",
		"coins", coinsCount,
		"articles", articlesCount,
		"files_generated", filesGenerated,
		"duration", duration.Round(time.Millisecond))
}
