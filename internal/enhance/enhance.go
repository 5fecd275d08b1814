// Package enhance runs the optional per-article scrape + rewrite stage.
// Every sub-step failure is contained to its article; the batch always
// continues.
package enhance

import (
	"context"
	"log/slog"
	"time"

	"github.com/deusflow/cryptonews/internal/cache"
	"github.com/deusflow/cryptonews/internal/match"
	"github.com/deusflow/cryptonews/internal/metrics"
	"github.com/deusflow/cryptonews/internal/ratelimit"
	"github.com/deusflow/cryptonews/internal/rewrite"
	"github.com/deusflow/cryptonews/internal/scraper"
)

const cacheTTL = 24 * time.Hour

// Extractor is the scraping side of the stage.
type Extractor interface {
	IsScrapable(ctx context.Context, url string) bool
	Extract(ctx context.Context, url string) (*scraper.Extracted, error)
}

type Enhancer struct {
	extractor Extractor
	rewriter  rewrite.Rewriter
	budget    *ratelimit.Budget
	results   *cache.Cache
	delay     time.Duration
}

func New(extractor Extractor, rewriter rewrite.Rewriter, budget *ratelimit.Budget, delay time.Duration) *Enhancer {
	return &Enhancer{
		extractor: extractor,
		rewriter:  rewriter,
		budget:    budget,
		results:   cache.New(),
		delay:     delay,
	}
}

// Enhance processes articles strictly in order, one at a time, separated by
// a politeness delay toward the scraped sites. Articles whose scrape or
// rewrite fails are dropped; once the daily rewrite budget runs out the
// remaining articles pass through unchanged.
func (e *Enhancer) Enhance(ctx context.Context, articles []match.Article) []match.Article {
	out := make([]match.Article, 0, len(articles))
	scraped := 0

	for i, article := range articles {
		if ctx.Err() != nil {
			out = append(out, articles[i:]...)
			break
		}

		if e.budget != nil && !e.budget.Allow("rewrite") {
			slog.Warn("rewrite budget exhausted, passing remaining articles through", "remaining", len(articles)-i)
			out = append(out, articles[i:]...)
			break
		}

		key := e.results.GenerateKey(article.Title, article.Content)
		if cached, ok := e.results.Get(key); ok {
			if result, ok := cached.(*rewrite.Result); ok {
				slog.Debug("rewrite cache hit", "title", article.Title)
				out = append(out, applyResult(article, result))
				continue
			}
		}

		if scraped > 0 {
			select {
			case <-ctx.Done():
				out = append(out, articles[i:]...)
				return out
			case <-time.After(e.delay):
			}
		}
		scraped++

		enhanced, ok := e.enhanceOne(ctx, article, key)
		if !ok {
			metrics.Global.IncrementEnhanceFailures()
			continue
		}

		metrics.Global.IncrementEnhanced()
		out = append(out, enhanced)
	}

	return out
}

func (e *Enhancer) enhanceOne(ctx context.Context, article match.Article, cacheKey string) (match.Article, bool) {
	if !e.extractor.IsScrapable(ctx, article.URL) {
		slog.Warn("article not scrapable, skipping", "url", article.URL)
		return article, false
	}

	extracted, err := e.extractor.Extract(ctx, article.URL)
	if err != nil {
		slog.Warn("scrape failed, skipping article", "url", article.URL, "error", err)
		return article, false
	}

	coinNames := make([]string, len(article.Coins))
	for i, coin := range article.Coins {
		coinNames[i] = coin.Name
	}

	if e.budget != nil {
		if err := e.budget.Use("rewrite"); err != nil {
			slog.Warn("rewrite budget refused call", "error", err)
			return article, false
		}
	}

	result, err := e.rewriter.Rewrite(ctx, article.Title, extracted.Content, coinNames)
	if err != nil {
		slog.Warn("rewrite failed, skipping article", "url", article.URL, "error", err)
		return article, false
	}

	e.results.Set(cacheKey, result, cacheTTL)
	return applyResult(article, result), true
}

// applyResult swaps in the rewritten text, keeping the originals for audit.
func applyResult(article match.Article, result *rewrite.Result) match.Article {
	article.OriginalTitle = article.Title
	article.OriginalDescription = article.Description
	article.Title = result.Title
	article.Description = result.Summary
	article.Content = result.Content
	return article
}
