// Package gnews issues the single daily search call against the GNews API.
package gnews

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/deusflow/cryptonews/internal/errs"
	"github.com/deusflow/cryptonews/internal/ratelimit"
	"github.com/deusflow/cryptonews/internal/retry"
)

const defaultBaseURL = "https://gnews.io/api/v4"

// Source identifies the publisher of an article.
type Source struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Article is a raw search result. URL is the natural key for deduplication.
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Image       string `json:"image"`
	PublishedAt string `json:"publishedAt"`
	Source      Source `json:"source"`
	Content     string `json:"content"`
}

type searchResponse struct {
	Articles []Article `json:"articles"`
}

// Client wraps the GNews search endpoint. The free tier grants a small daily
// call budget, which is why the whole coin universe is expressed in one
// aggregated query instead of one query per coin.
type Client struct {
	baseURL   string
	apiKey    string
	language  string
	country   string
	userAgent string
	http      *http.Client
	retry     retry.Policy
	budget    *ratelimit.Budget
	now       func() time.Time
}

func NewClient(apiKey, language, country, userAgent string, timeout time.Duration, policy retry.Policy, budget *ratelimit.Budget) *Client {
	return &Client{
		baseURL:   defaultBaseURL,
		apiKey:    apiKey,
		language:  language,
		country:   country,
		userAgent: userAgent,
		http:      &http.Client{Timeout: timeout},
		retry:     policy,
		budget:    budget,
		now:       time.Now,
	}
}

// SetBaseURL overrides the API endpoint (tests).
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// Search runs one search call for the last 24 hours of news.
func (c *Client) Search(ctx context.Context, query string, maxArticles int) ([]Article, error) {
	if c.apiKey == "" {
		return nil, &errs.ConfigError{Key: "GNEWS_API_KEY"}
	}
	if c.budget != nil {
		if err := c.budget.Use("gnews"); err != nil {
			return nil, &errs.UpstreamError{Service: "gnews", Err: err}
		}
	}

	preview := query
	if len(preview) > 100 {
		preview = preview[:100]
	}
	slog.Info("fetching news from GNews", "query", preview, "max", maxArticles)

	var articles []Article
	err := retry.Do(ctx, c.retry, func() error {
		fetched, err := c.searchOnce(ctx, query, maxArticles)
		if err != nil {
			return err
		}
		articles = fetched
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("fetched articles", "count", len(articles))
	return articles, nil
}

func (c *Client) searchOnce(ctx context.Context, query string, maxArticles int) ([]Article, error) {
	to := c.now().UTC()
	from := to.Add(-24 * time.Hour)

	params := url.Values{}
	params.Set("q", query)
	params.Set("lang", c.language)
	params.Set("country", c.country)
	params.Set("max", strconv.Itoa(maxArticles))
	params.Set("apikey", c.apiKey)
	params.Set("from", from.Format("2006-01-02T15:04:05Z"))
	params.Set("to", to.Format("2006-01-02T15:04:05Z"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &errs.UpstreamError{Service: "gnews", Err: err}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("failed to close response body", "error", cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &errs.UpstreamError{Service: "gnews", Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.UpstreamError{Service: "gnews", Err: err}
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &errs.UpstreamError{Service: "gnews", Err: fmt.Errorf("malformed payload: %w", err)}
	}

	return parsed.Articles, nil
}
