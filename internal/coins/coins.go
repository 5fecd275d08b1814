// Package coins loads the ranked coin catalog that serves as the matching
// vocabulary for the rest of the pipeline.
package coins

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/deusflow/cryptonews/internal/errs"
	"github.com/deusflow/cryptonews/internal/retry"
)

const defaultBaseURL = "https://api.coingecko.com/api/v3"

// Coin is one catalog entry. The collection is ordered by rank ascending and
// unique by ID.
type Coin struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Rank   int    `json:"market_cap_rank"`
}

// Client fetches the top coins by market cap from CoinGecko. All calls share
// one minimum-interval gate so the free-tier per-minute ceiling holds no
// matter who calls.
type Client struct {
	baseURL   string
	apiKey    string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	retry     retry.Policy
}

func NewClient(apiKey, userAgent string, callsPerMinute int, timeout time.Duration, policy retry.Policy) *Client {
	return &Client{
		baseURL:   defaultBaseURL,
		apiKey:    apiKey,
		userAgent: userAgent,
		http:      &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(callsPerMinute)), 1),
		retry:     policy,
	}
}

// SetBaseURL overrides the API endpoint (tests).
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// FetchTop returns the top n coins sorted by rank ascending.
func (c *Client) FetchTop(ctx context.Context, n int) ([]Coin, error) {
	slog.Info("fetching top coins from CoinGecko", "count", n)

	var result []Coin
	err := retry.Do(ctx, c.retry, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		fetched, err := c.fetchOnce(ctx, n)
		if err != nil {
			return err
		}
		result = fetched
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(result, func(i, j int) bool { return result[i].Rank < result[j].Rank })

	slog.Info("fetched coins", "count", len(result))
	return result, nil
}

func (c *Client) fetchOnce(ctx context.Context, n int) ([]Coin, error) {
	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("order", "market_cap_desc")
	params.Set("per_page", strconv.Itoa(n))
	params.Set("page", "1")
	params.Set("sparkline", "false")
	params.Set("locale", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/coins/markets?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		req.Header.Set("x-cg-pro-api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &errs.UpstreamError{Service: "coingecko", Err: err}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("failed to close response body", "error", cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &errs.UpstreamError{Service: "coingecko", Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.UpstreamError{Service: "coingecko", Err: err}
	}

	var coins []Coin
	if err := json.Unmarshal(body, &coins); err != nil {
		return nil, &errs.UpstreamError{Service: "coingecko", Err: fmt.Errorf("malformed payload: %w", err)}
	}

	return coins, nil
}
