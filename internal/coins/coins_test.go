package coins

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/cryptonews/internal/errs"
	"github.com/deusflow/cryptonews/internal/retry"
)

func testPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 1, BaseDelay: time.Millisecond, BackoffFactor: 2}
}

func TestFetchTopSortsByRank(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/markets", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		assert.Equal(t, "2", r.URL.Query().Get("per_page"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"ethereum","symbol":"eth","name":"Ethereum","market_cap_rank":2},
			{"id":"bitcoin","symbol":"btc","name":"Bitcoin","market_cap_rank":1}
		]`))
	}))
	defer srv.Close()

	client := NewClient("", "test-agent", 600, 5*time.Second, testPolicy())
	client.SetBaseURL(srv.URL)

	coins, err := client.FetchTop(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, coins, 2)
	assert.Equal(t, "bitcoin", coins[0].ID)
	assert.Equal(t, "ethereum", coins[1].ID)
}

func TestFetchTopSendsAPIKeyHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-cg-pro-api-key"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClient("secret", "test-agent", 600, 5*time.Second, testPolicy())
	client.SetBaseURL(srv.URL)

	_, err := client.FetchTop(context.Background(), 1)
	require.NoError(t, err)
}

func TestFetchTopUpstreamStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient("", "test-agent", 600, 5*time.Second, testPolicy())
	client.SetBaseURL(srv.URL)

	_, err := client.FetchTop(context.Background(), 1)
	require.Error(t, err)

	var upstream *errs.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "coingecko", upstream.Service)
	assert.Equal(t, http.StatusTooManyRequests, upstream.Status)
}

func TestFetchTopMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"a list"}`))
	}))
	defer srv.Close()

	client := NewClient("", "test-agent", 600, 5*time.Second, testPolicy())
	client.SetBaseURL(srv.URL)

	_, err := client.FetchTop(context.Background(), 1)
	require.Error(t, err)

	var upstream *errs.UpstreamError
	assert.ErrorAs(t, err, &upstream)
}

func TestFetchTopRetriesTransientFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`[{"id":"bitcoin","symbol":"btc","name":"Bitcoin","market_cap_rank":1}]`))
	}))
	defer srv.Close()

	client := NewClient("", "test-agent", 600, 5*time.Second,
		retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, BackoffFactor: 2})
	client.SetBaseURL(srv.URL)

	coins, err := client.FetchTop(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, coins, 1)
	assert.Equal(t, 2, calls)
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "coins.json")
	store := NewStore(path)

	in := []Coin{
		{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", Rank: 1},
		{ID: "ethereum", Symbol: "eth", Name: "Ethereum", Rank: 2},
	}
	require.NoError(t, store.Save(in))

	out, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestStoreLoadMissingSnapshot(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "absent.json"))

	out, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, out)
}
