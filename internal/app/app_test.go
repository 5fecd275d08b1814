package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/cryptonews/internal/coins"
	"github.com/deusflow/cryptonews/internal/config"
	"github.com/deusflow/cryptonews/internal/gnews"
	"github.com/deusflow/cryptonews/internal/match"
)

type fakeCatalog struct {
	coins []coins.Coin
	err   error
}

func (f *fakeCatalog) FetchTop(ctx context.Context, n int) ([]coins.Coin, error) {
	return f.coins, f.err
}

type fakeSnapshot struct {
	coins   []coins.Coin
	loadErr error
	saved   [][]coins.Coin
}

func (f *fakeSnapshot) Save(c []coins.Coin) error {
	f.saved = append(f.saved, c)
	return nil
}

func (f *fakeSnapshot) Load() ([]coins.Coin, error) { return f.coins, f.loadErr }

type fakeNews struct {
	articles []gnews.Article
	err      error
	queries  []string
}

func (f *fakeNews) Search(ctx context.Context, query string, maxArticles int) ([]gnews.Article, error) {
	f.queries = append(f.queries, query)
	return f.articles, f.err
}

type fakeWriter struct {
	written  []string
	writeErr error
	removed  int
}

func (f *fakeWriter) Write(article match.Article) (string, bool, error) {
	if f.writeErr != nil {
		return "", false, f.writeErr
	}
	f.written = append(f.written, article.Title)
	return article.Title + ".md", true, nil
}

func (f *fakeWriter) Cleanup(daysToKeep int) (int, error) { return f.removed, nil }

func testConfig() *config.Config {
	return &config.Config{
		TopNCoins:         10,
		QueryTopCoins:     5,
		MatchTopCoins:     10,
		MaxArticlesPerRun: 50,
		DaysToKeep:        30,
	}
}

func btcCatalog() []coins.Coin {
	return []coins.Coin{{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", Rank: 1}}
}

func newTestApp(catalog CatalogClient, snapshot SnapshotStore, news NewsClient, writer ContentWriter) *App {
	return &App{
		cfg:        testConfig(),
		catalog:    catalog,
		snapshot:   snapshot,
		news:       news,
		writer:     writer,
		queryTerms: match.DefaultGenericTerms,
	}
}

func TestRunHappyPath(t *testing.T) {
	snapshot := &fakeSnapshot{}
	writer := &fakeWriter{}
	news := &fakeNews{articles: []gnews.Article{
		{Title: "Bitcoin hits new high", URL: "https://example.com/1"},
		{Title: "Unrelated sports news", URL: "https://example.com/2"},
	}}

	app := newTestApp(&fakeCatalog{coins: btcCatalog()}, snapshot, news, writer)

	err := app.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, snapshot.saved, 1, "fresh catalog must be snapshotted")
	require.Len(t, news.queries, 1, "exactly one aggregated search call")
	assert.Contains(t, news.queries[0], "crypto")
	assert.Equal(t, []string{"Bitcoin hits new high"}, writer.written)
}

func TestRunFallsBackToSnapshot(t *testing.T) {
	snapshot := &fakeSnapshot{coins: btcCatalog()}
	writer := &fakeWriter{}
	news := &fakeNews{}

	app := newTestApp(&fakeCatalog{err: errors.New("api down")}, snapshot, news, writer)

	err := app.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, snapshot.saved, "stale snapshot must not be re-saved")
	assert.Len(t, news.queries, 1, "pipeline continues on cached coins")
}

func TestRunFatalWithoutCoins(t *testing.T) {
	app := newTestApp(
		&fakeCatalog{err: errors.New("api down")},
		&fakeSnapshot{},
		&fakeNews{},
		&fakeWriter{},
	)

	err := app.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no cached coins")
}

func TestRunAbsorbsNewsFailure(t *testing.T) {
	writer := &fakeWriter{}
	app := newTestApp(
		&fakeCatalog{coins: btcCatalog()},
		&fakeSnapshot{},
		&fakeNews{err: errors.New("quota exceeded")},
		writer,
	)

	err := app.Run(context.Background())
	require.NoError(t, err, "news failure must not fail the run")
	assert.Empty(t, writer.written)
}

func TestRunContainsWriteFailures(t *testing.T) {
	news := &fakeNews{articles: []gnews.Article{
		{Title: "Bitcoin rallies", URL: "https://example.com/1"},
	}}
	app := newTestApp(
		&fakeCatalog{coins: btcCatalog()},
		&fakeSnapshot{},
		news,
		&fakeWriter{writeErr: errors.New("disk full")},
	)

	err := app.Run(context.Background())
	require.NoError(t, err, "render failures are per-article, never fatal")
}

func TestFetchAndMatchCapsArticles(t *testing.T) {
	articles := make([]gnews.Article, 10)
	for i := range articles {
		articles[i] = gnews.Article{
			Title: "Bitcoin story",
			URL:   "https://example.com/" + string(rune('a'+i)),
		}
	}

	app := newTestApp(&fakeCatalog{coins: btcCatalog()}, &fakeSnapshot{}, &fakeNews{articles: articles}, &fakeWriter{})
	app.cfg.MaxArticlesPerRun = 3

	matched := app.fetchAndMatch(context.Background(), btcCatalog())
	assert.Len(t, matched, 3)
}
