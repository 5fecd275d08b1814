package match

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/cryptonews/internal/coins"
	"github.com/deusflow/cryptonews/internal/gnews"
)

func catalog() []coins.Coin {
	return []coins.Coin{
		{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", Rank: 1},
		{ID: "ethereum", Symbol: "eth", Name: "Ethereum", Rank: 2},
		{ID: "tether", Symbol: "usdt", Name: "Tether", Rank: 3},
		{ID: "solana", Symbol: "sol", Name: "Solana", Rank: 4},
		{ID: "decentraland", Symbol: "mana", Name: "Decentraland", Rank: 5},
	}
}

func TestBuildQueryGenericTermsFirst(t *testing.T) {
	query := BuildQuery(catalog(), 20, nil)

	terms := strings.Split(query, " OR ")
	require.GreaterOrEqual(t, len(terms), len(DefaultGenericTerms))
	assert.Equal(t, DefaultGenericTerms, terms[:len(DefaultGenericTerms)])
}

func TestBuildQueryCapsTermCount(t *testing.T) {
	many := make([]coins.Coin, 30)
	for i := range many {
		many[i] = coins.Coin{
			ID:     "coin" + string(rune('a'+i)),
			Symbol: "c" + string(rune('a'+i)),
			Name:   "Coin" + string(rune('a'+i)),
			Rank:   i + 1,
		}
	}

	query := BuildQuery(many, 30, nil)
	terms := strings.Split(query, " OR ")
	assert.LessOrEqual(t, len(terms), MaxQueryTerms)
}

func TestBuildQuerySymbolFallback(t *testing.T) {
	list := []coins.Coin{
		// Name unusable as a term, short symbol stands in uppercased.
		{ID: "shiba-inu", Symbol: "shib", Name: "Shiba Inu", Rank: 1},
		// Name unusable and symbol too long: coin is skipped entirely.
		{ID: "weird-coin", Symbol: "toolong", Name: "Weird Coin!", Rank: 2},
		{ID: "solana", Symbol: "sol", Name: "Solana", Rank: 3},
	}

	query := BuildQuery(list, 10, []string{"crypto"})
	terms := strings.Split(query, " OR ")

	assert.Contains(t, terms, "SHIB")
	assert.Contains(t, terms, "Solana")
	assert.NotContains(t, query, "toolong")
	assert.NotContains(t, query, "Weird")
}

func TestBuildQueryDeduplicatesCaseInsensitively(t *testing.T) {
	list := []coins.Coin{
		{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", Rank: 1},
		{ID: "ethereum", Symbol: "eth", Name: "Ethereum", Rank: 2},
	}

	// "bitcoin" already appears in the generic terms.
	query := BuildQuery(list, 10, []string{"cryptocurrency", "bitcoin"})
	terms := strings.Split(query, " OR ")

	assert.Equal(t, []string{"cryptocurrency", "bitcoin", "Ethereum"}, terms)
}

func TestMatchScoresAdditively(t *testing.T) {
	articles := []gnews.Article{
		{
			Title:       "Bitcoin surges past all-time high",
			Description: "Analysts say BTC momentum continues",
			URL:         "https://example.com/btc-high",
		},
	}

	matched := Match(articles, catalog(), 50)
	require.Len(t, matched, 1)
	require.NotEmpty(t, matched[0].Coins)
	assert.Equal(t, "bitcoin", matched[0].Coins[0].ID)
}

func TestMatchSymbolRequiresWordBoundary(t *testing.T) {
	articles := []gnews.Article{
		// "mana" as a whole word must match Decentraland.
		{Title: "MANA rallies on metaverse news", URL: "https://example.com/1"},
		// "mana" inside a longer token must not.
		{Title: "Manatoken launches new platform", URL: "https://example.com/2"},
	}

	matched := Match(articles, catalog(), 50)
	require.Len(t, matched, 1)
	assert.Equal(t, "https://example.com/1", matched[0].URL)
	assert.Equal(t, "decentraland", matched[0].Coins[0].ID)
}

func TestMatchNameIsSubstringCheck(t *testing.T) {
	// Unlike symbols, names match as plain substrings.
	articles := []gnews.Article{
		{Title: "Ethereumclassic fork debate heats up", URL: "https://example.com/etc"},
	}

	matched := Match(articles, catalog(), 50)
	require.Len(t, matched, 1)
	assert.Equal(t, "ethereum", matched[0].Coins[0].ID)
}

func TestMatchSymbolScoreAccruesInsideName(t *testing.T) {
	// "eth" sits inside "ethereum", so a title mentioning the name collects
	// the symbol bonus as well: Ethereum scores 10+8+6 against Bitcoin's
	// 10+6 and must outrank it despite its lower market cap.
	articles := []gnews.Article{
		{Title: "Ethereum and Bitcoin both rally", URL: "https://example.com/both"},
	}

	matched := Match(articles, catalog(), 50)
	require.Len(t, matched, 1)
	require.Len(t, matched[0].Coins, 2)
	assert.Equal(t, "ethereum", matched[0].Coins[0].ID)
	assert.Equal(t, "bitcoin", matched[0].Coins[1].ID)
}

func TestMatchOrdersCoinsByScore(t *testing.T) {
	articles := []gnews.Article{
		{
			// Ethereum in title (10), Solana only in description (5).
			Title:       "Ethereum upgrade ships",
			Description: "Solana validators watch closely",
			URL:         "https://example.com/upgrade",
		},
	}

	matched := Match(articles, catalog(), 50)
	require.Len(t, matched, 1)
	require.Len(t, matched[0].Coins, 2)
	assert.Equal(t, "ethereum", matched[0].Coins[0].ID)
	assert.Equal(t, "solana", matched[0].Coins[1].ID)
}

func TestMatchDropsUnmatchedArticles(t *testing.T) {
	articles := []gnews.Article{
		{Title: "Stock markets close mixed", Description: "No relevant news", URL: "https://example.com/stocks"},
	}

	matched := Match(articles, catalog(), 50)
	assert.Empty(t, matched)
}

func TestMatchRespectsTopK(t *testing.T) {
	articles := []gnews.Article{
		{Title: "Decentraland adds new districts", URL: "https://example.com/mana"},
	}

	// Decentraland is rank 5; with topK=2 it is outside the candidate set.
	matched := Match(articles, catalog(), 2)
	assert.Empty(t, matched)
}

func TestDedupe(t *testing.T) {
	articles := []Article{
		{Article: gnews.Article{Title: "first", URL: "https://example.com/a"}},
		{Article: gnews.Article{Title: "dup", URL: "https://example.com/a"}},
		{Article: gnews.Article{Title: "second", URL: "https://example.com/b"}},
		{Article: gnews.Article{Title: "no url"}},
	}

	unique := Dedupe(articles)
	require.Len(t, unique, 2)
	assert.Equal(t, "first", unique[0].Title)
	assert.Equal(t, "second", unique[1].Title)

	// Deduping an already unique slice is a no-op.
	assert.Equal(t, unique, Dedupe(unique))
}
