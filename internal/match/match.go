// Package match holds the coin-to-article relevance logic: building the
// aggregated search query and scoring candidate articles against the coin
// catalog.
package match

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/deusflow/cryptonews/internal/coins"
	"github.com/deusflow/cryptonews/internal/gnews"
)

// MaxQueryTerms caps the aggregated query so it stays under the search API's
// effective length limits.
const MaxQueryTerms = 12

// maxSymbolLen bounds how long a ticker symbol may be to stand in for a coin
// name that is unusable as a query term.
const maxSymbolLen = 5

// Relevance weights. Title matches are worth more than description matches,
// and the three signals are additive per coin.
const (
	scoreNameInTitle   = 10.0
	scoreSymbolInTitle = 8.0
	scoreIDInTitle     = 6.0
	scoreNameInDesc    = 5.0
	scoreSymbolInDesc  = 4.0
	scoreIDInDesc      = 3.0
)

// DefaultGenericTerms always lead the aggregated query.
var DefaultGenericTerms = []string{"cryptocurrency", "crypto", "bitcoin"}

var plainTerm = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// MatchedCoin is a coin attached to an enriched article, most relevant first.
type MatchedCoin struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Article is a raw article enriched with its matched coins. When the
// enhancer rewrites an article the original title and description are kept
// alongside the rewritten ones.
type Article struct {
	gnews.Article
	Coins []MatchedCoin

	OriginalTitle       string
	OriginalDescription string
}

// BuildQuery joins the generic terms and the names of the topN coins with
// " OR ". Coins whose names contain characters the search API chokes on
// contribute their ticker symbol instead, if it is short enough. Terms are
// deduplicated case-insensitively in rank order.
func BuildQuery(coinList []coins.Coin, topN int, genericTerms []string) string {
	if len(genericTerms) == 0 {
		genericTerms = DefaultGenericTerms
	}

	top := coinList
	if len(top) > topN {
		top = top[:topN]
	}

	terms := make([]string, 0, MaxQueryTerms)
	seen := make(map[string]struct{})

	for _, t := range genericTerms {
		if len(terms) >= MaxQueryTerms {
			break
		}
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		terms = append(terms, t)
	}

	for _, coin := range top {
		if len(terms) >= MaxQueryTerms {
			break
		}

		term := coin.Name
		if !plainTerm.MatchString(coin.Name) {
			if len(coin.Symbol) == 0 || len(coin.Symbol) > maxSymbolLen {
				continue
			}
			term = strings.ToUpper(coin.Symbol)
		}

		key := strings.ToLower(term)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		terms = append(terms, term)
	}

	query := strings.Join(terms, " OR ")
	slog.Info("built aggregated query", "terms", len(terms), "top_coins", topN)
	return query
}

// Match attaches coins to articles by textual heuristics. Only the topK
// coins by rank participate, a precision/recall trade-off that keeps low-cap
// coins with dictionary-word names from producing false positives. Articles
// that match no coin are dropped.
func Match(articles []gnews.Article, coinList []coins.Coin, topK int) []Article {
	candidates := coinList
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	// The word-boundary regex gates the mention test only. The score signals
	// below are all plain substring checks, so a coin whose name contains its
	// own symbol (eth in ethereum) collects the symbol bonus too.
	symbolPatterns := make([]*regexp.Regexp, len(candidates))
	for i, coin := range candidates {
		symbolPatterns[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(coin.Symbol)) + `\b`)
	}

	slog.Info("matching articles to coins", "articles", len(articles), "coins", len(candidates))

	var enriched []Article
	for _, article := range articles {
		title := strings.ToLower(article.Title)
		desc := strings.ToLower(article.Description)
		text := title + " " + desc

		type scored struct {
			coin  MatchedCoin
			score float64
		}
		var matched []scored

		for i, coin := range candidates {
			name := strings.ToLower(coin.Name)
			symbol := strings.ToLower(coin.Symbol)
			id := strings.ToLower(coin.ID)

			mentioned := strings.Contains(text, name) ||
				symbolPatterns[i].MatchString(text) ||
				strings.Contains(text, id)
			if !mentioned {
				continue
			}

			score := 0.0
			if strings.Contains(title, name) {
				score += scoreNameInTitle
			}
			if strings.Contains(title, symbol) {
				score += scoreSymbolInTitle
			}
			if strings.Contains(title, id) {
				score += scoreIDInTitle
			}
			if strings.Contains(desc, name) {
				score += scoreNameInDesc
			}
			if strings.Contains(desc, symbol) {
				score += scoreSymbolInDesc
			}
			if strings.Contains(desc, id) {
				score += scoreIDInDesc
			}

			matched = append(matched, scored{
				coin:  MatchedCoin{ID: coin.ID, Symbol: coin.Symbol, Name: coin.Name},
				score: score,
			})
		}

		if len(matched) == 0 {
			continue
		}

		// Stable sort keeps rank order between equal scores.
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].score > matched[j].score })

		coinsOut := make([]MatchedCoin, len(matched))
		for i, m := range matched {
			coinsOut[i] = m.coin
		}

		enriched = append(enriched, Article{Article: article, Coins: coinsOut})
	}

	slog.Info("matched articles", "count", len(enriched))
	return enriched
}

// Dedupe removes repeat articles by URL, keeping first-seen order. Articles
// without a URL are dropped.
func Dedupe(articles []Article) []Article {
	seen := make(map[string]struct{})
	unique := make([]Article, 0, len(articles))

	for _, article := range articles {
		if article.URL == "" {
			continue
		}
		if _, dup := seen[article.URL]; dup {
			continue
		}
		seen[article.URL] = struct{}{}
		unique = append(unique, article)
	}

	if removed := len(articles) - len(unique); removed > 0 {
		slog.Info("removed duplicate articles", "count", removed)
	}

	return unique
}
