package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Coin catalog (CoinGecko) settings
	CoinGeckoAPIKey    string
	TopNCoins          int
	CoinGeckoRateLimit int // calls per minute
	CoinsFilePath      string

	// News search (GNews) settings
	GNewsAPIKey       string
	NewsLanguage      string
	NewsCountry       string
	MaxArticlesPerRun int
	GNewsDailyLimit   int

	// Query/matching trade-off constants. QueryTopCoins bounds the aggregated
	// search query, MatchTopCoins bounds the matching vocabulary; they differ
	// on purpose (query length vs. false positives from low-cap coins).
	QueryTopCoins  int
	MatchTopCoins  int
	QueryTermsPath string

	// Rewrite (AI) settings
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIMaxTokens   int
	GeminiAPIKey      string
	RewriteLanguage   string
	RewriteDailyLimit int
	EnhanceEnabled    bool

	// Scraper settings
	ScrapeTimeout time.Duration
	ScrapeDelay   time.Duration
	UserAgent     string

	// Content settings
	ContentDir string
	DaysToKeep int
	BaseURL    string

	// App settings
	LogLevel       string
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
}

func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		// Default values
		TopNCoins:          100,
		CoinGeckoRateLimit: 10,
		CoinsFilePath:      "data/coins.json",
		NewsLanguage:       "en",
		NewsCountry:        "us",
		MaxArticlesPerRun:  100,
		GNewsDailyLimit:    100,
		QueryTopCoins:      20,
		MatchTopCoins:      50,
		QueryTermsPath:     "configs/query.yaml",
		OpenAIModel:        "gpt-3.5-turbo",
		OpenAIMaxTokens:    2000,
		RewriteLanguage:    "German",
		RewriteDailyLimit:  100,
		ScrapeTimeout:      15 * time.Second,
		ScrapeDelay:        2 * time.Second,
		UserAgent:          "Mozilla/5.0 (compatible; CryptoNewsBot/1.0)",
		ContentDir:         "site/content/news",
		DaysToKeep:         30,
		LogLevel:           "INFO",
		RequestTimeout:     30 * time.Second,
		RetryAttempts:      3,
		RetryBaseDelay:     1 * time.Second,
	}

	// Load from environment
	cfg.CoinGeckoAPIKey = os.Getenv("COINGECKO_API_KEY")
	cfg.GNewsAPIKey = os.Getenv("GNEWS_API_KEY")
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")

	cfg.TopNCoins = getEnvIntOrDefault("TOP_N_COINS", cfg.TopNCoins)
	cfg.CoinGeckoRateLimit = getEnvIntOrDefault("COINGECKO_RATE_LIMIT", cfg.CoinGeckoRateLimit)
	cfg.CoinsFilePath = getEnvOrDefault("COINS_FILE", cfg.CoinsFilePath)

	cfg.NewsLanguage = getEnvOrDefault("NEWS_LANGUAGE", cfg.NewsLanguage)
	cfg.NewsCountry = getEnvOrDefault("NEWS_COUNTRY", cfg.NewsCountry)
	cfg.MaxArticlesPerRun = getEnvIntOrDefault("MAX_ARTICLES_PER_RUN", cfg.MaxArticlesPerRun)
	cfg.GNewsDailyLimit = getEnvIntOrDefault("GNEWS_DAILY_LIMIT", cfg.GNewsDailyLimit)

	cfg.QueryTopCoins = getEnvIntOrDefault("QUERY_TOP_COINS", cfg.QueryTopCoins)
	cfg.MatchTopCoins = getEnvIntOrDefault("MATCH_TOP_COINS", cfg.MatchTopCoins)
	cfg.QueryTermsPath = getEnvOrDefault("QUERY_TERMS_PATH", cfg.QueryTermsPath)

	cfg.OpenAIModel = getEnvOrDefault("OPENAI_MODEL", cfg.OpenAIModel)
	cfg.OpenAIMaxTokens = getEnvIntOrDefault("OPENAI_MAX_TOKENS", cfg.OpenAIMaxTokens)
	cfg.RewriteLanguage = getEnvOrDefault("REWRITE_LANGUAGE", cfg.RewriteLanguage)
	cfg.RewriteDailyLimit = getEnvIntOrDefault("REWRITE_DAILY_LIMIT", cfg.RewriteDailyLimit)
	cfg.EnhanceEnabled = os.Getenv("ENHANCE_ENABLED") == "true"

	cfg.ScrapeTimeout = getEnvSecondsOrDefault("SCRAPE_TIMEOUT", cfg.ScrapeTimeout)
	cfg.ScrapeDelay = getEnvSecondsOrDefault("SCRAPE_DELAY", cfg.ScrapeDelay)
	cfg.UserAgent = getEnvOrDefault("USER_AGENT", cfg.UserAgent)

	cfg.ContentDir = getEnvOrDefault("CONTENT_DIR", cfg.ContentDir)
	cfg.DaysToKeep = getEnvIntOrDefault("DAYS_TO_KEEP", cfg.DaysToKeep)
	cfg.BaseURL = os.Getenv("BASE_URL")

	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.RetryAttempts = getEnvIntOrDefault("RETRY_ATTEMPTS", cfg.RetryAttempts)

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvSecondsOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return time.Duration(intValue) * time.Second
		}
	}
	return defaultValue
}

// Validate checks ranges only. API keys are checked by the stage that needs
// them so a missing rewrite key does not stop the catalog or news stages.
func (c *Config) Validate() error {
	if c.TopNCoins <= 0 {
		return fmt.Errorf("TOP_N_COINS must be positive")
	}
	if c.QueryTopCoins <= 0 || c.MatchTopCoins <= 0 {
		return fmt.Errorf("QUERY_TOP_COINS and MATCH_TOP_COINS must be positive")
	}
	if c.MaxArticlesPerRun <= 0 {
		return fmt.Errorf("MAX_ARTICLES_PER_RUN must be positive")
	}
	if c.DaysToKeep <= 0 {
		return fmt.Errorf("DAYS_TO_KEEP must be positive")
	}
	if c.CoinGeckoRateLimit <= 0 {
		return fmt.Errorf("COINGECKO_RATE_LIMIT must be positive")
	}
	return nil
}
