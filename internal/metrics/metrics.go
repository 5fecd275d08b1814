package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	CoinsFetched       int64
	ArticlesFetched    int64
	ArticlesMatched    int64
	DuplicatesFiltered int64
	ArticlesEnhanced   int64
	EnhanceFailures    int64
	FilesWritten       int64
	FilesPruned        int64

	// Timings
	LastRunDuration time.Duration

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) SetCoinsFetched(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CoinsFetched = int64(n)
}

func (m *Metrics) SetArticlesFetched(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesFetched = int64(n)
}

func (m *Metrics) SetArticlesMatched(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesMatched = int64(n)
}

func (m *Metrics) AddDuplicatesFiltered(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesFiltered += int64(n)
}

func (m *Metrics) IncrementEnhanced() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesEnhanced++
}

func (m *Metrics) IncrementEnhanceFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EnhanceFailures++
}

func (m *Metrics) AddFilesWritten(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FilesWritten += int64(n)
}

func (m *Metrics) AddFilesPruned(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FilesPruned += int64(n)
}

func (m *Metrics) SetLastRun(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.LastRunDuration = duration
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"coins_fetched":        m.CoinsFetched,
		"articles_fetched":     m.ArticlesFetched,
		"articles_matched":     m.ArticlesMatched,
		"duplicates_filtered":  m.DuplicatesFiltered,
		"articles_enhanced":    m.ArticlesEnhanced,
		"enhance_failures":     m.EnhanceFailures,
		"files_written":        m.FilesWritten,
		"files_pruned":         m.FilesPruned,
		"last_run_duration_ms": m.LastRunDuration.Milliseconds(),
		"last_run_time":        m.LastRunTime.Format(time.RFC3339),
		"last_error_time":      m.LastErrorTime.Format(time.RFC3339),
		"last_error":           m.LastError,
		"is_healthy":           m.IsHealthy,
	}
}
