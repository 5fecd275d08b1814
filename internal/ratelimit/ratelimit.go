package ratelimit

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Budget tracks daily call counts against the free-tier ceilings of the
// external services (news search, AI rewrite). Counters reset 24h after the
// budget is created.
type Budget struct {
	mu      sync.Mutex
	counts  map[string]int
	limits  map[string]int
	resetAt time.Time
}

// NewBudget creates a budget from service name -> daily limit. A limit of 0
// means unlimited.
func NewBudget(limits map[string]int) *Budget {
	copied := make(map[string]int, len(limits))
	for k, v := range limits {
		copied[k] = v
	}
	return &Budget{
		counts:  make(map[string]int),
		limits:  copied,
		resetAt: time.Now().Add(24 * time.Hour),
	}
}

// Allow reports whether one more call to service fits the daily budget.
func (b *Budget) Allow(service string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkReset()

	limit := b.limits[service]
	if limit > 0 && b.counts[service] >= limit {
		slog.Warn("daily budget reached", "service", service, "used", b.counts[service], "limit", limit)
		return false
	}
	return true
}

// Use records one call to service, failing if the budget is exhausted.
func (b *Budget) Use(service string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkReset()

	limit := b.limits[service]
	if limit > 0 && b.counts[service] >= limit {
		return fmt.Errorf("%s daily budget exceeded (%d/%d)", service, b.counts[service], limit)
	}

	b.counts[service]++
	slog.Debug("budget used", "service", service, "used", b.counts[service], "limit", limit)
	return nil
}

// Stats returns current usage per service.
func (b *Budget) Stats() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats := make(map[string]any, len(b.limits)*2+1)
	for service, limit := range b.limits {
		stats[service+"_used"] = b.counts[service]
		stats[service+"_limit"] = limit
	}
	stats["reset_time"] = b.resetAt
	return stats
}

// checkReset clears counters once the daily window has passed.
func (b *Budget) checkReset() {
	if time.Now().After(b.resetAt) {
		slog.Info("resetting daily call budget")
		b.counts = make(map[string]int)
		b.resetAt = time.Now().Add(24 * time.Hour)
	}
}
