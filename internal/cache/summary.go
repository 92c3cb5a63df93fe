package cache

import (
	"fmt"
	"time"

	"tally/internal/analytics"
	"tally/internal/core"
)

// SummaryCache memoizes monthly summaries. Entries are keyed by month plus
// the transaction store revision they were computed from, so any write to
// the history naturally invalidates every cached month without explicit
// eviction.
type SummaryCache struct {
	lru *LRUCache[analytics.MonthSummary]
}

func NewSummaryCache(maxSize int, ttl time.Duration) *SummaryCache {
	return &SummaryCache{lru: NewLRUCache[analytics.MonthSummary](maxSize, ttl)}
}

func summaryKey(month core.YearMonth, rev int64) string {
	return fmt.Sprintf("%s@%d", month, rev)
}

func (c *SummaryCache) Get(month core.YearMonth, rev int64) (analytics.MonthSummary, bool) {
	return c.lru.Get(summaryKey(month, rev))
}

func (c *SummaryCache) Set(month core.YearMonth, rev int64, s analytics.MonthSummary) {
	c.lru.Set(summaryKey(month, rev), s)
}

// CleanExpired lets the cache register with the cleanup manager.
func (c *SummaryCache) CleanExpired() int {
	return c.lru.CleanExpired()
}

func (c *SummaryCache) Size() int {
	return c.lru.Size()
}
