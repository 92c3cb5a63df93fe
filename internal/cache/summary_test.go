package cache

import (
	"testing"
	"time"

	"tally/internal/analytics"
	"tally/internal/core"
)

func TestSummaryCacheRevInvalidation(t *testing.T) {
	c := NewSummaryCache(10, time.Minute)
	march := core.YearMonth{Year: 2024, Month: time.March}

	if _, ok := c.Get(march, 1); ok {
		t.Fatal("Get on empty cache returned a hit")
	}

	c.Set(march, 1, analytics.MonthSummary{Month: march})
	if _, ok := c.Get(march, 1); !ok {
		t.Error("Get(rev 1) missed after Set")
	}

	// A store write bumps the revision, so the old entry is unreachable.
	if _, ok := c.Get(march, 2); ok {
		t.Error("Get(rev 2) hit a summary computed at rev 1")
	}
}

func TestSummaryCacheTTL(t *testing.T) {
	c := NewSummaryCache(10, time.Nanosecond)
	march := core.YearMonth{Year: 2024, Month: time.March}
	c.Set(march, 1, analytics.MonthSummary{Month: march})

	time.Sleep(time.Millisecond)
	if _, ok := c.Get(march, 1); ok {
		t.Error("Get returned an expired entry")
	}
	if c.CleanExpired() != 0 {
		t.Error("expired entry was not removed by the failed Get")
	}
}

func TestLRUEviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry survived eviction")
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}
