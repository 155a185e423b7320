package search

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TrendingCache is where the published trending list goes.
type TrendingCache interface {
	SetTrending(ctx context.Context, region string, queries []string) error
}

// TrendingTracker counts successful queries in memory and periodically
// publishes the top entries. Counts are halved on every publish so old
// spikes fade instead of pinning the list forever.
type TrendingTracker struct {
	mu     sync.Mutex
	counts map[string]int

	cache    TrendingCache
	region   string
	topN     int
	interval time.Duration
	logger   *zap.Logger
}

func NewTrendingTracker(cache TrendingCache, topN int, interval time.Duration, logger *zap.Logger) *TrendingTracker {
	if topN <= 0 {
		topN = 10
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &TrendingTracker{
		counts:   make(map[string]int),
		cache:    cache,
		region:   "global",
		topN:     topN,
		interval: interval,
		logger:   logger,
	}
}

// Record counts one successful query.
func (t *TrendingTracker) Record(query string) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return
	}
	t.mu.Lock()
	t.counts[q]++
	t.mu.Unlock()
}

// Run publishes on a fixed cadence until the context ends.
func (t *TrendingTracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.publish(ctx)
		}
	}
}

func (t *TrendingTracker) publish(ctx context.Context) {
	top := t.snapshotAndDecay()
	if len(top) == 0 {
		return
	}
	if err := t.cache.SetTrending(ctx, t.region, top); err != nil {
		t.logger.Warn("publishing trending queries", zap.Error(err))
	}
}

// snapshotAndDecay returns the current top queries and halves every count,
// dropping entries that decay to zero.
func (t *TrendingTracker) snapshotAndDecay() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	type entry struct {
		query string
		count int
	}
	entries := make([]entry, 0, len(t.counts))
	for q, n := range t.counts {
		entries = append(entries, entry{q, n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].query < entries[j].query
	})

	top := make([]string, 0, t.topN)
	for _, e := range entries {
		if len(top) >= t.topN {
			break
		}
		top = append(top, e.query)
	}

	for q, n := range t.counts {
		if n /= 2; n == 0 {
			delete(t.counts, q)
		} else {
			t.counts[q] = n
		}
	}
	return top
}
