package services

import (
	"sync"
	"time"

	"github.com/vidtube/backend/internal/metrics"
	"github.com/vidtube/backend/internal/models"
)

const statsCacheSweepThreshold = 1024

type statsEntry struct {
	stats   models.ChannelStats
	expires time.Time
}

// StatsCache keeps recently computed channel stats for a short TTL.
// A nil cache or a non-positive TTL disables caching.
type StatsCache struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.RWMutex
	items map[string]statsEntry
}

// NewStatsCache returns a cache that keeps entries for ttl.
func NewStatsCache(ttl time.Duration) *StatsCache {
	return &StatsCache{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]statsEntry),
	}
}

// Get returns unexpired stats for the channel.
func (c *StatsCache) Get(channelID string) (models.ChannelStats, bool) {
	if c == nil || c.ttl <= 0 {
		return models.ChannelStats{}, false
	}

	c.mu.RLock()
	entry, ok := c.items[channelID]
	c.mu.RUnlock()

	if ok && c.now().Before(entry.expires) {
		metrics.StatsCacheLookups.WithLabelValues("hit").Inc()
		return entry.stats, true
	}
	metrics.StatsCacheLookups.WithLabelValues("miss").Inc()
	return models.ChannelStats{}, false
}

// Put stores stats for the channel.
func (c *StatsCache) Put(channelID string, stats models.ChannelStats) {
	if c == nil || c.ttl <= 0 {
		return
	}

	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) >= statsCacheSweepThreshold {
		for id, entry := range c.items {
			if !now.Before(entry.expires) {
				delete(c.items, id)
			}
		}
	}
	c.items[channelID] = statsEntry{stats: stats, expires: now.Add(c.ttl)}
}

// Invalidate drops any cached stats for the channel.
func (c *StatsCache) Invalidate(channelID string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.items, channelID)
	c.mu.Unlock()
}
