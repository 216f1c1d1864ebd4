package mctext

import (
	"sync/atomic"
)

// ClientStats contains counters about client operations.
//
// For Prometheus integration, expose these as:
//   - Counters: Gets, Sets, Deletes, StatsRequests, Errors
//   - Counter: GetHits (derive hit rate as GetHits/Gets)
//   - Counters: BytesSent, BytesReceived
type ClientStats struct {
	Gets          uint64 // Total Get operations
	GetHits       uint64 // Get operations that found the key
	Sets          uint64 // Total Set operations
	SetsStored    uint64 // Set operations acknowledged with STORED
	Deletes       uint64 // Total Delete operations
	StatsRequests uint64 // Total Stats operations
	Errors        uint64 // Operations that returned an error
	BytesSent     uint64
	BytesReceived uint64
}

// clientStatsCollector updates ClientStats atomically.
// Not exported - the client updates its own stats.
type clientStatsCollector struct {
	stats ClientStats
}

func (c *clientStatsCollector) recordGet(found bool) {
	atomic.AddUint64(&c.stats.Gets, 1)
	if found {
		atomic.AddUint64(&c.stats.GetHits, 1)
	}
}

func (c *clientStatsCollector) recordSet(stored bool) {
	atomic.AddUint64(&c.stats.Sets, 1)
	if stored {
		atomic.AddUint64(&c.stats.SetsStored, 1)
	}
}

func (c *clientStatsCollector) recordDelete() {
	atomic.AddUint64(&c.stats.Deletes, 1)
}

func (c *clientStatsCollector) recordStats() {
	atomic.AddUint64(&c.stats.StatsRequests, 1)
}

func (c *clientStatsCollector) recordError() {
	atomic.AddUint64(&c.stats.Errors, 1)
}

func (c *clientStatsCollector) recordSent(n int) {
	atomic.AddUint64(&c.stats.BytesSent, uint64(n))
}

func (c *clientStatsCollector) recordReceived(n int) {
	atomic.AddUint64(&c.stats.BytesReceived, uint64(n))
}

func (c *clientStatsCollector) snapshot() ClientStats {
	return ClientStats{
		Gets:          atomic.LoadUint64(&c.stats.Gets),
		GetHits:       atomic.LoadUint64(&c.stats.GetHits),
		Sets:          atomic.LoadUint64(&c.stats.Sets),
		SetsStored:    atomic.LoadUint64(&c.stats.SetsStored),
		Deletes:       atomic.LoadUint64(&c.stats.Deletes),
		StatsRequests: atomic.LoadUint64(&c.stats.StatsRequests),
		Errors:        atomic.LoadUint64(&c.stats.Errors),
		BytesSent:     atomic.LoadUint64(&c.stats.BytesSent),
		BytesReceived: atomic.LoadUint64(&c.stats.BytesReceived),
	}
}
