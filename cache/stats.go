package cache

import "github.com/puzpuzpuz/xsync/v3"

// Stats tracks gateway traffic with lock-free counters. It is constructed
// with the gateway and injected wherever counters are needed, so tests get a
// fresh instance instead of sharing process globals.
type Stats struct {
	hits   *xsync.Counter
	misses *xsync.Counter
	errors *xsync.Counter
	stores *xsync.Counter
}

// NewStats returns zeroed counters.
func NewStats() *Stats {
	return &Stats{
		hits:   xsync.NewCounter(),
		misses: xsync.NewCounter(),
		errors: xsync.NewCounter(),
		stores: xsync.NewCounter(),
	}
}

// StatsSnapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	Hits    int64   `json:"cache_hits"`
	Misses  int64   `json:"cache_misses"`
	Errors  int64   `json:"cache_errors"`
	Stores  int64   `json:"cache_stores"`
	HitRate float64 `json:"hit_rate_percent"`
}

// Snapshot reads the counters. The values are individually consistent, not
// a transactional cut; good enough for monitoring.
func (s *Stats) Snapshot() StatsSnapshot {
	snap := StatsSnapshot{
		Hits:   s.hits.Value(),
		Misses: s.misses.Value(),
		Errors: s.errors.Value(),
		Stores: s.stores.Value(),
	}
	if total := snap.Hits + snap.Misses; total > 0 {
		snap.HitRate = float64(snap.Hits) / float64(total) * 100
	}
	return snap
}
