package tracker

import (
	"sync"
	"sync/atomic"
)

// Tracker counts asset cache traffic per source host and simulation runs.
type Tracker struct {
	mu    sync.RWMutex
	stats map[string]*SourceStats
	runs  RunStats
}

// SourceStats holds metrics for one upstream host.
// Fields are accessed atomically.
type SourceStats struct {
	CacheHits     int64 `json:"cache_hits"`
	CacheMisses   int64 `json:"cache_misses"`
	FetchSuccess  int64 `json:"fetch_success"`
	FetchFailures int64 `json:"fetch_failures"`
}

// RunStats holds simulation counters.
// Fields are accessed atomically.
type RunStats struct {
	Started  int64 `json:"started"`
	Finished int64 `json:"finished"`
	Arrived  int64 `json:"arrived"`
	Canceled int64 `json:"canceled"`
	Rejected int64 `json:"rejected"` // invalid input or rate limited
	Ticks    int64 `json:"ticks"`
	Dropped  int64 `json:"dropped"` // updates a slow consumer missed
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Sources map[string]SourceStats `json:"sources"`
	Runs    RunStats               `json:"runs"`
}

// New creates a new Tracker.
func New() *Tracker {
	return &Tracker{
		stats: make(map[string]*SourceStats),
	}
}

func (t *Tracker) getStats(source string) *SourceStats {
	t.mu.RLock()
	s, ok := t.stats[source]
	t.mu.RUnlock()
	if ok {
		return s
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok = t.stats[source]; ok {
		return s
	}
	s = &SourceStats{}
	t.stats[source] = s
	return s
}

func (t *Tracker) TrackCacheHit(source string) {
	atomic.AddInt64(&t.getStats(source).CacheHits, 1)
}

func (t *Tracker) TrackCacheMiss(source string) {
	atomic.AddInt64(&t.getStats(source).CacheMisses, 1)
}

func (t *Tracker) TrackFetchSuccess(source string) {
	atomic.AddInt64(&t.getStats(source).FetchSuccess, 1)
}

func (t *Tracker) TrackFetchFailure(source string) {
	atomic.AddInt64(&t.getStats(source).FetchFailures, 1)
}

// TrackRunStarted counts a simulation that passed validation.
func (t *Tracker) TrackRunStarted() {
	atomic.AddInt64(&t.runs.Started, 1)
}

// TrackRunRejected counts an init that never started.
func (t *Tracker) TrackRunRejected() {
	atomic.AddInt64(&t.runs.Rejected, 1)
}

// TrackRunFinished records the outcome of a started simulation.
func (t *Tracker) TrackRunFinished(ticks int, arrived, canceled bool, dropped int64) {
	atomic.AddInt64(&t.runs.Finished, 1)
	atomic.AddInt64(&t.runs.Ticks, int64(ticks))
	atomic.AddInt64(&t.runs.Dropped, dropped)
	if arrived {
		atomic.AddInt64(&t.runs.Arrived, 1)
	}
	if canceled {
		atomic.AddInt64(&t.runs.Canceled, 1)
	}
}

// Snapshot returns a copy of the current stats.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	sources := make(map[string]SourceStats, len(t.stats))
	for k, v := range t.stats {
		sources[k] = SourceStats{
			CacheHits:     atomic.LoadInt64(&v.CacheHits),
			CacheMisses:   atomic.LoadInt64(&v.CacheMisses),
			FetchSuccess:  atomic.LoadInt64(&v.FetchSuccess),
			FetchFailures: atomic.LoadInt64(&v.FetchFailures),
		}
	}
	return Snapshot{
		Sources: sources,
		Runs: RunStats{
			Started:  atomic.LoadInt64(&t.runs.Started),
			Finished: atomic.LoadInt64(&t.runs.Finished),
			Arrived:  atomic.LoadInt64(&t.runs.Arrived),
			Canceled: atomic.LoadInt64(&t.runs.Canceled),
			Rejected: atomic.LoadInt64(&t.runs.Rejected),
			Ticks:    atomic.LoadInt64(&t.runs.Ticks),
			Dropped:  atomic.LoadInt64(&t.runs.Dropped),
		},
	}
}
