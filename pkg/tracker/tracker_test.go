package tracker

import (
	"sync"
	"testing"
)

func TestTracker_Sources(t *testing.T) {
	tr := New()
	source := "cdn.example.com"

	if snap := tr.Snapshot(); len(snap.Sources) != 0 {
		t.Errorf("Expected empty stats, got %d", len(snap.Sources))
	}

	tr.TrackCacheHit(source)
	tr.TrackCacheMiss(source)
	tr.TrackFetchSuccess(source)
	tr.TrackFetchFailure(source)
	tr.TrackFetchFailure(source)

	s, ok := tr.Snapshot().Sources[source]
	if !ok {
		t.Fatalf("Expected stats for source %s", source)
	}
	if s.CacheHits != 1 || s.CacheMisses != 1 || s.FetchSuccess != 1 || s.FetchFailures != 2 {
		t.Errorf("unexpected stats: %+v", s)
	}
}

func TestTracker_Runs(t *testing.T) {
	tr := New()

	tr.TrackRunRejected()
	tr.TrackRunStarted()
	tr.TrackRunFinished(3500, true, false, 2)
	tr.TrackRunStarted()
	tr.TrackRunFinished(10, false, true, 0)

	runs := tr.Snapshot().Runs
	want := RunStats{Started: 2, Finished: 2, Arrived: 1, Canceled: 1, Rejected: 1, Ticks: 3510, Dropped: 2}
	if runs != want {
		t.Errorf("Runs = %+v, want %+v", runs, want)
	}
}

func TestTracker_Concurrent(t *testing.T) {
	tr := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.TrackCacheHit("a")
			tr.TrackRunStarted()
		}()
	}
	wg.Wait()

	snap := tr.Snapshot()
	if snap.Sources["a"].CacheHits != 50 {
		t.Errorf("CacheHits = %d, want 50", snap.Sources["a"].CacheHits)
	}
	if snap.Runs.Started != 50 {
		t.Errorf("Started = %d, want 50", snap.Runs.Started)
	}
}
