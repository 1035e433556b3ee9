package api

import (
	"encoding/json"
	"net/http"

	"pigeonflight/pkg/tracker"
)

type StatsHandler struct {
	tracker *tracker.Tracker
}

func NewStatsHandler(t *tracker.Tracker) *StatsHandler {
	return &StatsHandler{tracker: t}
}

type SourceStatsDTO struct {
	CacheHits     int64 `json:"cache_hits"`
	CacheMisses   int64 `json:"cache_misses"`
	FetchSuccess  int64 `json:"fetch_success"`
	FetchFailures int64 `json:"fetch_errors"`
	HitRate       int64 `json:"hit_rate"`
}

type RunStatsDTO struct {
	Started  int64 `json:"started"`
	Active   int64 `json:"active"`
	Arrived  int64 `json:"arrived"`
	Canceled int64 `json:"canceled"`
	Rejected int64 `json:"rejected"`
	Ticks    int64 `json:"ticks"`
	Dropped  int64 `json:"dropped"`
}

type StatsResponse struct {
	Runs    RunStatsDTO               `json:"runs"`
	Sources map[string]SourceStatsDTO `json:"sources"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snapshot := h.tracker.Snapshot()

	runs := snapshot.Runs
	resp := StatsResponse{
		Runs: RunStatsDTO{
			Started:  runs.Started,
			Active:   runs.Started - runs.Finished,
			Arrived:  runs.Arrived,
			Canceled: runs.Canceled,
			Rejected: runs.Rejected,
			Ticks:    runs.Ticks,
			Dropped:  runs.Dropped,
		},
		Sources: make(map[string]SourceStatsDTO, len(snapshot.Sources)),
	}

	for source, stats := range snapshot.Sources {
		totalCache := stats.CacheHits + stats.CacheMisses
		hitRate := int64(0)
		if totalCache > 0 {
			hitRate = (stats.CacheHits * 100) / totalCache
		}
		resp.Sources[source] = SourceStatsDTO{
			CacheHits:     stats.CacheHits,
			CacheMisses:   stats.CacheMisses,
			FetchSuccess:  stats.FetchSuccess,
			FetchFailures: stats.FetchFailures,
			HitRate:       hitRate,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
