// Package monitoring keeps in-process counters for the prediction service.
package monitoring

import (
	"runtime"
	"sort"
	"sync"
	"time"
)

// Counter names.
const (
	PredictionsTotal     = "predictions_total"
	CacheHitsTotal       = "prediction_cache_hits_total"
	FailuresTotal        = "prediction_failures_total"
	ArtifactChangesTotal = "artifact_changes_total"
)

// 延迟窗口大小
const latencyWindow = 1000

// Collector 指标收集器
type Collector struct {
	mu        sync.RWMutex
	counters  map[string]float64
	verdicts  map[string]float64
	failures  map[string]float64
	latencies []float64
	startTime time.Time
}

func NewCollector() *Collector {
	return &Collector{
		counters:  make(map[string]float64),
		verdicts:  make(map[string]float64),
		failures:  make(map[string]float64),
		startTime: time.Now(),
	}
}

// ObservePrediction records a successful prediction.
func (c *Collector) ObservePrediction(verdict string, latency time.Duration, cached bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counters[PredictionsTotal]++
	c.verdicts[verdict]++
	if cached {
		c.counters[CacheHitsTotal]++
	}
	c.latencies = append(c.latencies, float64(latency)/float64(time.Millisecond))
	// Keep the most recent samples only.
	if len(c.latencies) > latencyWindow {
		c.latencies = c.latencies[100:]
	}
}

// ObserveFailure records a failed prediction by error kind.
func (c *Collector) ObserveFailure(kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counters[FailuresTotal]++
	c.failures[kind]++
}

// ObserveArtifactChange counts on-disk changes to the loaded bundle. A
// non-zero count means the process serves a stale model.
func (c *Collector) ObserveArtifactChange() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counters[ArtifactChangesTotal]++
}

// LatencySummary describes the recent latency window in milliseconds.
type LatencySummary struct {
	Count int     `json:"count"`
	Min   float64 `json:"min_ms"`
	Max   float64 `json:"max_ms"`
	Avg   float64 `json:"avg_ms"`
	P95   float64 `json:"p95_ms"`
}

type RuntimeStats struct {
	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heap_alloc_bytes"`
	NumGC      uint32 `json:"gc_count"`
}

// Snapshot is a point-in-time copy of every metric.
type Snapshot struct {
	Uptime   string             `json:"uptime"`
	Counters map[string]float64 `json:"counters"`
	Verdicts map[string]float64 `json:"verdicts"`
	Failures map[string]float64 `json:"failures"`
	Latency  LatencySummary     `json:"latency"`
	Runtime  RuntimeStats       `json:"runtime"`
}

func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	snap := Snapshot{
		Uptime:   time.Since(c.startTime).Round(time.Second).String(),
		Counters: copyMap(c.counters),
		Verdicts: copyMap(c.verdicts),
		Failures: copyMap(c.failures),
		Latency:  summarize(c.latencies),
	}
	c.mu.RUnlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	snap.Runtime = RuntimeStats{
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  m.HeapAlloc,
		NumGC:      m.NumGC,
	}
	return snap
}

func copyMap(src map[string]float64) map[string]float64 {
	dst := make(map[string]float64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func summarize(samples []float64) LatencySummary {
	if len(samples) == 0 {
		return LatencySummary{}
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	idx := int(float64(len(sorted))*0.95+0.5) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return LatencySummary{
		Count: len(sorted),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		Avg:   sum / float64(len(sorted)),
		P95:   sorted[idx],
	}
}
