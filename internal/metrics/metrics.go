// file: internal/metrics/metrics.go
// version: 2.0.0
// guid: 9f8e7d6c-5b4a-3210-9fed-cba876543210

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	stageHit = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "canonmap",
		Name:      "stage_hits_total",
		Help:      "Total number of resolutions produced by each pipeline stage",
	}, []string{"stage"})
	stageMiss = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "canonmap",
		Name:      "stage_misses_total",
		Help:      "Total number of times a stage ran but produced no result",
	}, []string{"stage"})
	stageError = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "canonmap",
		Name:      "stage_errors_total",
		Help:      "Total number of stage failures by stage",
	}, []string{"stage"})
	stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "canonmap",
		Name:      "stage_duration_seconds",
		Help:      "Histogram of per-stage durations in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.05, 1.6, 10), // ~50ms up to several seconds
	}, []string{"stage"})

	resolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "canonmap",
		Name:      "resolutions_total",
		Help:      "Total number of resolution requests by outcome",
	}, []string{"outcome"})
	cachedResolutionsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "canonmap",
		Name:      "cached_resolutions_total",
		Help:      "Current number of resolutions held in the persistent cache",
	})
	memoryAllocGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "canonmap",
		Name:      "process_memory_alloc_bytes",
		Help:      "Current process memory allocation (runtime.Alloc)",
	})
	goroutinesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "canonmap",
		Name:      "process_goroutines",
		Help:      "Number of currently running goroutines",
	})
)

// Register initializes metrics with the global Prometheus registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(stageHit, stageMiss, stageError, stageDuration,
			resolutionsTotal, cachedResolutionsGauge, memoryAllocGauge, goroutinesGauge)
	})
}

// Stage lifecycle helpers
func IncStageHit(stage string)   { stageHit.WithLabelValues(stage).Inc() }
func IncStageMiss(stage string)  { stageMiss.WithLabelValues(stage).Inc() }
func IncStageError(stage string) { stageError.WithLabelValues(stage).Inc() }
func ObserveStageDuration(stage string, d time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// IncResolution records a finished resolution request. Outcome is either the
// producing stage name or "unresolved".
func IncResolution(outcome string) { resolutionsTotal.WithLabelValues(outcome).Inc() }

// Gauges
func SetCachedResolutions(n int) { cachedResolutionsGauge.Set(float64(n)) }
func SetMemoryAlloc(b uint64)    { memoryAllocGauge.Set(float64(b)) }
func SetGoroutines(n int)        { goroutinesGauge.Set(float64(n)) }
