// file: internal/metrics/metrics_test.go
// version: 2.0.0
// guid: 7a8b9c0d-1e2f-3a4b-5c6d-7e8f9a0b1c2d

package metrics

import (
	"testing"
	"time"
)

func TestIncStageHit(t *testing.T) {
	IncStageHit("wikidata")
}

func TestIncStageMiss(t *testing.T) {
	IncStageMiss("openlibrary")
}

func TestIncStageError(t *testing.T) {
	IncStageError("google")
}

func TestObserveStageDuration(t *testing.T) {
	ObserveStageDuration("wikidata", 100*time.Millisecond)
}

func TestIncResolution(t *testing.T) {
	IncResolution("wikidata")
	IncResolution("unresolved")
}

func TestSetCachedResolutions(t *testing.T) {
	SetCachedResolutions(42)
}

func TestSetMemoryAlloc(t *testing.T) {
	SetMemoryAlloc(1024 * 1024)
}

func TestSetGoroutines(t *testing.T) {
	SetGoroutines(10)
}

func TestStageLifecycle(t *testing.T) {
	stage := "heuristic"
	start := time.Now()
	time.Sleep(10 * time.Millisecond)
	ObserveStageDuration(stage, time.Since(start))
	IncStageHit(stage)
}
