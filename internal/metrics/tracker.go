package metrics

import (
	"context"
	"runtime"
	"sync"
	"time"

	"chatd/pkg/types"
)

// Inference outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Tracker accumulates process-lifetime counters. A disabled Tracker is
// valid and turns every call into a no-op.
type Tracker struct {
	enabled bool

	mu         sync.Mutex
	loads      uint64
	inferences uint64
	errs       uint64
	estTokens  uint64
	lastLoad   time.Duration
	lastInfer  time.Duration
	totalInfer time.Duration
	peakAlloc  uint64
}

// NewTracker returns a Tracker; pass false to disable all recording.
func NewTracker(enabled bool) *Tracker {
	return &Tracker{enabled: enabled}
}

// Enabled reports whether recording is on.
func (t *Tracker) Enabled() bool { return t.enabled }

// RecordLoad notes one completed model load.
func (t *Tracker) RecordLoad(d time.Duration) {
	if !t.enabled {
		return
	}
	t.mu.Lock()
	t.loads++
	t.lastLoad = d
	t.mu.Unlock()
	modelLoadsTotal.Inc()
	modelLoadDuration.Observe(d.Seconds())
	t.SampleMemory()
}

// RecordInference notes one finished inference call, successful or not.
func (t *Tracker) RecordInference(d time.Duration, estTokens int, outcome string) {
	if !t.enabled {
		return
	}
	t.mu.Lock()
	t.inferences++
	t.lastInfer = d
	t.totalInfer += d
	if estTokens > 0 {
		t.estTokens += uint64(estTokens)
	}
	t.mu.Unlock()
	inferencesTotal.WithLabelValues(outcome).Inc()
	inferenceDuration.Observe(d.Seconds())
	if estTokens > 0 {
		estTokensTotal.Add(float64(estTokens))
	}
	t.SampleMemory()
}

// RecordError notes one classified error.
func (t *Tracker) RecordError(kind string) {
	if !t.enabled {
		return
	}
	t.mu.Lock()
	t.errs++
	t.mu.Unlock()
	if kind == "" {
		kind = "unclassified"
	}
	errorsTotal.WithLabelValues(kind).Inc()
}

// SampleMemory reads the runtime heap stats and keeps the peak.
func (t *Tracker) SampleMemory() {
	if !t.enabled {
		return
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	t.mu.Lock()
	if ms.Alloc > t.peakAlloc {
		t.peakAlloc = ms.Alloc
		peakAllocBytes.Set(float64(ms.Alloc))
	}
	t.mu.Unlock()
}

// StartSampler samples memory on the given interval until ctx ends.
func (t *Tracker) StartSampler(ctx context.Context, interval time.Duration) {
	if !t.enabled || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.SampleMemory()
			}
		}
	}()
}

// Summary snapshots the counters for /status; nil when disabled.
func (t *Tracker) Summary() *types.MetricsSummary {
	if !t.enabled {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	s := &types.MetricsSummary{
		LoadsTotal:      t.loads,
		InferencesTotal: t.inferences,
		ErrorsTotal:     t.errs,
		LastLoadMS:      t.lastLoad.Milliseconds(),
		LastInferMS:     t.lastInfer.Milliseconds(),
		PeakAllocMB:     t.peakAlloc / (1 << 20),
		EstTokensTotal:  t.estTokens,
	}
	if t.inferences > 0 {
		s.AvgInferMS = (t.totalInfer / time.Duration(t.inferences)).Milliseconds()
	}
	return s
}

// Reset zeroes the process-lifetime counters. The Prometheus collectors are
// cumulative by contract and stay untouched.
func (t *Tracker) Reset() {
	if !t.enabled {
		return
	}
	t.mu.Lock()
	t.loads = 0
	t.inferences = 0
	t.errs = 0
	t.estTokens = 0
	t.lastLoad = 0
	t.lastInfer = 0
	t.totalInfer = 0
	t.peakAlloc = 0
	t.mu.Unlock()
}
