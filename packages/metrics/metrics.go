// Package metrics records per-endpoint latencies for a batch run and
// summarizes them into percentiles for the batch report.
package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	// histogram range: 1us to 60s, 3 significant digits
	histMin = 1
	histMax = 60_000_000
)

// Recorder collects latency observations. Safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	hist  *hdrhistogram.Histogram
	count int64
}

func NewRecorder() *Recorder {
	return &Recorder{
		hist: hdrhistogram.New(histMin, histMax, 3),
	}
}

// Record adds one latency observation.
func (r *Recorder) Record(d time.Duration) {
	us := d.Microseconds()
	if us < histMin {
		us = histMin
	}
	if us > histMax {
		us = histMax
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.hist.RecordValue(us)
	r.count++
}

// LatencySummary reports latency percentiles in milliseconds.
type LatencySummary struct {
	Count int64 `json:"count"`
	P50   int64 `json:"p50"`
	P95   int64 `json:"p95"`
	P99   int64 `json:"p99"`
	Max   int64 `json:"max"`
	Mean  int64 `json:"mean"`
}

// Summary snapshots the recorded distribution. Returns nil when nothing was
// recorded.
func (r *Recorder) Summary() *LatencySummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == 0 {
		return nil
	}

	return &LatencySummary{
		Count: r.count,
		P50:   usToMs(r.hist.ValueAtQuantile(50)),
		P95:   usToMs(r.hist.ValueAtQuantile(95)),
		P99:   usToMs(r.hist.ValueAtQuantile(99)),
		Max:   usToMs(r.hist.Max()),
		Mean:  int64(r.hist.Mean() / 1000),
	}
}

func usToMs(us int64) int64 {
	return time.Duration(us * int64(time.Microsecond)).Milliseconds()
}
