package runner

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// LatencySummary describes call durations across one run.
type LatencySummary struct {
	Count int64
	Min   time.Duration
	P50   time.Duration
	P95   time.Duration
	Max   time.Duration
	Mean  time.Duration
}

type latencyRecorder struct {
	// Histogram: 1us to 60s range, 3 significant digits
	histogram *hdrhistogram.Histogram
}

func newLatencyRecorder() *latencyRecorder {
	return &latencyRecorder{histogram: hdrhistogram.New(1, 60_000_000, 3)}
}

func (l *latencyRecorder) record(d time.Duration) {
	us := d.Microseconds()
	if us < 1 {
		us = 1
	}
	_ = l.histogram.RecordValue(us)
}

func (l *latencyRecorder) summary() LatencySummary {
	if l.histogram.TotalCount() == 0 {
		return LatencySummary{}
	}
	return LatencySummary{
		Count: l.histogram.TotalCount(),
		Min:   time.Duration(l.histogram.Min()) * time.Microsecond,
		P50:   time.Duration(l.histogram.ValueAtQuantile(50)) * time.Microsecond,
		P95:   time.Duration(l.histogram.ValueAtQuantile(95)) * time.Microsecond,
		Max:   time.Duration(l.histogram.Max()) * time.Microsecond,
		Mean:  time.Duration(l.histogram.Mean()) * time.Microsecond,
	}
}
