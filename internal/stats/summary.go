package stats

import (
	"fmt"
	"strings"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Summary aggregates request latencies into an HDR histogram for the
// repeat mode. Range: 1 microsecond to 1 minute, 3 significant figures;
// samples outside the range are clamped by the histogram.
type Summary struct {
	hist   *hdrhistogram.Histogram
	errors int
}

// NewSummary creates an empty latency summary.
func NewSummary() *Summary {
	return &Summary{
		hist: hdrhistogram.New(1, time.Minute.Microseconds(), 3),
	}
}

// Record adds one request latency.
func (s *Summary) Record(d time.Duration) {
	// RecordValue only fails outside the histogram range; clamp instead.
	if err := s.hist.RecordValue(d.Microseconds()); err != nil {
		s.hist.RecordValue(time.Minute.Microseconds())
	}
}

// RecordError counts a request that produced no response.
func (s *Summary) RecordError() {
	s.errors++
}

// Count returns the number of recorded latencies.
func (s *Summary) Count() int64 {
	return s.hist.TotalCount()
}

// Errors returns the number of recorded errors.
func (s *Summary) Errors() int {
	return s.errors
}

// Min returns the smallest recorded latency.
func (s *Summary) Min() time.Duration {
	return time.Duration(s.hist.Min()) * time.Microsecond
}

// Max returns the largest recorded latency.
func (s *Summary) Max() time.Duration {
	return time.Duration(s.hist.Max()) * time.Microsecond
}

// Mean returns the mean recorded latency.
func (s *Summary) Mean() time.Duration {
	return time.Duration(s.hist.Mean()) * time.Microsecond
}

// Percentile returns the latency at percentile p (0 < p <= 100).
func (s *Summary) Percentile(p float64) time.Duration {
	return time.Duration(s.hist.ValueAtQuantile(p)) * time.Microsecond
}

// String renders the summary as a small fixed table.
func (s *Summary) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "requests: %d", s.Count())
	if s.errors > 0 {
		fmt.Fprintf(&b, " (errors: %d)", s.errors)
	}
	b.WriteString("\n")

	if s.Count() == 0 {
		return b.String()
	}

	fmt.Fprintf(&b, "min:  %s\n", s.Min().Round(time.Microsecond))
	fmt.Fprintf(&b, "mean: %s\n", s.Mean().Round(time.Microsecond))
	fmt.Fprintf(&b, "p50:  %s\n", s.Percentile(50).Round(time.Microsecond))
	fmt.Fprintf(&b, "p90:  %s\n", s.Percentile(90).Round(time.Microsecond))
	fmt.Fprintf(&b, "p99:  %s\n", s.Percentile(99).Round(time.Microsecond))
	fmt.Fprintf(&b, "max:  %s\n", s.Max().Round(time.Microsecond))

	return b.String()
}
