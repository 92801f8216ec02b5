package membuffer

import (
	"github.com/codahale/hdrhistogram"
)

// largest span tracked exactly, bigger ones are clamped
const maxTrackedSpan = 1 << 30

// Stats counts the traffic of a single Buffer. It is only kept for buffers
// created WithStats, a nil *Stats ignores every update.
type Stats struct {
	reads, writes                *hdrhistogram.Histogram
	grows, cacheHits, cacheMisses int64
}

func newStats() *Stats {
	return &Stats{
		reads:  hdrhistogram.New(1, maxTrackedSpan, 3),
		writes: hdrhistogram.New(1, maxTrackedSpan, 3),
	}
}

func record(h *hdrhistogram.Histogram, n int) {
	if n <= 0 {
		return
	}
	if n > maxTrackedSpan {
		n = maxTrackedSpan
	}
	_ = h.RecordValue(int64(n))
}

func (s *Stats) read(n int) {
	if s != nil {
		record(s.reads, n)
	}
}

func (s *Stats) write(n int) {
	if s != nil {
		record(s.writes, n)
	}
}

func (s *Stats) grow() {
	if s != nil {
		s.grows++
	}
}

func (s *Stats) hit() {
	if s != nil {
		s.cacheHits++
	}
}

func (s *Stats) miss() {
	if s != nil {
		s.cacheMisses++
	}
}

// SpanStats summarizes the sizes of the spans read or written
type SpanStats struct {
	Count    int64
	Min, Max int64
	Mean     float64
	P50, P99 int64
}

func spanStats(h *hdrhistogram.Histogram) SpanStats {
	if h.TotalCount() == 0 {
		return SpanStats{}
	}
	return SpanStats{
		Count: h.TotalCount(),
		Min:   h.Min(),
		Max:   h.Max(),
		Mean:  h.Mean(),
		P50:   h.ValueAtQuantile(50),
		P99:   h.ValueAtQuantile(99),
	}
}

// StatsSnapshot is a point in time copy of a buffer's Stats
type StatsSnapshot struct {
	Reads, Writes SpanStats
	Grows         int64 // storage enlargements
	CacheHits     int64 // handler lookups answered by the memo cache
	CacheMisses   int64 // handlers compiled
}

// Stats returns the traffic counters of the buffer, ok is false unless it was
// created WithStats
func (b *Buffer) Stats() (snapshot StatsSnapshot, ok bool) {
	s := b.stats
	if s == nil {
		return StatsSnapshot{}, false
	}

	return StatsSnapshot{
		Reads:       spanStats(s.reads),
		Writes:      spanStats(s.writes),
		Grows:       s.grows,
		CacheHits:   s.cacheHits,
		CacheMisses: s.cacheMisses,
	}, true
}
