package answer

import (
	"sort"
	"sync"
	"time"
)

// Collaborator operations tracked by Stats.
const (
	OpGenerate    = "generate"
	OpPaperSearch = "paper_search"
)

type sample struct {
	at       time.Time
	duration time.Duration
	failed   bool
}

// OpSnapshot aggregates one operation's recent calls.
type OpSnapshot struct {
	Count  int     `json:"count"`
	Errors int     `json:"errors"`
	MinMs  int64   `json:"min_ms"`
	MaxMs  int64   `json:"max_ms"`
	AvgMs  float64 `json:"avg_ms"`
	P95Ms  float64 `json:"p95_ms"`
}

// Stats tracks collaborator call latency and failures per operation
// within a rolling window.
type Stats struct {
	mu      sync.Mutex
	maxAge  time.Duration
	samples map[string][]sample
}

func NewStats(maxAge time.Duration) *Stats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Stats{
		maxAge:  maxAge,
		samples: make(map[string][]sample),
	}
}

func (s *Stats) Record(op string, d time.Duration, failed bool) {
	if d < 0 {
		d = 0
	}
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples[op] = pruneSamples(s.samples[op], now.Add(-s.maxAge))
	s.samples[op] = append(s.samples[op], sample{at: now, duration: d, failed: failed})
}

// Snapshot returns per-operation aggregates over the rolling window.
func (s *Stats) Snapshot() map[string]OpSnapshot {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]OpSnapshot, len(s.samples))
	for op, samples := range s.samples {
		samples = pruneSamples(samples, now.Add(-s.maxAge))
		s.samples[op] = samples
		if len(samples) == 0 {
			continue
		}

		ms := make([]int64, 0, len(samples))
		var sum int64
		errs := 0
		for _, sm := range samples {
			v := sm.duration.Milliseconds()
			ms = append(ms, v)
			sum += v
			if sm.failed {
				errs++
			}
		}
		sort.Slice(ms, func(i, j int) bool { return ms[i] < ms[j] })

		out[op] = OpSnapshot{
			Count:  len(ms),
			Errors: errs,
			MinMs:  ms[0],
			MaxMs:  ms[len(ms)-1],
			AvgMs:  float64(sum) / float64(len(ms)),
			P95Ms:  percentile(ms, 95),
		}
	}
	return out
}

func pruneSamples(samples []sample, cutoff time.Time) []sample {
	w := 0
	for _, sm := range samples {
		if !sm.at.Before(cutoff) {
			samples[w] = sm
			w++
		}
	}
	return samples[:w]
}

func percentile(sorted []int64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sorted[0])
	}
	if pct >= 100 {
		return float64(sorted[len(sorted)-1])
	}
	idx := (float64(len(sorted)-1) * pct) / 100.0
	lo := int(idx)
	hi := lo + 1
	if hi >= len(sorted) {
		return float64(sorted[lo])
	}
	weight := idx - float64(lo)
	return float64(sorted[lo]) + (float64(sorted[hi])-float64(sorted[lo]))*weight
}
