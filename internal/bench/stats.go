package bench

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/Rabeel-Ashraf/vllm-playground/pkg/types"
)

// ErrNoData reports a run that produced no successful samples.
var ErrNoData = errors.New("no successful requests")

// Sample is one successful request.
type Sample struct {
	LatencyMS float64
	Tokens    int
}

// Summarize computes the final statistics of a run. It returns ErrNoData when
// samples is empty; a result never carries a throughput without data.
func Summarize(samples []Sample, spec types.BenchmarkSpec, duration time.Duration) (types.BenchmarkResult, error) {
	if len(samples) == 0 {
		return types.BenchmarkResult{}, ErrNoData
	}
	secs := duration.Seconds()
	if secs <= 0 {
		secs = math.SmallestNonzeroFloat64
	}
	latencies := make([]float64, len(samples))
	tokens := 0
	for i, s := range samples {
		latencies[i] = s.LatencyMS
		tokens += s.Tokens
	}
	sort.Float64s(latencies)
	successes := len(samples)
	rate := 0.0
	if spec.TotalRequests > 0 {
		rate = float64(successes) / float64(spec.TotalRequests) * 100
	}
	return types.BenchmarkResult{
		Throughput:      round2(float64(successes) / secs),
		AvgLatency:      round2(mean(latencies)),
		P50Latency:      round2(percentileSorted(latencies, 50)),
		P95Latency:      round2(percentileSorted(latencies, 95)),
		P99Latency:      round2(percentileSorted(latencies, 99)),
		TokensPerSecond: round2(float64(tokens) / secs),
		TotalTokens:     tokens + successes*spec.PromptTokens,
		SuccessRate:     round2(rate),
		Completed:       true,
	}, nil
}

// Percentile returns the p-th percentile of values using linear interpolation
// between closest ranks (the numpy default). values is not modified.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return percentileSorted(sorted, p)
}

func percentileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[n-1]
	}
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func mean(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }
