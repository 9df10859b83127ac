package bench

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Rabeel-Ashraf/vllm-playground/pkg/types"
)

func hundredLatencies() []float64 {
	v := make([]float64, 100)
	for i := range v {
		v[i] = float64((i + 1) * 10)
	}
	return v
}

func TestPercentileLinearInterpolation(t *testing.T) {
	v := hundredLatencies()
	require.InDelta(t, 505.0, Percentile(v, 50), 1e-9)
	require.InDelta(t, 950.5, Percentile(v, 95), 1e-9)
	require.InDelta(t, 990.1, Percentile(v, 99), 1e-9)
	require.Equal(t, 10.0, Percentile(v, 0))
	require.Equal(t, 1000.0, Percentile(v, 100))
}

func TestPercentileUnsortedInputUntouched(t *testing.T) {
	v := []float64{30, 10, 20}
	require.Equal(t, 20.0, Percentile(v, 50))
	require.Equal(t, []float64{30, 10, 20}, v)
	require.Equal(t, 7.0, Percentile([]float64{7}, 99))
}

func TestSummarize(t *testing.T) {
	lat := hundredLatencies()
	samples := make([]Sample, len(lat))
	for i, l := range lat {
		samples[i] = Sample{LatencyMS: l, Tokens: 10}
	}
	spec := types.BenchmarkSpec{TotalRequests: 200, RequestRate: 0, PromptTokens: 5, OutputTokens: 10}
	res, err := Summarize(samples, spec, 10*time.Second)
	require.NoError(t, err)
	require.Equal(t, 10.0, res.Throughput)
	require.Equal(t, 505.0, res.AvgLatency)
	require.Equal(t, 505.0, res.P50Latency)
	require.Equal(t, 950.5, res.P95Latency)
	require.Equal(t, 990.1, res.P99Latency)
	require.Equal(t, 100.0, res.TokensPerSecond)
	require.Equal(t, 1000+100*5, res.TotalTokens)
	require.Equal(t, 50.0, res.SuccessRate)
	require.True(t, res.Completed)
}

func TestSummarizeRoundsToTwoDecimals(t *testing.T) {
	samples := []Sample{{LatencyMS: 1.0 / 3, Tokens: 1}}
	res, err := Summarize(samples, types.BenchmarkSpec{TotalRequests: 3}, 3*time.Second)
	require.NoError(t, err)
	require.Equal(t, 0.33, res.AvgLatency)
	require.Equal(t, 0.33, res.Throughput)
	require.Equal(t, 33.33, res.SuccessRate)
}

func TestSummarizeNoData(t *testing.T) {
	_, err := Summarize(nil, types.DefaultBenchmarkSpec(), time.Second)
	require.True(t, errors.Is(err, ErrNoData))
}

func TestSyntheticPrompt(t *testing.T) {
	require.Equal(t, "", SyntheticPrompt(0))
	require.Equal(t, "", SyntheticPrompt(9))
	p := SyntheticPrompt(100)
	require.Equal(t, 10, strings.Count(p, "benchmark"))
	require.Equal(t, strings.Repeat("benchmark ", 9)+"benchmark", p)
}
