package bench

import "github.com/prometheus/client_golang/prometheus"

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vllm_playground",
			Subsystem: "benchmark",
			Name:      "runs_total",
			Help:      "Benchmark runs by terminal state",
		},
		[]string{"state"},
	)

	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vllm_playground",
			Subsystem: "benchmark",
			Name:      "requests_total",
			Help:      "Benchmark requests by outcome",
		},
		[]string{"outcome"},
	)

	requestLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "vllm_playground",
		Subsystem: "benchmark",
		Name:      "request_latency_seconds",
		Help:      "Latency of successful benchmark requests",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
	})

	runningGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "vllm_playground",
		Subsystem: "benchmark",
		Name:      "running",
		Help:      "1 while a benchmark run is active",
	})
)

func init() {
	prometheus.MustRegister(runsTotal, requestsTotal, requestLatency, runningGauge)
}
