package manager

import "github.com/prometheus/client_golang/prometheus"

var allStates = []State{StateStopped, StateStarting, StateRunning, StateStopping, StateCrashed}

var (
	stateGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "vllm_playground",
			Subsystem: "process",
			Name:      "state",
			Help:      "Supervisor state (1 for the current state)",
		},
		[]string{"state"},
	)

	startsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vllm_playground",
			Subsystem: "process",
			Name:      "starts_total",
			Help:      "vLLM launch attempts by result",
		},
		[]string{"result"},
	)

	stopsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vllm_playground",
			Subsystem: "process",
			Name:      "stops_total",
			Help:      "vLLM stops by kind (graceful or killed)",
		},
		[]string{"kind"},
	)

	crashesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vllm_playground",
		Subsystem: "process",
		Name:      "crashes_total",
		Help:      "vLLM exits observed without a stop request",
	})

	logLinesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vllm_playground",
		Subsystem: "process",
		Name:      "log_lines_total",
		Help:      "Non-empty output lines read from the vLLM process",
	})

	readErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vllm_playground",
		Subsystem: "process",
		Name:      "log_read_errors_total",
		Help:      "Transient errors reading vLLM output",
	})

	proxyRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vllm_playground",
			Subsystem: "proxy",
			Name:      "requests_total",
			Help:      "Requests forwarded to vLLM by endpoint and upstream status",
		},
		[]string{"endpoint", "status"},
	)

	proxyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vllm_playground",
			Subsystem: "proxy",
			Name:      "request_duration_seconds",
			Help:      "Duration of forwarded requests including body relay",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"endpoint"},
	)

	proxyCompletionTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vllm_playground",
			Subsystem: "proxy",
			Name:      "completion_tokens_total",
			Help:      "Completion tokens reported by vLLM for non-streamed requests",
		},
		[]string{"endpoint"},
	)
)

func init() {
	prometheus.MustRegister(stateGauge, startsTotal, stopsTotal, crashesTotal, logLinesTotal, readErrorsTotal,
		proxyRequestsTotal, proxyDuration, proxyCompletionTokens)
}

func setStateMetric(s State) {
	for _, st := range allStates {
		v := 0.0
		if st == s {
			v = 1
		}
		stateGauge.WithLabelValues(string(st)).Set(v)
	}
}

// fast integer to ascii for status code labels
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [4]byte
	i := len(buf)
	for n > 0 && i > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
