package logstream

import "github.com/prometheus/client_golang/prometheus"

var (
	subscribersGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "vllm_playground",
		Subsystem: "logs",
		Name:      "subscribers",
		Help:      "Live log stream subscribers",
	})

	linesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vllm_playground",
		Subsystem: "logs",
		Name:      "lines_total",
		Help:      "Lines broadcast to log stream subscribers",
	})

	droppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vllm_playground",
		Subsystem: "logs",
		Name:      "subscribers_dropped_total",
		Help:      "Subscribers removed after a failed send",
	})
)

func init() {
	prometheus.MustRegister(subscribersGauge, linesTotal, droppedTotal)
}
