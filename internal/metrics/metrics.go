// Package metrics declares the Prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "signalbot"

var (
	once sync.Once

	Registry = prometheus.NewRegistry()

	AnalysisRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Completed analysis runs by classification",
		},
		[]string{"symbol", "classification"},
	)

	AnalysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Wall time of one analysis run including the candle fetch",
			Buckets:   prometheus.DefBuckets,
		},
	)

	LastConfidence = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "last_confidence",
			Help:      "Confidence of the most recent signal",
		},
		[]string{"symbol"},
	)

	CandleFetchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "candles",
			Name:      "fetch_failures_total",
			Help:      "Candle fetches that failed by source",
		},
		[]string{"source"},
	)

	Deliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "deliveries_total",
			Help:      "Signal deliveries by sink and status",
		},
		[]string{"sink", "status"},
	)
)

func Register() {
	once.Do(func() {
		Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			AnalysisRuns,
			AnalysisDuration,
			LastConfidence,
			CandleFetchFailures,
			Deliveries,
		)
	})
}

// Handler serves Registry in the Prometheus text format.
func Handler() http.Handler {
	Register()
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveDelivery records one sink outcome.
func ObserveDelivery(sink string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	Deliveries.WithLabelValues(sink, status).Inc()
}
