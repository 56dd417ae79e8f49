package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	processTotal    *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
	processInFlight prometheus.Gauge
	queueLag        *prometheus.HistogramVec
	pagesTotal      *prometheus.CounterVec
	blocksPerPage   *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docuvision",
			Subsystem: "worker",
			Name:      "request_process_total",
			Help:      "Total processed OCR requests by status.",
		},
		[]string{"service", "status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docuvision",
			Subsystem: "worker",
			Name:      "request_process_duration_seconds",
			Help:      "Request processing duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docuvision",
			Subsystem: "worker",
			Name:      "request_process_in_flight",
			Help:      "Number of in-flight request processing tasks.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docuvision",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between request upload and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)
	pagesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docuvision",
			Subsystem: "worker",
			Name:      "pages_processed_total",
			Help:      "Total pages run through the OCR pipeline.",
		},
		[]string{"service"},
	)
	blocksPerPage := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docuvision",
			Subsystem: "worker",
			Name:      "blocks_per_page",
			Help:      "Distribution of merged blocks per processed page.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100, 200},
		},
		[]string{"service"},
	)

	registry.MustRegister(processTotal, processDuration, processInFlight, queueLag, pagesTotal, blocksPerPage)

	return &WorkerMetrics{
		registry:        registry,
		processTotal:    processTotal,
		processDuration: processDuration,
		processInFlight: processInFlight,
		queueLag:        queueLag,
		pagesTotal:      pagesTotal,
		blocksPerPage:   blocksPerPage,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartRequest() {
	m.processInFlight.Inc()
}

func (m *WorkerMetrics) FinishRequest(service string, duration time.Duration, err error) {
	m.processInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.processTotal.WithLabelValues(service, status).Inc()
	m.processDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}

func (m *WorkerMetrics) ObservePage(service string, blockCount int) {
	m.pagesTotal.WithLabelValues(service).Inc()
	m.blocksPerPage.WithLabelValues(service).Observe(float64(blockCount))
}
