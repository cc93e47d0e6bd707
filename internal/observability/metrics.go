package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpDurationHistogram *prometheus.HistogramVec
	dispersalCounter      *prometheus.CounterVec
	launchCounter         *prometheus.CounterVec
	bundlePollCounter     *prometheus.CounterVec
	idempotencyCounter    *prometheus.CounterVec
	workerRunCounter      *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		dispersalCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispersal_transfers_total",
			Help: "Dispersal transfer outcomes",
		}, []string{"result"})

		launchCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "launches_total",
			Help: "Launch attempts by submission path and outcome",
		}, []string{"path", "result"})

		bundlePollCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bundle_status_polls_total",
			Help: "Bundle status poll responses",
		}, []string{"status"})

		idempotencyCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idempotency_events_total",
			Help: "Idempotency middleware outcomes",
		}, []string{"outcome"})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		prometheus.MustRegister(
			httpDurationHistogram,
			dispersalCounter,
			launchCounter,
			bundlePollCounter,
			idempotencyCounter,
			workerRunCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementDispersal(result string) {
	if dispersalCounter == nil {
		return
	}
	dispersalCounter.WithLabelValues(result).Inc()
}

func IncrementLaunch(path, result string) {
	if launchCounter == nil {
		return
	}
	launchCounter.WithLabelValues(path, result).Inc()
}

func IncrementBundlePoll(status string) {
	if bundlePollCounter == nil {
		return
	}
	bundlePollCounter.WithLabelValues(status).Inc()
}

func IncrementIdempotencyEvent(outcome string) {
	if idempotencyCounter == nil {
		return
	}
	idempotencyCounter.WithLabelValues(outcome).Inc()
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}
