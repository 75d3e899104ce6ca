package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	httpDurationHistogram   *prometheus.HistogramVec
	balanceOperationCounter *prometheus.CounterVec
	transferCounter         *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		balanceOperationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "balance_operations_total",
			Help: "Deposit and withdrawal outcomes",
		}, []string{"operation", "result"})

		transferCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transfers_total",
			Help: "Transfer outcomes",
		}, []string{"result"})

		prometheus.MustRegister(
			httpDurationHistogram,
			balanceOperationCounter,
			transferCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementBalanceOperation(operation, result string) {
	if balanceOperationCounter == nil {
		return
	}
	balanceOperationCounter.WithLabelValues(operation, result).Inc()
}

func IncrementTransfer(result string) {
	if transferCounter == nil {
		return
	}
	transferCounter.WithLabelValues(result).Inc()
}
