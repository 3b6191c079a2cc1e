package httpapi

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "skein_social_request_duration_seconds",
		Help:    "histogram of social read operation latency",
		Buckets: prometheus.ExponentialBucketsRange(0.0001, 30, 20),
	}, []string{"operation"})

	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skein_social_requests_total",
		Help: "count of social read operations by outcome",
	}, []string{"operation", "outcome"})
)

func observe(operation string, start time.Time, outcome string) {
	requestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	requestsTotal.WithLabelValues(operation, outcome).Inc()
}
