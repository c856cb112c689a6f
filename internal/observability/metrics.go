package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchesTotal    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "commute_matching", Name: "searches_total", Help: "Total number of driver searches"})
	AssignmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "commute_matching", Name: "assignments_total", Help: "Assignments made, by reason"},
		[]string{"reason"},
	)
	DirectoryLatency = promauto.NewHistogram(prometheus.HistogramOpts{Namespace: "commute_matching", Name: "directory_latency_seconds", Help: "Time spent loading available drivers"})
	DriversAvailable = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "commute_matching", Name: "drivers_available", Help: "Available drivers seen by the last ranking"})

	NotificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "commute_matching", Name: "notification_failures_total", Help: "Failed driver notifications, by channel"},
		[]string{"channel"},
	)

	StatusUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "commute_matching", Name: "status_updates_total", Help: "Driver status updates consumed, by result"},
		[]string{"result"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "commute_matching", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "commute_matching",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
