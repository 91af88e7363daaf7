// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "invoicely"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	StatsComputations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "computations_total",
			Help:      "Number of full-scan aggregate recomputations",
		},
		[]string{"view"}, // admin_overview, snapshot
	)

	StaleRequestsDiscarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "stale_requests_discarded_total",
			Help:      "Refresh results dropped because a newer request superseded them",
		},
		[]string{"view"},
	)

	CollectionFetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admin",
			Name:      "collection_fetch_failures_total",
			Help:      "Failed collection fetches while assembling the admin overview",
		},
		[]string{"collection"},
	)

	PlanChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "users",
			Name:      "plan_changes_total",
			Help:      "Plan changes by target plan and source",
		},
		[]string{"plan", "source"}, // source: admin, expiry
	)

	BanToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "users",
			Name:      "ban_toggles_total",
			Help:      "Ban flag flips by resulting state",
		},
		[]string{"banned"},
	)

	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "connected_clients",
			Help:      "Number of connected websocket clients",
		},
	)
)
