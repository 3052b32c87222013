/*
metrics.go - Prometheus collectors for the HTTP API

PURPOSE:
  Counts the business outcomes operators care about (settlements by result,
  schedules generated, snapshots written) plus per-route request latency.
  Collectors register with the default registry via promauto and are
  exposed at /metrics.

SEE ALSO:
  - server.go: /metrics route and request middleware
  - scheduler.go: snapshot counters
*/
package api

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "amortization"

var httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: metricsNamespace,
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency by method, route pattern and status.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route", "status"})

// settlementsTotal is labelled "settled" or the rejection reason.
var settlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: metricsNamespace,
	Subsystem: "settlement",
	Name:      "attempts_total",
	Help:      "Installment settlement attempts by outcome.",
}, []string{"outcome"})

var schedulesGenerated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: metricsNamespace,
	Subsystem: "schedule",
	Name:      "generated_total",
	Help:      "Installment schedules generated (previews, contracts, regenerations).",
})

var snapshotsWritten = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: metricsNamespace,
	Subsystem: "depreciation",
	Name:      "snapshots_written_total",
	Help:      "Monthly depreciation snapshots written.",
})

var snapshotRunFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: metricsNamespace,
	Subsystem: "depreciation",
	Name:      "snapshot_failures_total",
	Help:      "Snapshot runs that stopped on a storage error.",
})

func observeRequest(method, route string, status int, elapsed time.Duration) {
	httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
