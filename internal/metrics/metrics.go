// Package metrics holds the Prometheus collectors exported by awxgate.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registry all awxgate collectors are registered with.
var Registry = prometheus.NewRegistry()

var (
	// AWX API metrics
	awxAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "awxgate",
			Subsystem: "awx",
			Name:      "api_calls_total",
			Help:      "Total number of AWX API calls by operation and result",
		},
		[]string{"operation", "result"},
	)

	awxAPILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "awxgate",
			Subsystem: "awx",
			Name:      "api_latency_seconds",
			Help:      "Latency of AWX API calls in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~10s
		},
		[]string{"operation"},
	)

	// Deploy lifecycle metrics
	deployAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "awxgate",
			Name:      "deploy_attempts_total",
			Help:      "Total number of deploy attempts by outcome",
		},
		[]string{"result"},
	)

	inventoryRollbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "awxgate",
			Name:      "inventory_rollbacks_total",
			Help:      "Scoped inventory rollbacks after a failed launch, by result",
		},
		[]string{"result"},
	)

	inventoryLeakedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "awxgate",
			Name:      "inventory_leaked_total",
			Help:      "Scoped inventories that could not be deleted",
		},
	)

	finalizeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "awxgate",
			Name:      "finalize_total",
			Help:      "Finalize calls by result (finalized, duplicate, error)",
		},
		[]string{"result"},
	)

	auditWriteFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "awxgate",
			Subsystem: "audit",
			Name:      "write_failures_total",
			Help:      "Audit records that could not be persisted",
		},
	)
)

func init() {
	Registry.MustRegister(
		awxAPICallsTotal,
		awxAPILatency,
		deployAttemptsTotal,
		inventoryRollbacksTotal,
		inventoryLeakedTotal,
		finalizeTotal,
		auditWriteFailuresTotal,
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordAPICall records one AWX API call.
func RecordAPICall(operation, result string, latency float64) {
	awxAPICallsTotal.WithLabelValues(operation, result).Inc()
	awxAPILatency.WithLabelValues(operation).Observe(latency)
}

// RecordDeployAttempt records the terminal outcome of a launch.
func RecordDeployAttempt(result string) {
	deployAttemptsTotal.WithLabelValues(result).Inc()
}

// RecordRollback records an inventory rollback. A failed rollback also
// counts as a leaked inventory.
func RecordRollback(ok bool) {
	if ok {
		inventoryRollbacksTotal.WithLabelValues("success").Inc()
		return
	}
	inventoryRollbacksTotal.WithLabelValues("error").Inc()
	inventoryLeakedTotal.Inc()
}

// RecordInventoryLeak records an inventory that finalize failed to delete.
func RecordInventoryLeak() {
	inventoryLeakedTotal.Inc()
}

// RecordFinalize records a finalize call.
func RecordFinalize(result string) {
	finalizeTotal.WithLabelValues(result).Inc()
}

// RecordAuditWriteFailure records an audit record that was not persisted.
func RecordAuditWriteFailure() {
	auditWriteFailuresTotal.Inc()
}
