// Package metrics provides Prometheus metrics for the API server
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	// BOMMutationsTotal counts BOM mutations by operation and result
	BOMMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partsdesk_bom_mutations_total",
			Help: "Total number of BOM mutations",
		},
		[]string{"operation", "result"},
	)

	// DocumentWritesTotal counts document store writes by kind
	DocumentWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partsdesk_document_writes_total",
			Help: "Total number of document store writes",
		},
		[]string{"kind", "result"},
	)

	// SnapshotsDeliveredTotal counts snapshots pushed to subscribers
	SnapshotsDeliveredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partsdesk_snapshots_delivered_total",
			Help: "Total number of snapshots delivered to subscribers",
		},
		[]string{"kind"},
	)

	// SubscriptionsActive is the number of open document and collection subscriptions
	SubscriptionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "partsdesk_subscriptions_active",
			Help: "Number of active document store subscriptions",
		},
	)

	// PurchaseOrdersTotal counts purchase-order mails by result
	PurchaseOrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partsdesk_purchase_orders_total",
			Help: "Total number of purchase-order mails sent",
		},
		[]string{"result"},
	)

	// ScheduledJobDuration tracks how long scheduled jobs take
	ScheduledJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "partsdesk_scheduled_job_duration_seconds",
			Help:    "Duration of scheduled jobs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job"},
	)
)

// Result maps an error to the result label value
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}
