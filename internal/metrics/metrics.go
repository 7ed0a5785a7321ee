// Package metrics exposes Prometheus metrics for the contact backend.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SubmissionsTotal counts pipeline runs by terminal outcome
	// (delivered, rejected, delivery_failed)
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "textbridge",
			Subsystem: "contact",
			Name:      "submissions_total",
			Help:      "Total contact form submissions by terminal outcome",
		},
		[]string{"outcome"},
	)

	// RejectionsTotal counts rejections by the check that produced them
	RejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "textbridge",
			Subsystem: "contact",
			Name:      "rejections_total",
			Help:      "Total rejected submissions by pipeline check",
		},
		[]string{"check"},
	)

	// DeliveryDuration measures outbound mail delivery time in seconds
	DeliveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "textbridge",
			Subsystem: "mail",
			Name:      "delivery_duration_seconds",
			Help:      "Outbound mail delivery duration in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	// AttachmentsStored counts accepted logo uploads
	AttachmentsStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "textbridge",
			Subsystem: "contact",
			Name:      "attachments_stored_total",
			Help:      "Total accepted and stored logo attachments",
		},
	)

	// FailedSubmissionsPersisted counts messages written to the failure
	// store after a delivery error
	FailedSubmissionsPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "textbridge",
			Subsystem: "contact",
			Name:      "failed_submissions_persisted_total",
			Help:      "Total undelivered messages persisted for manual recovery",
		},
	)
)

// Handler returns the Prometheus scrape endpoint handler
func Handler() http.Handler {
	return promhttp.Handler()
}
