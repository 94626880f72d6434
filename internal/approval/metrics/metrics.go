package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the approval module: how many workflow
// tickets move through each operation and how long the write path takes.
type Metrics struct {
	RequestsCreated   prometheus.Counter
	Approved          prometheus.Counter
	Activated         prometheus.Counter
	Blocked           prometheus.Counter
	Unblocked         prometheus.Counter
	MoreInfoRequested prometheus.Counter
	OperationDuration prometheus.Histogram
}

// New creates and registers all approval module metrics.
func New() *Metrics {
	return &Metrics{
		RequestsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "marina_approval_requests_created_total",
			Help: "Total number of approval requests created",
		}),
		Approved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "marina_approvals_approved_total",
			Help: "Total number of approval requests approved",
		}),
		Activated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "marina_approvals_activated_total",
			Help: "Total number of approval requests activated",
		}),
		Blocked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "marina_approvals_blocked_total",
			Help: "Total number of approval requests blocked",
		}),
		Unblocked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "marina_approvals_unblocked_total",
			Help: "Total number of approval requests unblocked",
		}),
		MoreInfoRequested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "marina_approvals_more_info_total",
			Help: "Total number of more-info requests issued",
		}),
		OperationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "marina_approval_operation_duration_seconds",
			Help:    "Duration of approval workflow write operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveOperation records the duration of a workflow write operation.
// Call with time.Now() captured at the start.
func (m *Metrics) ObserveOperation(start time.Time) {
	m.OperationDuration.Observe(time.Since(start).Seconds())
}
