package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the account module.
type Metrics struct {
	Registered     prometheus.Counter
	EmailsVerified prometheus.Counter
	StatusChanges  *prometheus.CounterVec
}

// New creates and registers all account module metrics.
func New() *Metrics {
	return &Metrics{
		Registered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "marina_accounts_registered_total",
			Help: "Total number of accounts registered",
		}),
		EmailsVerified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "marina_accounts_emails_verified_total",
			Help: "Total number of account emails verified",
		}),
		StatusChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "marina_account_status_changes_total",
			Help: "Total number of administrative account status changes",
		}, []string{"to_status"}),
	}
}

// IncrementRegistered increments the accounts registered counter by 1.
func (m *Metrics) IncrementRegistered() {
	if m == nil {
		return
	}
	m.Registered.Inc()
}

// IncrementEmailsVerified increments the emails verified counter by 1.
func (m *Metrics) IncrementEmailsVerified() {
	if m == nil {
		return
	}
	m.EmailsVerified.Inc()
}

// IncrementStatusChange counts a status change by destination status.
func (m *Metrics) IncrementStatusChange(toStatus string) {
	if m == nil {
		return
	}
	m.StatusChanges.WithLabelValues(toStatus).Inc()
}
