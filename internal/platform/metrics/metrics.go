package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RecordsCreated   prometheus.Counter
	RecordsUpdated   prometheus.Counter
	RecordsDeleted   prometheus.Counter
	SummariesServed  prometheus.Counter
	ReportsGenerated *prometheus.CounterVec
	AuthzDenied      *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RecordsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clientbooks_records_created_total",
			Help: "Total number of client records created",
		}),
		RecordsUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clientbooks_records_updated_total",
			Help: "Total number of client record updates",
		}),
		RecordsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clientbooks_records_deleted_total",
			Help: "Total number of client records deleted",
		}),
		SummariesServed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clientbooks_summaries_served_total",
			Help: "Total number of dashboard summaries computed",
		}),
		ReportsGenerated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clientbooks_reports_generated_total",
			Help: "Total number of reports generated, by format",
		}, []string{"format"}),
		AuthzDenied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clientbooks_authz_denied_total",
			Help: "Total number of requests denied by the policy gate, by operation",
		}, []string{"operation"}),
	}
}
