package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge

	PrescriptionsCreatedTotal prometheus.Counter
	PrescriptionsDeletedTotal prometheus.Counter
	IntakeLogsGeneratedTotal  prometheus.Counter
	IntakeStatusUpdatesTotal  *prometheus.CounterVec

	RemindersScheduledTotal prometheus.Counter
	RemindersDroppedTotal   prometheus.Counter
	RemindersFailedTotal    prometheus.Counter
	RemindersCancelledTotal *prometheus.CounterVec

	DBConnections prometheus.Gauge

	AuditEntriesTotal  prometheus.Counter
	AuditBufferDropped prometheus.Counter
}

func NewCollector(serviceName string) *Collector {
	return &Collector{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path", "status"}),

		InFlightGauge: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		PrescriptionsCreatedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "meds",
			Name:      "prescriptions_created_total",
			Help:      "Total prescriptions registered.",
		}),

		PrescriptionsDeletedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "meds",
			Name:      "prescriptions_deleted_total",
			Help:      "Total prescriptions deleted.",
		}),

		IntakeLogsGeneratedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "meds",
			Name:      "intake_logs_generated_total",
			Help:      "Total intake log entries generated at prescription creation.",
		}),

		IntakeStatusUpdatesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "meds",
			Name:      "intake_status_updates_total",
			Help:      "Total intake log status updates by resulting status.",
		}, []string{"status"}),

		RemindersScheduledTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "reminders",
			Name:      "scheduled_total",
			Help:      "Total reminder notifications submitted to the platform.",
		}),

		RemindersDroppedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "reminders",
			Name:      "dropped_total",
			Help:      "Reminder candidates dropped for firing in the past or too close to now.",
		}),

		RemindersFailedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "reminders",
			Name:      "failed_total",
			Help:      "Reminder scheduling requests that failed at the platform boundary. Alert if growing.",
		}),

		RemindersCancelledTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "reminders",
			Name:      "cancelled_total",
			Help:      "Reminders cancelled by reason (prescription_deleted, clear_all, near_immediate).",
		}, []string{"reason"}),

		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "db",
			Name:      "open_connections",
			Help:      "Current number of open database connections.",
		}),

		AuditEntriesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "audit",
			Name:      "entries_total",
			Help:      "Total audit log entries written.",
		}),

		AuditBufferDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "audit",
			Name:      "buffer_dropped_total",
			Help:      "Audit entries dropped due to full buffer. Alert if non-zero.",
		}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
