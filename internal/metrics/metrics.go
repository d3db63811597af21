package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "eventpro"

// Registry is the global Prometheus registry for all metrics
var Registry = prometheus.NewRegistry()

// AppInfo is a gauge that exposes application version information as labels
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date", "store", "registration_mode"},
)

// HealthCheckStatus tracks individual health check results
// Values: 0 = fail, 1 = warn, 2 = pass
var HealthCheckStatus = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "health_check_status",
		Help:      "Individual health check status (0=fail, 1=warn, 2=pass)",
	},
	[]string{"check"},
)

// Registration metrics
var (
	// RegistrationsTotal counts registration attempts by outcome
	// (confirmed, already_registered, event_full, event_not_found, error).
	RegistrationsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Registration attempts by outcome and registration mode",
		},
		[]string{"outcome", "mode"},
	)

	// RegistrationDuration records how long the register flow takes end to end.
	RegistrationDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "registration_duration_seconds",
			Help:      "Duration of the registration flow in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"mode"},
	)
)

// Cascade delete metrics
var (
	CascadeDeletesTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cascade_deletes_total",
			Help:      "Events deleted together with their registrations",
		},
	)

	CascadePurgedRegistrationsTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cascade_purged_registrations_total",
			Help:      "Registrations removed because their event was deleted",
		},
	)

	// CascadeOrphansTotal counts event deletions whose registration purge
	// failed, leaving registrations that point at a missing event.
	CascadeOrphansTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cascade_orphans_total",
			Help:      "Event deletions whose registration purge failed",
		},
	)

	// OrphanedRegistrations is the last observed number of registrations
	// referencing a deleted event.
	OrphanedRegistrations = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "orphaned_registrations",
			Help:      "Registrations whose event no longer exists (last sample)",
		},
	)
)

// Init registers runtime collectors and sets version information
func Init(version, commit, buildDate, store, registrationMode string) {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	AppInfo.WithLabelValues(version, commit, buildDate, store, registrationMode).Set(1)
}
