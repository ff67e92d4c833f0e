package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "eventsignup"

// Registry holds every metric the server exposes on /metrics.
var Registry = prometheus.NewRegistry()

// AppInfo is always 1; the build information is in the labels.
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date"},
)

// DomainOperations counts writes by entity (event, user, registration),
// operation and outcome (ok, error).
var DomainOperations = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "domain_operations_total",
		Help:      "Total number of domain write operations",
	},
	[]string{"entity", "operation", "outcome"},
)

// ValidationFailures counts rejected form submissions by form and field.
var ValidationFailures = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "validation_failures_total",
		Help:      "Total number of form fields rejected by validation",
	},
	[]string{"form", "field"},
)

// LoginAttempts counts login attempts by outcome (success, failure, error).
var LoginAttempts = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts",
	},
	[]string{"outcome"},
)

var initOnce sync.Once

// Init registers the runtime collectors and records build information.
// Calling it more than once only updates AppInfo.
func Init(version, commit, buildDate string) {
	initOnce.Do(func() {
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
	AppInfo.WithLabelValues(version, commit, buildDate).Set(1)
}
