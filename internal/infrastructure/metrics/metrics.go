package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MutationsTotal tracks add/delete operations by outcome
	MutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zonectl_mutations_total",
		Help: "Total number of zone mutations processed",
	}, []string{"op", "result"})

	// MutationDuration tracks the time a mutation holds the zone lock
	MutationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "zonectl_mutation_duration_seconds",
		Help:    "Histogram of zone mutation duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	// LockWait tracks time spent waiting for the per-zone lock
	LockWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "zonectl_lock_wait_seconds",
		Help:    "Histogram of time spent waiting for a zone lock",
		Buckets: prometheus.DefBuckets,
	})

	// ZonesCreated counts zones created and registered
	ZonesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zonectl_zones_created_total",
		Help: "Total number of zones created and registered",
	})

	// ZoneSerial exposes the last serial written per zone
	ZoneSerial = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "zonectl_zone_serial",
		Help: "Last SOA serial written for a zone",
	}, []string{"zone"})

	// ReloadsTotal tracks reload requests by outcome
	ReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zonectl_reloads_total",
		Help: "Total number of reload requests sent to the name server",
	}, []string{"result"})

	// LookupsTotal tracks zone checks by outcome
	LookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zonectl_lookups_total",
		Help: "Total number of zone lookups",
	}, []string{"result"})

	// JournalErrors counts change journal writes that failed
	JournalErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zonectl_journal_errors_total",
		Help: "Total number of change journal writes that failed",
	})
)

// HealthStatus is 1 while a health check passes and 0 while it fails
var HealthStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "zonectl_health_status",
	Help: "Result of the last scheduled health check per dependency",
}, []string{"check"})
