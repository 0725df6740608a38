package observability

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aretw0/cyrkana/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cyrkana"

// Metrics holds the engine collectors. Each Metrics owns its registry so
// several engines (or tests) never collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	keys            *prometheus.CounterVec
	keyErrors       *prometheus.CounterVec
	discards        *prometheus.CounterVec
	schemaLoads     *prometheus.CounterVec
	schemaEntries   *prometheus.GaugeVec
	profiles        prometheus.Gauge
	phoneticEntries prometheus.Gauge
	keyLatency      prometheus.Histogram
}

// NewMetrics creates and registers the collectors. Go runtime and process
// collectors are added when withRuntime is set.
func NewMetrics(withRuntime bool) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		keys: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keys_total",
			Help:      "Keys processed, by profile and outcome action.",
		}, []string{"profile_id", "action"}),
		keyErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "key_errors_total",
			Help:      "Keys rejected, by error kind.",
		}, []string{"kind"}),
		discards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_discards_total",
			Help:      "Commits that fell back to the single key and dropped a non-empty buffer.",
		}, []string{"profile_id"}),
		schemaLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_loads_total",
			Help:      "Schema loads, by schema and whether an existing schema was replaced.",
		}, []string{"schema_id", "replaced"}),
		schemaEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "schema_entries",
			Help:      "Entries in each loaded schema.",
		}, []string{"schema_id"}),
		profiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "profiles",
			Help:      "Registered profiles.",
		}),
		phoneticEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "phonetic_entries",
			Help:      "Entries in the phonetic table.",
		}),
		keyLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "key_duration_seconds",
			Help:      "Time from key event creation to hook delivery.",
			Buckets:   []float64{1e-6, 5e-6, 1e-5, 5e-5, 1e-4, 5e-4, 1e-3, 1e-2},
		}),
	}

	m.registry.MustRegister(
		m.keys, m.keyErrors, m.discards,
		m.schemaLoads, m.schemaEntries,
		m.profiles, m.phoneticEntries, m.keyLatency,
	)
	if withRuntime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// Registry exposes the underlying registry, e.g. for testutil.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnInitialize: func(ctx context.Context, e *domain.InitializeEvent) {
			m.profiles.Set(float64(e.Profiles))
			m.phoneticEntries.Set(float64(e.PhoneticLength))
		},
		OnSchemaLoad: func(ctx context.Context, e *domain.SchemaEvent) {
			m.schemaLoads.WithLabelValues(e.SchemaID, strconv.FormatBool(e.Replaced)).Inc()
			m.schemaEntries.WithLabelValues(e.SchemaID).Set(float64(e.Entries))
		},
		OnKey: func(ctx context.Context, e *domain.KeyEvent) {
			m.keyLatency.Observe(sinceSeconds(e.Timestamp))
			if e.Err != nil {
				m.keyErrors.WithLabelValues(domain.ErrorKind(e.Err)).Inc()
				return
			}
			m.keys.WithLabelValues(e.ProfileID, string(e.Outcome.Action)).Inc()
			if e.Discarded {
				m.discards.WithLabelValues(e.ProfileID).Inc()
			}
		},
	}
}
