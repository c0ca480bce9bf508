package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/chatflow/pkg/domain"
)

// Metrics records interpreter activity as Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	SessionsStarted    prometheus.Counter
	SessionsTerminated *prometheus.CounterVec
	NodeVisits         *prometheus.CounterVec
	InvalidChoices     *prometheus.CounterVec
	InertInputs        prometheus.Counter
}

// NewMetrics creates the collectors and registers them on a private registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "chatflow"
	}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Total number of conversations started from the start node",
		}),
		SessionsTerminated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_terminated_total",
			Help:      "Total number of conversations that left the graph",
		}, []string{"reason"}),
		NodeVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_visits_total",
			Help:      "Total number of node visits",
		}, []string{"node_id", "kind"}),
		InvalidChoices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_choices_total",
			Help:      "Total number of unrecognized answers to an options node",
		}, []string{"node_id"}),
		InertInputs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inert_inputs_total",
			Help:      "Total number of inputs received while no node was listening",
		}),
	}
	m.registry.MustRegister(
		m.SessionsStarted,
		m.SessionsTerminated,
		m.NodeVisits,
		m.InvalidChoices,
		m.InertInputs,
		prometheus.NewGoCollector(),
	)
	return m
}

// Registry exposes the registry, e.g. to add collectors of other adapters.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSessionStart: func(context.Context, *domain.SessionEvent) {
			m.SessionsStarted.Inc()
		},
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeVisits.WithLabelValues(e.NodeID, string(e.Kind)).Inc()
		},
		OnInvalidChoice: func(_ context.Context, e *domain.InputEvent) {
			m.InvalidChoices.WithLabelValues(e.NodeID).Inc()
		},
		OnInertInput: func(context.Context, *domain.InputEvent) {
			m.InertInputs.Inc()
		},
		OnTerminate: func(_ context.Context, e *domain.SessionEvent) {
			m.SessionsTerminated.WithLabelValues(string(e.Reason)).Inc()
		},
	}
}
