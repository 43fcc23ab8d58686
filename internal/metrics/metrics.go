// Package metrics exposes Prometheus collectors fed by the turn lifecycle hooks.
package metrics

import (
	"context"
	"net/http"

	"github.com/aretw0/vmchat/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vmchat"

// Metrics owns a private registry so several instances can coexist in tests.
type Metrics struct {
	registry      *prometheus.Registry
	turns         *prometheus.CounterVec
	turnDuration  *prometheus.HistogramVec
	stageDuration *prometheus.HistogramVec
	stageErrors   *prometheus.CounterVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "turns_total",
				Help:      "Total number of chat turns by outcome and action",
			},
			[]string{"outcome", "action"},
		),
		turnDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "turn_duration_seconds",
				Help:      "Duration of chat turns",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"outcome"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of pipeline stages",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"stage"},
		),
		stageErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_errors_total",
				Help:      "Failed pipeline stages by error kind",
			},
			[]string{"stage", "kind"},
		),
	}
	m.registry.MustRegister(
		m.turns, m.turnDuration, m.stageDuration, m.stageErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStage: func(_ context.Context, e *domain.StageEvent) {
			m.stageDuration.WithLabelValues(string(e.Stage)).Observe(e.Duration.Seconds())
			if e.IsError {
				kind := string(e.ErrorKind)
				if kind == "" {
					kind = "general"
				}
				m.stageErrors.WithLabelValues(string(e.Stage), kind).Inc()
			}
		},
		OnTurn: func(_ context.Context, e *domain.TurnEvent) {
			m.turns.WithLabelValues(string(e.Outcome), actionLabel(e.Action)).Inc()
			m.turnDuration.WithLabelValues(string(e.Outcome)).Observe(e.Duration.Seconds())
		},
	}
}

// actionLabel bounds the action label to the supported actions. The action
// comes from model output, so anything else collapses into "invalid".
func actionLabel(action domain.ActionName) string {
	if action == "" {
		return "none"
	}
	if _, ok := domain.LookupCapability(action); !ok {
		return "invalid"
	}
	return string(action)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
