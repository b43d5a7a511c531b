package middleware

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/pipeline"
)

// Metrics holds the Prometheus collectors shared by every instrumented pipeline.
type Metrics struct {
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lattice_action_invocations_total",
				Help: "Total number of action invocations by outcome",
			},
			[]string{"action", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lattice_action_duration_seconds",
				Help:    "Time spent running actions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"action"},
		),
	}
	reg.MustRegister(m.invocations, m.duration)
	return m
}

// Middleware instruments the pipeline it is used in, labelled with action.
func (m *Metrics) Middleware(action string) *pipeline.Factory {
	return pipeline.NewMiddleware(func(ctx context.Context, p pipeline.Params) (*pipeline.State, error) {
		start := time.Now()
		st := p.Next(ctx)

		m.duration.WithLabelValues(action).Observe(time.Since(start).Seconds())
		m.invocations.WithLabelValues(action, Outcome(st)).Inc()
		return st, nil
	}).Named("metrics")
}

// Outcome labels a finished state: ok, signal, validation or server.
func Outcome(st *pipeline.State) string {
	if st.OK {
		return "ok"
	}
	switch domain.KindOf(st.Err) {
	case domain.KindSignal:
		return "signal"
	case domain.KindValidation:
		return "validation"
	default:
		return "server"
	}
}
