package service

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sitecraft-ai/sitecraft-backend/internal/deploy/domain"
)

var stepBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120}

// Metrics records deploy flow outcomes. A nil *Metrics is a no-op.
type Metrics struct {
	results      *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	statusChecks prometheus.Counter
}

// NewMetrics registers the deploy collectors on reg. Collectors that are
// already registered are reused.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sitecraft",
			Subsystem: "deploy",
			Name:      "results_total",
			Help:      "Deploy requests by outcome",
		}, []string{"outcome"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sitecraft",
			Subsystem: "deploy",
			Name:      "step_duration_seconds",
			Help:      "Latency of each deploy step",
			Buckets:   stepBuckets,
		}, []string{"step"}),
		statusChecks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sitecraft",
			Subsystem: "deploy",
			Name:      "status_checks_total",
			Help:      "Deployment status checks sent to the provider",
		}),
	}

	if err := reg.Register(m.results); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			m.results = already.ExistingCollector.(*prometheus.CounterVec)
		}
	}
	if err := reg.Register(m.stepDuration); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			m.stepDuration = already.ExistingCollector.(*prometheus.HistogramVec)
		}
	}
	if err := reg.Register(m.statusChecks); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			m.statusChecks = already.ExistingCollector.(prometheus.Counter)
		}
	}
	return m
}

func (m *Metrics) observeStep(step domain.Stage, started time.Time) {
	if m == nil {
		return
	}
	m.stepDuration.WithLabelValues(string(step)).Observe(time.Since(started).Seconds())
}

func (m *Metrics) statusCheck() {
	if m == nil {
		return
	}
	m.statusChecks.Inc()
}

func (m *Metrics) result(err error) {
	if m == nil {
		return
	}
	m.results.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	var (
		depErr    *domain.DeploymentError
		failedErr *domain.DeploymentFailedError
		aliasErr  *domain.AliasError
		recErr    *domain.RecordUpdateError
	)
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrExhaustedFallback):
		return "exhausted"
	case errors.As(err, &depErr):
		return "submit_error"
	case errors.Is(err, domain.ErrDeploymentTimeout):
		return "timeout"
	case errors.As(err, &failedErr):
		return "build_failed"
	case errors.As(err, &aliasErr):
		return "alias_error"
	case errors.As(err, &recErr):
		return "record_error"
	default:
		return "error"
	}
}
