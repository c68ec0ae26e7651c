package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors that report pipeline activity.
type Metrics struct {
	stageDuration *prometheus.HistogramVec
	runs          *prometheus.CounterVec
	runsActive    *prometheus.GaugeVec
}

// New registers the pipeline collectors with reg. Collectors that are already
// registered under the same name are reused so a second Service in the same
// process does not panic.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "thumbflow",
				Subsystem: "pipeline",
				Name:      "stage_duration_seconds",
				Help:      "Duration spent in each pipeline stage.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pipeline", "stage", "status"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "thumbflow",
				Subsystem: "pipeline",
				Name:      "runs_total",
				Help:      "Pipeline invocations by outcome (succeeded, failed, skipped).",
			},
			[]string{"pipeline", "outcome"},
		),
		runsActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "thumbflow",
				Subsystem: "pipeline",
				Name:      "runs_active",
				Help:      "Pipeline invocations currently in flight.",
			},
			[]string{"pipeline"},
		),
	}

	var err error
	if m.stageDuration, err = register(reg, m.stageDuration); err != nil {
		return nil, err
	}
	if m.runs, err = register(reg, m.runs); err != nil {
		return nil, err
	}
	if m.runsActive, err = register(reg, m.runsActive); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObserveStage records the time spent in a stage.
func (m *Metrics) ObserveStage(pipeline, stage string, err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.stageDuration.WithLabelValues(pipeline, stage, status).Observe(d.Seconds())
}

// RunStarted marks an invocation as in flight and returns a func that records
// its outcome.
func (m *Metrics) RunStarted(pipeline string) func(outcome string) {
	if m == nil {
		return func(string) {}
	}
	m.runsActive.WithLabelValues(pipeline).Inc()
	return func(outcome string) {
		m.runsActive.WithLabelValues(pipeline).Dec()
		m.runs.WithLabelValues(pipeline, outcome).Inc()
	}
}
