// Package metrics records run progress as Prometheus metrics.
//
// A Recorder is a provisioning.Observer backed by its own registry. At the
// end of a run the registry can be written to a node-exporter textfile.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vsops/vsbootstrap/internal/provisioning"
)

const namespace = "vsbootstrap"

// Recorder turns pipeline events into metrics.
type Recorder struct {
	registry *prometheus.Registry

	stepDuration  *prometheus.HistogramVec
	stepOutcome   *prometheus.GaugeVec
	phaseDuration *prometheus.HistogramVec
	runStage      prometheus.Gauge
	runAborted    prometheus.Gauge
}

var _ provisioning.Observer = (*Recorder)(nil)

// NewRecorder creates a Recorder with a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "step_duration_seconds",
				Help:      "Duration of each install or readiness step in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14), // 100ms to ~27min
			},
			[]string{"step"},
		),
		stepOutcome: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "step_outcome",
				Help:      "Outcome of each step (1 for the recorded outcome)",
			},
			[]string{"step", "outcome"},
		),
		phaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "phase_duration_seconds",
				Help:      "Duration of each provisioning phase in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14),
			},
			[]string{"phase"},
		),
		runStage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_stage",
			Help:      "Index of the current run stage (collecting-config is 0)",
		}),
		runAborted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_aborted",
			Help:      "Whether the run was aborted (1) or not (0)",
		}),
	}
	r.registry.MustRegister(r.stepDuration, r.stepOutcome, r.phaseDuration, r.runStage, r.runAborted)
	return r
}

// Event implements provisioning.Observer.
func (r *Recorder) Event(e provisioning.Event) {
	switch e.Type {
	case provisioning.EventStepCompleted:
		r.stepDuration.WithLabelValues(e.Step).Observe(e.Duration.Seconds())
		for _, o := range provisioning.Outcomes {
			v := 0.0
			if o == e.Outcome {
				v = 1
			}
			r.stepOutcome.WithLabelValues(e.Step, string(o)).Set(v)
		}
	case provisioning.EventPhaseCompleted:
		r.phaseDuration.WithLabelValues(e.Phase).Observe(e.Duration.Seconds())
	case provisioning.EventStageChanged:
		r.runStage.Set(float64(e.Stage.Index()))
		if e.Stage == provisioning.StageAborted {
			r.runAborted.Set(1)
		}
	}
}

// WriteTextfile writes the registry in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
