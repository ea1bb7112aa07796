// Package metrics counts what a batch run did, for node-exporter's textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "deskew"

// Recorder owns a private registry, so that several runs in one process don't collide
type Recorder struct {
	registry *prometheus.Registry
	units    *prometheus.CounterVec
	duration prometheus.Histogram
	angles   prometheus.Histogram
	runs     *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		units: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "units_total",
				Help:      "Analysed units by the stage that decided their angle",
			},
			[]string{"method"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "unit_duration_seconds",
				Help:      "Time to load and analyse one unit",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
			},
		),
		angles: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "abs_angle_degrees",
				Help:      "Magnitude of the detected skew",
				Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
			},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Batch runs by final state",
			},
			[]string{"state"},
		),
	}
	r.registry.MustRegister(r.units, r.duration, r.angles, r.runs)
	return r
}

// ObserveUnit records one finished unit. absAngle is ignored when hasAngle is false.
func (r *Recorder) ObserveUnit(method string, dur time.Duration, absAngle float64, hasAngle bool) {
	r.units.WithLabelValues(method).Inc()
	r.duration.Observe(dur.Seconds())
	if hasAngle {
		r.angles.Observe(absAngle)
	}
}

func (r *Recorder) ObserveRun(state string) {
	r.runs.WithLabelValues(state).Inc()
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// WriteTextfile atomically writes every metric in the text exposition format
func (r *Recorder) WriteTextfile(filename string) error {
	return prometheus.WriteToTextfile(filename, r.registry)
}
