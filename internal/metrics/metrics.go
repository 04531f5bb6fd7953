// Package metrics exports run metrics to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ashureev/promptrelay/internal/automation"
)

const namespace = "promptrelay"

// Recorder implements automation.Recorder on a Prometheus registry.
type Recorder struct {
	gatherer prometheus.Gatherer

	runs           *prometheus.CounterVec
	runDuration    prometheus.Histogram
	stageFailures  *prometheus.CounterVec
	fallbackClicks prometheus.Counter
	clearFallbacks prometheus.Counter
	stabilityPolls prometheus.Histogram
	activeSessions prometheus.Gauge
}

var _ automation.Recorder = (*Recorder)(nil)

// New registers the relay metrics on reg. A nil reg uses a fresh registry.
func New(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Recorder{
		gatherer: reg,
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Prompt runs by outcome.",
		}, []string{"outcome"}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of prompt runs that reached the browser.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 90, 120, 180},
		}),
		stageFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Run failures by the state they happened in.",
		}, []string{"stage"}),
		fallbackClicks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_button_clicks_total",
			Help:      "Submissions confirmed by clicking a send button after Enter.",
		}),
		clearFallbacks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clear_fallbacks_total",
			Help:      "Inputs cleared with select-all and backspace.",
		}),
		stabilityPolls: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stability_polls",
			Help:      "Polls taken before the reply settled or the wait ended.",
			Buckets:   prometheus.ExponentialBuckets(4, 2, 8),
		}),
		activeSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Browser sessions currently open.",
		}),
	}
}

func (r *Recorder) RunFinished(outcome string, seconds float64) {
	r.runs.WithLabelValues(outcome).Inc()
	if seconds > 0 {
		r.runDuration.Observe(seconds)
	}
}

func (r *Recorder) StageFailed(stage automation.State) {
	r.stageFailures.WithLabelValues(string(stage)).Inc()
}

func (r *Recorder) SessionOpened()       { r.activeSessions.Inc() }
func (r *Recorder) SessionClosed()       { r.activeSessions.Dec() }
func (r *Recorder) ClearFallback()       { r.clearFallbacks.Inc() }
func (r *Recorder) FallbackClick()       { r.fallbackClicks.Inc() }
func (r *Recorder) StabilityPolls(n int) { r.stabilityPolls.Observe(float64(n)) }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
