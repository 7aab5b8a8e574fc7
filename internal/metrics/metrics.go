// Package metrics holds the Prometheus collectors for the gateway and the
// evaluation engines. A nil *Recorder is valid and records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "recruit_panel"

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeShape   = "shape_invalid"
)

// Recorder owns a private registry so textfile dumps contain only our series.
type Recorder struct {
	registry *prometheus.Registry

	gatewayCalls    *prometheus.CounterVec
	gatewayLatency  *prometheus.HistogramVec
	gatewayTokens   *prometheus.CounterVec
	truncations     prometheus.Counter
	personaOutcomes *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
}

// Option configures a Recorder.
type Option func(*options)

type options struct {
	buckets []float64
}

// WithLatencyBuckets overrides the latency histogram buckets (seconds).
func WithLatencyBuckets(buckets []float64) Option {
	return func(o *options) {
		if len(buckets) > 0 {
			o.buckets = buckets
		}
	}
}

func New(opts ...Option) *Recorder {
	o := options{buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120}}
	for _, opt := range opts {
		opt(&o)
	}

	registry := prometheus.NewRegistry()
	auto := promauto.With(registry)

	return &Recorder{
		registry: registry,
		gatewayCalls: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "calls_total",
			Help:      "Chat completion calls by backend and outcome.",
		}, []string{"backend", "outcome"}),
		gatewayLatency: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "call_duration_seconds",
			Help:      "Chat completion latency.",
			Buckets:   o.buckets,
		}, []string{"backend"}),
		gatewayTokens: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "tokens_total",
			Help:      "Total tokens reported by the backend.",
		}, []string{"backend"}),
		truncations: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "truncations_total",
			Help:      "Requests whose last message was cut to fit the input budget.",
		}),
		personaOutcomes: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "persona_outcomes_total",
			Help:      "Persona turns by engine and outcome.",
		}, []string{"engine", "outcome"}),
		runDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of a full evaluation or debate.",
			Buckets:   o.buckets,
		}, []string{"engine"}),
	}
}

// ObserveCall records one gateway call.
func (r *Recorder) ObserveCall(backend string, success bool, d time.Duration, tokens int) {
	if r == nil {
		return
	}
	outcome := OutcomeSuccess
	if !success {
		outcome = OutcomeFailure
	}
	r.gatewayCalls.WithLabelValues(backend, outcome).Inc()
	r.gatewayLatency.WithLabelValues(backend).Observe(d.Seconds())
	if tokens > 0 {
		r.gatewayTokens.WithLabelValues(backend).Add(float64(tokens))
	}
}

// ObserveTruncation counts a budget truncation.
func (r *Recorder) ObserveTruncation() {
	if r == nil {
		return
	}
	r.truncations.Inc()
}

// ObservePersona records a persona outcome for engine "evaluation" or "debate".
func (r *Recorder) ObservePersona(engine, outcome string) {
	if r == nil {
		return
	}
	r.personaOutcomes.WithLabelValues(engine, outcome).Inc()
}

// ObserveRun records the duration of a full engine run.
func (r *Recorder) ObserveRun(engine string, d time.Duration) {
	if r == nil {
		return
	}
	r.runDuration.WithLabelValues(engine).Observe(d.Seconds())
}

// Registry exposes the underlying registry, e.g. for tests or an HTTP handler.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// WriteTextfile dumps all series in the node-exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
