// Package observe provides application-wide observability primitives for
// voice-caddy: OpenTelemetry metrics, tracing, trace-aware logging and HTTP
// middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API and exported
// for Prometheus via [InitProvider]. A package-level default [Metrics]
// instance ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/jasonnardone/voice-caddy"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	CaptureDuration metric.Float64Histogram
	OCRDuration     metric.Float64Histogram
	LLMDuration     metric.Float64Histogram
	SpeakDuration   metric.Float64Histogram
	// CycleDuration covers one full monitor cycle, capture to speech.
	CycleDuration metric.Float64Histogram

	// ChangeMagnitude records the percentage of changed pixels for every
	// compared frame.
	ChangeMagnitude metric.Float64Histogram

	// --- Counters ---

	// Cycles counts monitor cycles. Use with attribute:
	//   attribute.String("outcome", ...)
	Cycles metric.Int64Counter

	// Events counts reconciled game events. Use with attribute:
	//   attribute.String("kind", ...)
	Events metric.Int64Counter

	// Announcements counts commentary lines handed to the speaker.
	Announcements metric.Int64Counter

	// ProviderRequests counts provider calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// --- HTTP middleware ---

	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries in seconds. OCR and
// LLM calls dominate, so the upper buckets are wide.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// percentBuckets are bucket boundaries for the change magnitude.
var percentBuckets = []float64{0.5, 1, 2, 5, 10, 20, 40, 70, 100}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider].
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	latency := func(name, desc string) (metric.Float64Histogram, error) {
		return m.Float64Histogram(name,
			metric.WithDescription(desc),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(latencyBuckets...),
		)
	}
	if met.CaptureDuration, err = latency("caddy.capture.duration", "Latency of screen capture."); err != nil {
		return nil, err
	}
	if met.OCRDuration, err = latency("caddy.ocr.duration", "Latency of text recognition."); err != nil {
		return nil, err
	}
	if met.LLMDuration, err = latency("caddy.llm.duration", "Latency of commentary generation."); err != nil {
		return nil, err
	}
	if met.SpeakDuration, err = latency("caddy.speak.duration", "Latency of speech output."); err != nil {
		return nil, err
	}
	if met.CycleDuration, err = latency("caddy.cycle.duration", "Latency of a full monitor cycle."); err != nil {
		return nil, err
	}
	if met.ChangeMagnitude, err = m.Float64Histogram("caddy.change.magnitude",
		metric.WithDescription("Percentage of changed pixels between compared frames."),
		metric.WithUnit("%"),
		metric.WithExplicitBucketBoundaries(percentBuckets...),
	); err != nil {
		return nil, err
	}

	if met.Cycles, err = m.Int64Counter("caddy.cycles",
		metric.WithDescription("Total monitor cycles by outcome."),
	); err != nil {
		return nil, err
	}
	if met.Events, err = m.Int64Counter("caddy.events",
		metric.WithDescription("Total game events by kind."),
	); err != nil {
		return nil, err
	}
	if met.Announcements, err = m.Int64Counter("caddy.announcements",
		metric.WithDescription("Total commentary lines handed to the speaker."),
	); err != nil {
		return nil, err
	}
	if met.ProviderRequests, err = m.Int64Counter("caddy.provider.requests",
		metric.WithDescription("Total provider requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("caddy.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("caddy.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Panics if instrument creation
// fails.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String].
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordProviderRequest records a provider request with the standard
// attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordProviderError records a provider error.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}

// RecordCycle records one monitor cycle and its duration in seconds.
func (m *Metrics) RecordCycle(ctx context.Context, outcome string, seconds float64) {
	m.Cycles.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	m.CycleDuration.Record(ctx, seconds)
}

// RecordEvent records one game event.
func (m *Metrics) RecordEvent(ctx context.Context, kind string) {
	m.Events.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
