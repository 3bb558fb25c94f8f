// Package observe provides application-wide observability primitives for
// awaaz: OpenTelemetry metrics, distributed tracing, structured logging, and
// HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is installed by [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all awaaz metrics.
const meterName = "github.com/awaazpay/awaaz"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// ClassifyDuration tracks the latency of one utterance classification.
	ClassifyDuration metric.Float64Histogram

	// Intents counts classification results. Use with attribute:
	//   attribute.String("intent", ...)
	Intents metric.Int64Counter

	// ScamBlocks counts utterances stopped by the safety filter. Use with
	// attribute:
	//   attribute.String("trigger", ...)
	ScamBlocks metric.Int64Counter

	// ContactMatches counts resolved contacts. Use with attributes:
	//   attribute.String("source", ...), attribute.String("strategy", ...)
	ContactMatches metric.Int64Counter

	// Alerts counts emergency alert delivery attempts. Use with attributes:
	//   attribute.String("notifier", ...), attribute.String("status", ...)
	Alerts metric.Int64Counter

	// ActiveRequests tracks in-flight HTTP requests.
	ActiveRequests metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// classifyBuckets are histogram boundaries (in seconds) for an in-memory
// string pipeline.
var classifyBuckets = []float64{
	0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025,
}

// httpBuckets are histogram boundaries (in seconds) for request handling,
// including outbound alert delivery.
var httpBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.ClassifyDuration, err = m.Float64Histogram("awaaz.classify.duration",
		metric.WithDescription("Latency of utterance classification."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(classifyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.Intents, err = m.Int64Counter("awaaz.intents",
		metric.WithDescription("Total classification results by intent."),
	); err != nil {
		return nil, err
	}
	if met.ScamBlocks, err = m.Int64Counter("awaaz.scam.blocks",
		metric.WithDescription("Total utterances blocked by the scam filter, by trigger keyword."),
	); err != nil {
		return nil, err
	}
	if met.ContactMatches, err = m.Int64Counter("awaaz.contact.matches",
		metric.WithDescription("Total resolved contacts by source and matching strategy."),
	); err != nil {
		return nil, err
	}
	if met.Alerts, err = m.Int64Counter("awaaz.alerts",
		metric.WithDescription("Total emergency alert delivery attempts by notifier and status."),
	); err != nil {
		return nil, err
	}

	if met.ActiveRequests, err = m.Int64UpDownCounter("awaaz.http.active_requests",
		metric.WithDescription("Number of in-flight HTTP requests."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("awaaz.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(httpBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Panics if instrument creation
// fails (should not happen with the global provider).
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

// RecordIntent records one classification result.
func (m *Metrics) RecordIntent(ctx context.Context, intent string) {
	m.Intents.Add(ctx, 1, metric.WithAttributes(attribute.String("intent", intent)))
}

// RecordScamBlock records one utterance stopped by the safety filter.
func (m *Metrics) RecordScamBlock(ctx context.Context, trigger string) {
	m.ScamBlocks.Add(ctx, 1, metric.WithAttributes(attribute.String("trigger", trigger)))
}

// RecordContactMatch records one resolved contact.
func (m *Metrics) RecordContactMatch(ctx context.Context, source, strategy string) {
	m.ContactMatches.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("source", source),
			attribute.String("strategy", strategy),
		),
	)
}

// RecordAlert records one emergency alert delivery attempt.
func (m *Metrics) RecordAlert(ctx context.Context, notifier, status string) {
	m.Alerts.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("notifier", notifier),
			attribute.String("status", status),
		),
	)
}
