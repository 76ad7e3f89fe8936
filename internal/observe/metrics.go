// Package observe provides observability primitives for the ToKnowAI
// transcript service: OpenTelemetry metrics, tracing, and HTTP middleware
// that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API and exported via
// a Prometheus bridge registered by [InitProvider], so they remain scrapeable
// at the standard /metrics endpoint. A package-level default [Metrics]
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

// meterName is the instrumentation scope name used for all service metrics.
const meterName = "github.com/Narevka/toknowai"

// Metrics holds all OpenTelemetry metric instruments for the service.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// SegmentationDuration tracks how long raw-payload segmentation takes.
	SegmentationDuration metric.Float64Histogram

	// ResolveDuration tracks end-to-end transcript resolution latency
	// (store read, optional source fetch + segmentation + write-back).
	ResolveDuration metric.Float64Histogram

	// StoreLookups counts persistent-store reads. Use with attribute:
	//   attribute.String("status", "hit"|"miss"|"error")
	StoreLookups metric.Int64Counter

	// StoreWrites counts transcript write-backs. Use with attribute:
	//   attribute.String("status", "ok"|"error")
	StoreWrites metric.Int64Counter

	// SourceFetches counts raw transcript retrievals. Use with attribute:
	//   attribute.String("status", "ok"|"error")
	SourceFetches metric.Int64Counter

	// ReaderCacheLookups counts in-process read-cache lookups in the fetch
	// facade. Use with attribute:
	//   attribute.String("status", "hit"|"miss")
	ReaderCacheLookups metric.Int64Counter

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Resolution
// is dominated by one network fetch plus one database round-trip, so the
// buckets stretch a little further than typical request-latency defaults.
var latencyBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.SegmentationDuration, err = m.Float64Histogram("toknowai.segmentation.duration",
		metric.WithDescription("Latency of raw transcript segmentation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ResolveDuration, err = m.Float64Histogram("toknowai.transcript.resolve.duration",
		metric.WithDescription("End-to-end transcript resolution latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.StoreLookups, err = m.Int64Counter("toknowai.store.lookups",
		metric.WithDescription("Total transcript store reads by status (hit, miss, error)."),
	); err != nil {
		return nil, err
	}
	if met.StoreWrites, err = m.Int64Counter("toknowai.store.writes",
		metric.WithDescription("Total transcript store write-backs by status."),
	); err != nil {
		return nil, err
	}
	if met.SourceFetches, err = m.Int64Counter("toknowai.source.fetches",
		metric.WithDescription("Total raw transcript retrievals by status."),
	); err != nil {
		return nil, err
	}
	if met.ReaderCacheLookups, err = m.Int64Counter("toknowai.reader.cache.lookups",
		metric.WithDescription("Total fetch-facade cache lookups by status (hit, miss)."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("toknowai.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
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
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
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

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordStoreLookup increments the store-lookup counter with the given status.
func (m *Metrics) RecordStoreLookup(ctx context.Context, status string) {
	m.StoreLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordStoreWrite increments the store-write counter with the given status.
func (m *Metrics) RecordStoreWrite(ctx context.Context, status string) {
	m.StoreWrites.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordSourceFetch increments the source-fetch counter with the given status.
func (m *Metrics) RecordSourceFetch(ctx context.Context, status string) {
	m.SourceFetches.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordReaderCacheLookup increments the facade cache-lookup counter.
func (m *Metrics) RecordReaderCacheLookup(ctx context.Context, status string) {
	m.ReaderCacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
