package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records per-exchange metrics for proxied routes.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordRequest records a completed exchange. cacheResult is "HIT",
	// "MISS", or empty for uncached routes.
	RecordRequest(ctx context.Context, meta RouteMeta, status int, duration time.Duration, cacheResult string)
}

type metricsImpl struct {
	meter        metric.Meter
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
	cacheHits    metric.Int64Counter
	cacheMisses  metric.Int64Counter
}

// NewMetrics creates a Metrics instance backed by the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		"proxy.requests.total",
		metric.WithDescription("Total number of proxied requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"proxy.requests.errors",
		metric.WithDescription("Total number of failed proxied requests"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"proxy.request.duration_ms",
		metric.WithDescription("Proxied request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"proxy.cache.hits",
		metric.WithDescription("Responses replayed from the cache"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"proxy.cache.misses",
		metric.WithDescription("Requests that reached the upstream handler"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
		cacheHits:    cacheHits,
		cacheMisses:  cacheMisses,
	}, nil
}

// RecordRequest records metrics for one exchange.
func (m *metricsImpl) RecordRequest(ctx context.Context, meta RouteMeta, status int, duration time.Duration, cacheResult string) {
	attrs := []attribute.KeyValue{
		attribute.String("http.request.method", meta.Method),
		attribute.String("http.route", meta.Pattern),
		attribute.Int("http.response.status_code", status),
	}
	opt := metric.WithAttributes(attrs...)

	m.totalCount.Add(ctx, 1, opt)
	if status >= 500 {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)

	routeOpt := metric.WithAttributes(attribute.String("http.route", meta.Pattern))
	switch cacheResult {
	case "HIT":
		m.cacheHits.Add(ctx, 1, routeOpt)
	case "MISS":
		m.cacheMisses.Add(ctx, 1, routeOpt)
	}
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordRequest(ctx context.Context, meta RouteMeta, status int, duration time.Duration, cacheResult string) {
}

// NopMetrics returns a Metrics that discards everything.
func NopMetrics() Metrics {
	return &noopMetrics{}
}
