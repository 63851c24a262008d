package observe

import (
	"fmt"
	"net/http"
	"time"
)

// cacheResultHeader is set by the cache middleware on every cached route.
const cacheResultHeader = "X-Cache"

// Middleware wraps proxied routes with observability (tracing, metrics,
// logging).
//
// Contract:
//   - Concurrency: Wrap() returns a handler safe for concurrent use.
//   - Context: propagates the span context to the wrapped handler.
//   - Ownership: the response passes through unmodified.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware from its components.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Wrap wraps next with a span, request metrics, and a log line per
// exchange.
func (m *Middleware) Wrap(meta RouteMeta, next http.Handler) http.Handler {
	routeLogger := m.logger.WithRoute(meta)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := m.tracer.StartSpan(r.Context(), meta)
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r.WithContext(ctx))

		duration := time.Since(start)
		status := sw.Status()
		cacheResult := w.Header().Get(cacheResultHeader)

		var reqErr error
		if status >= http.StatusInternalServerError {
			reqErr = fmt.Errorf("%d %s", status, http.StatusText(status))
		}
		m.tracer.EndSpan(span, reqErr)
		m.metrics.RecordRequest(ctx, meta, status, duration, cacheResult)

		fields := []Field{
			{Key: "path", Value: r.URL.Path},
			{Key: "status", Value: status},
			{Key: "duration_ms", Value: float64(duration.Milliseconds())},
		}
		if cacheResult != "" {
			fields = append(fields, Field{Key: "cache", Value: cacheResult})
		}

		if reqErr != nil {
			routeLogger.Error(ctx, "request failed", fields...)
		} else {
			routeLogger.Info(ctx, "request completed", fields...)
		}
	})
}

// statusWriter records the response status for telemetry.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(p)
}

// Status returns the response status, defaulting to 200 when the handler
// never set one.
func (w *statusWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}
