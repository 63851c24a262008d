package cache

import (
	"bytes"
	"net/http"
	"time"
)

// ResultHeader is set on every response that passed through the
// middleware: "HIT" when a fresh entry was replayed, "MISS" otherwise.
const ResultHeader = "X-Cache"

// Middleware intercepts a request/response exchange around a
// variable-latency handler. On a fresh hit it replays the stored payload
// and the handler never runs. On a miss or stale entry it runs the
// handler behind a capturing writer and stores the first successful body.
//
// There is no single-flight discipline: concurrent misses for the same
// key each run the handler and each store their result.
type Middleware struct {
	store  Store
	keyer  Keyer
	policy Policy
	now    func() time.Time
}

// MiddlewareConfig configures the cache middleware.
type MiddlewareConfig struct {
	Store  Store
	Keyer  Keyer
	Policy Policy

	// Now overrides the time source used for freshness checks.
	// Tests use it to control the clock. Default: time.Now.
	Now func() time.Time
}

// NewMiddleware creates a new cache middleware.
// If Keyer is nil, a RequestKeyer is used.
func NewMiddleware(cfg MiddlewareConfig) *Middleware {
	if cfg.Keyer == nil {
		cfg.Keyer = NewRequestKeyer()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Middleware{
		store:  cfg.Store,
		keyer:  cfg.Keyer,
		policy: cfg.Policy,
		now:    cfg.Now,
	}
}

// Wrap wraps next with caching at the policy's default TTL.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return m.WrapTTL(0, next)
}

// WrapTTL wraps next with caching at the given TTL, clamped by the
// policy. Only GET exchanges are cached; failed responses are never
// stored, so the next request for that key is a fresh miss.
func (m *Middleware) WrapTTL(ttl time.Duration, next http.Handler) http.Handler {
	ttl = m.policy.EffectiveTTL(ttl)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.store == nil || ttl <= 0 || r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		key, err := m.keyer.Key(r)
		if err != nil {
			// Uncacheable identity - pass through.
			next.ServeHTTP(w, r)
			return
		}

		if entry, ok := m.store.Get(r.Context(), key); ok && m.now().Sub(entry.StoredAt) < ttl {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set(ResultHeader, "HIT")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(entry.Payload)
			return
		}

		w.Header().Set(ResultHeader, "MISS")
		cw := &captureWriter{ResponseWriter: w}
		next.ServeHTTP(cw, r)

		if cw.success() && cw.body.Len() > 0 {
			_ = m.store.Set(r.Context(), key, cw.body.Bytes())
		}
	})
}

// captureWriter tees the outgoing body so the middleware can store the
// payload after the handler returns, without the handler knowing.
type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *captureWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *captureWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	if w.success() {
		w.body.Write(p)
	}
	return w.ResponseWriter.Write(p)
}

func (w *captureWriter) success() bool {
	return w.status >= 200 && w.status < 300
}
