package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// recordingMetrics captures RecordRequest calls for assertions.
type recordingMetrics struct {
	mu          sync.Mutex
	meta        RouteMeta
	status      int
	cacheResult string
	calls       int
}

func (m *recordingMetrics) RecordRequest(_ context.Context, meta RouteMeta, status int, _ time.Duration, cacheResult string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta = meta
	m.status = status
	m.cacheResult = cacheResult
	m.calls++
}

func TestMiddleware_RecordsExchange(t *testing.T) {
	var buf bytes.Buffer
	metrics := &recordingMetrics{}
	mw := NewMiddleware(NewNoopTracer(), metrics, NewLoggerWithWriter("info", &buf))

	meta := RouteMeta{Method: "GET", Pattern: "/leagues/{leagueId}/info"}
	handler := mw.Wrap(meta, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Cache", "HIT")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"name":"X"}`))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/leagues/100/info?seasonId=2024", nil))

	if metrics.calls != 1 {
		t.Fatalf("metrics calls = %d, want 1", metrics.calls)
	}
	if metrics.status != http.StatusOK {
		t.Errorf("recorded status = %d", metrics.status)
	}
	if metrics.cacheResult != "HIT" {
		t.Errorf("recorded cache result = %q, want HIT", metrics.cacheResult)
	}
	if metrics.meta.Pattern != "/leagues/{leagueId}/info" {
		t.Errorf("recorded pattern = %q", metrics.meta.Pattern)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "request completed" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["cache"] != "HIT" {
		t.Errorf("cache field = %v", entry["cache"])
	}
}

func TestMiddleware_ServerErrorLogged(t *testing.T) {
	var buf bytes.Buffer
	metrics := &recordingMetrics{}
	mw := NewMiddleware(NewNoopTracer(), metrics, NewLoggerWithWriter("info", &buf))

	meta := RouteMeta{Method: "GET", Pattern: "/leagues/{leagueId}/teams"}
	handler := mw.Wrap(meta, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"upstream failed"}`, http.StatusInternalServerError)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/leagues/100/teams?seasonId=2024", nil))

	if metrics.status != http.StatusInternalServerError {
		t.Errorf("recorded status = %d", metrics.status)
	}
	if !strings.Contains(buf.String(), "request failed") {
		t.Errorf("expected failure log, got %s", buf.String())
	}
}

func TestMiddleware_DefaultStatusIs200(t *testing.T) {
	metrics := &recordingMetrics{}
	mw := NewMiddleware(NewNoopTracer(), metrics, NopLogger())

	handler := mw.Wrap(RouteMeta{Method: "GET", Pattern: "/health"}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))
	if metrics.status != http.StatusOK {
		t.Errorf("implicit status = %d, want 200", metrics.status)
	}
}

func TestMiddlewareFromObserver_NilObserver(t *testing.T) {
	if _, err := MiddlewareFromObserver(nil); err != ErrNilObserver {
		t.Errorf("got %v, want ErrNilObserver", err)
	}
}

func TestRouteMeta_SpanName(t *testing.T) {
	meta := RouteMeta{Method: "POST", Pattern: "/cache/clear"}
	if got := meta.SpanName(); got != "POST /cache/clear" {
		t.Errorf("SpanName = %q", got)
	}
}
