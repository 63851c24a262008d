package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ahump20/espn-fantasy-proxy/cache"
	"github.com/ahump20/espn-fantasy-proxy/espn"
)

// fakeUpstream stands in for the fantasy API: it counts requests,
// remembers the last one, and replays a configurable response.
type fakeUpstream struct {
	srv  *httptest.Server
	hits atomic.Int64

	mu     sync.Mutex
	last   *http.Request
	status int
	handle func(w http.ResponseWriter, r *http.Request)
}

func newFakeUpstream(t *testing.T, body string) *fakeUpstream {
	t.Helper()
	u := &fakeUpstream{status: http.StatusOK}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)
		u.mu.Lock()
		u.last = r.Clone(r.Context())
		status := u.status
		handle := u.handle
		u.mu.Unlock()
		if handle != nil {
			handle(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(u.srv.Close)
	return u
}

func (u *fakeUpstream) lastRequest() *http.Request {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.last
}

type proxyFixture struct {
	handler http.Handler
	store   *cache.MemoryStore
}

func newProxy(t *testing.T, u *fakeUpstream) *proxyFixture {
	t.Helper()
	client := espn.NewClient(espn.ClientConfig{
		FantasyBaseURL:    u.srv.URL,
		ScoreboardBaseURL: u.srv.URL,
	})
	store := cache.NewMemoryStore()
	mw := cache.NewMiddleware(cache.MiddlewareConfig{
		Store:  store,
		Policy: cache.DefaultPolicy(),
	})
	srv := New(Config{
		Client: client,
		Store:  store,
		Cache:  mw,
		Now:    func() time.Time { return time.Date(2025, 9, 4, 12, 0, 0, 0, time.UTC) },
	})
	return &proxyFixture{handler: srv.Handler(), store: store}
}

func (p *proxyFixture) do(method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	p.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body.Error
}

func TestMissingSeasonIDRejectedBeforeUpstream(t *testing.T) {
	u := newFakeUpstream(t, `{"teams":[]}`)
	p := newProxy(t, u)

	rec := p.do(http.MethodGet, "/leagues/12345/teams", nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if msg := decodeError(t, rec); msg != "seasonId query parameter is required" {
		t.Errorf("error = %q", msg)
	}
	if n := u.hits.Load(); n != 0 {
		t.Errorf("upstream hits = %d, want 0", n)
	}
	if n := p.store.Len(); n != 0 {
		t.Errorf("store entries = %d, want 0", n)
	}
}

func TestLeagueIDMustBeInteger(t *testing.T) {
	u := newFakeUpstream(t, `{}`)
	p := newProxy(t, u)

	rec := p.do(http.MethodGet, "/leagues/not-a-number/info?seasonId=2025", nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if msg := decodeError(t, rec); msg != "leagueId must be an integer" {
		t.Errorf("error = %q", msg)
	}
}

func TestMalformedSeasonIDRejected(t *testing.T) {
	u := newFakeUpstream(t, `{}`)
	p := newProxy(t, u)

	rec := p.do(http.MethodGet, "/leagues/12345/info?seasonId=twenty", nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if msg := decodeError(t, rec); msg != "seasonId must be an integer" {
		t.Errorf("error = %q", msg)
	}
}

func TestLeagueInfoPassesUpstreamBodyThrough(t *testing.T) {
	const body = `{"id":12345,"seasonId":2025,"settings":{"name":"Test League"}}`
	u := newFakeUpstream(t, body)
	p := newProxy(t, u)

	rec := p.do(http.MethodGet, "/leagues/12345/info?seasonId=2025", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); got != body {
		t.Errorf("body = %s, want %s", got, body)
	}
	if got := rec.Header().Get(cache.ResultHeader); got != "MISS" {
		t.Errorf("%s = %q, want MISS", cache.ResultHeader, got)
	}
}

func TestRepeatRequestServedFromCache(t *testing.T) {
	u := newFakeUpstream(t, `{"id":12345}`)
	p := newProxy(t, u)

	first := p.do(http.MethodGet, "/leagues/12345/info?seasonId=2025", nil)
	second := p.do(http.MethodGet, "/leagues/12345/info?seasonId=2025", nil)

	if n := u.hits.Load(); n != 1 {
		t.Fatalf("upstream hits = %d, want 1", n)
	}
	if got := second.Header().Get(cache.ResultHeader); got != "HIT" {
		t.Errorf("%s = %q, want HIT", cache.ResultHeader, got)
	}
	if first.Body.String() != second.Body.String() {
		t.Errorf("replayed body %s differs from original %s", second.Body.String(), first.Body.String())
	}
}

func TestDifferentQueryStringsCacheSeparately(t *testing.T) {
	u := newFakeUpstream(t, `{"id":12345}`)
	p := newProxy(t, u)

	p.do(http.MethodGet, "/leagues/12345/info?seasonId=2025", nil)
	p.do(http.MethodGet, "/leagues/12345/info?seasonId=2024", nil)

	if n := u.hits.Load(); n != 2 {
		t.Errorf("upstream hits = %d, want 2", n)
	}
	if n := p.store.Len(); n != 2 {
		t.Errorf("store entries = %d, want 2", n)
	}
}

func TestUpstreamFailureSurfacesAndIsNotCached(t *testing.T) {
	u := newFakeUpstream(t, `{"message":"league not visible"}`)
	u.status = http.StatusUnauthorized
	p := newProxy(t, u)

	rec := p.do(http.MethodGet, "/leagues/12345/info?seasonId=2025", nil)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if msg := decodeError(t, rec); msg != "espn: upstream returned 401: league not visible" {
		t.Errorf("error = %q", msg)
	}
	if n := p.store.Len(); n != 0 {
		t.Fatalf("failure was cached, store entries = %d", n)
	}

	p.do(http.MethodGet, "/leagues/12345/info?seasonId=2025", nil)
	if n := u.hits.Load(); n != 2 {
		t.Errorf("upstream hits = %d, want 2 (failures must re-fetch)", n)
	}
}

func TestCredentialHeadersForwardedAsCookies(t *testing.T) {
	u := newFakeUpstream(t, `{"id":12345}`)
	p := newProxy(t, u)

	header := http.Header{}
	header.Set(espn.HeaderESPNS2, "s2-token")
	header.Set(espn.HeaderSWID, "{SWID-1}")
	rec := p.do(http.MethodGet, "/leagues/12345/info?seasonId=2025", header)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	last := u.lastRequest()
	if c, err := last.Cookie("espn_s2"); err != nil || c.Value != "s2-token" {
		t.Errorf("espn_s2 cookie = %v, %v", c, err)
	}
	if c, err := last.Cookie("SWID"); err != nil || c.Value != "{SWID-1}" {
		t.Errorf("SWID cookie = %v, %v", c, err)
	}
}

func TestTeamsExtractsCollection(t *testing.T) {
	u := newFakeUpstream(t, `{"teams":[{"id":1},{"id":2}],"members":[]}`)
	p := newProxy(t, u)

	rec := p.do(http.MethodGet, "/leagues/12345/teams?seasonId=2025&scoringPeriodId=1", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); got != `[{"id":1},{"id":2}]` {
		t.Errorf("body = %s", got)
	}
}

func TestGamesValidatesDateWindow(t *testing.T) {
	u := newFakeUpstream(t, `{"events":[]}`)
	p := newProxy(t, u)

	rec := p.do(http.MethodGet, "/games?endDate=20250910", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if msg := decodeError(t, rec); msg != "startDate query parameter is required" {
		t.Errorf("error = %q", msg)
	}

	rec = p.do(http.MethodGet, "/games?startDate=2025-09-04&endDate=20250910", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if msg := decodeError(t, rec); msg != "startDate must be a YYYYMMDD date" {
		t.Errorf("error = %q", msg)
	}
	if n := u.hits.Load(); n != 0 {
		t.Errorf("upstream hits = %d, want 0", n)
	}
}

func TestGamesExtractsEvents(t *testing.T) {
	u := newFakeUpstream(t, `{"events":[{"id":"401"}]}`)
	p := newProxy(t, u)

	rec := p.do(http.MethodGet, "/games?startDate=20250904&endDate=20250910", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); got != `[{"id":"401"}]` {
		t.Errorf("body = %s", got)
	}
}

func TestSummaryMergesSections(t *testing.T) {
	u := newFakeUpstream(t, "")
	u.handle = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("view") {
		case "mSettings":
			_, _ = w.Write([]byte(`{"id":12345,"settings":{}}`))
		case "mTeam":
			_, _ = w.Write([]byte(`{"teams":[{"id":1}]}`))
		case "mMatchup":
			_, _ = w.Write([]byte(`{"schedule":[{"matchupPeriodId":1},{"matchupPeriodId":2}]}`))
		default:
			http.Error(w, "unexpected view", http.StatusBadRequest)
		}
	}
	p := newProxy(t, u)

	rec := p.do(http.MethodGet, "/leagues/12345/summary?seasonId=2025&scoringPeriodId=1&matchupPeriodId=1", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		League    json.RawMessage `json:"league"`
		Teams     json.RawMessage `json:"teams"`
		Boxscores json.RawMessage `json:"boxscores"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if string(body.Teams) != `[{"id":1}]` {
		t.Errorf("teams = %s", body.Teams)
	}
	if string(body.Boxscores) != `[{"matchupPeriodId":1}]` {
		t.Errorf("boxscores = %s", body.Boxscores)
	}
	if len(body.League) == 0 {
		t.Error("league section missing")
	}
}

func TestSummaryFailsWhenAnySectionFails(t *testing.T) {
	u := newFakeUpstream(t, "")
	u.handle = func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("view") == "mMatchup" {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"message":"scoreboard unavailable"}`))
			return
		}
		_, _ = w.Write([]byte(`{"teams":[]}`))
	}
	p := newProxy(t, u)

	rec := p.do(http.MethodGet, "/leagues/12345/summary?seasonId=2025&scoringPeriodId=1&matchupPeriodId=1", nil)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if msg := decodeError(t, rec); msg != "espn: upstream returned 503: scoreboard unavailable" {
		t.Errorf("error = %q", msg)
	}
}

func TestHealthEndpointShape(t *testing.T) {
	u := newFakeUpstream(t, `{}`)
	p := newProxy(t, u)

	rec := p.do(http.MethodGet, "/health", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Status    string `json:"status"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
	if body.Timestamp != "2025-09-04T12:00:00Z" {
		t.Errorf("timestamp = %q", body.Timestamp)
	}
	if n := u.hits.Load(); n != 0 {
		t.Errorf("health touched upstream %d times", n)
	}
}

func TestCacheClearInvalidatesEntries(t *testing.T) {
	u := newFakeUpstream(t, `{"id":12345}`)
	p := newProxy(t, u)

	p.do(http.MethodGet, "/leagues/12345/info?seasonId=2025", nil)
	if n := p.store.Len(); n != 1 {
		t.Fatalf("store entries = %d, want 1", n)
	}

	rec := p.do(http.MethodPost, "/cache/clear", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode clear: %v", err)
	}
	if body.Message != "cache cleared" {
		t.Errorf("message = %q", body.Message)
	}
	if n := p.store.Len(); n != 0 {
		t.Errorf("store entries = %d after clear", n)
	}

	next := p.do(http.MethodGet, "/leagues/12345/info?seasonId=2025", nil)
	if got := next.Header().Get(cache.ResultHeader); got != "MISS" {
		t.Errorf("%s = %q after clear, want MISS", cache.ResultHeader, got)
	}
	if n := u.hits.Load(); n != 2 {
		t.Errorf("upstream hits = %d, want 2", n)
	}
}

func TestCacheClearRequiresPost(t *testing.T) {
	u := newFakeUpstream(t, `{}`)
	p := newProxy(t, u)

	rec := p.do(http.MethodGet, "/cache/clear", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}
