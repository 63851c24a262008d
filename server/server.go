package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/ahump20/espn-fantasy-proxy/cache"
	"github.com/ahump20/espn-fantasy-proxy/espn"
	"github.com/ahump20/espn-fantasy-proxy/health"
	"github.com/ahump20/espn-fantasy-proxy/observe"
)

// Config carries the collaborators the server wires into its routes.
// Client and Store are required; everything else degrades to a no-op
// when absent so tests can build a server from the pieces they need.
type Config struct {
	// Client fetches fantasy data from the upstream API.
	Client *espn.Client

	// Store backs the cache clear endpoint and the readiness checker.
	Store cache.Store

	// Cache, when set, is applied to every data route.
	Cache *cache.Middleware

	// Observe, when set, wraps every route with tracing, metrics, and
	// request logging.
	Observe *observe.Middleware

	// Logger receives handler-level events. Defaults to a no-op logger.
	Logger observe.Logger

	// Health, when set, has its liveness and readiness handlers
	// registered alongside the data routes.
	Health *health.Aggregator

	// Metrics, when set, is served at GET /metrics.
	Metrics http.Handler

	// Now is the clock for the health endpoint timestamp. Defaults to
	// time.Now.
	Now func() time.Time
}

// Server routes fantasy API requests through the cache to the upstream
// client.
type Server struct {
	client *espn.Client
	store  cache.Store
	cache  *cache.Middleware
	obs    *observe.Middleware
	logger observe.Logger
	now    func() time.Time
	mux    *http.ServeMux
}

// New builds a Server and registers its routes.
func New(cfg Config) *Server {
	s := &Server{
		client: cfg.Client,
		store:  cfg.Store,
		cache:  cfg.Cache,
		obs:    cfg.Observe,
		logger: cfg.Logger,
		now:    cfg.Now,
		mux:    http.NewServeMux(),
	}
	if s.logger == nil {
		s.logger = observe.NopLogger()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.routes(cfg.Health, cfg.Metrics)
	return s
}

// Handler returns the root handler for the server's mux.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes(agg *health.Aggregator, metrics http.Handler) {
	s.handle("GET /leagues/{leagueId}/info", true, http.HandlerFunc(s.handleLeagueInfo))
	s.handle("GET /leagues/{leagueId}/teams", true, http.HandlerFunc(s.handleTeams))
	s.handle("GET /leagues/{leagueId}/boxscores", true, http.HandlerFunc(s.handleBoxscores))
	s.handle("GET /leagues/{leagueId}/freeagents", true, http.HandlerFunc(s.handleFreeAgents))
	s.handle("GET /leagues/{leagueId}/draft", true, http.HandlerFunc(s.handleDraft))
	s.handle("GET /leagues/{leagueId}/summary", true, http.HandlerFunc(s.handleSummary))
	s.handle("GET /games", true, http.HandlerFunc(s.handleGames))

	s.handle("GET /health", false, http.HandlerFunc(s.handleHealth))
	s.handle("POST /cache/clear", false, http.HandlerFunc(s.handleCacheClear))

	if agg != nil {
		health.RegisterHandlers(s.mux, agg)
	}
	if metrics != nil {
		s.mux.Handle("GET /metrics", metrics)
	}
}

// handle registers a route with the middleware stack applied outside-in:
// observability, credential extraction, then the cache. Cached routes
// short-circuit below the credential layer so a hit never touches the
// upstream client.
func (s *Server) handle(pattern string, cached bool, h http.Handler) {
	if cached && s.cache != nil {
		h = s.cache.Wrap(h)
	}
	h = espn.WithCredentialHeaders(h)
	if s.obs != nil {
		method, route, ok := strings.Cut(pattern, " ")
		if ok {
			h = s.obs.Wrap(observe.RouteMeta{Method: method, Pattern: route}, h)
		}
	}
	s.mux.Handle(pattern, h)
}
