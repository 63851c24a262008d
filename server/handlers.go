package server

import (
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ahump20/espn-fantasy-proxy/espn"
	"github.com/ahump20/espn-fantasy-proxy/observe"
)

func (s *Server) handleLeagueInfo(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := s.pathInt(w, r, "leagueId")
	if !ok {
		return
	}
	seasonID, ok := s.queryInt(w, r, "seasonId")
	if !ok {
		return
	}
	creds := espn.CredentialsFromContext(r.Context())
	body, err := s.client.LeagueInfo(r.Context(), espn.LeagueParams{
		LeagueID: leagueID,
		SeasonID: seasonID,
	}, creds)
	if err != nil {
		s.upstreamError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := s.pathInt(w, r, "leagueId")
	if !ok {
		return
	}
	seasonID, ok := s.queryInt(w, r, "seasonId")
	if !ok {
		return
	}
	scoringPeriod, ok := s.queryInt(w, r, "scoringPeriodId")
	if !ok {
		return
	}
	creds := espn.CredentialsFromContext(r.Context())
	body, err := s.client.Teams(r.Context(), espn.TeamsParams{
		LeagueID:        leagueID,
		SeasonID:        seasonID,
		ScoringPeriodID: scoringPeriod,
	}, creds)
	if err != nil {
		s.upstreamError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleBoxscores(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := s.pathInt(w, r, "leagueId")
	if !ok {
		return
	}
	seasonID, ok := s.queryInt(w, r, "seasonId")
	if !ok {
		return
	}
	matchupPeriod, ok := s.queryInt(w, r, "matchupPeriodId")
	if !ok {
		return
	}
	scoringPeriod, ok := s.queryInt(w, r, "scoringPeriodId")
	if !ok {
		return
	}
	creds := espn.CredentialsFromContext(r.Context())
	body, err := s.client.Boxscores(r.Context(), espn.BoxscoreParams{
		LeagueID:        leagueID,
		SeasonID:        seasonID,
		MatchupPeriodID: matchupPeriod,
		ScoringPeriodID: scoringPeriod,
	}, creds)
	if err != nil {
		s.upstreamError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleFreeAgents(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := s.pathInt(w, r, "leagueId")
	if !ok {
		return
	}
	seasonID, ok := s.queryInt(w, r, "seasonId")
	if !ok {
		return
	}
	scoringPeriod, ok := s.queryInt(w, r, "scoringPeriodId")
	if !ok {
		return
	}
	limit, ok := s.queryIntDefault(w, r, "limit", espn.DefaultFreeAgentLimit)
	if !ok {
		return
	}
	creds := espn.CredentialsFromContext(r.Context())
	body, err := s.client.FreeAgents(r.Context(), espn.FreeAgentParams{
		LeagueID:        leagueID,
		SeasonID:        seasonID,
		ScoringPeriodID: scoringPeriod,
		Limit:           limit,
	}, creds)
	if err != nil {
		s.upstreamError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := s.pathInt(w, r, "leagueId")
	if !ok {
		return
	}
	seasonID, ok := s.queryInt(w, r, "seasonId")
	if !ok {
		return
	}
	creds := espn.CredentialsFromContext(r.Context())
	body, err := s.client.Draft(r.Context(), espn.DraftParams{
		LeagueID: leagueID,
		SeasonID: seasonID,
	}, creds)
	if err != nil {
		s.upstreamError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	startDate, ok := s.queryDate(w, r, "startDate")
	if !ok {
		return
	}
	endDate, ok := s.queryDate(w, r, "endDate")
	if !ok {
		return
	}
	body, err := s.client.NFLGames(r.Context(), espn.GamesParams{
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		s.upstreamError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, body)
}

type summaryResponse struct {
	League    json.RawMessage `json:"league"`
	Teams     json.RawMessage `json:"teams"`
	Boxscores json.RawMessage `json:"boxscores"`
}

// handleSummary fans out to the league, team, and boxscore fetches in
// parallel. The batch is all-or-nothing: any sub-request failure fails
// the whole response, so a summary is never a silent partial view.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := s.pathInt(w, r, "leagueId")
	if !ok {
		return
	}
	seasonID, ok := s.queryInt(w, r, "seasonId")
	if !ok {
		return
	}
	scoringPeriod, ok := s.queryInt(w, r, "scoringPeriodId")
	if !ok {
		return
	}
	matchupPeriod, ok := s.queryInt(w, r, "matchupPeriodId")
	if !ok {
		return
	}
	creds := espn.CredentialsFromContext(r.Context())

	var resp summaryResponse
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		body, err := s.client.LeagueInfo(ctx, espn.LeagueParams{
			LeagueID: leagueID,
			SeasonID: seasonID,
		}, creds)
		resp.League = body
		return err
	})
	g.Go(func() error {
		body, err := s.client.Teams(ctx, espn.TeamsParams{
			LeagueID:        leagueID,
			SeasonID:        seasonID,
			ScoringPeriodID: scoringPeriod,
		}, creds)
		resp.Teams = body
		return err
	})
	g.Go(func() error {
		body, err := s.client.Boxscores(ctx, espn.BoxscoreParams{
			LeagueID:        leagueID,
			SeasonID:        seasonID,
			MatchupPeriodID: matchupPeriod,
			ScoringPeriodID: scoringPeriod,
		}, creds)
		resp.Boxscores = body
		return err
	})
	if err := g.Wait(); err != nil {
		s.upstreamError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// handleHealth reports process liveness. It never consults the upstream
// or the cache; a running server is a healthy server.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: s.now().UTC().Format(time.RFC3339),
	})
}

type clearResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, http.StatusInternalServerError, "cache store is not configured")
		return
	}
	entries := s.store.Len()
	if err := s.store.Clear(r.Context()); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info(r.Context(), "cache cleared",
		observe.Field{Key: "entries", Value: entries},
	)
	s.writeJSON(w, http.StatusOK, clearResponse{Message: "cache cleared"})
}
