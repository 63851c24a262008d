package espn

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Default upstream hosts.
const (
	DefaultFantasyBaseURL    = "https://fantasy.espn.com/apis/v3/games/ffl"
	DefaultScoreboardBaseURL = "https://site.api.espn.com/apis/fantasy/v2/games/ffl"
)

// Upstream cookie names for the two credential tokens.
const (
	cookieESPNS2 = "espn_s2"
	cookieSWID   = "SWID"
)

// emptyArray is returned when the upstream envelope lacks the requested
// collection, so callers always see a JSON array.
var emptyArray = json.RawMessage("[]")

// ClientConfig configures the upstream client.
type ClientConfig struct {
	// FantasyBaseURL is the league API root. Default: DefaultFantasyBaseURL.
	FantasyBaseURL string

	// ScoreboardBaseURL is the NFL games API root. Default: DefaultScoreboardBaseURL.
	ScoreboardBaseURL string

	// Timeout bounds a single upstream request. Default: 30 seconds.
	Timeout time.Duration

	// HTTPClient overrides the transport; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client fetches league resources from the upstream provider. Each call
// performs exactly one fetch; there are no retries.
type Client struct {
	fantasyBaseURL    string
	scoreboardBaseURL string
	httpClient        *http.Client
}

// NewClient creates a new upstream client.
func NewClient(config ...ClientConfig) *Client {
	cfg := ClientConfig{}
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.FantasyBaseURL == "" {
		cfg.FantasyBaseURL = DefaultFantasyBaseURL
	}
	if cfg.ScoreboardBaseURL == "" {
		cfg.ScoreboardBaseURL = DefaultScoreboardBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		fantasyBaseURL:    strings.TrimRight(cfg.FantasyBaseURL, "/"),
		scoreboardBaseURL: strings.TrimRight(cfg.ScoreboardBaseURL, "/"),
		httpClient:        httpClient,
	}
}

// LeagueParams identify a league season.
type LeagueParams struct {
	LeagueID int
	SeasonID int
}

// TeamsParams identify the teams of a league at a scoring period.
type TeamsParams struct {
	LeagueID        int
	SeasonID        int
	ScoringPeriodID int
}

// BoxscoreParams identify the matchups of a league week.
type BoxscoreParams struct {
	LeagueID        int
	SeasonID        int
	MatchupPeriodID int
	ScoringPeriodID int
}

// FreeAgentParams identify the unrostered players of a league week.
type FreeAgentParams struct {
	LeagueID        int
	SeasonID        int
	ScoringPeriodID int

	// Limit caps the number of players returned. Default: DefaultFreeAgentLimit.
	Limit int
}

// DraftParams identify a league's draft.
type DraftParams struct {
	LeagueID int
	SeasonID int
}

// GamesParams bound a scoreboard window. Dates are YYYYMMDD strings.
type GamesParams struct {
	StartDate string
	EndDate   string
}

// leagueEnvelope is the subset of the upstream league response the proxy
// extracts collections from.
type leagueEnvelope struct {
	Teams       json.RawMessage   `json:"teams"`
	Schedule    []json.RawMessage `json:"schedule"`
	Players     json.RawMessage   `json:"players"`
	DraftDetail struct {
		Picks json.RawMessage `json:"picks"`
	} `json:"draftDetail"`
}

// LeagueInfo fetches league metadata (settings, status, current period).
func (c *Client) LeagueInfo(ctx context.Context, p LeagueParams, creds Credentials) (json.RawMessage, error) {
	if err := validateLeague(p.LeagueID, p.SeasonID); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("view", "mSettings")
	body, err := c.get(ctx, c.leagueURL(p.SeasonID, p.LeagueID, q), creds, nil)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// Teams fetches the league's teams at the given scoring period.
func (c *Client) Teams(ctx context.Context, p TeamsParams, creds Credentials) (json.RawMessage, error) {
	if err := validateLeague(p.LeagueID, p.SeasonID); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("view", "mTeam")
	q.Set("scoringPeriodId", strconv.Itoa(p.ScoringPeriodID))
	body, err := c.get(ctx, c.leagueURL(p.SeasonID, p.LeagueID, q), creds, nil)
	if err != nil {
		return nil, err
	}

	var env leagueEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("espn: decode teams response: %w", err)
	}
	if env.Teams == nil {
		return emptyArray, nil
	}
	return env.Teams, nil
}

// Boxscores fetches the matchups of the given matchup period, scored as
// of the given scoring period. The upstream returns the full season
// schedule; entries outside the requested matchup period are dropped.
func (c *Client) Boxscores(ctx context.Context, p BoxscoreParams, creds Credentials) (json.RawMessage, error) {
	if err := validateLeague(p.LeagueID, p.SeasonID); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Add("view", "mMatchup")
	q.Add("view", "mMatchupScore")
	q.Set("scoringPeriodId", strconv.Itoa(p.ScoringPeriodID))
	body, err := c.get(ctx, c.leagueURL(p.SeasonID, p.LeagueID, q), creds, nil)
	if err != nil {
		return nil, err
	}

	var env leagueEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("espn: decode boxscore response: %w", err)
	}

	matchups := make([]json.RawMessage, 0, len(env.Schedule))
	for _, raw := range env.Schedule {
		var head struct {
			MatchupPeriodID int `json:"matchupPeriodId"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			continue
		}
		if head.MatchupPeriodID == p.MatchupPeriodID {
			matchups = append(matchups, raw)
		}
	}

	out, err := json.Marshal(matchups)
	if err != nil {
		return nil, fmt.Errorf("espn: encode boxscores: %w", err)
	}
	return out, nil
}

// FreeAgents fetches unrostered players for the given scoring period.
func (c *Client) FreeAgents(ctx context.Context, p FreeAgentParams, creds Credentials) (json.RawMessage, error) {
	if err := validateLeague(p.LeagueID, p.SeasonID); err != nil {
		return nil, err
	}
	filter, err := freeAgentFilter(p.Limit)
	if err != nil {
		return nil, fmt.Errorf("espn: build player filter: %w", err)
	}

	q := url.Values{}
	q.Set("view", "kona_player_info")
	q.Set("scoringPeriodId", strconv.Itoa(p.ScoringPeriodID))
	header := http.Header{}
	header.Set(fantasyFilterHeader, filter)

	body, err := c.get(ctx, c.leagueURL(p.SeasonID, p.LeagueID, q), creds, header)
	if err != nil {
		return nil, err
	}

	var env leagueEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("espn: decode free agent response: %w", err)
	}
	if env.Players == nil {
		return emptyArray, nil
	}
	return env.Players, nil
}

// Draft fetches the league's draft picks.
func (c *Client) Draft(ctx context.Context, p DraftParams, creds Credentials) (json.RawMessage, error) {
	if err := validateLeague(p.LeagueID, p.SeasonID); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("view", "mDraftDetail")
	body, err := c.get(ctx, c.leagueURL(p.SeasonID, p.LeagueID, q), creds, nil)
	if err != nil {
		return nil, err
	}

	var env leagueEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("espn: decode draft response: %w", err)
	}
	if env.DraftDetail.Picks == nil {
		return emptyArray, nil
	}
	return env.DraftDetail.Picks, nil
}

// NFLGames fetches the NFL games in the given date window. Scoreboard
// data is public; credentials are never sent.
func (c *Client) NFLGames(ctx context.Context, p GamesParams) (json.RawMessage, error) {
	if p.StartDate == "" || p.EndDate == "" {
		return nil, ErrMissingDates
	}
	q := url.Values{}
	q.Set("useMap", "true")
	q.Set("dates", p.StartDate+"-"+p.EndDate)
	q.Set("pbpOnly", "true")

	body, err := c.get(ctx, c.scoreboardBaseURL+"/games?"+q.Encode(), Credentials{}, nil)
	if err != nil {
		return nil, err
	}

	var env struct {
		Events json.RawMessage `json:"events"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("espn: decode games response: %w", err)
	}
	if env.Events == nil {
		return emptyArray, nil
	}
	return env.Events, nil
}

func (c *Client) leagueURL(seasonID, leagueID int, query url.Values) string {
	return fmt.Sprintf("%s/seasons/%d/segments/0/leagues/%d?%s",
		c.fantasyBaseURL, seasonID, leagueID, query.Encode())
}

func validateLeague(leagueID, seasonID int) error {
	if leagueID <= 0 {
		return ErrMissingLeagueID
	}
	if seasonID <= 0 {
		return ErrMissingSeasonID
	}
	return nil
}

// get performs a single upstream GET, forwarding credentials as cookies.
func (c *Client) get(ctx context.Context, rawurl string, creds Credentials, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return nil, fmt.Errorf("espn: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if creds.ESPNS2 != "" {
		req.AddCookie(&http.Cookie{Name: cookieESPNS2, Value: creds.ESPNS2})
	}
	if creds.SWID != "" {
		req.AddCookie(&http.Cookie{Name: cookieSWID, Value: creds.SWID})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("espn: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("espn: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: upstreamMessage(body)}
	}
	return body, nil
}

// upstreamMessage pulls a readable message out of an upstream error body.
func upstreamMessage(body []byte) string {
	var e struct {
		Message  string   `json:"message"`
		Messages []string `json:"messages"`
	}
	if err := json.Unmarshal(body, &e); err == nil {
		if e.Message != "" {
			return e.Message
		}
		if len(e.Messages) > 0 {
			return e.Messages[0]
		}
	}

	const maxSnippet = 200
	s := strings.TrimSpace(string(body))
	if len(s) > maxSnippet {
		s = s[:maxSnippet]
	}
	if s == "" {
		s = "no response body"
	}
	return s
}
