package espn

import (
	"errors"
	"fmt"
)

// Sentinel errors for malformed upstream requests.
var (
	ErrMissingLeagueID = errors.New("espn: league id is required")
	ErrMissingSeasonID = errors.New("espn: season id is required")
	ErrMissingDates    = errors.New("espn: start and end dates are required")
)

// UpstreamError is a non-success response from the upstream provider.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("espn: upstream returned %d: %s", e.StatusCode, e.Message)
}
