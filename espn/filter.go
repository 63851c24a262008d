package espn

import "encoding/json"

// fantasyFilterHeader carries player-query parameters the upstream
// provider reads from a header instead of the query string.
const fantasyFilterHeader = "X-Fantasy-Filter"

// DefaultFreeAgentLimit caps the players returned when the caller does
// not ask for a specific count.
const DefaultFreeAgentLimit = 50

// playerFilter is the JSON body of the X-Fantasy-Filter header.
type playerFilter struct {
	Players playerFilterRules `json:"players"`
}

type playerFilterRules struct {
	FilterStatus  filterValues `json:"filterStatus"`
	Limit         int          `json:"limit"`
	SortPercOwned sortRule     `json:"sortPercOwned"`
}

type filterValues struct {
	Value []string `json:"value"`
}

type sortRule struct {
	SortAsc      bool `json:"sortAsc"`
	SortPriority int  `json:"sortPriority"`
}

// freeAgentFilter builds the filter selecting unrostered players,
// most-owned first.
func freeAgentFilter(limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultFreeAgentLimit
	}
	f := playerFilter{
		Players: playerFilterRules{
			FilterStatus:  filterValues{Value: []string{"FREEAGENT", "WAIVERS"}},
			Limit:         limit,
			SortPercOwned: sortRule{SortAsc: false, SortPriority: 1},
		},
	}
	b, err := json.Marshal(f)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
