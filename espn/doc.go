// Package espn is the upstream client for the ESPN fantasy football v3 API.
//
// It exposes one method per league resource (league info, teams, boxscores,
// free agents, draft) plus the NFL scoreboard, all returning the upstream
// JSON unchanged apart from envelope extraction. Optional auth cookies are
// forwarded when the caller supplies Credentials.
package espn
