package api

import "github.com/jmcleod/racetrack/storage"

// StatusResponse is the envelope of every response without a payload.
type StatusResponse struct {
	Result  string `json:"result"`
	Message string `json:"message"`
}

// SetNameRequest is the JSON body for POST /name.
type SetNameRequest struct {
	UserName string `json:"userName"`
}

// RaceRequest is the JSON body for POST/PATCH /pause and DELETE /race.
type RaceRequest struct {
	RaceID string `json:"raceId"`
}

// FinishRaceRequest is the JSON body for PATCH /race. RaceTime accepts a
// JSON number or a numeric string.
type FinishRaceRequest struct {
	RaceID   string   `json:"raceId"`
	RaceTime raceTime `json:"raceTime"`
	RaceMode string   `json:"raceMode"`
}

// RaceStartedResponse is returned from POST /race.
type RaceStartedResponse struct {
	Result  string `json:"result"`
	Message string `json:"message"`
	RaceID  string `json:"raceId"`
}

// MismatchResponse is returned from PATCH /race when the reported time falls
// outside the tolerance band. Times are in milliseconds.
type MismatchResponse struct {
	Result     string `json:"result"`
	Message    string `json:"message"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
	Difference int64  `json:"difference"`
}

// CountersResponse is returned from GET /counters.
type CountersResponse struct {
	Result  string            `json:"result"`
	Params  map[string]string `json:"params"`
	Results []storage.Counter `json:"results"`
}

// CounterResponse is returned from GET and POST /counters/{mode}.
type CounterResponse struct {
	Result string            `json:"result"`
	Params map[string]string `json:"params"`
	Count  int64             `json:"count"`
}

// LeaderboardParams echoes the resolved leaderboard query.
type LeaderboardParams struct {
	Sort   string `json:"sort"`
	Mode   string `json:"mode"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
	SortBy string `json:"sortBy"`
}

// LeaderboardResponse is returned from GET /race.
type LeaderboardResponse struct {
	Result  string            `json:"result"`
	Params  LeaderboardParams `json:"params"`
	Results []storage.Race    `json:"results"`
}

// LeaderboardErrorResponse is returned from GET /race when the store fails.
type LeaderboardErrorResponse struct {
	Result  string            `json:"result"`
	Params  LeaderboardParams `json:"params"`
	Message string            `json:"message"`
}
