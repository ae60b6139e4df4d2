package api

import (
	"net/http"

	"github.com/jmcleod/racetrack/storage"
)

// ListRaces returns a filtered, sorted page of finished races together with
// the parameters that were applied.
func (a *API) ListRaces(w http.ResponseWriter, r *http.Request) {
	q := parseLeaderboardQuery(r)
	params := NewLeaderboardParams(q)

	races, err := a.leaderboard.Races(r.Context(), q)
	if err != nil {
		a.log(r).Error().Err(err).Msg("leaderboard query failed")
		writeJSON(w, http.StatusInternalServerError, LeaderboardErrorResponse{
			Result:  resultFail,
			Params:  params,
			Message: msgServerError,
		})
		return
	}
	if races == nil {
		races = []storage.Race{}
	}
	writeJSON(w, http.StatusOK, LeaderboardResponse{
		Result:  resultOK,
		Params:  params,
		Results: races,
	})
}
