package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListCounters returns every completion counter.
func (a *API) ListCounters(w http.ResponseWriter, r *http.Request) {
	counters, err := a.leaderboard.Counters(r.Context())
	if err != nil {
		a.mapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CountersResponse{
		Result:  resultOK,
		Params:  map[string]string{},
		Results: counters,
	})
}

// GetCounter returns the count for one mode.
func (a *API) GetCounter(w http.ResponseWriter, r *http.Request) {
	mode := chi.URLParam(r, "mode")
	c, err := a.leaderboard.Counter(r.Context(), mode)
	if err != nil {
		a.mapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CounterResponse{
		Result: resultOK,
		Params: map[string]string{"mode": mode},
		Count:  c.Count,
	})
}

// IncrementCounter adds one to the counter for a mode and returns the new
// count. Unknown modes are not created.
func (a *API) IncrementCounter(w http.ResponseWriter, r *http.Request) {
	rs := sessionFromContext(r.Context())
	mode := chi.URLParam(r, "mode")
	c, err := a.leaderboard.IncrementCounter(r.Context(), mode)
	if err != nil {
		a.mapError(w, r, err)
		return
	}
	a.events.record(EventCounterIncremented, r, rs.Session.UserID).
		Str("mode", mode).
		Int64("count", c.Count).
		Send()
	writeJSON(w, http.StatusOK, CounterResponse{
		Result: resultOK,
		Params: map[string]string{"mode": mode},
		Count:  c.Count,
	})
}
