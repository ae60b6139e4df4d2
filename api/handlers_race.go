package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/jmcleod/racetrack/race"
	"github.com/jmcleod/racetrack/storage"
)

// StartRace begins a new race for the session, abandoning any race already
// in progress.
func (a *API) StartRace(w http.ResponseWriter, r *http.Request) {
	rs := sessionFromContext(r.Context())

	id := uuid.NewString()
	rs.Session.Race.Start(id, a.clock.Now())
	if err := a.saveSession(rs); err != nil {
		a.mapError(w, r, err)
		return
	}
	a.events.record(EventRaceStarted, r, rs.Session.UserID).Str("race_id", id).Send()
	writeJSON(w, http.StatusOK, RaceStartedResponse{
		Result:  resultOK,
		Message: "race started",
		RaceID:  id,
	})
}

// PauseRace stops the clock of the active race.
func (a *API) PauseRace(w http.ResponseWriter, r *http.Request) {
	a.transition(w, r, EventRacePaused, "race paused", func(t *race.Timer, id string) error {
		return t.Pause(id, a.clock.Now())
	})
}

// ResumeRace restarts the clock of a paused race.
func (a *API) ResumeRace(w http.ResponseWriter, r *http.Request) {
	a.transition(w, r, EventRaceResumed, "race unpaused", func(t *race.Timer, id string) error {
		return t.Resume(id, a.clock.Now())
	})
}

// AbandonRace discards the active race without recording it.
func (a *API) AbandonRace(w http.ResponseWriter, r *http.Request) {
	a.transition(w, r, EventRaceAbandoned, "race interrupted", func(t *race.Timer, id string) error {
		return t.Abandon(id)
	})
}

// transition applies a timer transition addressed by the raceId body field
// and persists the session on success.
func (a *API) transition(w http.ResponseWriter, r *http.Request, event RaceEvent, msg string, apply func(*race.Timer, string) error) {
	rs := sessionFromContext(r.Context())

	var req RaceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.mapError(w, r, err)
		return
	}
	if err := requireParams(param{"raceId", req.RaceID}); err != nil {
		a.mapError(w, r, err)
		return
	}
	if err := apply(&rs.Session.Race, req.RaceID); err != nil {
		a.mapError(w, r, err)
		return
	}
	if err := a.saveSession(rs); err != nil {
		a.mapError(w, r, err)
		return
	}
	a.events.record(event, r, rs.Session.UserID).Str("race_id", req.RaceID).Send()
	writeOK(w, msg)
}

// FinishRace ends the active race and records it on the leaderboard when
// the reported time is within the tolerance band. The race ends whatever
// the outcome.
func (a *API) FinishRace(w http.ResponseWriter, r *http.Request) {
	rs := sessionFromContext(r.Context())

	var req FinishRaceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.mapError(w, r, err)
		return
	}
	err := requireParams(
		param{"raceId", req.RaceID},
		param{"raceTime", req.RaceTime.flag()},
		param{"raceMode", req.RaceMode},
	)
	if err != nil {
		a.mapError(w, r, err)
		return
	}
	if rs.Session.Race.ActiveID() != req.RaceID {
		a.mapError(w, r, race.ErrRaceNotFound)
		return
	}
	if !req.RaceTime.valid {
		a.mapError(w, r, &invalidParamError{name: "raceTime"})
		return
	}

	result, finishErr := rs.Session.Race.Finish(req.RaceID, req.RaceTime.ms, a.clock.Now())
	if errors.Is(finishErr, race.ErrRaceNotFound) {
		a.mapError(w, r, finishErr)
		return
	}
	// The race is over; persist that before anything else can fail.
	if err := a.saveSession(rs); err != nil {
		a.mapError(w, r, err)
		return
	}
	if finishErr != nil {
		a.events.record(EventRaceRejected, r, rs.Session.UserID).
			Str("race_id", req.RaceID).
			Err(finishErr).
			Send()
		a.mapError(w, r, finishErr)
		return
	}

	record, err := a.leaderboard.InsertRace(r.Context(), storage.Race{
		Name: rs.Session.UserName,
		Mode: req.RaceMode,
		Time: result.ClientTime,
	})
	if err != nil {
		a.mapError(w, r, err)
		return
	}
	a.events.record(EventRaceFinished, r, rs.Session.UserID).
		Str("race_id", result.RaceID).
		Int64("record_id", record.ID).
		Str("mode", record.Mode).
		Int64("client_time", result.ClientTime).
		Int64("server_time", result.ServerTime).
		Send()
	writeOK(w, "race updated")
}
