package api

import (
	"net/http"

	"github.com/rs/zerolog"
)

// RaceEvent identifies a session or race lifecycle action being logged.
type RaceEvent string

const (
	EventSessionCreated     RaceEvent = "session_created"
	EventSessionDestroyed   RaceEvent = "session_destroyed"
	EventNameSet            RaceEvent = "name_set"
	EventNameRejected       RaceEvent = "name_rejected"
	EventRaceStarted        RaceEvent = "race_started"
	EventRacePaused         RaceEvent = "race_paused"
	EventRaceResumed        RaceEvent = "race_resumed"
	EventRaceFinished       RaceEvent = "race_finished"
	EventRaceRejected       RaceEvent = "race_rejected"
	EventRaceAbandoned      RaceEvent = "race_abandoned"
	EventCounterIncremented RaceEvent = "counter_incremented"
)

// eventLogger writes structured race lifecycle events.
type eventLogger struct {
	logger zerolog.Logger
}

func newEventLogger(logger zerolog.Logger) *eventLogger {
	return &eventLogger{logger: logger.With().Str("component", "events").Logger()}
}

// record starts an event entry for the given user. Callers add fields and
// finish with Send.
func (el *eventLogger) record(event RaceEvent, r *http.Request, userID string) *zerolog.Event {
	return el.logger.Info().
		Str("event", string(event)).
		Str("remote_addr", r.RemoteAddr).
		Str("user_id", userID)
}
