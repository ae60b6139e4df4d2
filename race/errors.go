package race

import (
	"errors"
	"fmt"
)

var (
	// ErrRaceNotFound indicates the supplied race id is not the session's active race.
	ErrRaceNotFound = errors.New("raceId not found")
	// ErrInvalidState indicates a transition was requested out of sequence.
	ErrInvalidState = errors.New("invalid race state")
	// ErrAlreadyPaused is returned when pausing a race that is already paused.
	ErrAlreadyPaused = fmt.Errorf("race already paused: %w", ErrInvalidState)
	// ErrNotPaused is returned when resuming a race that is not paused.
	ErrNotPaused = fmt.Errorf("race not paused: %w", ErrInvalidState)
)

// MismatchError reports a finish whose client-reported time falls outside
// the tolerance band. All values are in milliseconds.
type MismatchError struct {
	ServerTime int64
	ClientTime int64
	Difference int64
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("raceTime mismatch: server=%dms client=%dms difference=%dms",
		e.ServerTime, e.ClientTime, e.Difference)
}
