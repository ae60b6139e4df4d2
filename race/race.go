// Package race implements the per-session race timer.
//
// A Timer is always in exactly one of three states: Idle, Running or
// Paused. Transitions take the current instant as an argument so the
// package never reads the wall clock itself; callers inject a clock.
package race

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Tolerance is the maximum accepted divergence between the server-measured
// and the client-reported race duration.
const Tolerance = 1000 * time.Millisecond

// State is one of Idle, Running or Paused.
type State interface {
	isState()
}

// Idle means no race is in progress.
type Idle struct{}

// Running is an active, unpaused race.
type Running struct {
	ID          string
	StartedAt   time.Time
	PausedTotal time.Duration
}

// Paused is an active race whose clock is stopped since PausedAt.
type Paused struct {
	ID          string
	StartedAt   time.Time
	PausedTotal time.Duration
	PausedAt    time.Time
}

func (Idle) isState()    {}
func (Running) isState() {}
func (Paused) isState()  {}

// Result describes an accepted finish.
type Result struct {
	RaceID string
	// ServerTime is the elapsed race time measured by the server, in ms.
	ServerTime int64
	// ClientTime is the client-reported race time that will be persisted, in ms.
	ClientTime int64
	Difference int64
}

// Timer holds a session's race state. The zero value is Idle.
type Timer struct {
	state State
}

// State returns the current state.
func (t Timer) State() State {
	if t.state == nil {
		return Idle{}
	}
	return t.state
}

// ActiveID returns the id of the race in progress, or "" when idle.
func (t Timer) ActiveID() string {
	switch s := t.State().(type) {
	case Running:
		return s.ID
	case Paused:
		return s.ID
	}
	return ""
}

// Start begins a new race, abandoning any race already in progress.
func (t *Timer) Start(id string, now time.Time) {
	t.state = Running{ID: id, StartedAt: now}
}

// Pause stops the clock of the active race.
func (t *Timer) Pause(id string, now time.Time) error {
	if err := t.match(id); err != nil {
		return err
	}
	s, ok := t.state.(Running)
	if !ok {
		return ErrAlreadyPaused
	}
	t.state = Paused{ID: s.ID, StartedAt: s.StartedAt, PausedTotal: s.PausedTotal, PausedAt: now}
	return nil
}

// Resume restarts the clock of a paused race, adding the paused interval
// to the accumulated pause time.
func (t *Timer) Resume(id string, now time.Time) error {
	if err := t.match(id); err != nil {
		return err
	}
	s, ok := t.state.(Paused)
	if !ok {
		return ErrNotPaused
	}
	t.state = Running{ID: s.ID, StartedAt: s.StartedAt, PausedTotal: s.PausedTotal + now.Sub(s.PausedAt)}
	return nil
}

// Finish ends the active race and checks clientTime (ms) against the
// server-measured duration. Once the race id matches, the timer returns to
// Idle whatever the outcome. A divergence above Tolerance yields a
// *MismatchError.
//
// An open pause interval is not subtracted; only completed pauses are.
func (t *Timer) Finish(id string, clientTime int64, now time.Time) (Result, error) {
	if err := t.match(id); err != nil {
		return Result{}, err
	}
	var startedAt time.Time
	var pausedTotal time.Duration
	switch s := t.state.(type) {
	case Running:
		startedAt, pausedTotal = s.StartedAt, s.PausedTotal
	case Paused:
		startedAt, pausedTotal = s.StartedAt, s.PausedTotal
	}
	t.state = Idle{}

	serverTime := now.Sub(startedAt).Milliseconds() - pausedTotal.Milliseconds()
	difference := absDiff(serverTime, clientTime)
	tol := Tolerance.Milliseconds()
	if clientTime < serverTime-tol || clientTime > serverTime+tol {
		return Result{}, &MismatchError{ServerTime: serverTime, ClientTime: clientTime, Difference: difference}
	}
	return Result{RaceID: id, ServerTime: serverTime, ClientTime: clientTime, Difference: difference}, nil
}

// absDiff returns |a-b|, saturating at math.MaxInt64.
func absDiff(a, b int64) int64 {
	if a < b {
		a, b = b, a
	}
	d := a - b
	if d < 0 {
		return math.MaxInt64
	}
	return d
}

// Abandon discards the active race without recording it.
func (t *Timer) Abandon(id string) error {
	if err := t.match(id); err != nil {
		return err
	}
	t.state = Idle{}
	return nil
}

func (t Timer) match(id string) error {
	active := t.ActiveID()
	if active == "" || active != id {
		return ErrRaceNotFound
	}
	return nil
}

const (
	stateIdle    = "idle"
	statePaused  = "paused"
	stateRunning = "running"
)

type timerJSON struct {
	State       string        `json:"state"`
	ID          string        `json:"id,omitempty"`
	StartedAt   time.Time     `json:"started_at,omitzero"`
	PausedTotal time.Duration `json:"paused_total,omitempty"`
	PausedAt    time.Time     `json:"paused_at,omitzero"`
}

// MarshalJSON encodes the timer with an explicit state discriminator so a
// session can be persisted and restored.
func (t Timer) MarshalJSON() ([]byte, error) {
	var v timerJSON
	switch s := t.State().(type) {
	case Idle:
		v.State = stateIdle
	case Running:
		v = timerJSON{State: stateRunning, ID: s.ID, StartedAt: s.StartedAt, PausedTotal: s.PausedTotal}
	case Paused:
		v = timerJSON{State: statePaused, ID: s.ID, StartedAt: s.StartedAt, PausedTotal: s.PausedTotal, PausedAt: s.PausedAt}
	}
	return json.Marshal(v)
}

// UnmarshalJSON restores a timer encoded by MarshalJSON.
func (t *Timer) UnmarshalJSON(data []byte) error {
	var v timerJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v.State {
	case "", stateIdle:
		t.state = Idle{}
	case stateRunning:
		t.state = Running{ID: v.ID, StartedAt: v.StartedAt, PausedTotal: v.PausedTotal}
	case statePaused:
		t.state = Paused{ID: v.ID, StartedAt: v.StartedAt, PausedTotal: v.PausedTotal, PausedAt: v.PausedAt}
	default:
		return fmt.Errorf("unknown race state %q", v.State)
	}
	if t.state != (Idle{}) && v.ID == "" {
		return fmt.Errorf("race state %q without id", v.State)
	}
	return nil
}
