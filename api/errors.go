package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/jmcleod/racetrack/race"
	"github.com/jmcleod/racetrack/storage"
)

const maxBodyBytes = 1 << 20

const (
	resultOK   = "ok"
	resultFail = "fail"

	msgUnauthorized = "unauthorized"
	msgServerError  = "server error. contact admin"
)

var (
	errInvalidJSON     = errors.New("invalid JSON body")
	errCounterNotFound = errors.New("counter not found")
)

// missingParamsError lists required body fields that were absent or empty.
type missingParamsError struct {
	names []string
}

func (e *missingParamsError) Error() string {
	return "required parameter (" + strings.Join(e.names, ",") + ") missing"
}

// invalidParamError reports a present field whose value cannot be used.
type invalidParamError struct {
	name string
}

func (e *invalidParamError) Error() string {
	return "invalid parameter (" + e.name + ")"
}

type param struct {
	name, value string
}

// requireParams returns a *missingParamsError naming every empty param, in
// the order given, or nil.
func requireParams(params ...param) error {
	var missing []string
	for _, p := range params {
		if p.value == "" {
			missing = append(missing, p.name)
		}
	}
	if len(missing) > 0 {
		return &missingParamsError{names: missing}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, StatusResponse{Result: resultOK, Message: msg})
}

func writeFail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, StatusResponse{Result: resultFail, Message: msg})
}

// mapError writes the response for err. Errors without a specific mapping
// are logged and reported as a generic 500.
func (a *API) mapError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		missing  *missingParamsError
		invalid  *invalidParamError
		mismatch *race.MismatchError
	)
	switch {
	case errors.As(err, &missing):
		writeFail(w, http.StatusBadRequest, missing.Error())
	case errors.As(err, &invalid):
		writeFail(w, http.StatusBadRequest, invalid.Error())
	case errors.Is(err, errInvalidJSON):
		writeFail(w, http.StatusBadRequest, errInvalidJSON.Error())
	case errors.Is(err, race.ErrRaceNotFound):
		writeFail(w, http.StatusNotFound, race.ErrRaceNotFound.Error())
	case errors.Is(err, race.ErrAlreadyPaused):
		writeFail(w, http.StatusBadRequest, "race already paused")
	case errors.Is(err, race.ErrNotPaused):
		writeFail(w, http.StatusBadRequest, "race not paused")
	case errors.As(err, &mismatch):
		writeJSON(w, http.StatusBadRequest, MismatchResponse{
			Result:     resultFail,
			Message:    "raceTime mismatch",
			ServerTime: mismatch.ServerTime,
			ClientTime: mismatch.ClientTime,
			Difference: mismatch.Difference,
		})
	case errors.Is(err, storage.ErrNotFound):
		writeFail(w, http.StatusNotFound, errCounterNotFound.Error())
	default:
		a.log(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeFail(w, http.StatusInternalServerError, msgServerError)
	}
}

// log returns the request-scoped logger installed by hlog, falling back to
// the API logger.
func (a *API) log(r *http.Request) *zerolog.Logger {
	if l := hlog.FromRequest(r); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &a.logger
}

// decodeJSON reads an optional JSON object body into v. An empty body
// leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return errInvalidJSON
}
