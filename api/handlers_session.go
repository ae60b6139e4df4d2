package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/jmcleod/racetrack/internal/util"
)

// GetSession reports whether the request carries a live session identity.
func (a *API) GetSession(w http.ResponseWriter, r *http.Request) {
	if rs, ok := a.loadSession(r); ok && rs.Session.UserID != "" {
		writeOK(w, "session exists")
		return
	}
	writeFail(w, http.StatusNotFound, "session not found")
}

// CreateSession mints a guest identity with a random display name. It is a
// no-op when the request already carries one.
func (a *API) CreateSession(w http.ResponseWriter, r *http.Request) {
	if rs, ok := a.loadSession(r); ok && rs.Session.UserID != "" {
		writeOK(w, "session exists")
		return
	}

	name, err := util.GuestName()
	if err != nil {
		a.mapError(w, r, err)
		return
	}
	rs := &requestSession{
		id:      uuid.NewString(),
		Session: Session{UserID: uuid.NewString(), UserName: name},
	}
	if err := a.saveSession(rs); err != nil {
		a.mapError(w, r, err)
		return
	}
	if err := a.writeSessionCookie(w, r, rs.id); err != nil {
		a.mapError(w, r, err)
		return
	}
	a.events.record(EventSessionCreated, r, rs.Session.UserID).Str("user_name", name).Send()
	writeOK(w, "session created")
}

// DestroySession deletes the session, if any, and clears the cookie.
func (a *API) DestroySession(w http.ResponseWriter, r *http.Request) {
	if rs, ok := a.loadSession(r); ok {
		a.sessions.Delete(rs.id)
		a.events.record(EventSessionDestroyed, r, rs.Session.UserID).Send()
	}
	a.clearSessionCookie(w, r)
	writeOK(w, "session destroyed")
}

// SetName replaces the session display name.
func (a *API) SetName(w http.ResponseWriter, r *http.Request) {
	rs := sessionFromContext(r.Context())

	var req SetNameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.mapError(w, r, err)
		return
	}
	name := util.NormalizeName(req.UserName)
	if err := requireParams(param{"userName", name}); err != nil {
		a.mapError(w, r, err)
		return
	}
	if a.profanity.IsProfane(name) {
		a.events.record(EventNameRejected, r, rs.Session.UserID).Send()
		writeFail(w, http.StatusNotAcceptable, "the provided name contains profanity")
		return
	}

	rs.Session.UserName = name
	if err := a.saveSession(rs); err != nil {
		a.mapError(w, r, err)
		return
	}
	a.events.record(EventNameSet, r, rs.Session.UserID).Str("user_name", name).Send()
	writeOK(w, "name is set")
}
