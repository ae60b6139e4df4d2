package api

import (
	"context"
	"net/http"
	"strings"
	"time"
)

type contextKey int

const sessionKey contextKey = iota

// requestSession is the session attached to a request, with its store id.
type requestSession struct {
	id      string
	Session Session
}

// RequireIdentity rejects requests without a live session identity with
// 401 and otherwise stores the session on the request context.
func (a *API) RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs, ok := a.loadSession(r)
		if !ok || rs.Session.UserID == "" {
			writeFail(w, http.StatusUnauthorized, msgUnauthorized)
			return
		}
		if err := a.saveSession(rs); err != nil {
			a.mapError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey, rs)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loadSession resolves the signed session cookie to a stored session.
func (a *API) loadSession(r *http.Request) (*requestSession, bool) {
	cookie, err := r.Cookie(a.cookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	id, ok := a.cookies.verify(cookie.Value)
	if !ok {
		return nil, false
	}
	session, ok := a.sessions.Get(id)
	if !ok {
		return nil, false
	}
	return &requestSession{id: id, Session: session}, true
}

// saveSession stamps the access time and writes the session back.
func (a *API) saveSession(rs *requestSession) error {
	rs.Session.LastAccessedAt = a.clock.Now()
	return a.sessions.Put(rs.id, rs.Session)
}

func sessionFromContext(ctx context.Context) *requestSession {
	rs, _ := ctx.Value(sessionKey).(*requestSession)
	return rs
}

func (a *API) writeSessionCookie(w http.ResponseWriter, r *http.Request, id string) error {
	value, err := a.cookies.sign(id)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.secureCookies || requestIsSecure(r),
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

func (a *API) clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   a.secureCookies || requestIsSecure(r),
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

func requestIsSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		return true
	}
	return strings.Contains(strings.ToLower(r.Header.Get("Forwarded")), "proto=https")
}
