package api

import (
	_ "embed"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/runtime/middleware"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/jmcleod/racetrack/internal/util"
	"github.com/jmcleod/racetrack/profanity"
	"github.com/jmcleod/racetrack/storage"
)

const (
	defaultCookieName  = "sessionid"
	defaultIdleTimeout = 24 * time.Hour
)

// API holds the dependencies needed by the REST handlers.
type API struct {
	leaderboard   storage.Leaderboard
	sessions      SessionStore
	cookies       *cookieSigner
	cookieName    string
	secureCookies bool
	clock         clockwork.Clock
	profanity     profanity.Checker
	logger        zerolog.Logger
	events        *eventLogger
	secret        []byte
	basePath      string
}

//go:embed openapi.yaml
var openapiSpec []byte

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the logger for request errors and race events.
// If not set, a JSON logger writing to stderr is used.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *API) { a.logger = logger }
}

// WithClock sets the clock used for race timing and session expiry.
func WithClock(c clockwork.Clock) Option {
	return func(a *API) { a.clock = c }
}

// WithProfanityChecker replaces the display-name profanity predicate.
func WithProfanityChecker(c profanity.Checker) Option {
	return func(a *API) { a.profanity = c }
}

// WithSessionStore sets the session backend. The default is an in-memory
// store with a 24h idle timeout.
func WithSessionStore(s SessionStore) Option {
	return func(a *API) { a.sessions = s }
}

// WithSessionSecret sets the secret the cookie signing key is derived from.
// When unset a random secret is generated, so cookies do not survive a
// restart.
func WithSessionSecret(secret string) Option {
	return func(a *API) { a.secret = []byte(secret) }
}

// WithCookieName sets the session cookie name. Defaults to "sessionid".
func WithCookieName(name string) Option {
	return func(a *API) { a.cookieName = name }
}

// WithSecureCookies forces the Secure attribute on the session cookie even
// for plain-HTTP requests (for deployments behind a TLS proxy).
func WithSecureCookies(secure bool) Option {
	return func(a *API) { a.secureCookies = secure }
}

// WithBasePath sets the path the router is mounted under, used for the
// documentation links. Defaults to "/api".
func WithBasePath(p string) Option {
	return func(a *API) { a.basePath = p }
}

// New creates a new API instance.
func New(leaderboard storage.Leaderboard, opts ...Option) (*API, error) {
	a := &API{
		leaderboard: leaderboard,
		cookieName:  defaultCookieName,
		clock:       clockwork.NewRealClock(),
		profanity:   profanity.New(),
		logger:      zerolog.New(os.Stderr).With().Timestamp().Logger(),
		basePath:    "/api",
	}
	for _, opt := range opts {
		opt(a)
	}
	if len(a.secret) == 0 {
		secret, err := util.RandomBytes(32)
		if err != nil {
			return nil, err
		}
		a.secret = secret
	}
	signer, err := newCookieSigner(a.secret)
	util.WipeBytes(a.secret)
	a.secret = nil
	if err != nil {
		return nil, fmt.Errorf("creating cookie signer: %w", err)
	}
	a.cookies = signer
	if a.sessions == nil {
		a.sessions = NewMemorySessionStore(defaultIdleTimeout, a.clock)
	}
	a.events = newEventLogger(a.logger)
	return a, nil
}

// Router returns a chi.Router with all API routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})

	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: a.basePath + "/openapi.yaml",
		Path:    a.basePath + "/docs",
	}, nil))

	r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: a.basePath + "/openapi.yaml",
		Path:    a.basePath + "/redoc",
	}, nil))

	r.Get("/session", a.GetSession)
	r.Post("/session", a.CreateSession)
	r.Delete("/session", a.DestroySession)
	r.Get("/race", a.ListRaces)

	r.Group(func(r chi.Router) {
		r.Use(a.RequireIdentity)
		r.Post("/name", a.SetName)
		r.Get("/counters", a.ListCounters)
		r.Get("/counters/{mode}", a.GetCounter)
		r.Post("/counters/{mode}", a.IncrementCounter)
		r.Post("/race", a.StartRace)
		r.Patch("/race", a.FinishRace)
		r.Delete("/race", a.AbandonRace)
		r.Post("/pause", a.PauseRace)
		r.Patch("/pause", a.ResumeRace)
	})

	return r
}
