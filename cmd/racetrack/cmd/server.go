package cmd

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmcleod/racetrack/api"
	"github.com/jmcleod/racetrack/internal/config"
	"github.com/jmcleod/racetrack/profanity"
	"github.com/jmcleod/racetrack/web"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the racetrack HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cfg, os.Stderr)

		srv, err := newServer(cmd.Context(), cfg, clockwork.NewRealClock(), logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := srv.Close(); err != nil {
				logger.Error().Err(err).Msg("closing stores")
			}
		}()

		httpServer := &http.Server{
			Addr:              cfg.Addr(),
			Handler:           srv.handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
		useTLS := cfg.TLS.Cert != ""
		if useTLS {
			cert, err := tls.LoadX509KeyPair(cfg.TLS.Cert, cfg.TLS.Key)
			if err != nil {
				return fmt.Errorf("failed to load TLS key pair: %w", err)
			}
			httpServer.TLSConfig = &tls.Config{
				Certificates: []tls.Certificate{cert},
				MinVersion:   tls.VersionTLS12,
			}
		}

		// Graceful shutdown on SIGINT/SIGTERM.
		done := make(chan error, 1)
		go func() {
			var err error
			if useTLS {
				err = httpServer.ListenAndServeTLS("", "")
			} else {
				err = httpServer.ListenAndServe()
			}
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		printBanner(cmd.OutOrStdout())
		logger.Info().
			Str("addr", httpServer.Addr).
			Str("store", cfg.Store.Driver).
			Str("public_dir", cfg.PublicDir).
			Bool("tls", useTLS).
			Msg("starting server")

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info().Str("signal", sig.String()).Msg("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	addServerFlags(serverCmd.Flags())
}

func addServerFlags(f *pflag.FlagSet) {
	f.IntP("port", "p", config.DefaultPort, "Port to listen on")
	f.String("public-dir", config.DefaultPublicDir, "Directory holding the game client")
	f.String("tls-cert", "", "Path to TLS certificate file")
	f.String("tls-key", "", "Path to TLS key file")
}

// server is the assembled HTTP handler and the stores behind it.
type server struct {
	handler http.Handler
	closers []func() error
}

// Close releases the stores in reverse order of opening.
func (s *server) Close() error {
	var errs []error
	for _, c := range slices.Backward(s.closers) {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func newServer(ctx context.Context, cfg *config.Config, clock clockwork.Clock, logger zerolog.Logger) (_ *server, err error) {
	srv := &server{}
	defer func() {
		if err != nil {
			srv.Close()
		}
	}()

	lb, err := openLeaderboard(ctx, cfg, clock)
	if err != nil {
		return nil, err
	}
	srv.closers = append(srv.closers, lb.Close)
	if err := seedLeaderboard(ctx, lb, cfg, logger); err != nil {
		return nil, err
	}

	sessions, closeSessions, err := openSessions(cfg, clock)
	if err != nil {
		return nil, err
	}
	srv.closers = append(srv.closers, closeSessions)

	a, err := api.New(lb,
		api.WithLogger(logger),
		api.WithClock(clock),
		api.WithProfanityChecker(profanity.New()),
		api.WithSessionStore(sessions),
		api.WithSessionSecret(cfg.Session.Secret),
		api.WithCookieName(cfg.Session.Name),
		api.WithSecureCookies(cfg.IsProduction()),
		api.WithBasePath("/api"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create api: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(logger))
	r.Use(hlog.RemoteAddrHandler("ip"))
	r.Use(hlog.UserAgentHandler("user_agent"))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)
	r.Use(api.SecurityHeaders)
	if len(cfg.CORS.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			AllowedMethods: []string{
				http.MethodGet,
				http.MethodPost,
				http.MethodPatch,
				http.MethodDelete,
			},
			AllowedHeaders:   []string{"Content-Type"},
			AllowCredentials: true,
		}).Handler)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Get("/stats", a.Stats)
	r.Mount("/api", a.Router())

	webHandler, err := web.Handler(cfg.PublicDir)
	if err != nil {
		logger.Warn().Err(err).Msg("not serving the game client")
	} else {
		r.Handle("/*", webHandler)
	}

	srv.handler = r
	return srv, nil
}
