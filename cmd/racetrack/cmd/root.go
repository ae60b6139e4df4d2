package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmcleod/racetrack/internal/config"
)

// Version is set at build time with -ldflags "-X ...cmd.Version=...".
var Version = "dev"

var (
	configPath string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:   "racetrack",
	Short: "Racetrack is the leaderboard server for Escape the Machine",
	Long: `Racetrack serves the Escape the Machine game client, times races per
session, and keeps the completion counters and the public leaderboard.`,
	SilenceUsage: true,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file, ignored when absent")
	addStoreFlags(rootCmd.PersistentFlags())
}

func addStoreFlags(f *pflag.FlagSet) {
	f.String("data-dir", config.DefaultDataDir, "Directory for persistent data")
	f.String("store", config.DriverSQLite, "Leaderboard store: sqlite, postgres or memory")
	f.String("dsn", "", "PostgreSQL connection string or SQLite database path")
}

// loadConfig layers the flags explicitly set on cmd over the file and
// environment configuration, then validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		if cfg.Port, err = flags.GetInt("port"); err != nil {
			return nil, err
		}
	}
	for name, dst := range map[string]*string{
		"data-dir":   &cfg.DataDir,
		"store":      &cfg.Store.Driver,
		"dsn":        &cfg.Store.DSN,
		"public-dir": &cfg.PublicDir,
		"tls-cert":   &cfg.TLS.Cert,
		"tls-key":    &cfg.TLS.Key,
	} {
		if !flags.Changed(name) {
			continue
		}
		if *dst, err = flags.GetString(name); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger writes JSON in production and human-readable lines otherwise.
func newLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	if cfg.IsProduction() {
		return zerolog.New(out).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
}
