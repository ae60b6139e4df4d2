// Package config loads the server configuration. Values are layered:
// built-in defaults, then an optional YAML file, then a .env file and the
// process environment. Command-line flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jmcleod/racetrack/storage"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

const (
	EnvProduction = "production"

	DefaultPort          = 3000
	DefaultPublicDir     = "public"
	DefaultDataDir       = "./data"
	DefaultSessionName   = "sessionid"
	DefaultSessionSecret = "totally-a-secret"
	DefaultSessionIdle   = 24 * time.Hour
)

type Config struct {
	Env       string        `yaml:"env"`
	Port      int           `yaml:"port"`
	PublicDir string        `yaml:"public_dir"`
	DataDir   string        `yaml:"data_dir"`
	Store     StoreConfig   `yaml:"store"`
	Session   SessionConfig `yaml:"session"`
	CORS      CORSConfig    `yaml:"cors"`
	TLS       TLSConfig     `yaml:"tls"`
	Seed      SeedConfig    `yaml:"seed"`
}

type StoreConfig struct {
	// Driver is one of sqlite, postgres or memory.
	Driver string `yaml:"driver"`
	// DSN is the PostgreSQL connection string, or the SQLite database path.
	// An empty SQLite DSN places the database in the data directory.
	DSN string `yaml:"dsn"`
}

type SessionConfig struct {
	Name        string        `yaml:"name"`
	Secret      string        `yaml:"secret"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
	// Persist keeps sessions in a bbolt file in the data directory so they
	// survive restarts.
	Persist bool `yaml:"persist"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type TLSConfig struct {
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`
}

// SeedConfig is written to an empty store on first boot.
type SeedConfig struct {
	Counters []string   `yaml:"counters"`
	Races    []SeedRace `yaml:"races"`
}

// SeedRace inserts Repeat copies of one race record.
type SeedRace struct {
	Name   string `yaml:"name"`
	Mode   string `yaml:"mode"`
	Time   int64  `yaml:"time"`
	Repeat int    `yaml:"repeat"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Env:       "development",
		Port:      DefaultPort,
		PublicDir: DefaultPublicDir,
		DataDir:   DefaultDataDir,
		Store:     StoreConfig{Driver: DriverSQLite},
		Session: SessionConfig{
			Name:        DefaultSessionName,
			Secret:      DefaultSessionSecret,
			IdleTimeout: DefaultSessionIdle,
			Persist:     true,
		},
		Seed: SeedConfig{
			Counters: []string{"normal-main", "encore-main", "normal-survival", "encore-survival"},
			Races: []SeedRace{
				{Name: "MACHINE", Mode: "normal", Time: 5999999, Repeat: 10},
				{Name: "MACHINE", Mode: "encore", Time: 5999999, Repeat: 10},
			},
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is non-empty) and the environment. Each env file that exists is
// loaded into the environment first; variables already set win.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}
	setString(&c.PublicDir, "PUBLIC_DIRECTORY")
	setString(&c.Session.Name, "SESSION_NAME")
	setString(&c.Session.Secret, "SESSION_SECRET")
	setString(&c.Env, "NODE_ENV")
	setString(&c.Env, "RACETRACK_ENV")
	setString(&c.DataDir, "RACETRACK_DATA_DIR")
	setString(&c.Store.Driver, "RACETRACK_STORE")
	setString(&c.Store.DSN, "DATABASE_URL")
	if v := os.Getenv("RACETRACK_SESSION_IDLE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid RACETRACK_SESSION_IDLE %q: %w", v, err)
		}
		c.Session.IdleTimeout = d
	}
	if v := os.Getenv("RACETRACK_CORS_ORIGINS"); v != "" {
		c.CORS.AllowedOrigins = splitList(v)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	switch c.Store.Driver {
	case DriverSQLite, DriverMemory:
	case DriverPostgres:
		if c.Store.DSN == "" {
			return errors.New("postgres store requires a DSN")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Session.Name == "" {
		return errors.New("session name must not be empty")
	}
	if c.Session.Secret == "" {
		return errors.New("session secret must not be empty")
	}
	if c.IsProduction() && c.Session.Secret == DefaultSessionSecret {
		return errors.New("the default session secret cannot be used in production")
	}
	if c.Session.IdleTimeout <= 0 {
		return fmt.Errorf("session idle timeout must be positive, got %s", c.Session.IdleTimeout)
	}
	if (c.TLS.Cert == "") != (c.TLS.Key == "") {
		return errors.New("tls cert and key must be set together")
	}
	for _, r := range c.Seed.Races {
		if r.Repeat < 0 {
			return fmt.Errorf("seed race %q has negative repeat", r.Name)
		}
	}
	return nil
}

// IsProduction reports whether cookies must be marked Secure.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// SQLitePath is the SQLite database location.
func (c *Config) SQLitePath() string {
	if c.Store.DSN != "" {
		return c.Store.DSN
	}
	return filepath.Join(c.DataDir, "racetrack.db")
}

// SessionsPath is the bbolt file holding persisted sessions.
func (c *Config) SessionsPath() string {
	return filepath.Join(c.DataDir, "sessions.db")
}

// SeedData expands the seed configuration into store records.
func (c *Config) SeedData() storage.Seed {
	seed := storage.Seed{Counters: append([]string(nil), c.Seed.Counters...)}
	for _, r := range c.Seed.Races {
		for range r.Repeat {
			seed.Races = append(seed.Races, storage.Race{Name: r.Name, Mode: r.Mode, Time: r.Time})
		}
	}
	return seed
}
