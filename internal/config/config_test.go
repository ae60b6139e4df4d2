package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "PUBLIC_DIRECTORY", "SESSION_NAME", "SESSION_SECRET", "NODE_ENV",
	"RACETRACK_ENV", "RACETRACK_DATA_DIR", "RACETRACK_STORE", "DATABASE_URL",
	"RACETRACK_SESSION_IDLE", "RACETRACK_CORS_ORIGINS",
}

// clearEnv unsets every variable Load reads and restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "sessionid", cfg.Session.Name)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.False(t, cfg.IsProduction())
	require.NoError(t, cfg.Validate())

	seed := cfg.SeedData()
	assert.Equal(t, []string{"normal-main", "encore-main", "normal-survival", "encore-survival"}, seed.Counters)
	require.Len(t, seed.Races, 20)
	for _, r := range seed.Races {
		assert.Equal(t, "MACHINE", r.Name)
		assert.Equal(t, int64(5999999), r.Time)
	}
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "racetrack.yaml", `
port: 8080
public_dir: /srv/game
store:
  driver: postgres
  dsn: postgres://localhost/racetrack
session:
  idle_timeout: 2h
cors:
  allowed_origins: ["https://game.example"]
seed:
  counters: [solo]
  races:
    - {name: BOT, mode: solo, time: 42, repeat: 3}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/srv/game", cfg.PublicDir)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, 2*time.Hour, cfg.Session.IdleTimeout)
	assert.Equal(t, "sessionid", cfg.Session.Name, "unset keys keep defaults")
	assert.Equal(t, []string{"https://game.example"}, cfg.CORS.AllowedOrigins)

	seed := cfg.SeedData()
	assert.Equal(t, []string{"solo"}, seed.Counters)
	assert.Len(t, seed.Races, 3)
	require.NoError(t, cfg.Validate())
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "port: [nope"))
	assert.Error(t, err)

	t.Setenv("PORT", "eighty")
	_, err = Load("")
	assert.ErrorContains(t, err, "invalid PORT")
}

func TestEnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "racetrack.yaml", "port: 8080\nenv: staging\n")
	t.Setenv("PORT", "9090")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("RACETRACK_SESSION_IDLE", "15m")
	t.Setenv("RACETRACK_CORS_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 15*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	require.NoError(t, cfg.Validate())
}

func TestDotEnv(t *testing.T) {
	clearEnv(t)
	envFile := writeFile(t, ".env", "PUBLIC_DIRECTORY=/from/dotenv\nSESSION_NAME=from-dotenv\n")
	t.Setenv("SESSION_NAME", "from-env")

	cfg, err := Load("", envFile, filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, "/from/dotenv", cfg.PublicDir)
	assert.Equal(t, "from-env", cfg.Session.Name, "process environment wins over .env")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"port", func(c *Config) { c.Port = 0 }, "out of range"},
		{"driver", func(c *Config) { c.Store.Driver = "mysql" }, "unknown store driver"},
		{"postgres dsn", func(c *Config) { c.Store.Driver = DriverPostgres }, "requires a DSN"},
		{"session name", func(c *Config) { c.Session.Name = "" }, "session name"},
		{"empty secret", func(c *Config) { c.Session.Secret = "" }, "session secret"},
		{"default secret in production", func(c *Config) { c.Env = EnvProduction }, "default session secret"},
		{"idle", func(c *Config) { c.Session.IdleTimeout = 0 }, "idle timeout"},
		{"half tls", func(c *Config) { c.TLS.Cert = "cert.pem" }, "tls cert and key"},
		{"seed repeat", func(c *Config) { c.Seed.Races[0].Repeat = -1 }, "negative repeat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}
}

func TestPaths(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/var/lib/racetrack"
	assert.Equal(t, "/var/lib/racetrack/racetrack.db", cfg.SQLitePath())
	assert.Equal(t, "/var/lib/racetrack/sessions.db", cfg.SessionsPath())
	assert.Equal(t, ":3000", cfg.Addr())

	cfg.Store.DSN = ":memory:"
	assert.Equal(t, ":memory:", cfg.SQLitePath())
}
