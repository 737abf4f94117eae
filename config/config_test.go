package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.AppPort)
	require.Equal(t, "mysql", cfg.DBDriver)
	require.Equal(t, "evcardapp", cfg.EvcardAppKey)
	require.Equal(t, "evcard_tcs", cfg.EvcardTCSKey)
	require.Equal(t, "http://csms.evcard.com", cfg.EvcardBaseURL)
	require.Empty(t, cfg.EvcardAppSecret)
	require.Empty(t, cfg.EvcardTCSSecret)
	require.Equal(t, time.Minute, cfg.SchedulerInterval())
	require.Equal(t, 30*time.Second, cfg.SchedulerCallTimeout())
	require.Equal(t, 1, cfg.SchedulerWorkers)
	require.False(t, cfg.AuthEnabled())
}

func TestParseJSONAndEnv(t *testing.T) {
	path := writeConfig(t, `{
		"app": {"AppPort": "9000", "AllowedOrigins": ["https://a.example"]},
		"database": {"Driver": "sqlite", "SQLitePath": "x.db"},
		"evcard": {"AppSecret": "from-file", "TimeoutSec": 5},
		"scheduler": {"Workers": 2, "IntervalSec": 120}
	}`)
	t.Setenv("EVCARD_APP_SECRET", "from-env")
	t.Setenv("SCHEDULER_DISABLED", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://b.example, https://c.example")

	cfg, err := Parse(path)
	require.NoError(t, err)
	require.Equal(t, "9000", cfg.AppPort)
	require.Equal(t, "sqlite", cfg.DBDriver)
	require.Equal(t, "x.db", DSN(cfg))
	require.Equal(t, "from-env", cfg.EvcardAppSecret)
	require.Equal(t, 5*time.Second, cfg.EvcardTimeout())
	require.Equal(t, 2, cfg.SchedulerWorkers)
	require.Equal(t, 2*time.Minute, cfg.SchedulerInterval())
	require.True(t, cfg.SchedulerDisabled)
	require.Equal(t, []string{"https://b.example", "https://c.example"}, cfg.AllowedOrigins)
}

func TestParseInvalidJSON(t *testing.T) {
	_, err := Parse(writeConfig(t, `{not json`))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Parse("")
	require.NoError(t, err)

	bad := cfg
	bad.AdminUsername = "admin"
	bad.JWTSecret = ""
	require.Error(t, bad.Validate())

	bad = cfg
	bad.DBDriver = "postgres"
	require.Error(t, bad.Validate())

	bad = cfg
	bad.SchedulerWorkers = -1
	require.Error(t, bad.Validate())
}

func TestMySQLDSN(t *testing.T) {
	cfg := AppConfig{DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "3306", DBName: "evsign"}
	require.Equal(t, "u:p@tcp(db:3306)/evsign?charset=utf8mb4&parseTime=True&loc=UTC", DSN(cfg))

	cfg.DatabaseURI = "override"
	require.Equal(t, "override", DSN(cfg))
}

func TestOpenDatabaseRejectsUnknownDriver(t *testing.T) {
	_, err := OpenDatabase("oracle", "", "silent")
	require.Error(t, err)
}
