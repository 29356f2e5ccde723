package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"esquematiza/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, SessionMemory, cfg.Session.Backend)
	assert.Equal(t, HistorySQLite, cfg.History.Backend)
	assert.Equal(t, "esquematiza.db", cfg.History.Location)
	assert.Equal(t, domain.DefaultAreas, cfg.Areas)
	assert.Equal(t, 100, cfg.Essay.MinLength)
	assert.Equal(t, "pt-BR", cfg.Lang)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9000"
  debug: true
bank:
  location: data/bank.db
session:
  backend: shared
  ttl: 2h
redis:
  addr: localhost:6379
subjects:
  cache_ttl: 5m
areas:
  - match: física
    area: Exatas
essay:
  api_key: secret
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, HistorySQLite, cfg.History.Backend)
	assert.Equal(t, "data/bank.db", cfg.History.Location)
	assert.Equal(t, 2*time.Hour, TTLDuration(cfg.Session.TTL, 0))
	assert.Equal(t, 5*time.Minute, TTLDuration(cfg.Subjects.CacheTTL, 10*time.Minute))
	require.Len(t, cfg.Areas, 1)
	assert.Equal(t, "Exatas", cfg.Areas.Classify("Física Quântica"))
	assert.Equal(t, "secret", cfg.Essay.APIKey)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("BANK_LOCATION", "postgres://u:p@localhost/db")
	t.Setenv("DEBUG", "true")
	t.Setenv("ESSAY_API_KEY", "from-env")

	cfg, err := Load(writeConfig(t, "server:\n  port: \"9000\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Server.Port)
	assert.True(t, cfg.Server.Debug)
	assert.Equal(t, HistoryPostgres, cfg.History.Backend)
	assert.Equal(t, "from-env", cfg.Essay.APIKey)
}

func TestMemoryHistoryIsOptIn(t *testing.T) {
	t.Setenv("HISTORY_BACKEND", "memory")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, HistoryMemory, cfg.History.Backend)
}

func TestValidate(t *testing.T) {
	t.Setenv("SESSION_BACKEND", "shared")
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "session:\n  backend: floppy\n"))
	assert.Error(t, err)
}

func TestTTLDuration(t *testing.T) {
	assert.Equal(t, time.Minute, TTLDuration("", time.Minute))
	assert.Equal(t, time.Minute, TTLDuration("garbage", time.Minute))
	assert.Equal(t, 3*time.Second, TTLDuration("3s", time.Minute))
}
