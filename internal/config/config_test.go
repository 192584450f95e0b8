package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromPath_Missing(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromPath_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grammarkeeper.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
grammar:
  store_driver: sqlite
  sqlite_path: /tmp/versions.db
  backup_interval_days: 1
agent:
  max_correction_attempts: 5
logging:
  level: debug
  format: json
`), 0o644))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Grammar.StoreDriver)
	assert.Equal(t, "/tmp/versions.db", cfg.Grammar.SQLitePath)
	assert.Equal(t, 1, cfg.Grammar.BackupIntervalDays)
	assert.Equal(t, 5, cfg.Agent.MaxCorrectionAttempts)
	assert.Equal(t, "json", cfg.Logging.Format)

	// untouched keys keep their defaults
	assert.True(t, cfg.Agent.Enabled)
	assert.Equal(t, "Перем x;", cfg.Grammar.SmokeTest)
}

func TestLoadFromPath_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grammarkeeper.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"agent": {"enabled": false}}`), 0o644))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.False(t, cfg.Agent.Enabled)
}

func TestLoadFromPath_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grammarkeeper.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grammar:\n  store_driver: mongo\n"), 0o644))

	_, err := LoadFromPath(path)
	assert.ErrorContains(t, err, `unknown grammar.store_driver "mongo"`)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"GRAMMARKEEPER_GRAMMAR_AUTO_BACKUP":           "false",
		"GRAMMARKEEPER_AGENT_MAX_CORRECTION_ATTEMPTS": "1",
		"GRAMMARKEEPER_EVENTS_NATS_URL":               "nats://127.0.0.1:4222",
		"GRAMMARKEEPER_GRAMMAR_BASE_GRAMMAR_FILE":     "base.peg",
		"UNRELATED_GRAMMAR_AUTO_BACKUP":               "true",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, applyEnv(cfg, lookup))
	assert.False(t, cfg.Grammar.AutoBackup)
	assert.Equal(t, 1, cfg.Agent.MaxCorrectionAttempts)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.Events.NATSURL)
	assert.Equal(t, "base.peg", cfg.Grammar.BaseGrammarFile)

	env["GRAMMARKEEPER_AGENT_ENABLED"] = "sometimes"
	err := applyEnv(Default(), lookup)
	assert.ErrorContains(t, err, "GRAMMARKEEPER_AGENT_ENABLED")
}

func TestLoadFromPath_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grammarkeeper.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: error\n"), 0o644))
	t.Setenv("GRAMMARKEEPER_LOGGING_LEVEL", "warning")

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "warning", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Grammar.BackupIntervalDays = 0
	cfg.Logging.Format = "xml"
	cfg.Agent.MaxCorrectionAttempts = -1

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"backup_interval_days", "logging.format", "max_correction_attempts"} {
		assert.True(t, strings.Contains(err.Error(), want), want)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"DEBUG":    slog.LevelDebug,
		"":         slog.LevelInfo,
		"warning":  slog.LevelWarn,
		"critical": slog.LevelError,
	}
	for name, want := range cases {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}
