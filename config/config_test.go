package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "amortization.db", cfg.DBPath)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.CORSOrigins)
	assert.Equal(t, time.Hour, cfg.SnapshotInterval)
	assert.True(t, cfg.SnapshotEnabled)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("AMORT_PORT", "9090")
	t.Setenv("AMORT_DB_PATH", ":memory:")
	t.Setenv("AMORT_LOG_LEVEL", "DEBUG")
	t.Setenv("AMORT_CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("AMORT_SNAPSHOT_INTERVAL", "15m")
	t.Setenv("AMORT_SNAPSHOT_ENABLED", "false")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, ":memory:", cfg.DBPath)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 15*time.Minute, cfg.SnapshotInterval)
	assert.False(t, cfg.SnapshotEnabled)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "amort.yaml")
	require.NoError(t, os.WriteFile(path, []byte("PORT: 7000\nDB_PATH: from-file.db\n"), 0o600))
	t.Setenv("AMORT_DB_PATH", "from-env.db")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "from-env.db", cfg.DBPath)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"log level", "AMORT_LOG_LEVEL", "loud"},
		{"interval", "AMORT_SNAPSHOT_INTERVAL", "soon"},
		{"negative interval", "AMORT_SNAPSHOT_INTERVAL", "-1m"},
		{"port", "AMORT_PORT", "70000"},
		{"log format", "AMORT_LOG_FORMAT", "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load("")
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
