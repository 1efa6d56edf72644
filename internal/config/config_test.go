package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_FillsDefaults(t *testing.T) {
	var cfg Config
	cfg.Normalize()

	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "Asia/Taipei", cfg.Timezone)
	assert.Equal(t, DefaultWeekdayLabels, cfg.WeekdayLabels)
	assert.Equal(t, 1440, cfg.SessionTTLMinutes)
	assert.Equal(t, "*/10 * * * *", cfg.SweepCron)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestNormalize_RejectsWrongLabelCount(t *testing.T) {
	cfg := Config{WeekdayLabels: []string{"Mon", "Tue"}}
	cfg.Normalize()
	assert.Len(t, cfg.WeekdayLabels, 7)
}

func TestNormalize_SessionSecretFromEnv(t *testing.T) {
	t.Setenv("WEEKCAL_SESSION_SECRET", "from-env")
	cfg := Config{SessionSecret: "from-file"}
	cfg.Normalize()
	assert.Equal(t, "from-env", cfg.SessionSecret)
}

func TestLoad_FirstRunCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Taipei", cfg.Timezone)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Listen = "0.0.0.0:9999"
	cfg.RedisAddr = "localhost:6379"
	cfg.Capture.Enabled = true
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9999", loaded.Listen)
	assert.Equal(t, "localhost:6379", loaded.RedisAddr)
	assert.True(t, loaded.Capture.Enabled)
}

func TestLoad_EmptyPath(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}
