package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CSRF_SECRET", "s3cret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, SessionBackendRedis, cfg.SessionBackend)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, "@every 5m", cfg.SessionSweepSpec)
	assert.Equal(t, 2*time.Second, cfg.StoreTimeout)
	assert.True(t, cfg.BootstrapAccounts)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsInvalidSettings(t *testing.T) {
	t.Setenv("CSRF_SECRET", "")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("CSRF_SECRET", "s3cret")
	t.Setenv("SESSION_BACKEND", "disk")
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "disk")

	t.Setenv("SESSION_BACKEND", SessionBackendMemory)
	t.Setenv("SESSION_IDLE_TIMEOUT", "0s")
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLevel(&Config{LogLevel: "debug"}).String())
	assert.Equal(t, "INFO", parseLevel(&Config{LogLevel: "verbose"}).String())
	assert.Equal(t, "INFO", parseLevel(nil).String())
}

func TestTestModeFollowsEnvironment(t *testing.T) {
	t.Setenv(TestModeEnv, "1")
	assert.True(t, RefreshTestMode())
	assert.True(t, InTestMode())

	t.Setenv(TestModeEnv, "0")
	assert.False(t, RefreshTestMode())
	assert.False(t, InTestMode())
}
