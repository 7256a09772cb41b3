package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, int64(5), cfg.TokenCap)
	assert.Equal(t, 5*time.Minute, cfg.TokenRefill)
	assert.Equal(t, int64(3), cfg.PremiumPerDay)
	assert.Equal(t, int64(1000), cfg.PremiumMinPoints)
	assert.InDelta(t, 0.10, cfg.PremiumCostFrac, 1e-9)
	assert.InDelta(t, 3.69, cfg.PremiumBonusMult, 1e-9)
	assert.InDelta(t, 0.05, cfg.DuelFeeFrac, 1e-9)
	assert.InDelta(t, 0.10, cfg.DuelHouseFrac, 1e-9)
	assert.Equal(t, 5*time.Minute, cfg.DuelExpiry)
	assert.InDelta(t, 0.01, cfg.JackpotGrowth, 1e-9)
	assert.Equal(t, int64(20), cfg.FeedLen)
	assert.Zero(t, cfg.BigWinThreshold, "unset means the symbol config decides")
	assert.Equal(t, "America/New_York", cfg.Timezone)
	assert.False(t, cfg.DevMode)
	assert.False(t, cfg.JackpotDuelSpins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_KEY", "test-key")
	t.Setenv("PORT", "9090")
	t.Setenv("SPIN_TOKEN_CAP", "10")
	t.Setenv("SPIN_REFILL_SECONDS", "60")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("BIG_WIN_THRESHOLD", "2500")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 10.0.0.2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, int64(10), cfg.TokenCap)
	assert.Equal(t, time.Minute, cfg.TokenRefill)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, int64(2500), cfg.BigWinThreshold)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.TrustedProxies)
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API_KEY")
}

func TestLoadRejectsMalformedNumbers(t *testing.T) {
	t.Setenv("API_KEY", "test-key")
	t.Setenv("SPIN_TOKEN_CAP", "lots")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SPIN_TOKEN_CAP")
}

func TestLocation(t *testing.T) {
	cfg := &Config{Timezone: "America/New_York"}
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())

	cfg.Timezone = "Not/AZone"
	_, err = cfg.Location()
	assert.Error(t, err)
}
