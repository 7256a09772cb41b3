package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port           int
	LogLevel       string
	LogFormat      string
	Environment    string
	APIKey         string
	TrustedProxies []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// DevMode swaps the Redis backend for the in-memory store
	DevMode bool

	DiscordToken     string
	DiscordChannelID string

	SymbolConfigPath string
	Timezone         string

	TokenCap         int64
	TokenRefill      time.Duration
	PremiumPerDay    int64
	PremiumMinPoints int64
	PremiumCostFrac  float64
	PremiumBonusMult float64

	DuelFeeFrac   float64
	DuelHouseFrac float64
	DuelExpiry    time.Duration
	JackpotGrowth float64
	// JackpotDuelSpins lets duel-resolution spins hit the jackpot pool
	JackpotDuelSpins bool

	// BigWinThreshold overrides the symbol config's big_win_threshold when
	// positive; zero defers to the JSON value, including across reloads
	BigWinThreshold int64
	FeedLen         int64
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:         getEnv("LOG_LEVEL", "INFO"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
		Environment:      getEnv("ENVIRONMENT", "development"),
		APIKey:           getEnv("API_KEY", ""),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		DiscordToken:     getEnv("DISCORD_TOKEN", ""),
		DiscordChannelID: getEnv("DISCORD_CHANNEL_ID", ""),
		SymbolConfigPath: getEnv("SLOTS_CONFIG_PATH", ConfigPathSymbols),
		Timezone:         getEnv("TIMEZONE", "America/New_York"),
	}

	if proxies := getEnv("TRUSTED_PROXIES", ""); proxies != "" {
		for _, p := range strings.Split(proxies, ",") {
			cfg.TrustedProxies = append(cfg.TrustedProxies, strings.TrimSpace(p))
		}
	}

	var err error
	if cfg.Port, err = getEnvInt("PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	if cfg.TokenCap, err = getEnvInt64("SPIN_TOKEN_CAP", 5); err != nil {
		return nil, err
	}
	if cfg.TokenRefill, err = getEnvSeconds("SPIN_REFILL_SECONDS", 300); err != nil {
		return nil, err
	}
	if cfg.PremiumPerDay, err = getEnvInt64("PREMIUM_SPINS_PER_DAY", 3); err != nil {
		return nil, err
	}
	if cfg.PremiumMinPoints, err = getEnvInt64("PREMIUM_MIN_POINTS", 1000); err != nil {
		return nil, err
	}
	if cfg.PremiumCostFrac, err = getEnvFloat("PREMIUM_COST_FRAC", 0.10); err != nil {
		return nil, err
	}
	if cfg.PremiumBonusMult, err = getEnvFloat("PREMIUM_BONUS_MULT", 3.69); err != nil {
		return nil, err
	}
	if cfg.DuelFeeFrac, err = getEnvFloat("DUEL_FEE_FRAC", 0.05); err != nil {
		return nil, err
	}
	if cfg.DuelHouseFrac, err = getEnvFloat("DUEL_HOUSE_FRAC", 0.10); err != nil {
		return nil, err
	}
	if cfg.DuelExpiry, err = getEnvSeconds("DUEL_EXPIRY_SECONDS", 300); err != nil {
		return nil, err
	}
	if cfg.JackpotGrowth, err = getEnvFloat("JACKPOT_GROWTH_FRAC", 0.01); err != nil {
		return nil, err
	}
	if cfg.BigWinThreshold, err = getEnvInt64("BIG_WIN_THRESHOLD", 0); err != nil {
		return nil, err
	}
	if cfg.FeedLen, err = getEnvInt64("FEED_LEN", 20); err != nil {
		return nil, err
	}
	cfg.DevMode = getEnvBool("DEV_MODE", false)
	cfg.JackpotDuelSpins = getEnvBool("JACKPOT_DUEL_SPINS", false)

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API_KEY environment variable must be set for security")
	}

	return cfg, nil
}

// Location resolves the configured timezone used for daily premium quotas
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE value %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return v, nil
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return v, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return v, nil
}

func getEnvSeconds(key string, defaultSeconds int64) (time.Duration, error) {
	v, err := getEnvInt64(key, defaultSeconds)
	if err != nil {
		return 0, err
	}
	return time.Duration(v) * time.Second, nil
}

func getEnvBool(key string, defaultValue bool) bool {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue
	}
	return v
}
