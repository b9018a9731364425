package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/joseon-weather-bot/internal/domain"
)

// Config holds all bot settings, populated from environment variables and an
// optional .env file.
type Config struct {
	LocationName string
	Language     string
	Timezone     string

	// Climate adjustment applied when estimating the 1525 daily mean from
	// the 1991-2020 normal.
	WarmingSince1850C float64
	LIAExtraCoolingC  float64

	// Archive matching defaults; flags may override per run.
	ArchivePath      string
	ArchivePolicy    domain.Policy
	ArchiveLocation  string
	ArchiveTolerance int

	// Twitter / X credentials (OAuth 1.0a user context).
	PostToTwitter            bool
	TwitterAPIKey            string
	TwitterAPISecret         string
	TwitterAccessToken       string
	TwitterAccessTokenSecret string

	// Service mode.
	HTTPAddr        string
	PostTime        string // daily "HH:MM" in the configured timezone
	ShutdownTimeout time.Duration

	CacheDir         string
	APITimeout       time.Duration
	GeocodeCacheSize int

	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment, applying defaults where
// unset. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	policyName := envOrDefault("ARCHIVE_MODE", "exact")
	policy, ok := domain.ParsePolicy(policyName)
	if !ok {
		return nil, fmt.Errorf("invalid ARCHIVE_MODE %q (want exact|monthday|yearshift|doy)", policyName)
	}

	tolerance, err := envInt("ARCHIVE_TOL", 0)
	if err != nil {
		return nil, err
	}
	cacheSize, err := envInt("GEOCODE_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := envDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	apiTimeout, err := envDuration("API_TIMEOUT", 40*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		LocationName:      envOrDefault("LOCATION_NAME", "Seoul"),
		Language:          envOrDefault("LANGUAGE", "ko"),
		Timezone:          envOrDefault("TIMEZONE", "Asia/Seoul"),
		WarmingSince1850C: envFloat("WARMING_SINCE_1850_C", 1.2),
		LIAExtraCoolingC:  envFloat("LIA_EXTRA_COOLING_C", 0.4),

		ArchivePath:      os.Getenv("ARCHIVE_PATH"),
		ArchivePolicy:    policy,
		ArchiveLocation:  os.Getenv("ARCHIVE_LOC"),
		ArchiveTolerance: tolerance,

		PostToTwitter:            envBool("POST_TO_TWITTER", false),
		TwitterAPIKey:            os.Getenv("TWITTER_API_KEY"),
		TwitterAPISecret:         os.Getenv("TWITTER_API_SECRET"),
		TwitterAccessToken:       os.Getenv("TWITTER_ACCESS_TOKEN"),
		TwitterAccessTokenSecret: os.Getenv("TWITTER_ACCESS_TOKEN_SECRET"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		PostTime:        envOrDefault("POST_TIME", "07:00"),
		ShutdownTimeout: shutdownTimeout,

		CacheDir:         envOrDefault("CACHE_DIR", "cache"),
		APITimeout:       apiTimeout,
		GeocodeCacheSize: cacheSize,

		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	if _, err := time.Parse("15:04", cfg.PostTime); err != nil {
		return nil, fmt.Errorf("invalid POST_TIME %q: want HH:MM", cfg.PostTime)
	}
	if cfg.PostToTwitter && !cfg.HasTwitterCredentials() {
		return nil, errors.New("POST_TO_TWITTER is true but Twitter credentials are incomplete")
	}

	return cfg, nil
}

// HasTwitterCredentials reports whether all four OAuth 1.0a values are set.
func (c *Config) HasTwitterCredentials() bool {
	return c.TwitterAPIKey != "" && c.TwitterAPISecret != "" &&
		c.TwitterAccessToken != "" && c.TwitterAccessTokenSecret != ""
}

// Location resolves the configured timezone. Load has already validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return d, nil
}
