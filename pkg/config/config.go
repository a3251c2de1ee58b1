package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/user/price-service/internal/entity"
)

// DefaultUserAgents are desktop Chrome identities rotated by the fetcher.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// Config stores all configuration for the application.
type Config struct {
	ServerPort            string        `mapstructure:"SERVER_PORT"`
	LogLevel              string        `mapstructure:"LOG_LEVEL"`
	FetchTimeoutSeconds   int           `mapstructure:"FETCH_TIMEOUT_SECONDS"`
	UserAgents            string        `mapstructure:"USER_AGENTS"`
	RateLimitPerMinute    int           `mapstructure:"RATE_LIMIT_PER_MINUTE"`
	RedisAddr             string        `mapstructure:"REDIS_ADDR"`
	RedisPassword         string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB               int           `mapstructure:"REDIS_DB"`
	PostgresURL           string        `mapstructure:"POSTGRES_URL"`
	FailureInitialBackoff time.Duration `mapstructure:"FAILURE_INITIAL_BACKOFF"`
	FailureMaxBackoff     time.Duration `mapstructure:"FAILURE_MAX_BACKOFF"`
	BoundsOverrides       string        `mapstructure:"BOUNDS_OVERRIDES"`
}

// Load reads configuration from .env in the working directory and the environment.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile reads configuration from the given env file, if present, and the
// environment. Environment variables win over the file.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	// A missing file is fine; production is configured through the environment.
	_ = v.ReadInConfig()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("FETCH_TIMEOUT_SECONDS", 10)
	v.SetDefault("USER_AGENTS", "")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 30)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("FAILURE_INITIAL_BACKOFF", 15*time.Minute)
	v.SetDefault("FAILURE_MAX_BACKOFF", 24*time.Hour)
	v.SetDefault("BOUNDS_OVERRIDES", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return errors.New("SERVER_PORT must not be empty")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", c.LogLevel)
	}
	if c.FetchTimeoutSeconds <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT_SECONDS must be positive, got %d", c.FetchTimeoutSeconds)
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative, got %d", c.RateLimitPerMinute)
	}
	if c.FailureInitialBackoff <= 0 {
		return errors.New("FAILURE_INITIAL_BACKOFF must be positive")
	}
	if c.FailureMaxBackoff < c.FailureInitialBackoff {
		return errors.New("FAILURE_MAX_BACKOFF must not be shorter than FAILURE_INITIAL_BACKOFF")
	}
	if _, err := ParseBoundsOverrides(c.BoundsOverrides); err != nil {
		return err
	}
	return nil
}

// FetchTimeout is the hard per-request fetch deadline.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// UserAgentList splits USER_AGENTS on "|" since user agent strings contain
// commas. An empty setting yields DefaultUserAgents.
func (c *Config) UserAgentList() []string {
	var agents []string
	for _, ua := range strings.Split(c.UserAgents, "|") {
		if ua = strings.TrimSpace(ua); ua != "" {
			agents = append(agents, ua)
		}
	}
	if len(agents) == 0 {
		return DefaultUserAgents
	}
	return agents
}

// Bounds returns the parsed BOUNDS_OVERRIDES. Validate has already checked them.
func (c *Config) Bounds() map[string]entity.Bounds {
	overrides, _ := ParseBoundsOverrides(c.BoundsOverrides)
	return overrides
}

// ParseBoundsOverrides parses a comma separated list of
// "site/strategy=low:high" entries. An empty high means unbounded.
func ParseBoundsOverrides(raw string) (map[string]entity.Bounds, error) {
	overrides := make(map[string]entity.Bounds)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, rng, ok := strings.Cut(entry, "=")
		if !ok || !strings.Contains(key, "/") {
			return nil, fmt.Errorf("bounds override %q: want site/strategy=low:high", entry)
		}
		lowStr, highStr, ok := strings.Cut(rng, ":")
		if !ok {
			return nil, fmt.Errorf("bounds override %q: want low:high", entry)
		}
		low, err := strconv.ParseFloat(strings.TrimSpace(lowStr), 64)
		if err != nil {
			return nil, fmt.Errorf("bounds override %q: low: %w", entry, err)
		}
		high := math.Inf(1)
		if highStr = strings.TrimSpace(highStr); highStr != "" {
			if high, err = strconv.ParseFloat(highStr, 64); err != nil {
				return nil, fmt.Errorf("bounds override %q: high: %w", entry, err)
			}
		}
		if high <= low {
			return nil, fmt.Errorf("bounds override %q: high must exceed low", entry)
		}
		overrides[strings.TrimSpace(key)] = entity.Bounds{Low: low, High: high}
	}
	return overrides, nil
}
