package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

const (
	DefaultServerPort        = "8080"
	DefaultUserAgent         = "IPTVHub/1.0"
	DefaultContentTimeout    = 8 * time.Second
	DefaultProbeTimeout      = 5 * time.Second
	DefaultQuickParseTimeout = 15 * time.Second
	DefaultMaxBodyBytes      = 64 << 20
	DefaultCacheTTL          = 10 * time.Minute
)

// Config holds application configuration. DatabaseURL and RedisURL are
// optional; without them saved sources and caching are disabled.
type Config struct {
	ServerPort  string
	DatabaseURL string
	RedisURL    string
	UserAgent   string
	LogLevel    string
	LogFormat   string

	ContentTimeout    time.Duration
	ProbeTimeout      time.Duration
	QuickParseTimeout time.Duration
	MaxBodyBytes      int64

	StaticFallback    bool
	StrictSeriesMatch bool
	CacheTTL          time.Duration
	RefreshSchedule   string
	StreamProxyURL    string
}

// Default returns a Config with every default applied.
func Default() *Config {
	return &Config{
		ServerPort:        DefaultServerPort,
		UserAgent:         DefaultUserAgent,
		LogLevel:          "info",
		LogFormat:         "text",
		ContentTimeout:    DefaultContentTimeout,
		ProbeTimeout:      DefaultProbeTimeout,
		QuickParseTimeout: DefaultQuickParseTimeout,
		MaxBodyBytes:      DefaultMaxBodyBytes,
		StaticFallback:    true,
		CacheTTL:          DefaultCacheTTL,
	}
}

// Load builds config from environment variables, after loading .env.local
// and .env from the working directory when present.
func Load() (*Config, error) {
	loadEnvFiles()
	c := Default()
	if err := applyEnv(c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func applyEnv(c *Config) error {
	setString(&c.ServerPort, "SERVER_PORT")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.RedisURL, "REDIS_URL")
	setString(&c.UserAgent, "USER_AGENT")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")
	setString(&c.RefreshSchedule, "REFRESH_SCHEDULE")
	setString(&c.StreamProxyURL, "STREAM_PROXY_URL")

	for key, dst := range map[string]*time.Duration{
		"CONTENT_TIMEOUT":     &c.ContentTimeout,
		"PROBE_TIMEOUT":       &c.ProbeTimeout,
		"QUICK_PARSE_TIMEOUT": &c.QuickParseTimeout,
		"CACHE_TTL":           &c.CacheTTL,
	} {
		if err := setDuration(dst, key, os.Getenv(key)); err != nil {
			return err
		}
	}
	if s := os.Getenv("MAX_BODY_BYTES"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: MAX_BODY_BYTES: %v", ErrInvalidConfig, err)
		}
		c.MaxBodyBytes = n
	}
	for key, dst := range map[string]*bool{
		"STATIC_FALLBACK":     &c.StaticFallback,
		"STRICT_SERIES_MATCH": &c.StrictSeriesMatch,
	} {
		if s := os.Getenv(key); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
			}
			*dst = b
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
	*dst = d
	return nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.ServerPort); err != nil {
		return fmt.Errorf("%w: server_port %q is not a number", ErrInvalidConfig, c.ServerPort)
	}
	for name, d := range map[string]time.Duration{
		"content_timeout":     c.ContentTimeout,
		"probe_timeout":       c.ProbeTimeout,
		"quick_parse_timeout": c.QuickParseTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, name)
		}
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: max_body_bytes must be positive", ErrInvalidConfig)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("%w: cache_ttl must not be negative", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q (want text or json)", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
