package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	ServerPort        string `yaml:"server_port" toml:"server_port"`
	DatabaseURL       string `yaml:"database_url" toml:"database_url"`
	RedisURL          string `yaml:"redis_url" toml:"redis_url"`
	UserAgent         string `yaml:"user_agent" toml:"user_agent"`
	LogLevel          string `yaml:"log_level" toml:"log_level"`
	LogFormat         string `yaml:"log_format" toml:"log_format"`
	ContentTimeout    string `yaml:"content_timeout" toml:"content_timeout"`
	ProbeTimeout      string `yaml:"probe_timeout" toml:"probe_timeout"`
	QuickParseTimeout string `yaml:"quick_parse_timeout" toml:"quick_parse_timeout"`
	MaxBodyBytes      int64  `yaml:"max_body_bytes" toml:"max_body_bytes"`
	StaticFallback    *bool  `yaml:"static_fallback" toml:"static_fallback"`
	StrictSeriesMatch bool   `yaml:"strict_series_match" toml:"strict_series_match"`
	CacheTTL          string `yaml:"cache_ttl" toml:"cache_ttl"`
	RefreshSchedule   string `yaml:"refresh_schedule" toml:"refresh_schedule"`
	StreamProxyURL    string `yaml:"stream_proxy_url" toml:"stream_proxy_url"`
}

// LoadFromFile loads config from a YAML (.yaml, .yml) or TOML (.toml) file.
// Keys left out keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	case ".toml":
		err = toml.Unmarshal(data, &f)
	default:
		return nil, fmt.Errorf("%w: unsupported config file %q", ErrInvalidConfig, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}

	c := Default()
	if err := f.apply(c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (f *fileConfig) apply(c *Config) error {
	for _, kv := range []struct {
		dst *string
		v   string
	}{
		{&c.ServerPort, f.ServerPort},
		{&c.DatabaseURL, f.DatabaseURL},
		{&c.RedisURL, f.RedisURL},
		{&c.UserAgent, f.UserAgent},
		{&c.LogLevel, f.LogLevel},
		{&c.LogFormat, f.LogFormat},
		{&c.RefreshSchedule, f.RefreshSchedule},
		{&c.StreamProxyURL, f.StreamProxyURL},
	} {
		if v := strings.TrimSpace(kv.v); v != "" {
			*kv.dst = v
		}
	}

	if err := setDuration(&c.ContentTimeout, "content_timeout", f.ContentTimeout); err != nil {
		return err
	}
	if err := setDuration(&c.ProbeTimeout, "probe_timeout", f.ProbeTimeout); err != nil {
		return err
	}
	if err := setDuration(&c.QuickParseTimeout, "quick_parse_timeout", f.QuickParseTimeout); err != nil {
		return err
	}
	if err := setDuration(&c.CacheTTL, "cache_ttl", f.CacheTTL); err != nil {
		return err
	}
	if f.MaxBodyBytes != 0 {
		c.MaxBodyBytes = f.MaxBodyBytes
	}
	if f.StaticFallback != nil {
		c.StaticFallback = *f.StaticFallback
	}
	c.StrictSeriesMatch = f.StrictSeriesMatch
	return nil
}
