package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/midbel/toml"
)

// Config is the daemon configuration. Values resolve in three layers:
// built-in defaults, then an optional TOML file, then SATTRACK_* environment
// variables.
type Config struct {
	Addr       string `toml:"addr"`
	AuthToken  string `toml:"auth-token"`
	TrustProxy bool   `toml:"trust-proxy"`

	RateLimit RateLimitConfig `toml:"rate-limit"`
	TLE       TLEConfig       `toml:"tle"`
	Cache     CacheConfig     `toml:"cache"`
}

type RateLimitConfig struct {
	MaxPerIP int `toml:"max-per-ip"`
	MaxTotal int `toml:"max-total"`
}

type TLEConfig struct {
	SourceURL      string `toml:"source-url"`
	CacheDir       string `toml:"cache-dir"`
	MaxCacheFiles  int    `toml:"max-cache-files"`
	RefreshMinutes int    `toml:"refresh-minutes"`
}

type CacheConfig struct {
	TTLMinutes   int `toml:"ttl-minutes"`
	SweepMinutes int `toml:"sweep-minutes"`
}

func defaultConfig() Config {
	return Config{
		Addr: ":8080",
		RateLimit: RateLimitConfig{
			MaxPerIP: 8,
			MaxTotal: 256,
		},
		TLE: TLEConfig{
			CacheDir:       "./tle-cache",
			MaxCacheFiles:  5,
			RefreshMinutes: 120,
		},
		Cache: CacheConfig{
			TTLMinutes:   15,
			SweepMinutes: 5,
		},
	}
}

// loadConfig resolves the configuration. path may be empty, in which case
// only defaults and environment variables apply.
func loadConfig(path string, logger *slog.Logger) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		if err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		}
		logger.Info("loaded config file", "path", path)
	}

	applyEnv(&cfg, logger)

	if cfg.TLE.RefreshMinutes < 1 {
		return cfg, errors.New("tle refresh-minutes must be at least 1")
	}
	if cfg.Cache.TTLMinutes < 1 || cfg.Cache.SweepMinutes < 1 {
		return cfg, errors.New("cache ttl-minutes and sweep-minutes must be at least 1")
	}
	return cfg, nil
}

// applyEnv overlays SATTRACK_* environment variables. Unparseable values are
// logged and skipped rather than fatal.
func applyEnv(cfg *Config, logger *slog.Logger) {
	if v := os.Getenv("SATTRACK_HTTP_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("SATTRACK_AUTH_TOKEN"); v != "" {
		cfg.AuthToken = v
	}
	if v := os.Getenv("SATTRACK_TRUST_PROXY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid SATTRACK_TRUST_PROXY value, keeping previous", "value", v)
		} else {
			cfg.TrustProxy = b
		}
	}
	if v := os.Getenv("SATTRACK_TLE_SOURCE_URL"); v != "" {
		cfg.TLE.SourceURL = v
	}
	if v := os.Getenv("SATTRACK_TLE_CACHE_DIR"); v != "" {
		cfg.TLE.CacheDir = v
	}

	envInt(&cfg.TLE.RefreshMinutes, "SATTRACK_TLE_REFRESH_MINUTES", logger)
	envInt(&cfg.Cache.TTLMinutes, "SATTRACK_CACHE_TTL_MINUTES", logger)
	envInt(&cfg.Cache.SweepMinutes, "SATTRACK_CACHE_SWEEP_MINUTES", logger)
	envInt(&cfg.RateLimit.MaxPerIP, "SATTRACK_RATE_MAX_PER_IP", logger)
	envInt(&cfg.RateLimit.MaxTotal, "SATTRACK_RATE_MAX_TOTAL", logger)
}

func envInt(dst *int, name string, logger *slog.Logger) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		logger.Warn("invalid "+name+" value, keeping previous", "value", v)
		return
	}
	*dst = n
}

func (c TLEConfig) refreshInterval() time.Duration {
	return time.Duration(c.RefreshMinutes) * time.Minute
}

func (c CacheConfig) ttl() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

func (c CacheConfig) sweepInterval() time.Duration {
	return time.Duration(c.SweepMinutes) * time.Minute
}
