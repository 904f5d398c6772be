// Package config loads settings from defaults, an optional YAML file,
// RELIABILITY_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "RELIABILITY"

// Config holds process settings.
type Config struct {
	Port           int           `mapstructure:"port"`
	DatabaseURL    string        `mapstructure:"database_url"`
	BackendURL     string        `mapstructure:"backend_url"`
	BackendToken   string        `mapstructure:"backend_token"`
	BackendTimeout time.Duration `mapstructure:"backend_timeout"`
	BackendRPS     float64       `mapstructure:"backend_rps"`
	BackendBurst   int           `mapstructure:"backend_burst"`
	ThresholdPath  string        `mapstructure:"threshold_path"`
	SuitesFile     string        `mapstructure:"suites_file"`
	CORSOrigin     string        `mapstructure:"cors_origin"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFormat      string        `mapstructure:"log_format"`
	RunRateLimit   float64       `mapstructure:"run_rate_limit"`
	RunBurst       int           `mapstructure:"run_burst"`
}

// SetDefaults installs default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("database_url", "")
	v.SetDefault("backend_url", "http://localhost:8000")
	v.SetDefault("backend_token", "")
	v.SetDefault("backend_timeout", 30*time.Second)
	v.SetDefault("backend_rps", 5.0)
	v.SetDefault("backend_burst", 5)
	v.SetDefault("threshold_path", "")
	v.SetDefault("suites_file", "")
	v.SetDefault("cors_origin", "http://localhost:5173")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("run_rate_limit", 1.0)
	v.SetDefault("run_burst", 3)
}

// New returns a viper instance with defaults and environment bindings. A
// non-empty path is read as a YAML config file.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	// Conventional unprefixed names used by hosting platforms.
	_ = v.BindEnv("database_url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("port", EnvPrefix+"_PORT", "PORT")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	return v, nil
}

// Load decodes and validates the settings held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.BackendURL = strings.TrimSuffix(cfg.BackendURL, "/")
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if u, err := url.Parse(c.BackendURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("backend_url %q must be an absolute http(s) URL", c.BackendURL))
	}
	if c.BackendTimeout <= 0 {
		errs = append(errs, errors.New("backend_timeout must be positive"))
	}
	if c.BackendRPS <= 0 {
		errs = append(errs, errors.New("backend_rps must be positive"))
	}
	if c.BackendBurst < 1 {
		errs = append(errs, errors.New("backend_burst must be at least 1"))
	}
	if c.RunRateLimit <= 0 {
		errs = append(errs, errors.New("run_rate_limit must be positive"))
	}
	if c.RunBurst < 1 {
		errs = append(errs, errors.New("run_burst must be at least 1"))
	}
	if _, ok := levels[c.LogLevel]; !ok {
		errs = append(errs, fmt.Errorf("log_level %q must be one of debug, info, warn, error", c.LogLevel))
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		errs = append(errs, fmt.Errorf("log_format %q must be json or text", c.LogFormat))
	}
	return errors.Join(errs...)
}

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Logger builds a slog logger writing to w at the configured level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: levels[c.LogLevel]}
	if c.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
