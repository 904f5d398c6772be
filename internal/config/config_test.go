package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	v, err := New("")
	require.NoError(t, err)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "http://localhost:8000", cfg.BackendURL)
	assert.Equal(t, 30*time.Second, cfg.BackendTimeout)
	assert.Equal(t, 5.0, cfg.BackendRPS)
	assert.Equal(t, 5, cfg.BackendBurst)
	assert.Equal(t, "http://localhost:5173", cfg.CORSOrigin)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 1.0, cfg.RunRateLimit)
	assert.Equal(t, 3, cfg.RunBurst)
	assert.Empty(t, cfg.ThresholdPath)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("RELIABILITY_BACKEND_URL", "https://bench.example.com/")
	t.Setenv("RELIABILITY_BACKEND_TIMEOUT", "5s")
	t.Setenv("RELIABILITY_LOG_LEVEL", "DEBUG")
	t.Setenv("DATABASE_URL", "postgres://localhost/reliability")

	v, err := New("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "https://bench.example.com", cfg.BackendURL)
	assert.Equal(t, 5*time.Second, cfg.BackendTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "postgres://localhost/reliability", cfg.DatabaseURL)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reliability.yaml")
	content := "port: 9090\nsuites_file: suites.yaml\nrun_rate_limit: 0.5\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	v, err := New(path)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "suites.yaml", cfg.SuitesFile)
	assert.Equal(t, 0.5, cfg.RunRateLimit)
}

func TestNew_MissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Port:           8080,
			BackendURL:     "http://localhost:8000",
			BackendTimeout: time.Second,
			BackendRPS:     1,
			BackendBurst:   1,
			RunRateLimit:   1,
			RunBurst:       1,
			LogLevel:       "info",
			LogFormat:      "json",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"port zero", func(c *Config) { c.Port = 0 }, "port"},
		{"relative backend", func(c *Config) { c.BackendURL = "localhost:8000" }, "backend_url"},
		{"zero timeout", func(c *Config) { c.BackendTimeout = 0 }, "backend_timeout"},
		{"negative rps", func(c *Config) { c.BackendRPS = -1 }, "backend_rps"},
		{"zero burst", func(c *Config) { c.BackendBurst = 0 }, "backend_burst"},
		{"zero run rate", func(c *Config) { c.RunRateLimit = 0 }, "run_rate_limit"},
		{"zero run burst", func(c *Config) { c.RunBurst = 0 }, "run_burst"},
		{"bad level", func(c *Config) { c.LogLevel = "verbose" }, "log_level"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{LogLevel: "warn", LogFormat: "text"}
	log := cfg.Logger(&buf)

	log.Info("hidden")
	log.Warn("shown", "key", "value")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "key=value")
}
