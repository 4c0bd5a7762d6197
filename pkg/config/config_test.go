package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnohosten/ptstem/pkg/auth"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "orengo", cfg.Stemming.DefaultAlgorithm)
	assert.True(t, cfg.Rules.Builtin)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 10000, cfg.Cache.Size)
	assert.Equal(t, "localhost:8080", cfg.Server.Address())
	assert.False(t, cfg.Server.EnableGraphQL)
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	hash, err := auth.HashToken("token")
	require.NoError(t, err)

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "valid default config", modify: func(c *Config) {}},
		{name: "valid admin hash", modify: func(c *Config) { c.Server.AdminTokenHash = hash }},
		{name: "bad port", modify: func(c *Config) { c.Server.Port = 70000 }, wantErr: "server.port"},
		{name: "zero request size", modify: func(c *Config) { c.Server.MaxRequestSize = 0 }, wantErr: "max_request_size"},
		{name: "tls without files", modify: func(c *Config) { c.Server.EnableTLS = true }, wantErr: "enable_tls"},
		{name: "malformed admin hash", modify: func(c *Config) { c.Server.AdminTokenHash = "plain" }, wantErr: "admin_token_hash"},
		{name: "no rule sources", modify: func(c *Config) { c.Rules.Builtin = false }, wantErr: "no dirs"},
		{name: "bad pattern", modify: func(c *Config) { c.Rules.Pattern = "[" }, wantErr: "rules.pattern"},
		{name: "watch without dirs", modify: func(c *Config) { c.Rules.Watch = true }, wantErr: "rules.watch"},
		{name: "cache size", modify: func(c *Config) { c.Cache.Size = 0 }, wantErr: "cache.size"},
		{name: "disabled cache ignores size", modify: func(c *Config) { c.Cache.Enabled = false; c.Cache.Size = 0 }},
		{name: "negative ttl", modify: func(c *Config) { c.Cache.TTL = -time.Second }, wantErr: "cache.ttl"},
		{name: "no default algorithm", modify: func(c *Config) { c.Stemming.DefaultAlgorithm = "" }, wantErr: "default_algorithm"},
		{name: "bad level", modify: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "logging.level"},
		{name: "bad format", modify: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
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

func TestValidateJoinsErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = -1
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "logging.format")
}

func TestLoadOverridesDefaults(t *testing.T) {
	input := `
server:
  port: 9090
  enable_graphql: true
rules:
  dirs: [./rules]
  watch: true
cache:
  size: 50
  ttl: 5m
stemming:
  default_algorithm: savoy
  ignore_words: [brasil, lisboa]
logging:
  level: debug
  format: json
`
	cfg, err := Load(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Server.EnableGraphQL)
	assert.Equal(t, "localhost", cfg.Server.Host, "unset keys keep defaults")
	assert.Equal(t, []string{"./rules"}, cfg.Rules.Dirs)
	assert.True(t, cfg.Rules.Watch)
	assert.True(t, cfg.Rules.Builtin)
	assert.Equal(t, 50, cfg.Cache.Size)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "savoy", cfg.Stemming.DefaultAlgorithm)
	assert.Equal(t, []string{"brasil", "lisboa"}, cfg.Stemming.IgnoreWords)
	assert.Equal(t, "debug", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoadEmptyInput(t *testing.T) {
	cfg, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(strings.NewReader("cache:\n  sise: 10\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sise")
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.Cache.TTL = 90 * time.Second
	cfg.Rules.Dirs = []string{"/etc/ptstem/rules"}
	path := filepath.Join(dir, "nested", "ptstem.yaml")
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	require.NoError(t, os.WriteFile(path, []byte("server: [1, 2"), 0644))
	_, err = LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for input, want := range tests {
		got, err := ParseLevel(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(LoggingConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", slog.String("algorithm", "orengo"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	assert.Equal(t, "shown", record["msg"])
	assert.Equal(t, "orengo", record["algorithm"])

	buf.Reset()
	logger, err = NewLogger(LoggingConfig{Level: "info", Format: "text"}, &buf)
	require.NoError(t, err)
	logger.Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")

	_, err = NewLogger(LoggingConfig{Level: "info", Format: "xml"}, nil)
	assert.Error(t, err)
}
