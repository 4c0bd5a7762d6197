// Package config provides configuration loading for the stemming toolkit
// and its HTTP server.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/mnohosten/ptstem/pkg/auth"
	"github.com/mnohosten/ptstem/pkg/ruledef"
)

// Config represents the complete configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Rules    RulesConfig    `yaml:"rules"`
	Cache    CacheConfig    `yaml:"cache"`
	Stemming StemmingConfig `yaml:"stemming"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxRequestSize  int64         `yaml:"max_request_size"` // bytes
	EnableCORS      bool          `yaml:"enable_cors"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	AllowedMethods  []string      `yaml:"allowed_methods"`
	AllowedHeaders  []string      `yaml:"allowed_headers"`
	EnableLogging   bool          `yaml:"enable_logging"` // request logging

	// TLS/SSL configuration
	EnableTLS   bool   `yaml:"enable_tls"`
	TLSCertFile string `yaml:"tls_cert_file"`
	TLSKeyFile  string `yaml:"tls_key_file"`

	EnableGraphQL   bool `yaml:"enable_graphql"`
	EnableWebSocket bool `yaml:"enable_websocket"`

	// AdminTokenHash is a HashToken result. Admin endpoints are disabled when empty.
	AdminTokenHash string `yaml:"admin_token_hash"`
}

// RulesConfig configures where algorithm profiles come from
type RulesConfig struct {
	// Builtin registers the embedded orengo, savoy and porter profiles
	Builtin bool `yaml:"builtin"`
	// Dirs are scanned for rule files; each file becomes an algorithm named after it
	Dirs []string `yaml:"dirs,omitempty"`
	// Pattern is the doublestar glob matched relative to each dir
	Pattern string `yaml:"pattern"`
	// Watch reloads rule files when they change
	Watch         bool          `yaml:"watch"`
	WatchDebounce time.Duration `yaml:"watch_debounce"`
	// Preload resolves every profile at startup so broken files fail fast
	Preload bool `yaml:"preload"`
}

// CacheConfig configures the stem cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"` // 0 = no expiry
}

// StemmingConfig configures toolkit behaviour
type StemmingConfig struct {
	DefaultAlgorithm string   `yaml:"default_algorithm"`
	RemoveDiacritics bool     `yaml:"remove_diacritics"`
	IgnoreWords      []string `yaml:"ignore_words,omitempty"`
	IgnoreFile       string   `yaml:"ignore_file"`
	StopWordsFile    string   `yaml:"stop_words_file"` // empty = built-in Portuguese list
	MinTokenLength   int      `yaml:"min_token_length"`
}

// LoggingConfig configures the process logger
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxRequestSize:  1024 * 1024, // 1MB
			EnableCORS:      true,
			AllowedOrigins:  []string{"*"},
			AllowedMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:  []string{"Content-Type", "Authorization", "X-Request-ID"},
			EnableLogging:   true,
			EnableGraphQL:   false, // opt-in
			EnableWebSocket: true,
		},
		Rules: RulesConfig{
			Builtin:       true,
			Pattern:       ruledef.DefaultPattern,
			WatchDebounce: 250 * time.Millisecond,
		},
		Cache: CacheConfig{
			Enabled: true,
			Size:    10000,
		},
		Stemming: StemmingConfig{
			DefaultAlgorithm: "orengo",
			MinTokenLength:   2,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 0 and 65535"))
	}
	if c.Server.MaxRequestSize <= 0 {
		errs = append(errs, fmt.Errorf("server.max_request_size must be positive"))
	}
	if c.Server.EnableTLS && (c.Server.TLSCertFile == "" || c.Server.TLSKeyFile == "") {
		errs = append(errs, fmt.Errorf("server.enable_tls requires tls_cert_file and tls_key_file"))
	}
	if c.Server.AdminTokenHash != "" {
		if err := auth.ValidateHash(c.Server.AdminTokenHash); err != nil {
			errs = append(errs, fmt.Errorf("server.admin_token_hash: %w", err))
		}
	}

	if !c.Rules.Builtin && len(c.Rules.Dirs) == 0 {
		errs = append(errs, fmt.Errorf("rules: builtin profiles disabled and no dirs configured"))
	}
	if c.Rules.Pattern == "" {
		errs = append(errs, fmt.Errorf("rules.pattern is required"))
	} else if !doublestar.ValidatePattern(c.Rules.Pattern) {
		errs = append(errs, fmt.Errorf("rules.pattern %q is not a valid glob", c.Rules.Pattern))
	}
	if c.Rules.Watch && len(c.Rules.Dirs) == 0 {
		errs = append(errs, fmt.Errorf("rules.watch requires rules.dirs"))
	}
	if c.Rules.WatchDebounce < 0 {
		errs = append(errs, fmt.Errorf("rules.watch_debounce must not be negative"))
	}

	if c.Cache.Enabled && c.Cache.Size < 1 {
		errs = append(errs, fmt.Errorf("cache.size must be at least 1 when the cache is enabled"))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must not be negative"))
	}

	if c.Stemming.DefaultAlgorithm == "" {
		errs = append(errs, fmt.Errorf("stemming.default_algorithm is required"))
	}
	if c.Stemming.MinTokenLength < 0 {
		errs = append(errs, fmt.Errorf("stemming.min_token_length must not be negative"))
	}

	if _, err := ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		errs = append(errs, fmt.Errorf("logging.format must be text or json"))
	}

	return errors.Join(errs...)
}

// Load reads YAML from r on top of the defaults. Unknown keys are rejected.
func Load(r io.Reader) (*Config, error) {
	config := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return config, nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Address returns host:port for the HTTP listener
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
