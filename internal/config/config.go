// Package config loads the settings shared by instructd and instructctl.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-instructform/pkg/attachments"
	"github.com/goliatone/go-instructform/pkg/signature"
)

// Environment variables that override file settings.
const (
	EnvServerAddr     = "INSTRUCT_ADDR"
	EnvStorePath      = "INSTRUCT_DB_PATH"
	EnvSubmitEndpoint = "INSTRUCT_ENDPOINT"
	EnvSubmitTimeout  = "INSTRUCT_SUBMIT_TIMEOUT"
	EnvLogLevel       = "INSTRUCT_LOG_LEVEL"
	EnvLogFormat      = "INSTRUCT_LOG_FORMAT"
	EnvReadTimeout    = "INSTRUCT_READ_TIMEOUT"
	EnvWriteTimeout   = "INSTRUCT_WRITE_TIMEOUT"
	EnvBodyLimit      = "INSTRUCT_BODY_LIMIT"
)

// Config holds every setting.
type Config struct {
	Server      ServerConfig       `yaml:"server"`
	Store       StoreConfig        `yaml:"store"`
	Submit      SubmitConfig       `yaml:"submit"`
	Attachments attachments.Policy `yaml:"attachments"`
	Signature   SignatureConfig    `yaml:"signature"`
	Logging     LoggingConfig      `yaml:"logging"`
}

// ServerConfig configures the intake backend.
type ServerConfig struct {
	Addr         string `yaml:"addr"`
	ReadTimeout  string `yaml:"read_timeout"`
	WriteTimeout string `yaml:"write_timeout"`
	// BodyLimit caps request bodies in bytes.
	BodyLimit int `yaml:"body_limit"`
}

// StoreConfig configures the submission database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// SubmitConfig configures the HTTP submitter.
type SubmitConfig struct {
	Endpoint string `yaml:"endpoint"`
	Timeout  string `yaml:"timeout"`
}

// SignatureConfig configures the capture surface and artifact limits.
type SignatureConfig struct {
	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"`
	PenWidth float64 `yaml:"pen_width"`
	MaxBytes int     `yaml:"max_bytes"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// Default returns the built-in configuration.
func Default() *Config {
	sig := signature.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Addr:         ":3000",
			ReadTimeout:  "10s",
			WriteTimeout: "10s",
			BodyLimit:    16 << 20,
		},
		Store: StoreConfig{
			Path: "data/instructions.db",
		},
		Submit: SubmitConfig{
			Endpoint: "http://localhost:3000",
			Timeout:  "30s",
		},
		Signature: SignatureConfig{
			Width:    sig.Width,
			Height:   sig.Height,
			PenWidth: sig.PenWidth,
			MaxBytes: signature.DefaultMaxBytes,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error; an empty path skips the file entirely.
func Load(path string) (*Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	c.Server.Addr = getEnv(EnvServerAddr, c.Server.Addr)
	c.Server.ReadTimeout = getEnv(EnvReadTimeout, c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnv(EnvWriteTimeout, c.Server.WriteTimeout)
	c.Server.BodyLimit = getEnvAsInt(EnvBodyLimit, c.Server.BodyLimit)
	c.Store.Path = getEnv(EnvStorePath, c.Store.Path)
	c.Submit.Endpoint = getEnv(EnvSubmitEndpoint, c.Submit.Endpoint)
	c.Submit.Timeout = getEnv(EnvSubmitTimeout, c.Submit.Timeout)
	c.Logging.Level = getEnv(EnvLogLevel, c.Logging.Level)
	c.Logging.Format = getEnv(EnvLogFormat, c.Logging.Format)
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	for name, raw := range map[string]string{
		"server.read_timeout":  c.Server.ReadTimeout,
		"server.write_timeout": c.Server.WriteTimeout,
		"submit.timeout":       c.Submit.Timeout,
	} {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if d, err := time.ParseDuration(raw); err != nil || d < 0 {
			return fmt.Errorf("config: %s: invalid duration %q", name, raw)
		}
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "json", "console":
	default:
		return fmt.Errorf("config: logging.format: unknown format %q", c.Logging.Format)
	}

	p := c.Attachments
	if p.MinCount < 0 || p.MaxCount < 0 || p.MaxBytes < 0 {
		return errors.New("config: attachments: limits must not be negative")
	}
	if p.MaxCount > 0 && p.MinCount > p.MaxCount {
		return fmt.Errorf("config: attachments: min_count %d exceeds max_count %d", p.MinCount, p.MaxCount)
	}
	return nil
}

// ReadTimeout returns the server read timeout.
func (c *Config) ReadTimeout() time.Duration {
	return parseDuration(c.Server.ReadTimeout, 10*time.Second)
}

// WriteTimeout returns the server write timeout.
func (c *Config) WriteTimeout() time.Duration {
	return parseDuration(c.Server.WriteTimeout, 10*time.Second)
}

// SubmitTimeout returns the submitter timeout.
func (c *Config) SubmitTimeout() time.Duration {
	return parseDuration(c.Submit.Timeout, 30*time.Second)
}

// SignatureSurface returns the capture surface configuration.
func (c *Config) SignatureSurface() signature.Config {
	cfg := signature.DefaultConfig()
	if c.Signature.Width > 0 {
		cfg.Width = c.Signature.Width
	}
	if c.Signature.Height > 0 {
		cfg.Height = c.Signature.Height
	}
	if c.Signature.PenWidth > 0 {
		cfg.PenWidth = c.Signature.PenWidth
	}
	return cfg
}

// SignatureMaxBytes returns the decoded artifact size limit.
func (c *Config) SignatureMaxBytes() int {
	if c.Signature.MaxBytes > 0 {
		return c.Signature.MaxBytes
	}
	return signature.DefaultMaxBytes
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getEnv(key, defaultVal string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultVal
}
