// Package config loads parley's TOML configuration with built-in defaults.
//
// The file lives at ~/.parley/config.toml; a missing file yields the
// defaults unchanged.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the complete parley configuration.
type Config struct {
	Backend BackendConfig `toml:"backend"`
	Retry   RetryConfig   `toml:"retry"`
	UI      UIConfig      `toml:"ui"`
}

// BackendConfig addresses the chat service.
type BackendConfig struct {
	// URL is the base URL of the chat service.
	URL string `toml:"url"`
	// StreamTimeoutSecs is the per-attempt stream timeout in seconds.
	StreamTimeoutSecs int `toml:"stream_timeout_secs"`
	// HealthTimeoutSecs is the handshake health-probe timeout in seconds.
	HealthTimeoutSecs int `toml:"health_timeout_secs"`
	// InitTimeoutSecs is the session-init timeout in seconds.
	InitTimeoutSecs int `toml:"init_timeout_secs"`
}

// RetryConfig tunes the recovery policy. Zero values keep policy defaults.
type RetryConfig struct {
	// MaxAttempts bounds retries for transient failures.
	MaxAttempts int `toml:"max_attempts"`
	// BreakerThreshold is the failure count that opens the circuit breaker.
	BreakerThreshold int `toml:"breaker_threshold"`
	// BreakerCooldownSecs is how long an open breaker refuses attempts.
	BreakerCooldownSecs int `toml:"breaker_cooldown_secs"`
	// InitialDelayMillis is the first backoff delay in milliseconds.
	InitialDelayMillis int `toml:"initial_delay_millis"`
	// MaxDelaySecs caps the backoff delay in seconds.
	MaxDelaySecs int `toml:"max_delay_secs"`
}

// UIConfig tunes the terminal interface.
type UIConfig struct {
	// TranscriptDir overrides where transcripts are saved.
	TranscriptDir string `toml:"transcript_dir"`
	// Theme maps semantic roles to ANSI color indices (0-15).
	Theme ThemeConfig `toml:"theme"`
}

// ThemeConfig mirrors parley.Theme in the config file. A negative index
// means "no color".
type ThemeConfig struct {
	UserMsg   int `toml:"user_msg"`
	Streaming int `toml:"streaming"`
	Thinking  int `toml:"thinking"`
	Error     int `toml:"error"`
	Success   int `toml:"success"`
	Muted     int `toml:"muted"`
	CodeBg    int `toml:"code_bg"`
	Accent    int `toml:"accent"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Backend: BackendConfig{
			URL:               "http://localhost:8765",
			StreamTimeoutSecs: 30,
			HealthTimeoutSecs: 5,
			InitTimeoutSecs:   10,
		},
		Retry: RetryConfig{
			MaxAttempts:         3,
			BreakerThreshold:    5,
			BreakerCooldownSecs: 60,
			InitialDelayMillis:  1000,
			MaxDelaySecs:        30,
		},
		UI: UIConfig{
			Theme: ThemeConfig{
				UserMsg:   4,
				Streaming: 7,
				Thinking:  8,
				Error:     1,
				Success:   2,
				Muted:     8,
				CodeBg:    0,
				Accent:    5,
			},
		},
	}
}

// Dir returns parley's state directory (~/.parley).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".parley"), nil
}

// Load reads the configuration from path, layered over the defaults. A
// missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDefault reads ~/.parley/config.toml.
func LoadDefault() (Config, error) {
	dir, err := Dir()
	if err != nil {
		return Config{}, err
	}
	return Load(filepath.Join(dir, "config.toml"))
}

func (c Config) validate() error {
	u, err := url.Parse(c.Backend.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid backend url: %q", c.Backend.URL)
	}
	if c.Backend.StreamTimeoutSecs <= 0 {
		return fmt.Errorf("stream_timeout_secs must be positive, got %d", c.Backend.StreamTimeoutSecs)
	}
	if c.Retry.MaxAttempts < 0 || c.Retry.BreakerThreshold <= 0 {
		return errors.New("retry tuning must be positive")
	}
	return nil
}

// StreamTimeout returns the per-attempt stream timeout as a duration.
func (c BackendConfig) StreamTimeout() time.Duration {
	return time.Duration(c.StreamTimeoutSecs) * time.Second
}

// HealthTimeout returns the health-probe timeout as a duration.
func (c BackendConfig) HealthTimeout() time.Duration {
	return time.Duration(c.HealthTimeoutSecs) * time.Second
}

// InitTimeout returns the session-init timeout as a duration.
func (c BackendConfig) InitTimeout() time.Duration {
	return time.Duration(c.InitTimeoutSecs) * time.Second
}

// BreakerCooldown returns the breaker cooldown as a duration.
func (c RetryConfig) BreakerCooldown() time.Duration {
	return time.Duration(c.BreakerCooldownSecs) * time.Second
}

// InitialDelay returns the first backoff delay as a duration.
func (c RetryConfig) InitialDelay() time.Duration {
	return time.Duration(c.InitialDelayMillis) * time.Millisecond
}

// MaxDelay returns the backoff cap as a duration.
func (c RetryConfig) MaxDelay() time.Duration {
	return time.Duration(c.MaxDelaySecs) * time.Second
}
