// Package config loads and watches the trapmon TOML configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/dmorgan-nz/trapmon/internal/listener"
	"github.com/dmorgan-nz/trapmon/internal/protocol"
	"github.com/dmorgan-nz/trapmon/internal/protocol/frame"
	"github.com/dmorgan-nz/trapmon/internal/serialport"
	"github.com/dmorgan-nz/trapmon/internal/trigger"
)

// DebugConfig configures the optional health/metrics HTTP endpoint.
// Empty Addr disables it.
type DebugConfig struct {
	Addr        string
	CorsOrigins []string
}

// Config is the full daemon configuration with defaults applied.
type Config struct {
	LogLevel  string
	Serial    serialport.Config
	Limits    frame.Limits
	Reconnect listener.ReconnectConfig
	Trigger   trigger.Rules
	Debug     DebugConfig
}

func Default() Config {
	return Config{
		LogLevel:  "info",
		Serial:    serialport.DefaultConfig(),
		Limits:    frame.DefaultLimits(),
		Reconnect: listener.ReconnectConfig{Backoff: listener.DefaultBackoff()},
		Trigger:   trigger.DefaultRules(),
	}
}

type fileConfig struct {
	LogLevel string `toml:"log_level"`

	Serial struct {
		Device      string `toml:"device"`
		Baud        int    `toml:"baud"`
		ReadTimeout string `toml:"read_timeout"`
		LockRetries int    `toml:"lock_retries"`
		LockWait    string `toml:"lock_wait"`
	} `toml:"serial"`

	Listener struct {
		MaxLineBytes          int    `toml:"max_line_bytes"`
		Reconnect             bool   `toml:"reconnect"`
		ReconnectMaxAttempts  int    `toml:"reconnect_max_attempts"`
		ReconnectInitialDelay string `toml:"reconnect_initial_delay"`
		ReconnectMaxDelay     string `toml:"reconnect_max_delay"`
	} `toml:"listener"`

	Trigger struct {
		Trap          map[string]float64 `toml:"trap"`
		Protect       map[string]float64 `toml:"protect"`
		TrapWindow    string             `toml:"trap_window"`
		ProtectWindow string             `toml:"protect_window"`
	} `toml:"trigger"`

	Debug struct {
		Addr        string   `toml:"addr"`
		CorsOrigins []string `toml:"cors_origins"`
	} `toml:"debug"`
}

// Load reads the config file, applying file values over Default().
// Absent keys keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if meta.IsDefined("serial", "device") {
		cfg.Serial.Device = strings.TrimSpace(raw.Serial.Device)
	}
	if meta.IsDefined("serial", "baud") {
		cfg.Serial.Baud = raw.Serial.Baud
	}
	if meta.IsDefined("serial", "read_timeout") {
		d, err := parseDuration(raw.Serial.ReadTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse serial.read_timeout: %w", err)
		}
		cfg.Serial.ReadTimeout = d
	}
	if meta.IsDefined("serial", "lock_retries") {
		cfg.Serial.LockRetries = raw.Serial.LockRetries
	}
	if meta.IsDefined("serial", "lock_wait") {
		d, err := parseDuration(raw.Serial.LockWait)
		if err != nil {
			return Config{}, fmt.Errorf("parse serial.lock_wait: %w", err)
		}
		cfg.Serial.LockWait = d
	}

	if meta.IsDefined("listener", "max_line_bytes") {
		cfg.Limits.MaxLineBytes = raw.Listener.MaxLineBytes
	}
	if meta.IsDefined("listener", "reconnect") {
		cfg.Reconnect.Enabled = raw.Listener.Reconnect
	}
	if meta.IsDefined("listener", "reconnect_max_attempts") {
		cfg.Reconnect.MaxAttempts = raw.Listener.ReconnectMaxAttempts
	}
	if meta.IsDefined("listener", "reconnect_initial_delay") {
		d, err := parseDuration(raw.Listener.ReconnectInitialDelay)
		if err != nil {
			return Config{}, fmt.Errorf("parse listener.reconnect_initial_delay: %w", err)
		}
		cfg.Reconnect.Backoff.InitialDelay = d
	}
	if meta.IsDefined("listener", "reconnect_max_delay") {
		d, err := parseDuration(raw.Listener.ReconnectMaxDelay)
		if err != nil {
			return Config{}, fmt.Errorf("parse listener.reconnect_max_delay: %w", err)
		}
		cfg.Reconnect.Backoff.MaxDelay = d
	}

	if meta.IsDefined("trigger", "trap") {
		cfg.Trigger.Trap = protocol.Species(raw.Trigger.Trap)
	}
	if meta.IsDefined("trigger", "protect") {
		cfg.Trigger.Protect = protocol.Species(raw.Trigger.Protect)
	}
	if meta.IsDefined("trigger", "trap_window") {
		d, err := parseDuration(raw.Trigger.TrapWindow)
		if err != nil {
			return Config{}, fmt.Errorf("parse trigger.trap_window: %w", err)
		}
		cfg.Trigger.TrapWindow = d
	}
	if meta.IsDefined("trigger", "protect_window") {
		d, err := parseDuration(raw.Trigger.ProtectWindow)
		if err != nil {
			return Config{}, fmt.Errorf("parse trigger.protect_window: %w", err)
		}
		cfg.Trigger.ProtectWindow = d
	}

	if meta.IsDefined("debug", "addr") {
		cfg.Debug.Addr = strings.TrimSpace(raw.Debug.Addr)
	}
	if meta.IsDefined("debug", "cors_origins") {
		cfg.Debug.CorsOrigins = raw.Debug.CorsOrigins
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := c.Serial.Validate(); err != nil {
		return err
	}
	if c.Limits.MaxLineBytes <= 0 {
		return fmt.Errorf("config: max_line_bytes must be positive")
	}
	if c.Reconnect.MaxAttempts < 0 {
		return fmt.Errorf("config: reconnect_max_attempts must not be negative")
	}
	return nil
}

func parseDuration(raw string) (time.Duration, error) {
	return time.ParseDuration(strings.TrimSpace(raw))
}
