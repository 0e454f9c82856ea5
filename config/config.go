// Package config loads the tuning parameters for a cTCP connection: window
// sizes, retransmission timeout, tick period, and retransmit cap.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the configuration record a connection is constructed with.
// SendWindow and RecvWindow are expressed in segments, not bytes; the
// connection multiplies by ctcp.MaxSegDataSize to get the effective byte
// window.
type Config struct {
	SendWindow     int `yaml:"send_window"`
	RecvWindow     int `yaml:"recv_window"`
	RtTimeoutMs    int `yaml:"rt_timeout_ms"`
	TimerMs        int `yaml:"timer_ms"`
	MaxRetransmits int `yaml:"max_retransmits"`
}

// DefaultConfig returns the baseline tuning used when no config file is
// supplied: a 16-segment window in each direction, a 3-second retransmit
// timeout, a 100ms tick, and up to 5 retransmit attempts before giving up.
func DefaultConfig() *Config {
	return &Config{
		SendWindow:     16,
		RecvWindow:     16,
		RtTimeoutMs:    3000,
		TimerMs:        100,
		MaxRetransmits: 5,
	}
}

// LoadConfig reads a YAML config file and validates it against the
// constraints every connection depends on (see Validate). On any error it
// returns a nil Config; the caller should fall back to DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the constraints the connection state machine relies on:
// nonzero windows, a positive retransmit timeout, a tick period no coarser
// than the retransmit timeout, and at least one retransmit attempt.
func (c *Config) Validate() error {
	if c.SendWindow < 1 {
		return fmt.Errorf("send_window must be >= 1, got %d", c.SendWindow)
	}
	if c.RecvWindow < 1 {
		return fmt.Errorf("recv_window must be >= 1, got %d", c.RecvWindow)
	}
	if c.RtTimeoutMs <= 0 {
		return fmt.Errorf("rt_timeout_ms must be > 0, got %d", c.RtTimeoutMs)
	}
	if c.TimerMs <= 0 {
		return fmt.Errorf("timer_ms must be > 0, got %d", c.TimerMs)
	}
	if c.TimerMs > c.RtTimeoutMs {
		return fmt.Errorf("timer_ms (%d) must be <= rt_timeout_ms (%d)", c.TimerMs, c.RtTimeoutMs)
	}
	if c.MaxRetransmits < 1 {
		return fmt.Errorf("max_retransmits must be >= 1, got %d", c.MaxRetransmits)
	}
	return nil
}
