package tasks

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config controls the deferred task runner.
type Config struct {
	Workers     int    `toml:"workers"`
	QueueSize   int    `toml:"queue_size"`
	MaxAttempts int    `toml:"max_attempts"`
	RetryDelay  string `toml:"retry_delay"`
}

// ConfigEnv names the environment variables that override Config values.
type ConfigEnv struct {
	Workers     string
	QueueSize   string
	MaxAttempts string
	RetryDelay  string
}

// Finalize applies defaults, environment overrides, and validation.
func (c *Config) Finalize(env ConfigEnv) error {
	c.loadDefaults()
	c.loadEnv(env)
	return c.validate()
}

// Merge overlays non-zero values from overlay onto c.
func (c *Config) Merge(overlay *Config) {
	if overlay == nil {
		return
	}
	if overlay.Workers > 0 {
		c.Workers = overlay.Workers
	}
	if overlay.QueueSize > 0 {
		c.QueueSize = overlay.QueueSize
	}
	if overlay.MaxAttempts > 0 {
		c.MaxAttempts = overlay.MaxAttempts
	}
	if overlay.RetryDelay != "" {
		c.RetryDelay = overlay.RetryDelay
	}
}

// RetryDelayDuration returns the parsed retry delay.
func (c *Config) RetryDelayDuration() time.Duration {
	d, err := time.ParseDuration(c.RetryDelay)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

func (c *Config) loadDefaults() {
	if c.Workers == 0 {
		// A single worker preserves submission order, which keeps record
		// creation ahead of the status update for the same file.
		c.Workers = 1
	}
	if c.QueueSize == 0 {
		c.QueueSize = 256
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.RetryDelay == "" {
		c.RetryDelay = "500ms"
	}
}

func (c *Config) loadEnv(env ConfigEnv) {
	if v := os.Getenv(env.Workers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	if v := os.Getenv(env.QueueSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.QueueSize = n
		}
	}
	if v := os.Getenv(env.MaxAttempts); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxAttempts = n
		}
	}
	if v := os.Getenv(env.RetryDelay); v != "" {
		c.RetryDelay = v
	}
}

func (c *Config) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("queue_size must be at least 1")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1")
	}
	if _, err := time.ParseDuration(c.RetryDelay); err != nil {
		return fmt.Errorf("invalid retry_delay %q: %w", c.RetryDelay, err)
	}
	return nil
}
