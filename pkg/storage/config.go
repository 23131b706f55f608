package storage

import (
	"fmt"
	"os"
)

// Config holds local content directory parameters.
type Config struct {
	ContentDir string `toml:"content_dir"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	ContentDir string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.ContentDir != "" {
		c.ContentDir = overlay.ContentDir
	}
}

func (c *Config) loadDefaults() {
	if c.ContentDir == "" {
		c.ContentDir = "uploads"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.ContentDir != "" {
		if v := os.Getenv(env.ContentDir); v != "" {
			c.ContentDir = v
		}
	}
}

func (c *Config) validate() error {
	if c.ContentDir == "" {
		return fmt.Errorf("content_dir required")
	}
	return nil
}
