// Package config loads service configuration from TOML files, an optional
// environment overlay, and DOCRELAY_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/docrelay/docrelay/internal/classifier"
	"github.com/docrelay/docrelay/pkg/database"
	"github.com/docrelay/docrelay/pkg/storage"
	"github.com/docrelay/docrelay/pkg/tasks"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvDocrelayEnv             = "DOCRELAY_ENV"
	EnvDocrelayShutdownTimeout = "DOCRELAY_SHUTDOWN_TIMEOUT"
	EnvDocrelayVersion         = "DOCRELAY_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "DOCRELAY_DB_HOST",
	Port:            "DOCRELAY_DB_PORT",
	Name:            "DOCRELAY_DB_NAME",
	User:            "DOCRELAY_DB_USER",
	Password:        "DOCRELAY_DB_PASSWORD",
	SSLMode:         "DOCRELAY_DB_SSL_MODE",
	MaxOpenConns:    "DOCRELAY_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "DOCRELAY_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "DOCRELAY_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "DOCRELAY_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContentDir: "DOCRELAY_STORAGE_CONTENT_DIR",
}

var tasksEnv = tasks.ConfigEnv{
	Workers:     "DOCRELAY_TASKS_WORKERS",
	QueueSize:   "DOCRELAY_TASKS_QUEUE_SIZE",
	MaxAttempts: "DOCRELAY_TASKS_MAX_ATTEMPTS",
	RetryDelay:  "DOCRELAY_TASKS_RETRY_DELAY",
}

var classifierEnv = classifier.ConfigEnv{
	BaseURL:            "DOCRELAY_CLASSIFIER_BASE_URL",
	AnnotationBaseURL:  "DOCRELAY_CLASSIFIER_ANNOTATION_BASE_URL",
	SortUploadURL:      "DOCRELAY_CLASSIFIER_SORT_UPLOAD_URL",
	SortWorkflowURL:    "DOCRELAY_CLASSIFIER_SORT_WORKFLOW_URL",
	SortAPIKey:         "DOCRELAY_CLASSIFIER_SORT_API_KEY",
	APIKey:             "DOCRELAY_CLASSIFIER_API_KEY",
	UploadAPIKey:       "DOCRELAY_CLASSIFIER_UPLOAD_API_KEY",
	WorkflowAPIKey:     "DOCRELAY_CLASSIFIER_WORKFLOW_API_KEY",
	FileWorkflowAPIKey: "DOCRELAY_CLASSIFIER_FILE_WORKFLOW_API_KEY",
	ChatAPIKey:         "DOCRELAY_CLASSIFIER_CHAT_API_KEY",
	AnnotationAPIKey:   "DOCRELAY_CLASSIFIER_ANNOTATION_API_KEY",
	DefaultUser:        "DOCRELAY_CLASSIFIER_DEFAULT_USER",
	FileVariableName:   "DOCRELAY_CLASSIFIER_FILE_VARIABLE_NAME",
	ExtraParams:        "DOCRELAY_CLASSIFIER_EXTRA_PARAMS",
}

// Config is the root configuration for the docrelay service.
type Config struct {
	Server          ServerConfig      `toml:"server"`
	Database        database.Config   `toml:"database"`
	Storage         storage.Config    `toml:"storage"`
	Classifier      classifier.Config `toml:"classifier"`
	Tasks           tasks.Config      `toml:"tasks"`
	API             APIConfig         `toml:"api"`
	ShutdownTimeout string            `toml:"shutdown_timeout"`
	Version         string            `toml:"version"`
}

// Env returns the DOCRELAY_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvDocrelayEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads an optional .env file, then the base config (if present),
// applies any environment overlay, and finalizes all values. If no
// config.toml exists, defaults and environment variables provide all
// configuration.
func Load() (*Config, error) {
	// Missing .env is fine; environment variables may come from anywhere.
	_ = godotenv.Load()

	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Classifier.Merge(&overlay.Classifier)
	c.Tasks.Merge(&overlay.Tasks)
	c.API.Merge(&overlay.API)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Classifier.Finalize(classifierEnv); err != nil {
		return fmt.Errorf("classifier: %w", err)
	}
	if err := c.Tasks.Finalize(tasksEnv); err != nil {
		return fmt.Errorf("tasks: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvDocrelayShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvDocrelayVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvDocrelayEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
