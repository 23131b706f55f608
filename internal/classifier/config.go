package classifier

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Placeholder values shipped in sample configuration. A key that still holds
// its placeholder is treated as unconfigured.
const (
	placeholderUploadKey       = "your-upload-api-key-here"
	placeholderWorkflowKey     = "your-workflow-api-key-here"
	placeholderFileWorkflowKey = "your-file-workflow-api-key-here"
	placeholderAnnotationKey   = "your-annotation-api-key-here"
)

// Purpose selects which credential chain and endpoint a call uses.
type Purpose string

const (
	PurposeUpload       Purpose = "upload"
	PurposeWorkflow     Purpose = "workflow"
	PurposeFileWorkflow Purpose = "file_workflow"
	PurposeChat         Purpose = "chat"
	PurposeAnnotation   Purpose = "annotation"
)

// Config holds connection settings for the external classification service.
type Config struct {
	BaseURL           string `toml:"base_url"`
	AnnotationBaseURL string `toml:"annotation_base_url"`

	// Scoped overrides for the sorting pipeline. When set they take
	// precedence over the purpose-specific values below.
	SortUploadURL   string `toml:"sort_upload_url"`
	SortWorkflowURL string `toml:"sort_workflow_url"`
	SortAPIKey      string `toml:"sort_api_key"`

	APIKey             string `toml:"api_key"`
	UploadAPIKey       string `toml:"upload_api_key"`
	WorkflowAPIKey     string `toml:"workflow_api_key"`
	FileWorkflowAPIKey string `toml:"file_workflow_api_key"`
	ChatAPIKey         string `toml:"chat_api_key"`
	AnnotationAPIKey   string `toml:"annotation_api_key"`

	DefaultUser      string `toml:"default_user"`
	FileVariableName string `toml:"file_variable_name"`
	FileDocumentType string `toml:"file_document_type"`
	ExtraParams      string `toml:"extra_params"`

	UploadTimeout     string `toml:"upload_timeout"`
	WorkflowTimeout   string `toml:"workflow_timeout"`
	AnnotationTimeout string `toml:"annotation_timeout"`
}

// ConfigEnv names the environment variables that override Config values.
type ConfigEnv struct {
	BaseURL           string
	AnnotationBaseURL string
	SortUploadURL     string
	SortWorkflowURL   string
	SortAPIKey        string

	APIKey             string
	UploadAPIKey       string
	WorkflowAPIKey     string
	FileWorkflowAPIKey string
	ChatAPIKey         string
	AnnotationAPIKey   string

	DefaultUser      string
	FileVariableName string
	ExtraParams      string
}

// Finalize applies defaults, environment overrides, and validation.
func (c *Config) Finalize(env ConfigEnv) error {
	c.loadDefaults()
	c.loadEnv(env)
	return c.validate()
}

// Merge overlays non-empty values from overlay onto c.
func (c *Config) Merge(overlay *Config) {
	if overlay == nil {
		return
	}

	merge := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}

	merge(&c.BaseURL, overlay.BaseURL)
	merge(&c.AnnotationBaseURL, overlay.AnnotationBaseURL)
	merge(&c.SortUploadURL, overlay.SortUploadURL)
	merge(&c.SortWorkflowURL, overlay.SortWorkflowURL)
	merge(&c.SortAPIKey, overlay.SortAPIKey)
	merge(&c.APIKey, overlay.APIKey)
	merge(&c.UploadAPIKey, overlay.UploadAPIKey)
	merge(&c.WorkflowAPIKey, overlay.WorkflowAPIKey)
	merge(&c.FileWorkflowAPIKey, overlay.FileWorkflowAPIKey)
	merge(&c.ChatAPIKey, overlay.ChatAPIKey)
	merge(&c.AnnotationAPIKey, overlay.AnnotationAPIKey)
	merge(&c.DefaultUser, overlay.DefaultUser)
	merge(&c.FileVariableName, overlay.FileVariableName)
	merge(&c.FileDocumentType, overlay.FileDocumentType)
	merge(&c.ExtraParams, overlay.ExtraParams)
	merge(&c.UploadTimeout, overlay.UploadTimeout)
	merge(&c.WorkflowTimeout, overlay.WorkflowTimeout)
	merge(&c.AnnotationTimeout, overlay.AnnotationTimeout)
}

// Key resolves the credential for a purpose. The scoped sort key wins, then
// the purpose-specific key, then the shared fallback key. A chain resolving
// to nothing but placeholders fails before any network I/O.
func (c *Config) Key(purpose Purpose) (string, error) {
	if purpose == PurposeAnnotation {
		if configured(c.AnnotationAPIKey, placeholderAnnotationKey) {
			return c.AnnotationAPIKey, nil
		}
		return "", fmt.Errorf("%w: %s", ErrKeyNotConfigured, purpose)
	}

	if c.SortAPIKey != "" {
		return c.SortAPIKey, nil
	}

	var key, placeholder string
	switch purpose {
	case PurposeUpload:
		key, placeholder = c.UploadAPIKey, placeholderUploadKey
	case PurposeWorkflow:
		key, placeholder = c.WorkflowAPIKey, placeholderWorkflowKey
	case PurposeFileWorkflow:
		key, placeholder = c.FileWorkflowAPIKey, placeholderFileWorkflowKey
	case PurposeChat:
		key, placeholder = c.ChatAPIKey, placeholderWorkflowKey
	default:
		return "", fmt.Errorf("%w: unknown purpose %q", ErrKeyNotConfigured, purpose)
	}

	if configured(key, placeholder) {
		return key, nil
	}
	if configured(c.APIKey, "") {
		return c.APIKey, nil
	}
	return "", fmt.Errorf("%w: %s", ErrKeyNotConfigured, purpose)
}

// Configured reports whether the credential chain for a purpose resolves.
func (c *Config) Configured(purpose Purpose) bool {
	_, err := c.Key(purpose)
	return err == nil
}

// UploadURL returns the file upload endpoint.
func (c *Config) UploadURL() string {
	if c.SortUploadURL != "" {
		return c.SortUploadURL
	}
	return c.endpoint(c.BaseURL, "/files/upload")
}

// WorkflowURL returns the blocking workflow-run endpoint.
func (c *Config) WorkflowURL() string {
	if c.SortWorkflowURL != "" {
		return c.SortWorkflowURL
	}
	return c.endpoint(c.BaseURL, "/workflows/run")
}

// ChatURL returns the blocking chat-message endpoint.
func (c *Config) ChatURL() string {
	return c.endpoint(c.BaseURL, "/chat-messages")
}

// AnnotationsURL returns the annotation collection endpoint.
func (c *Config) AnnotationsURL() string {
	return c.endpoint(c.AnnotationBaseURL, "/apps/annotations")
}

func (c *Config) endpoint(base, path string) string {
	return strings.TrimRight(base, "/") + path
}

// UploadTimeoutDuration returns the parsed file upload deadline.
func (c *Config) UploadTimeoutDuration() time.Duration {
	return parseDuration(c.UploadTimeout, 60*time.Second)
}

// WorkflowTimeoutDuration returns the parsed workflow and chat deadline.
func (c *Config) WorkflowTimeoutDuration() time.Duration {
	return parseDuration(c.WorkflowTimeout, 180*time.Second)
}

// AnnotationTimeoutDuration returns the parsed annotation deadline.
func (c *Config) AnnotationTimeoutDuration() time.Duration {
	return parseDuration(c.AnnotationTimeout, 30*time.Second)
}

func (c *Config) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.dify.ai/v1"
	}
	if c.AnnotationBaseURL == "" {
		c.AnnotationBaseURL = c.BaseURL
	}
	if c.UploadAPIKey == "" {
		c.UploadAPIKey = placeholderUploadKey
	}
	if c.WorkflowAPIKey == "" {
		c.WorkflowAPIKey = placeholderWorkflowKey
	}
	if c.FileWorkflowAPIKey == "" {
		c.FileWorkflowAPIKey = placeholderFileWorkflowKey
	}
	if c.ChatAPIKey == "" {
		c.ChatAPIKey = placeholderWorkflowKey
	}
	if c.AnnotationAPIKey == "" {
		c.AnnotationAPIKey = placeholderAnnotationKey
	}
	if c.DefaultUser == "" {
		c.DefaultUser = "web_user"
	}
	if c.FileVariableName == "" {
		c.FileVariableName = "file_input"
	}
	if c.FileDocumentType == "" {
		c.FileDocumentType = "document"
	}
	if c.ExtraParams == "" {
		c.ExtraParams = "{}"
	}
	if c.UploadTimeout == "" {
		c.UploadTimeout = "60s"
	}
	if c.WorkflowTimeout == "" {
		c.WorkflowTimeout = "180s"
	}
	if c.AnnotationTimeout == "" {
		c.AnnotationTimeout = "30s"
	}
}

func (c *Config) loadEnv(env ConfigEnv) {
	load := func(dst *string, key string) {
		if key == "" {
			return
		}
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	load(&c.BaseURL, env.BaseURL)
	load(&c.AnnotationBaseURL, env.AnnotationBaseURL)
	load(&c.SortUploadURL, env.SortUploadURL)
	load(&c.SortWorkflowURL, env.SortWorkflowURL)
	load(&c.SortAPIKey, env.SortAPIKey)
	load(&c.APIKey, env.APIKey)
	load(&c.UploadAPIKey, env.UploadAPIKey)
	load(&c.WorkflowAPIKey, env.WorkflowAPIKey)
	load(&c.FileWorkflowAPIKey, env.FileWorkflowAPIKey)
	load(&c.ChatAPIKey, env.ChatAPIKey)
	load(&c.AnnotationAPIKey, env.AnnotationAPIKey)
	load(&c.DefaultUser, env.DefaultUser)
	load(&c.FileVariableName, env.FileVariableName)
	load(&c.ExtraParams, env.ExtraParams)
}

func (c *Config) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url required")
	}
	for name, value := range map[string]string{
		"upload_timeout":     c.UploadTimeout,
		"workflow_timeout":   c.WorkflowTimeout,
		"annotation_timeout": c.AnnotationTimeout,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, value, err)
		}
	}
	return nil
}

func configured(key, placeholder string) bool {
	return key != "" && key != placeholder
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
