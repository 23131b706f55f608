package classifier_test

import (
	"errors"
	"testing"

	"github.com/docrelay/docrelay/internal/classifier"
)

func finalized(t *testing.T, cfg classifier.Config) classifier.Config {
	t.Helper()
	if err := cfg.Finalize(classifier.ConfigEnv{}); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	return cfg
}

func TestKeyResolutionChain(t *testing.T) {
	tests := []struct {
		name    string
		cfg     classifier.Config
		purpose classifier.Purpose
		want    string
		wantErr bool
	}{
		{
			name:    "sort key wins",
			cfg:     classifier.Config{SortAPIKey: "sort-key", UploadAPIKey: "upload-key"},
			purpose: classifier.PurposeUpload,
			want:    "sort-key",
		},
		{
			name:    "purpose key when no sort key",
			cfg:     classifier.Config{UploadAPIKey: "upload-key"},
			purpose: classifier.PurposeUpload,
			want:    "upload-key",
		},
		{
			name:    "shared key when purpose key unset",
			cfg:     classifier.Config{APIKey: "shared-key"},
			purpose: classifier.PurposeWorkflow,
			want:    "shared-key",
		},
		{
			name:    "placeholders resolve to nothing",
			cfg:     classifier.Config{},
			purpose: classifier.PurposeFileWorkflow,
			wantErr: true,
		},
		{
			name:    "annotation key ignores sort key",
			cfg:     classifier.Config{SortAPIKey: "sort-key"},
			purpose: classifier.PurposeAnnotation,
			wantErr: true,
		},
		{
			name:    "annotation key configured",
			cfg:     classifier.Config{AnnotationAPIKey: "ann-key"},
			purpose: classifier.PurposeAnnotation,
			want:    "ann-key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := finalized(t, tt.cfg)

			key, err := cfg.Key(tt.purpose)
			if tt.wantErr {
				if !errors.Is(err, classifier.ErrKeyNotConfigured) {
					t.Fatalf("error = %v, want ErrKeyNotConfigured", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if key != tt.want {
				t.Errorf("key = %q, want %q", key, tt.want)
			}
		})
	}
}

func TestEndpoints(t *testing.T) {
	cfg := finalized(t, classifier.Config{BaseURL: "https://svc.example/v1/"})

	if got := cfg.UploadURL(); got != "https://svc.example/v1/files/upload" {
		t.Errorf("UploadURL = %s", got)
	}
	if got := cfg.WorkflowURL(); got != "https://svc.example/v1/workflows/run" {
		t.Errorf("WorkflowURL = %s", got)
	}
	if got := cfg.ChatURL(); got != "https://svc.example/v1/chat-messages" {
		t.Errorf("ChatURL = %s", got)
	}
}

func TestScopedEndpointOverrides(t *testing.T) {
	cfg := finalized(t, classifier.Config{
		BaseURL:         "https://svc.example/v1",
		SortUploadURL:   "https://sort.example/upload",
		SortWorkflowURL: "https://sort.example/run",
	})

	if got := cfg.UploadURL(); got != "https://sort.example/upload" {
		t.Errorf("UploadURL = %s", got)
	}
	if got := cfg.WorkflowURL(); got != "https://sort.example/run" {
		t.Errorf("WorkflowURL = %s", got)
	}
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_CLS_BASE_URL", "https://env.example/v1")
	t.Setenv("TEST_CLS_SORT_KEY", "env-sort-key")

	cfg := classifier.Config{}
	err := cfg.Finalize(classifier.ConfigEnv{
		BaseURL:    "TEST_CLS_BASE_URL",
		SortAPIKey: "TEST_CLS_SORT_KEY",
	})
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.BaseURL != "https://env.example/v1" {
		t.Errorf("BaseURL = %s", cfg.BaseURL)
	}
	key, err := cfg.Key(classifier.PurposeUpload)
	if err != nil {
		t.Fatalf("key resolution failed: %v", err)
	}
	if key != "env-sort-key" {
		t.Errorf("key = %q, want env-sort-key", key)
	}
}

func TestFinalizeValidation(t *testing.T) {
	cfg := classifier.Config{UploadTimeout: "never"}
	if err := cfg.Finalize(classifier.ConfigEnv{}); err == nil {
		t.Fatal("expected error, got nil")
	}
}
