package pagination_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/docrelay/docrelay/pkg/pagination"
)

func defaultConfig() pagination.Config {
	return pagination.Config{DefaultLimit: 100, MaxLimit: 1000}
}

func TestConfigFinalizeDefaults(t *testing.T) {
	cfg := pagination.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.DefaultLimit != 100 {
		t.Errorf("DefaultLimit = %d, want 100", cfg.DefaultLimit)
	}
	if cfg.MaxLimit != 1000 {
		t.Errorf("MaxLimit = %d, want 1000", cfg.MaxLimit)
	}
}

func TestConfigFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_DEFAULT_LIMIT", "50")
	t.Setenv("TEST_MAX_LIMIT", "200")

	env := &pagination.ConfigEnv{
		DefaultLimit: "TEST_DEFAULT_LIMIT",
		MaxLimit:     "TEST_MAX_LIMIT",
	}

	cfg := pagination.Config{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.DefaultLimit != 50 {
		t.Errorf("DefaultLimit = %d, want 50", cfg.DefaultLimit)
	}
	if cfg.MaxLimit != 200 {
		t.Errorf("MaxLimit = %d, want 200", cfg.MaxLimit)
	}
}

func TestConfigFinalizeValidation(t *testing.T) {
	cfg := pagination.Config{DefaultLimit: 2000, MaxLimit: 1000}
	err := cfg.Finalize(nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "default_limit cannot exceed max_limit") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPageRequestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		req       pagination.PageRequest
		wantSkip  int
		wantLimit int
	}{
		{
			name:      "zero values take defaults",
			req:       pagination.PageRequest{},
			wantSkip:  0,
			wantLimit: 100,
		},
		{
			name:      "negative skip clamps to zero",
			req:       pagination.PageRequest{Skip: -5, Limit: 10},
			wantSkip:  0,
			wantLimit: 10,
		},
		{
			name:      "limit above max clamps to max",
			req:       pagination.PageRequest{Skip: 20, Limit: 5000},
			wantSkip:  20,
			wantLimit: 1000,
		},
		{
			name:      "valid values pass through",
			req:       pagination.PageRequest{Skip: 40, Limit: 25},
			wantSkip:  40,
			wantLimit: 25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Normalize(defaultConfig())
			if tt.req.Skip != tt.wantSkip {
				t.Errorf("Skip = %d, want %d", tt.req.Skip, tt.wantSkip)
			}
			if tt.req.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", tt.req.Limit, tt.wantLimit)
			}
		})
	}
}

func TestPageRequestFromQuery(t *testing.T) {
	values := url.Values{}
	values.Set("skip", "30")
	values.Set("limit", "15")

	req := pagination.PageRequestFromQuery(values, defaultConfig())
	if req.Skip != 30 {
		t.Errorf("Skip = %d, want 30", req.Skip)
	}
	if req.Limit != 15 {
		t.Errorf("Limit = %d, want 15", req.Limit)
	}
}

func TestPageRequestFromQueryInvalid(t *testing.T) {
	values := url.Values{}
	values.Set("skip", "abc")
	values.Set("limit", "xyz")

	req := pagination.PageRequestFromQuery(values, defaultConfig())
	if req.Skip != 0 {
		t.Errorf("Skip = %d, want 0", req.Skip)
	}
	if req.Limit != 100 {
		t.Errorf("Limit = %d, want 100", req.Limit)
	}
}

func TestNewPageResultNilItems(t *testing.T) {
	result := pagination.NewPageResult[string](nil, 0, pagination.PageRequest{Skip: 0, Limit: 10})
	if result.Items == nil {
		t.Error("Items should be an empty slice, not nil")
	}
	if result.Total != 0 {
		t.Errorf("Total = %d, want 0", result.Total)
	}
}
