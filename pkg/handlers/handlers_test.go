package handlers_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/docrelay/docrelay/pkg/handlers"
)

func TestRespondEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	handlers.Respond(rec, http.StatusOK, "ok", map[string]any{"value": 1})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %s, want application/json", ct)
	}

	var envelope handlers.Envelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if envelope.Code != http.StatusOK {
		t.Errorf("code = %d, want 200", envelope.Code)
	}
	if envelope.Message != "ok" {
		t.Errorf("message = %q, want ok", envelope.Message)
	}
	if envelope.Data == nil {
		t.Error("data missing")
	}
}

func TestRespondErrorCarriesMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handlers.RespondError(rec, logger, http.StatusNotFound, errors.New("document not found"))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	var envelope handlers.Envelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if envelope.Code != http.StatusNotFound {
		t.Errorf("code = %d, want 404", envelope.Code)
	}
	if envelope.Message != "document not found" {
		t.Errorf("message = %q, want document not found", envelope.Message)
	}
	if envelope.Data != nil {
		t.Errorf("data = %v, want nil", envelope.Data)
	}
}

func TestActorFromRequest(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		form     url.Values
		role     string
		wantName string
		wantRole string
	}{
		{
			name:     "defaults",
			wantName: handlers.DefaultActorName,
			wantRole: "user",
		},
		{
			name:     "query user",
			query:    "user=alice",
			wantName: "alice",
			wantRole: "user",
		},
		{
			name:     "form user",
			form:     url.Values{"user": {"bob"}},
			wantName: "bob",
			wantRole: "user",
		},
		{
			name:     "role header",
			query:    "user=carol",
			role:     "admin",
			wantName: "carol",
			wantRole: "admin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/documents"
			if tt.query != "" {
				target += "?" + tt.query
			}

			var r *http.Request
			if tt.form != nil {
				r = httptest.NewRequest("POST", target, strings.NewReader(tt.form.Encode()))
				r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			} else {
				r = httptest.NewRequest("GET", target, nil)
			}
			if tt.role != "" {
				r.Header.Set("X-Actor-Role", tt.role)
			}

			actor := handlers.ActorFromRequest(r)
			if actor.Name != tt.wantName {
				t.Errorf("name = %q, want %q", actor.Name, tt.wantName)
			}
			if actor.Role != tt.wantRole {
				t.Errorf("role = %q, want %q", actor.Role, tt.wantRole)
			}
		})
	}
}

func TestActorIsAdmin(t *testing.T) {
	if (handlers.Actor{Role: "user"}).IsAdmin() {
		t.Error("user role should not be admin")
	}
	if !(handlers.Actor{Role: "admin"}).IsAdmin() {
		t.Error("admin role should be admin")
	}
}
