package classifier_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docrelay/docrelay/internal/classifier"
)

func newClient(t *testing.T, handler http.Handler) classifier.System {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := classifier.Config{
		BaseURL:          server.URL,
		APIKey:           "shared-key",
		AnnotationAPIKey: "ann-key",
	}
	if err := cfg.Finalize(classifier.ConfigEnv{}); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	return classifier.New(&cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestUploadFile(t *testing.T) {
	sys := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/files/upload" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer shared-key" {
			t.Errorf("authorization = %q", auth)
		}

		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if user := r.FormValue("user"); user != "alice" {
			t.Errorf("user = %q, want alice", user)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "report.pdf" {
			t.Errorf("filename = %q, want report.pdf", header.Filename)
		}
		data, _ := io.ReadAll(file)
		if string(data) != "content" {
			t.Errorf("file content = %q", data)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"id": "file-1", "name": "report.pdf", "size": 7, "created_at": 1700000000,
		})
	}))

	ref, err := sys.UploadFile(context.Background(), []byte("content"), "report.pdf", "alice")
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if ref.ID != "file-1" {
		t.Errorf("id = %q, want file-1", ref.ID)
	}
	if ref.CreatedAt != 1700000000 {
		t.Errorf("created_at = %d", ref.CreatedAt)
	}
}

func TestRunWorkflowBlocking(t *testing.T) {
	sys := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/workflows/run" {
			t.Errorf("path = %s", r.URL.Path)
		}

		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload["response_mode"] != "blocking" {
			t.Errorf("response_mode = %v", payload["response_mode"])
		}
		if payload["user"] != "web_user" {
			t.Errorf("user = %v, want default", payload["user"])
		}
		inputs, _ := payload["inputs"].(map[string]any)
		if inputs["title"] != "Q3 Report" {
			t.Errorf("inputs = %v", payload["inputs"])
		}

		json.NewEncoder(w).Encode(map[string]any{
			"workflow_run_id": "run-1",
			"task_id":         "task-1",
			"data": map[string]any{
				"outputs": map[string]any{"text": `{"classification": "report"}`},
			},
		})
	}))

	result, err := sys.RunWorkflow(context.Background(),
		map[string]any{"title": "Q3 Report"}, "", classifier.PurposeFileWorkflow)
	if err != nil {
		t.Fatalf("workflow failed: %v", err)
	}
	if result.WorkflowRunID != "run-1" {
		t.Errorf("run id = %q", result.WorkflowRunID)
	}
	if got := classifier.ParseClassification(result.Data); got != "report" {
		t.Errorf("classification = %q, want report", got)
	}
}

func TestServiceErrorPassthrough(t *testing.T) {
	sys := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "workflow not published", http.StatusBadRequest)
	}))

	_, err := sys.RunWorkflow(context.Background(), nil, "", classifier.PurposeWorkflow)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var svcErr *classifier.ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("error = %v, want ServiceError", err)
	}
	if svcErr.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", svcErr.Status)
	}
	if classifier.MapHTTPStatus(err) != http.StatusBadRequest {
		t.Errorf("mapped status = %d, want 400", classifier.MapHTTPStatus(err))
	}
}

func TestUnconfiguredKeyFailsBeforeRequest(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	t.Cleanup(server.Close)

	cfg := classifier.Config{BaseURL: server.URL}
	if err := cfg.Finalize(classifier.ConfigEnv{}); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	sys := classifier.New(&cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := sys.UploadFile(context.Background(), []byte("x"), "a.txt", "")
	if !errors.Is(err, classifier.ErrKeyNotConfigured) {
		t.Fatalf("error = %v, want ErrKeyNotConfigured", err)
	}
	if requests != 0 {
		t.Errorf("requests = %d, want 0", requests)
	}
}

func TestAnnotationRoundTrip(t *testing.T) {
	sys := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer ann-key" {
			t.Errorf("authorization = %q", auth)
		}

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/apps/annotations":
			var payload map[string]any
			json.NewDecoder(r.Body).Decode(&payload)
			json.NewEncoder(w).Encode(map[string]any{
				"id": "ann-1", "question": payload["question"], "answer": payload["answer"],
			})
		case r.Method == http.MethodDelete && r.URL.Path == "/apps/annotations/ann-1":
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))

	annotation, err := sys.PushAnnotation(context.Background(), "what is this", "a memo")
	if err != nil {
		t.Fatalf("push failed: %v", err)
	}
	if annotation.ID != "ann-1" {
		t.Errorf("id = %q, want ann-1", annotation.ID)
	}
	if annotation.Answer != "a memo" {
		t.Errorf("answer = %q", annotation.Answer)
	}

	if err := sys.DeleteAnnotation(context.Background(), "ann-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
}

func TestFileInputs(t *testing.T) {
	cfg := classifier.Config{ExtraParams: `{"channel": "batch"}`}
	if err := cfg.Finalize(classifier.ConfigEnv{}); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	sys := classifier.New(&cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	inputs := sys.FileInputs("file-1", "report.pdf", "alice", map[string]any{"priority": "high"})

	ref, ok := inputs["file_input"].(map[string]any)
	if !ok {
		t.Fatalf("file_input missing: %v", inputs)
	}
	if ref["upload_file_id"] != "file-1" || ref["transfer_method"] != "local_file" || ref["type"] != "document" {
		t.Errorf("file reference = %v", ref)
	}
	if inputs["filename"] != "report.pdf" || inputs["user"] != "alice" {
		t.Errorf("inputs = %v", inputs)
	}
	if inputs["channel"] != "batch" {
		t.Errorf("extra_params not merged: %v", inputs)
	}
	if inputs["priority"] != "high" {
		t.Errorf("caller extra not merged: %v", inputs)
	}
}
