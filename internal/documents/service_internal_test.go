package documents

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/docrelay/docrelay/internal/classifier"
	"github.com/docrelay/docrelay/pkg/handlers"
	"github.com/docrelay/docrelay/pkg/lifecycle"
	"github.com/docrelay/docrelay/pkg/pagination"
	"github.com/docrelay/docrelay/pkg/storage"
	"github.com/docrelay/docrelay/pkg/tasks"
)

type statusCall struct {
	fileID string
	update StatusUpdate
}

type replaceCall struct {
	fileID   string
	filename string
	path     string
}

// fakeRecords captures the persistence calls the orchestrator makes.
type fakeRecords struct {
	mu       sync.Mutex
	doc      *Document
	created  []CreateCommand
	updates  []statusCall
	replaced []replaceCall
	rekeyed  [][2]string
	deleted  []string
}

func (f *fakeRecords) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Document], error) {
	result := pagination.NewPageResult([]Document{}, 0, page)
	return &result, nil
}

func (f *fakeRecords) Find(ctx context.Context, fileID string) (*Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.doc == nil || f.doc.ExternalFileID != fileID {
		return nil, ErrNotFound
	}
	d := *f.doc
	return &d, nil
}

func (f *fakeRecords) create(ctx context.Context, cmd CreateCommand) (*Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, cmd)
	return &Document{
		ID:             1,
		Filename:       cmd.Filename,
		ExternalFileID: cmd.ExternalFileID,
		Status:         StatusUploaded,
	}, nil
}

func (f *fakeRecords) updateStatus(ctx context.Context, fileID string, update StatusUpdate) (*Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, statusCall{fileID: fileID, update: update})
	return &Document{ExternalFileID: fileID, Status: update.effectiveStatus()}, nil
}

func (f *fakeRecords) replaceFile(ctx context.Context, fileID, filename, path string, uploadedAt time.Time, access *string) (*Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaced = append(f.replaced, replaceCall{fileID: fileID, filename: filename, path: path})
	d := *f.doc
	d.Filename = filename
	d.FilePath = &path
	d.Status = StatusUploaded
	return &d, nil
}

func (f *fakeRecords) setExternalFile(ctx context.Context, fileID, newFileID string) (*Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rekeyed = append(f.rekeyed, [2]string{fileID, newFileID})
	d := *f.doc
	d.ExternalFileID = newFileID
	return &d, nil
}

func (f *fakeRecords) relabel(ctx context.Context, fileID, classification string) (*Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := *f.doc
	d.Classification = &classification
	return &d, nil
}

func (f *fakeRecords) deleteRecord(ctx context.Context, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, fileID)
	return nil
}

// classifierStub serves the two-step exchange. A non-zero status makes the
// corresponding step fail.
func classifierStub(fileID string, uploadStatus, workflowStatus int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/files/upload":
			if uploadStatus != 0 {
				http.Error(w, "upload rejected", uploadStatus)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"id": fileID, "name": "report.pdf", "created_at": 1700000000,
			})
		case "/workflows/run":
			if workflowStatus != 0 {
				http.Error(w, "workflow rejected", workflowStatus)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"workflow_run_id": "run-1",
				"data": map[string]any{
					"outputs": map[string]any{"text": `{"classification": "invoice"}`},
				},
			})
		}
	})
}

func newTestService(t *testing.T, records *fakeRecords, handler http.Handler) (*service, string) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	dir := t.TempDir()
	store, err := storage.New(&storage.Config{ContentDir: dir}, logger)
	if err != nil {
		t.Fatalf("storage init failed: %v", err)
	}

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := classifier.Config{BaseURL: server.URL, APIKey: "test-key"}
	if err := cfg.Finalize(classifier.ConfigEnv{}); err != nil {
		t.Fatalf("classifier config failed: %v", err)
	}

	tcfg := tasks.Config{}
	if err := tcfg.Finalize(tasks.ConfigEnv{}); err != nil {
		t.Fatalf("tasks config failed: %v", err)
	}
	runner := tasks.New(&tcfg, logger)
	runner.Start(lifecycle.New())

	return &service{
		records:    records,
		storage:    store,
		classifier: classifier.New(&cfg, logger),
		runner:     runner,
		logger:     logger,
	}, dir
}

func TestIngestSchedulesRecordWrites(t *testing.T) {
	records := &fakeRecords{}
	s, _ := newTestService(t, records, classifierStub("ext-1", 0, 0))

	result, err := s.Ingest(context.Background(), IngestCommand{
		Data:     []byte("content"),
		Filename: "report.pdf",
		Access:   "FREE",
		Actor:    handlers.Actor{Name: "alice"},
	})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if result.Failed {
		t.Errorf("result marked failed: %s", result.ErrorDetail)
	}
	if result.FileID != "ext-1" || result.Classification != "invoice" || result.WorkflowRunID != "run-1" {
		t.Errorf("result = %+v", result)
	}

	s.runner.Drain()

	if len(records.created) != 1 {
		t.Fatalf("created = %d records, want 1", len(records.created))
	}
	create := records.created[0]
	if create.ExternalFileID != "ext-1" || create.Username != "alice" {
		t.Errorf("create = %+v", create)
	}
	if ok, _ := s.storage.Exists(create.FilePath); !ok {
		t.Errorf("stored blob missing at %s", create.FilePath)
	}

	if len(records.updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(records.updates))
	}
	update := records.updates[0]
	if update.fileID != "ext-1" {
		t.Errorf("update keyed by %q, want ext-1", update.fileID)
	}
	if update.update.Classification == nil || *update.update.Classification != "invoice" {
		t.Errorf("update classification = %v", update.update.Classification)
	}
	if got := update.update.effectiveStatus(); got != StatusClassified {
		t.Errorf("update status = %q, want classified", got)
	}
	if update.update.RunID == nil || *update.update.RunID != "run-1" {
		t.Errorf("update run id = %v", update.update.RunID)
	}
}

func TestIngestWorkflowFailureStillAnswers(t *testing.T) {
	records := &fakeRecords{}
	s, _ := newTestService(t, records, classifierStub("ext-1", 0, http.StatusInternalServerError))

	result, err := s.Ingest(context.Background(), IngestCommand{
		Data:     []byte("content"),
		Filename: "report.pdf",
		Actor:    handlers.Actor{Name: "alice"},
	})
	if err != nil {
		t.Fatalf("ingest should not fail on workflow error, got %v", err)
	}
	if !result.Failed {
		t.Error("result not marked failed")
	}
	if result.Classification != classifier.LabelFailed {
		t.Errorf("classification = %q, want %q", result.Classification, classifier.LabelFailed)
	}
	if result.ErrorDetail == "" {
		t.Error("error detail missing")
	}

	s.runner.Drain()

	if len(records.created) != 1 {
		t.Errorf("created = %d records, want 1", len(records.created))
	}
	if len(records.updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(records.updates))
	}
	update := records.updates[0].update
	if update.Status != StatusClassificationFailed {
		t.Errorf("update status = %q, want classification_failed", update.Status)
	}
	if update.ErrorMessage == nil || *update.ErrorMessage == "" {
		t.Error("update error message missing")
	}
}

func TestIngestUploadFailureKeepsBlob(t *testing.T) {
	records := &fakeRecords{}
	s, dir := newTestService(t, records, classifierStub("ext-1", http.StatusBadGateway, 0))

	_, err := s.Ingest(context.Background(), IngestCommand{
		Data:     []byte("content"),
		Filename: "report.pdf",
		Actor:    handlers.Actor{Name: "alice"},
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	s.runner.Drain()

	if len(records.created) != 0 || len(records.updates) != 0 {
		t.Errorf("record writes scheduled after upload failure: %d creates, %d updates",
			len(records.created), len(records.updates))
	}
	if ok, _ := s.storage.Exists(filepath.Join(dir, "report.pdf")); !ok {
		t.Error("blob removed after upload failure")
	}
}

func TestDeleteProceedsPastMissingBlob(t *testing.T) {
	outside := filepath.Join(t.TempDir(), "ghost.pdf")
	records := &fakeRecords{
		doc: &Document{ExternalFileID: "ext-1", Username: "alice", FilePath: &outside},
	}
	s, _ := newTestService(t, records, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected classifier call: %s %s", r.Method, r.URL.Path)
	}))

	doc, err := s.Delete(context.Background(), "ext-1")
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if doc.ExternalFileID != "ext-1" {
		t.Errorf("deleted doc = %+v", doc)
	}
	if len(records.deleted) != 1 || records.deleted[0] != "ext-1" {
		t.Errorf("deleted records = %v, want [ext-1]", records.deleted)
	}
}

func TestReplaceResetsRecordAndRemovesOldBlob(t *testing.T) {
	records := &fakeRecords{}
	s, _ := newTestService(t, records, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected classifier call: %s %s", r.Method, r.URL.Path)
	}))

	oldPath, err := s.storage.Store([]byte("old"), "original.pdf")
	if err != nil {
		t.Fatalf("store fixture: %v", err)
	}
	classified := "invoice"
	records.doc = &Document{
		ExternalFileID: "ext-1",
		Username:       "alice",
		FilePath:       &oldPath,
		Classification: &classified,
		Status:         StatusClassified,
	}

	updated, err := s.Replace(context.Background(), ReplaceCommand{
		FileID:   "ext-1",
		Data:     []byte("new"),
		Filename: "revised.pdf",
		Actor:    handlers.Actor{Name: "alice"},
	})
	if err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if updated.Status != StatusUploaded {
		t.Errorf("status = %q, want uploaded", updated.Status)
	}

	if len(records.replaced) != 1 {
		t.Fatalf("replaceFile calls = %d, want 1", len(records.replaced))
	}
	stored := filepath.Base(records.replaced[0].path)
	if !strings.HasPrefix(stored, "repl_") || !strings.HasSuffix(stored, ".pdf") {
		t.Errorf("stored name = %q, want repl_<id>.pdf", stored)
	}
	if ok, _ := s.storage.Exists(records.replaced[0].path); !ok {
		t.Error("replacement blob missing")
	}
	if ok, _ := s.storage.Exists(oldPath); ok {
		t.Error("superseded blob still present")
	}
}

func TestReplaceReclassifyAdoptsNewFileID(t *testing.T) {
	records := &fakeRecords{}
	s, _ := newTestService(t, records, classifierStub("ext-2", 0, 0))

	oldPath, err := s.storage.Store([]byte("old"), "original.pdf")
	if err != nil {
		t.Fatalf("store fixture: %v", err)
	}
	records.doc = &Document{ExternalFileID: "ext-1", Username: "alice", FilePath: &oldPath}

	_, err = s.Replace(context.Background(), ReplaceCommand{
		FileID:     "ext-1",
		Data:       []byte("new"),
		Filename:   "revised.pdf",
		Reclassify: true,
		Actor:      handlers.Actor{Name: "alice"},
	})
	if err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	if len(records.rekeyed) != 1 || records.rekeyed[0] != [2]string{"ext-1", "ext-2"} {
		t.Errorf("rekeyed = %v, want [[ext-1 ext-2]]", records.rekeyed)
	}

	s.runner.Drain()

	if len(records.updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(records.updates))
	}
	update := records.updates[0]
	if update.fileID != "ext-2" {
		t.Errorf("update keyed by %q, want the new file id", update.fileID)
	}
	if update.update.Classification == nil || *update.update.Classification != "invoice" {
		t.Errorf("update classification = %v", update.update.Classification)
	}
}
