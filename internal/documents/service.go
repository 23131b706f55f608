package documents

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docrelay/docrelay/internal/classifier"
	"github.com/docrelay/docrelay/pkg/handlers"
	"github.com/docrelay/docrelay/pkg/pagination"
	"github.com/docrelay/docrelay/pkg/storage"
	"github.com/docrelay/docrelay/pkg/tasks"
)

// recordStore is the persistence surface the orchestrator drives. repo is
// the PostgreSQL implementation.
type recordStore interface {
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Document], error)
	Find(ctx context.Context, fileID string) (*Document, error)
	create(ctx context.Context, cmd CreateCommand) (*Document, error)
	updateStatus(ctx context.Context, fileID string, update StatusUpdate) (*Document, error)
	replaceFile(ctx context.Context, fileID, filename, path string, uploadedAt time.Time, access *string) (*Document, error)
	setExternalFile(ctx context.Context, fileID, newFileID string) (*Document, error)
	relabel(ctx context.Context, fileID, classification string) (*Document, error)
	deleteRecord(ctx context.Context, fileID string) error
}

// service orchestrates the ingest pipeline: blob storage, the two-step
// classification exchange, and deferred record persistence.
type service struct {
	records    recordStore
	storage    storage.System
	classifier classifier.System
	runner     *tasks.Runner
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates the document system.
func New(
	db *sql.DB,
	store storage.System,
	cls classifier.System,
	runner *tasks.Runner,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	logger = logger.With("system", "documents")
	return &service{
		records: &repo{
			db:         db,
			logger:     logger,
			pagination: pagination,
		},
		storage:    store,
		classifier: cls,
		runner:     runner,
		logger:     logger,
		pagination: pagination,
	}
}

func (s *service) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Document], error) {
	return s.records.List(ctx, page, filters)
}

func (s *service) Find(ctx context.Context, fileID string) (*Document, error) {
	return s.records.Find(ctx, fileID)
}

func (s *service) Handler(maxUploadSize int64) *Handler {
	return NewHandler(s, s.logger, s.pagination, maxUploadSize)
}

// Ingest stores the uploaded bytes locally, registers them with the
// classification service, and runs the blocking classification workflow.
// Record creation and the status update are deferred; a workflow failure is
// reported inline on the result rather than as an error, so the upload
// itself still succeeds.
func (s *service) Ingest(ctx context.Context, cmd IngestCommand) (*IngestResult, error) {
	if len(cmd.Data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", ErrInvalidFile)
	}
	if err := validateExtension(cmd.Filename, ingestExtensions); err != nil {
		return nil, err
	}

	path, err := s.storage.Store(cmd.Data, cmd.Filename)
	if err != nil {
		return nil, fmt.Errorf("store blob: %w", err)
	}

	ref, err := s.classifier.UploadFile(ctx, cmd.Data, cmd.Filename, cmd.Actor.Name)
	if err != nil {
		// The stored blob stays in place; no record references it yet and
		// reconciliation of orphaned blobs happens out of band.
		return nil, fmt.Errorf("upload to classification service: %w", err)
	}

	displayName := ref.Name
	if displayName == "" {
		displayName = cmd.Filename
	}

	create := CreateCommand{
		Filename:       displayName,
		FilePath:       path,
		Username:       cmd.Actor.Name,
		ExternalFileID: ref.ID,
		Access:         cmd.Access,
		PageCount:      cmd.PageCount,
		UploadedAt:     time.Now(),
	}

	s.schedule("create document record", func(taskCtx context.Context) error {
		_, err := s.records.create(taskCtx, create)
		if errors.Is(err, ErrDuplicate) {
			s.logger.Warn("document record already exists",
				"external_file_id", create.ExternalFileID,
			)
			return nil
		}
		return err
	})

	inputs := s.classifier.FileInputs(ref.ID, displayName, cmd.Actor.Name, map[string]any{
		"CourseDescription": displayName,
	})

	run, err := s.classifier.RunWorkflow(ctx, inputs, cmd.Actor.Name, classifier.PurposeFileWorkflow)
	if err != nil {
		if errors.Is(err, classifier.ErrKeyNotConfigured) {
			return nil, err
		}

		detail := err.Error()
		failed := classifier.LabelFailed
		s.schedule("record classification failure", func(taskCtx context.Context) error {
			_, uerr := s.records.updateStatus(taskCtx, ref.ID, StatusUpdate{
				Classification: &failed,
				ErrorMessage:   &detail,
				Status:         StatusClassificationFailed,
			})
			return uerr
		})

		return &IngestResult{
			Filename:       displayName,
			Classification: classifier.LabelFailed,
			Username:       cmd.Actor.Name,
			Access:         cmd.Access,
			UploadedAt:     ref.CreatedAt,
			FileID:         ref.ID,
			ErrorDetail:    detail,
			Failed:         true,
		}, nil
	}

	label := classifier.ParseClassification(run.Data)

	update := StatusUpdate{Classification: &label}
	if run.WorkflowRunID != "" {
		runID := run.WorkflowRunID
		update.RunID = &runID
	}
	s.schedule("record classification result", func(taskCtx context.Context) error {
		_, uerr := s.records.updateStatus(taskCtx, ref.ID, update)
		return uerr
	})

	return &IngestResult{
		Filename:       displayName,
		Classification: label,
		Username:       cmd.Actor.Name,
		Access:         cmd.Access,
		UploadedAt:     ref.CreatedAt,
		FileID:         ref.ID,
		WorkflowRunID:  run.WorkflowRunID,
	}, nil
}

// Replace swaps the stored file behind an existing record. The new blob is
// written under a fresh generated name, the record resets to uploaded, and
// the superseded blob is removed best-effort. With Reclassify set, the new
// bytes go back through the classification pipeline and the record adopts
// the new upload's file id.
func (s *service) Replace(ctx context.Context, cmd ReplaceCommand) (*Document, error) {
	doc, err := s.records.Find(ctx, cmd.FileID)
	if err != nil {
		return nil, err
	}
	if len(cmd.Data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", ErrInvalidFile)
	}
	if err := validateExtension(cmd.Filename, replaceExtensions); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(cmd.Filename))
	id := uuid.New()
	generated := fmt.Sprintf("repl_%s%s", hex.EncodeToString(id[:]), ext)

	path, err := s.storage.Store(cmd.Data, generated)
	if err != nil {
		return nil, fmt.Errorf("store replacement blob: %w", err)
	}

	updated, err := s.records.replaceFile(ctx, cmd.FileID, cmd.Filename, path, time.Now(), cmd.Access)
	if err != nil {
		return nil, err
	}

	if doc.FilePath != nil && *doc.FilePath != path {
		if delErr := s.storage.Delete(*doc.FilePath); delErr != nil {
			s.logger.Warn("superseded blob delete failed",
				"path", *doc.FilePath,
				"error", delErr,
			)
		}
	}

	if !cmd.Reclassify {
		return updated, nil
	}

	ref, err := s.classifier.UploadFile(ctx, cmd.Data, cmd.Filename, cmd.Actor.Name)
	if err != nil {
		return nil, fmt.Errorf("upload to classification service: %w", err)
	}

	updated, err = s.records.setExternalFile(ctx, cmd.FileID, ref.ID)
	if err != nil {
		return nil, err
	}

	inputs := s.classifier.FileInputs(ref.ID, cmd.Filename, cmd.Actor.Name, map[string]any{
		"CourseDescription": cmd.Filename,
	})

	run, err := s.classifier.RunWorkflow(ctx, inputs, cmd.Actor.Name, classifier.PurposeFileWorkflow)
	if err != nil {
		if errors.Is(err, classifier.ErrKeyNotConfigured) {
			return nil, err
		}

		detail := err.Error()
		failed := classifier.LabelFailed
		s.schedule("record reclassification failure", func(taskCtx context.Context) error {
			_, uerr := s.records.updateStatus(taskCtx, ref.ID, StatusUpdate{
				Classification: &failed,
				ErrorMessage:   &detail,
				Status:         StatusClassificationFailed,
			})
			return uerr
		})
		return updated, nil
	}

	label := classifier.ParseClassification(run.Data)
	update := StatusUpdate{Classification: &label}
	if run.WorkflowRunID != "" {
		runID := run.WorkflowRunID
		update.RunID = &runID
	}
	s.schedule("record reclassification result", func(taskCtx context.Context) error {
		_, uerr := s.records.updateStatus(taskCtx, ref.ID, update)
		return uerr
	})

	return updated, nil
}

// Delete removes the stored blob best-effort, then the record. A blob that
// is already gone does not block record deletion.
func (s *service) Delete(ctx context.Context, fileID string) (*Document, error) {
	doc, err := s.records.Find(ctx, fileID)
	if err != nil {
		return nil, err
	}

	if doc.FilePath != nil {
		if delErr := s.storage.Delete(*doc.FilePath); delErr != nil {
			s.logger.Warn("blob delete failed, removing record anyway",
				"path", *doc.FilePath,
				"error", delErr,
			)
		}
	}

	if err := s.records.deleteRecord(ctx, fileID); err != nil {
		return nil, err
	}
	return doc, nil
}

// Relabel manually overwrites a document's classification. Only the owner
// or an admin may relabel.
func (s *service) Relabel(ctx context.Context, fileID, classification string, actor handlers.Actor) (*Document, error) {
	if strings.TrimSpace(classification) == "" {
		return nil, fmt.Errorf("%w: classification required", ErrInvalidFile)
	}

	doc, err := s.records.Find(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && doc.Username != actor.Name {
		return nil, ErrForbidden
	}

	return s.records.relabel(ctx, fileID, classification)
}

// PlainText returns a text preview of the stored file.
func (s *service) PlainText(ctx context.Context, fileID string) (string, error) {
	doc, err := s.records.Find(ctx, fileID)
	if err != nil {
		return "", err
	}
	if doc.FilePath == nil {
		return "", ErrNoStoredFile
	}

	ext := strings.ToLower(filepath.Ext(*doc.FilePath))
	switch ext {
	case ".txt", ".md":
		data, err := s.storage.Read(*doc.FilePath)
		if err != nil {
			return "", err
		}
		return decodeText(data)
	case ".docx":
		data, err := s.storage.Read(*doc.FilePath)
		if err != nil {
			return "", err
		}
		return extractDocxText(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrPreviewUnsupported, ext)
	}
}

// OpenBlob returns the record and a stream of its stored bytes for download.
func (s *service) OpenBlob(ctx context.Context, fileID string) (*Document, io.ReadCloser, error) {
	doc, err := s.records.Find(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}
	if doc.FilePath == nil {
		return nil, nil, ErrNoStoredFile
	}

	rc, err := s.storage.Open(*doc.FilePath)
	if err != nil {
		return nil, nil, err
	}
	return doc, rc, nil
}

// schedule submits deferred work; a full or closed queue is logged, not
// surfaced to the caller.
func (s *service) schedule(name string, fn func(ctx context.Context) error) {
	if err := s.runner.Submit(tasks.Task{Name: name, Fn: fn}); err != nil {
		s.logger.Error("deferred task rejected", "task", name, "error", err)
	}
}

func validateExtension(filename string, allowed map[string]bool) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowed[ext] {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
	return nil
}
