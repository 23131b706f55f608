package documents

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/docrelay/docrelay/pkg/pagination"
	"github.com/docrelay/docrelay/pkg/query"
	"github.com/docrelay/docrelay/pkg/repository"
)

// repo is the document record store. Orchestration lives in service.go;
// everything here is plain persistence keyed by external file id.
type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Document], error) {
	page.Normalize(r.pagination)

	qb := query.NewBuilder(projection, defaultSort)
	filters.Apply(qb)

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	pageSQL, pageArgs := qb.BuildWindow(page.Skip, page.Limit)
	docs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	result := pagination.NewPageResult(docs, total, page)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, fileID string) (*Document, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ExternalFileID", fileID)

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &d, nil
}

func (r *repo) create(ctx context.Context, cmd CreateCommand) (*Document, error) {
	q := `
		INSERT INTO documents(filename, file_path, username, external_file_id, access, page_count, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + documentColumns

	args := []any{
		cmd.Filename,
		cmd.FilePath,
		cmd.Username,
		cmd.ExternalFileID,
		nullable(cmd.Access),
		cmd.PageCount,
		cmd.UploadedAt,
	}

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("document record created",
		"id", d.ID,
		"external_file_id", d.ExternalFileID,
		"filename", d.Filename,
	)
	return &d, nil
}

// updateStatus records a classification outcome. A classified document never
// carries an error message.
func (r *repo) updateStatus(ctx context.Context, fileID string, update StatusUpdate) (*Document, error) {
	status := update.effectiveStatus()

	var errMsg *string
	if status != StatusClassified {
		errMsg = update.ErrorMessage
	}

	q := `
		UPDATE documents
		SET classification = COALESCE($2, classification),
			external_run_id = COALESCE($3, external_run_id),
			status = $4,
			error_message = $5,
			updated_at = now()
		WHERE external_file_id = $1
		RETURNING ` + documentColumns

	args := []any{fileID, update.Classification, update.RunID, status, errMsg}

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("document status updated",
		"external_file_id", fileID,
		"status", d.Status,
	)
	return &d, nil
}

// replaceFile swaps the stored file metadata and resets the record to
// uploaded. The classification outcome is rewritten separately when the
// caller reclassifies.
func (r *repo) replaceFile(ctx context.Context, fileID, filename, path string, uploadedAt time.Time, access *string) (*Document, error) {
	q := `
		UPDATE documents
		SET filename = $2,
			file_path = $3,
			uploaded_at = $4,
			access = COALESCE($5, access),
			status = $6,
			updated_at = now()
		WHERE external_file_id = $1
		RETURNING ` + documentColumns

	args := []any{fileID, filename, path, uploadedAt, access, StatusUploaded}

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &d, nil
}

// setExternalFile re-keys the record to a new upload's file id.
func (r *repo) setExternalFile(ctx context.Context, fileID, newFileID string) (*Document, error) {
	q := `
		UPDATE documents
		SET external_file_id = $2,
			external_run_id = NULL,
			updated_at = now()
		WHERE external_file_id = $1
		RETURNING ` + documentColumns

	d, err := repository.QueryOne(ctx, r.db, q, []any{fileID, newFileID}, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &d, nil
}

// relabel overwrites the classification. A record stuck in
// classification_failed flips back to classified and sheds its error message.
func (r *repo) relabel(ctx context.Context, fileID, classification string) (*Document, error) {
	q := `
		UPDATE documents
		SET classification = $2,
			error_message = CASE WHEN status = $3 THEN NULL ELSE error_message END,
			status = CASE WHEN status = $3 THEN $4 ELSE status END,
			updated_at = now()
		WHERE external_file_id = $1
		RETURNING ` + documentColumns

	args := []any{fileID, classification, StatusClassificationFailed, StatusClassified}

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &d, nil
}

func (r *repo) deleteRecord(ctx context.Context, fileID string) error {
	err := repository.ExecExpectOne(
		ctx, r.db,
		"DELETE FROM documents WHERE external_file_id = $1",
		fileID,
	)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("document record deleted", "external_file_id", fileID)
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
