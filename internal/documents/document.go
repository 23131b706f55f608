// Package documents implements the document domain: ingestion of uploaded
// files into local blob storage, two-step classification through the
// external classification service, and the PostgreSQL record store that
// tracks each document's state. Record creation and classification status
// updates are deferred to the task runner; the caller is answered as soon as
// the synchronous work has completed.
package documents

import (
	"time"

	"github.com/docrelay/docrelay/pkg/handlers"
)

// Document represents a tracked document record.
type Document struct {
	ID             int64      `json:"id"`
	Filename       string     `json:"filename"`
	FilePath       *string    `json:"file_path"`
	Username       string     `json:"username"`
	ExternalFileID string     `json:"external_file_id"`
	ExternalRunID  *string    `json:"external_run_id"`
	Classification *string    `json:"classification"`
	Status         string     `json:"status"`
	Access         *string    `json:"access"`
	PageCount      *int       `json:"page_count"`
	ErrorMessage   *string    `json:"error_message"`
	UploadedAt     time.Time  `json:"uploaded_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
}

// Document lifecycle statuses.
const (
	StatusUploaded             = "uploaded"
	StatusClassified           = "classified"
	StatusClassificationFailed = "classification_failed"
)

var ingestExtensions = map[string]bool{
	".txt":  true,
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".md":   true,
	".rtf":  true,
}

var replaceExtensions = map[string]bool{
	".txt":  true,
	".doc":  true,
	".docx": true,
	".pdf":  true,
}

// IngestCommand carries an uploaded file into the ingest pipeline.
type IngestCommand struct {
	Data        []byte
	Filename    string
	ContentType string
	Access      string
	PageCount   *int
	Actor       handlers.Actor
}

// IngestResult is the caller-facing outcome of an ingest. A workflow-step
// failure does not fail the ingest; Failed reports the degradation and
// ErrorDetail carries its cause.
type IngestResult struct {
	Filename       string `json:"filename"`
	Classification string `json:"classification"`
	Username       string `json:"username"`
	Access         string `json:"access"`
	UploadedAt     int64  `json:"upload_time,omitempty"`
	FileID         string `json:"file_id"`
	WorkflowRunID  string `json:"workflow_run_id,omitempty"`
	ErrorDetail    string `json:"error,omitempty"`

	Failed bool `json:"-"`
}

// ReplaceCommand swaps the stored file behind an existing document record.
// When Reclassify is set, the new bytes are re-submitted through the
// classification pipeline and the record adopts the new external file id.
type ReplaceCommand struct {
	FileID      string
	Data        []byte
	Filename    string
	ContentType string
	Access      *string
	Reclassify  bool
	Actor       handlers.Actor
}

// CreateCommand carries a deferred record creation.
type CreateCommand struct {
	Filename       string
	FilePath       string
	Username       string
	ExternalFileID string
	Access         string
	PageCount      *int
	UploadedAt     time.Time
}

// StatusUpdate carries a deferred classification outcome keyed by external
// file id. When Status is empty it is inferred: classified when ErrorMessage
// is empty, classification_failed otherwise.
type StatusUpdate struct {
	Classification *string
	RunID          *string
	ErrorMessage   *string
	Status         string
}

func (u StatusUpdate) effectiveStatus() string {
	if u.Status != "" {
		return u.Status
	}
	if u.ErrorMessage == nil || *u.ErrorMessage == "" {
		return StatusClassified
	}
	return StatusClassificationFailed
}
