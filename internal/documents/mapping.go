package documents

import (
	"net/url"

	"github.com/docrelay/docrelay/pkg/query"
	"github.com/docrelay/docrelay/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "documents", "d").
	Project("id", "ID").
	Project("filename", "Filename").
	Project("file_path", "FilePath").
	Project("username", "Username").
	Project("external_file_id", "ExternalFileID").
	Project("external_run_id", "ExternalRunID").
	Project("classification", "Classification").
	Project("status", "Status").
	Project("access", "Access").
	Project("page_count", "PageCount").
	Project("error_message", "ErrorMessage").
	Project("uploaded_at", "UploadedAt").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// documentColumns is the unaliased column list returned by insert and update
// statements, in scanDocument order.
const documentColumns = `id, filename, file_path, username, external_file_id,
	external_run_id, classification, status, access, page_count, error_message,
	uploaded_at, created_at, updated_at`

// Filters contains optional filtering criteria for document queries.
// Nil fields are ignored. Username, Status, and Classification use exact
// matching; Filename uses case-insensitive contains matching.
type Filters struct {
	Username       *string `json:"username,omitempty"`
	Filename       *string `json:"filename,omitempty"`
	Status         *string `json:"status,omitempty"`
	Classification *string `json:"classification,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Username", f.Username).
		WhereContains("Filename", f.Filename).
		WhereEquals("Status", f.Status).
		WhereEquals("Classification", f.Classification)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if u := values.Get("username"); u != "" {
		f.Username = &u
	}

	if fn := values.Get("filename"); fn != "" {
		f.Filename = &fn
	}

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	if c := values.Get("classification"); c != "" {
		f.Classification = &c
	}

	return f
}

func scanDocument(s repository.Scanner) (Document, error) {
	var d Document
	err := s.Scan(
		&d.ID,
		&d.Filename,
		&d.FilePath,
		&d.Username,
		&d.ExternalFileID,
		&d.ExternalRunID,
		&d.Classification,
		&d.Status,
		&d.Access,
		&d.PageCount,
		&d.ErrorMessage,
		&d.UploadedAt,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	return d, err
}
