package documents

import (
	"context"
	"io"

	"github.com/docrelay/docrelay/pkg/handlers"
	"github.com/docrelay/docrelay/pkg/pagination"
)

// System defines the public contract for document domain operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	Ingest(ctx context.Context, cmd IngestCommand) (*IngestResult, error)
	Replace(ctx context.Context, cmd ReplaceCommand) (*Document, error)
	Delete(ctx context.Context, fileID string) (*Document, error)
	Relabel(ctx context.Context, fileID, classification string, actor handlers.Actor) (*Document, error)

	Find(ctx context.Context, fileID string) (*Document, error)
	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Document], error)

	PlainText(ctx context.Context, fileID string) (string, error)
	OpenBlob(ctx context.Context, fileID string) (*Document, io.ReadCloser, error)
}
