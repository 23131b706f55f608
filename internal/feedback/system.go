package feedback

import (
	"context"

	"github.com/docrelay/docrelay/internal/classifier"
	"github.com/docrelay/docrelay/pkg/pagination"
)

// System defines the public contract for feedback domain operations.
type System interface {
	Handler() *Handler

	RunText(ctx context.Context, cmd RunTextCommand) (*RunTextResult, error)
	UpdateRating(ctx context.Context, commentID int64, rating string) (*Entry, error)

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Entry], error)

	Find(ctx context.Context, commentID int64) (*Entry, error)
	Aggregate(ctx context.Context) (*Stats, error)

	PushAnnotation(ctx context.Context, commentID int64) (*classifier.Annotation, error)
	GetAnnotation(ctx context.Context, commentID int64) (*classifier.Annotation, error)
	UpdateAnnotation(ctx context.Context, commentID int64, question, answer string) (*classifier.Annotation, error)
	DeleteAnnotation(ctx context.Context, commentID int64) error
}
