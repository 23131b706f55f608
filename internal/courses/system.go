package courses

import (
	"context"

	"github.com/docrelay/docrelay/pkg/handlers"
	"github.com/docrelay/docrelay/pkg/pagination"
)

// System defines the public contract for course domain operations.
type System interface {
	Handler() *Handler

	StartWorkflow(ctx context.Context, cmd WorkflowCommand) (*WorkflowOutcome, error)

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Course], error)

	Find(ctx context.Context, id int64) (*Course, error)
	Update(ctx context.Context, id int64, cmd UpdateCommand, actor handlers.Actor) (*Course, error)
	Delete(ctx context.Context, id int64, actor handlers.Actor) error
}
