package courses

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/docrelay/docrelay/internal/classifier"
	"github.com/docrelay/docrelay/pkg/handlers"
	"github.com/docrelay/docrelay/pkg/pagination"
	"github.com/docrelay/docrelay/pkg/query"
	"github.com/docrelay/docrelay/pkg/repository"
)

type repo struct {
	db         *sql.DB
	classifier classifier.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates the course system.
func New(
	db *sql.DB,
	cls classifier.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		classifier: cls,
		logger:     logger.With("system", "courses"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

// StartWorkflow runs the course-generation workflow and stores the result.
// The workflow outcome is answered even when persistence fails; the record
// failure is reported inline.
func (r *repo) StartWorkflow(ctx context.Context, cmd WorkflowCommand) (*WorkflowOutcome, error) {
	if strings.TrimSpace(cmd.Title) == "" {
		return nil, fmt.Errorf("%w: title required", ErrInvalidInput)
	}

	visibility := cmd.Visibility
	if visibility == "" {
		visibility = VisibilityDraft
	}
	if visibility != VisibilityDraft && visibility != VisibilityPublished {
		return nil, fmt.Errorf("%w: unknown visibility %q", ErrInvalidInput, visibility)
	}

	inputs := map[string]any{
		"title":             cmd.Title,
		"CourseDescription": cmd.Description,
		"visibility":        visibility,
	}

	run, err := r.classifier.RunWorkflow(ctx, inputs, cmd.Actor.Name, classifier.PurposeWorkflow)
	if err != nil {
		return nil, fmt.Errorf("run course workflow: %w", err)
	}

	generated, _ := run.Data.Outputs["text"].(string)

	outcome := &WorkflowOutcome{
		WorkflowRunID: run.WorkflowRunID,
		TaskID:        run.TaskID,
		GeneratedText: generated,
	}

	course, err := r.create(ctx, cmd, visibility, generated)
	if err != nil {
		r.logger.Warn("course record creation failed after workflow",
			"title", cmd.Title,
			"error", err,
		)
		outcome.DatabaseError = err.Error()
		return outcome, nil
	}

	outcome.Course = course
	return outcome, nil
}

func (r *repo) create(ctx context.Context, cmd WorkflowCommand, visibility, generated string) (*Course, error) {
	q := `
		INSERT INTO courses(title, description, generated_text, username, visibility)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + courseColumns

	args := []any{
		cmd.Title,
		nullable(cmd.Description),
		nullable(generated),
		cmd.Actor.Name,
		visibility,
	}

	c, err := repository.QueryOne(ctx, r.db, q, args, scanCourse)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("course created", "id", c.ID, "title", c.Title)
	return &c, nil
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Course], error) {
	page.Normalize(r.pagination)

	qb := query.NewBuilder(projection, defaultSort)
	filters.Apply(qb)

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count courses: %w", err)
	}

	pageSQL, pageArgs := qb.BuildWindow(page.Skip, page.Limit)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanCourse)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}

	result := pagination.NewPageResult(items, total, page)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id int64) (*Course, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	c, err := repository.QueryOne(ctx, r.db, q, args, scanCourse)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

func (r *repo) Update(ctx context.Context, id int64, cmd UpdateCommand, actor handlers.Actor) (*Course, error) {
	course, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && course.Username != actor.Name {
		return nil, ErrForbidden
	}

	if cmd.Visibility != nil &&
		*cmd.Visibility != VisibilityDraft &&
		*cmd.Visibility != VisibilityPublished {
		return nil, fmt.Errorf("%w: unknown visibility %q", ErrInvalidInput, *cmd.Visibility)
	}

	q := `
		UPDATE courses
		SET title = COALESCE($2, title),
			description = COALESCE($3, description),
			visibility = COALESCE($4, visibility),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + courseColumns

	c, err := repository.QueryOne(ctx, r.db, q, []any{id, cmd.Title, cmd.Description, cmd.Visibility}, scanCourse)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

func (r *repo) Delete(ctx context.Context, id int64, actor handlers.Actor) error {
	course, err := r.Find(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && course.Username != actor.Name {
		return ErrForbidden
	}

	err = repository.ExecExpectOne(ctx, r.db, "DELETE FROM courses WHERE id = $1", id)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("course deleted", "id", id)
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
