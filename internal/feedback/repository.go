package feedback

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/docrelay/docrelay/internal/classifier"
	"github.com/docrelay/docrelay/pkg/pagination"
	"github.com/docrelay/docrelay/pkg/query"
	"github.com/docrelay/docrelay/pkg/repository"
)

// workbenchChatID tags entries created through the run-text endpoint.
const workbenchChatID = "workbench"

type repo struct {
	db         *sql.DB
	classifier classifier.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates the feedback system.
func New(
	db *sql.DB,
	cls classifier.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		classifier: cls,
		logger:     logger.With("system", "feedback"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

// RunText sends a blocking chat-message run and records the exchange.
func (r *repo) RunText(ctx context.Context, cmd RunTextCommand) (*RunTextResult, error) {
	if strings.TrimSpace(cmd.Query) == "" {
		return nil, fmt.Errorf("%w: query required", ErrInvalidInput)
	}

	chat, err := r.classifier.SendChatMessage(ctx, classifier.ChatRequest{
		Query:  cmd.Query,
		Inputs: cmd.Inputs,
		User:   cmd.Actor.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("send chat message: %w", err)
	}

	sessionID := chat.ConversationID
	if sessionID == "" {
		id := uuid.New()
		sessionID = "session_" + hex.EncodeToString(id[:])
	}

	entry, err := r.create(ctx, cmd, chat.Answer, sessionID)
	if err != nil {
		return nil, err
	}

	return &RunTextResult{
		CommentID:      entry.CommentID,
		Answer:         chat.Answer,
		MessageID:      chat.MessageID,
		ConversationID: chat.ConversationID,
		SessionID:      sessionID,
	}, nil
}

// create assigns the next comment id and inserts the entry. Comment ids
// start at 100.
func (r *repo) create(ctx context.Context, cmd RunTextCommand, answer, sessionID string) (*Entry, error) {
	q := `
		INSERT INTO ai_feedback(comment_id, chat_id, session_id, user_id, question, answer)
		VALUES (
			(SELECT COALESCE(MAX(comment_id), 99) + 1 FROM ai_feedback),
			$1, $2, $3, $4, $5
		)
		RETURNING ` + entryColumns

	args := []any{
		workbenchChatID,
		sessionID,
		nullable(cmd.Actor.Name),
		cmd.Query,
		nullable(answer),
	}

	e, err := repository.QueryOne(ctx, r.db, q, args, scanEntry)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("feedback entry created", "comment_id", e.CommentID)
	return &e, nil
}

// UpdateRating sets or clears an entry's rating. The literal "null" clears it.
func (r *repo) UpdateRating(ctx context.Context, commentID int64, rating string) (*Entry, error) {
	var value *string
	switch rating {
	case RatingGood, RatingNotSatisfied:
		value = &rating
	case "", "null":
		value = nil
	default:
		return nil, fmt.Errorf("%w: unknown rating %q", ErrInvalidInput, rating)
	}

	q := `
		UPDATE ai_feedback
		SET feedback_type = $2
		WHERE comment_id = $1
		RETURNING ` + entryColumns

	e, err := repository.QueryOne(ctx, r.db, q, []any{commentID, value}, scanEntry)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &e, nil
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Entry], error) {
	page.Normalize(r.pagination)

	qb := query.NewBuilder(projection, defaultSort)
	filters.Apply(qb)

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count feedback entries: %w", err)
	}

	pageSQL, pageArgs := qb.BuildWindow(page.Skip, page.Limit)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("query feedback entries: %w", err)
	}

	result := pagination.NewPageResult(items, total, page)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, commentID int64) (*Entry, error) {
	q, args := query.NewBuilder(projection).BuildSingle("CommentID", commentID)

	e, err := repository.QueryOne(ctx, r.db, q, args, scanEntry)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &e, nil
}

// Aggregate counts entries by rating.
func (r *repo) Aggregate(ctx context.Context) (*Stats, error) {
	q := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE feedback_type = $1),
			COUNT(*) FILTER (WHERE feedback_type = $2),
			COUNT(*) FILTER (WHERE feedback_type IS NULL)
		FROM ai_feedback`

	var stats Stats
	err := r.db.QueryRowContext(ctx, q, RatingGood, RatingNotSatisfied).Scan(
		&stats.Total,
		&stats.Good,
		&stats.NotSatisfied,
		&stats.Unrated,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate feedback: %w", err)
	}

	return &stats, nil
}

// PushAnnotation publishes an entry's question/answer pair to the service's
// annotation store and records the returned annotation id.
func (r *repo) PushAnnotation(ctx context.Context, commentID int64) (*classifier.Annotation, error) {
	entry, err := r.Find(ctx, commentID)
	if err != nil {
		return nil, err
	}

	answer := ""
	if entry.Answer != nil {
		answer = *entry.Answer
	}

	annotation, err := r.classifier.PushAnnotation(ctx, entry.Question, answer)
	if err != nil {
		return nil, fmt.Errorf("push annotation: %w", err)
	}

	err = repository.ExecExpectOne(
		ctx, r.db,
		"UPDATE ai_feedback SET annotation_id = $2 WHERE comment_id = $1",
		commentID, annotation.ID,
	)
	if err != nil {
		r.logger.Warn("annotation pushed but id not recorded",
			"comment_id", commentID,
			"annotation_id", annotation.ID,
			"error", err,
		)
	}

	return annotation, nil
}

func (r *repo) GetAnnotation(ctx context.Context, commentID int64) (*classifier.Annotation, error) {
	entry, err := r.Find(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if entry.AnnotationID == nil {
		return nil, ErrNoAnnotation
	}

	return r.classifier.GetAnnotation(ctx, *entry.AnnotationID)
}

func (r *repo) UpdateAnnotation(ctx context.Context, commentID int64, question, answer string) (*classifier.Annotation, error) {
	entry, err := r.Find(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if entry.AnnotationID == nil {
		return nil, ErrNoAnnotation
	}

	return r.classifier.UpdateAnnotation(ctx, *entry.AnnotationID, question, answer)
}

func (r *repo) DeleteAnnotation(ctx context.Context, commentID int64) error {
	entry, err := r.Find(ctx, commentID)
	if err != nil {
		return err
	}
	if entry.AnnotationID == nil {
		return ErrNoAnnotation
	}

	if err := r.classifier.DeleteAnnotation(ctx, *entry.AnnotationID); err != nil {
		return err
	}

	err = repository.ExecExpectOne(
		ctx, r.db,
		"UPDATE ai_feedback SET annotation_id = NULL WHERE comment_id = $1",
		commentID,
	)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
