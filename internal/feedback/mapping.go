package feedback

import (
	"net/url"
	"strconv"

	"github.com/docrelay/docrelay/pkg/query"
	"github.com/docrelay/docrelay/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "ai_feedback", "f").
	Project("id", "ID").
	Project("comment_id", "CommentID").
	Project("chat_id", "ChatID").
	Project("session_id", "SessionID").
	Project("user_id", "UserID").
	Project("question", "Question").
	Project("answer", "Answer").
	Project("feedback_type", "FeedbackType").
	Project("annotation_id", "AnnotationID").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

const entryColumns = `id, comment_id, chat_id, session_id, user_id, question,
	answer, feedback_type, annotation_id, created_at`

// Filters contains optional filtering criteria for feedback queries.
type Filters struct {
	FeedbackType *string `json:"feedback_type,omitempty"`
	UserID       *string `json:"user_id,omitempty"`
	ChatID       *string `json:"chat_id,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("FeedbackType", f.FeedbackType).
		WhereEquals("UserID", f.UserID).
		WhereEquals("ChatID", f.ChatID)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if ft := values.Get("feedback_type"); ft != "" {
		f.FeedbackType = &ft
	}

	if u := values.Get("user_id"); u != "" {
		f.UserID = &u
	}

	if c := values.Get("chat_id"); c != "" {
		f.ChatID = &c
	}

	return f
}

func parseCommentID(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

func scanEntry(s repository.Scanner) (Entry, error) {
	var e Entry
	err := s.Scan(
		&e.ID,
		&e.CommentID,
		&e.ChatID,
		&e.SessionID,
		&e.UserID,
		&e.Question,
		&e.Answer,
		&e.FeedbackType,
		&e.AnnotationID,
		&e.CreatedAt,
	)
	return e, err
}
