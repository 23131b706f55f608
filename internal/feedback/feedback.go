// Package feedback records chat-message runs against the classification
// service and their user ratings, and round-trips curated question/answer
// pairs to the service's annotation store.
package feedback

import (
	"time"

	"github.com/docrelay/docrelay/pkg/handlers"
)

// Entry is a recorded chat run with its rating state. CommentID is the
// stable caller-facing key, assigned sequentially from 100 upward.
type Entry struct {
	ID           int64     `json:"id"`
	CommentID    int64     `json:"comment_id"`
	ChatID       string    `json:"chat_id"`
	SessionID    string    `json:"session_id"`
	UserID       *string   `json:"user_id"`
	Question     string    `json:"question"`
	Answer       *string   `json:"answer"`
	FeedbackType *string   `json:"feedback_type"`
	AnnotationID *string   `json:"annotation_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Rating values accepted for an entry.
const (
	RatingGood         = "good"
	RatingNotSatisfied = "not_satisfied"
)

// RunTextCommand drives a blocking chat-message run.
type RunTextCommand struct {
	Query  string
	Inputs map[string]any
	Actor  handlers.Actor
}

// RunTextResult reports a completed chat run and its recorded entry.
type RunTextResult struct {
	CommentID      int64  `json:"comment_id"`
	Answer         string `json:"answer"`
	MessageID      string `json:"message_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	SessionID      string `json:"session_id"`
}

// Stats aggregates entries by rating.
type Stats struct {
	Total        int `json:"total"`
	Good         int `json:"good"`
	NotSatisfied int `json:"not_satisfied"`
	Unrated      int `json:"unrated"`
}
