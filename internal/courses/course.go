// Package courses implements text-driven workflow runs whose generated
// output is stored as course records.
package courses

import (
	"time"

	"github.com/docrelay/docrelay/pkg/handlers"
)

// Course represents a stored workflow generation.
type Course struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Description   *string    `json:"description"`
	GeneratedText *string    `json:"generated_text"`
	Username      string     `json:"username"`
	Visibility    string     `json:"visibility"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`
}

// Course visibility states.
const (
	VisibilityDraft     = "draft"
	VisibilityPublished = "published"
)

// WorkflowCommand drives a course-generation workflow run.
type WorkflowCommand struct {
	Title       string
	Description string
	Visibility  string
	Actor       handlers.Actor
}

// WorkflowOutcome reports a completed workflow run. The run result is
// answered even when persisting the course record failed; DatabaseError
// carries that degradation.
type WorkflowOutcome struct {
	Course        *Course `json:"course,omitempty"`
	WorkflowRunID string  `json:"workflow_run_id,omitempty"`
	TaskID        string  `json:"task_id,omitempty"`
	GeneratedText string  `json:"generated_text"`
	DatabaseError string  `json:"database_error,omitempty"`
}

// UpdateCommand carries a partial course update. Nil fields are unchanged.
type UpdateCommand struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Visibility  *string `json:"visibility"`
}
