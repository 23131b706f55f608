package api

import (
	"github.com/docrelay/docrelay/internal/courses"
	"github.com/docrelay/docrelay/internal/documents"
	"github.com/docrelay/docrelay/internal/feedback"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Documents documents.System
	Courses   courses.System
	Feedback  feedback.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	docsSystem := documents.New(
		runtime.Database.Connection(),
		runtime.Storage,
		runtime.Classifier,
		runtime.Tasks,
		runtime.Logger,
		runtime.Pagination,
	)

	coursesSystem := courses.New(
		runtime.Database.Connection(),
		runtime.Classifier,
		runtime.Logger,
		runtime.Pagination,
	)

	feedbackSystem := feedback.New(
		runtime.Database.Connection(),
		runtime.Classifier,
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Documents: docsSystem,
		Courses:   coursesSystem,
		Feedback:  feedbackSystem,
	}
}
