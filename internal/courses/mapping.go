package courses

import (
	"net/url"

	"github.com/docrelay/docrelay/pkg/query"
	"github.com/docrelay/docrelay/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "courses", "c").
	Project("id", "ID").
	Project("title", "Title").
	Project("description", "Description").
	Project("generated_text", "GeneratedText").
	Project("username", "Username").
	Project("visibility", "Visibility").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

const courseColumns = `id, title, description, generated_text, username,
	visibility, created_at, updated_at`

// Filters contains optional filtering criteria for course queries.
// Nil fields are ignored. Username and Visibility use exact matching;
// Title uses case-insensitive contains matching.
type Filters struct {
	Username   *string `json:"username,omitempty"`
	Visibility *string `json:"visibility,omitempty"`
	Title      *string `json:"title,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Username", f.Username).
		WhereEquals("Visibility", f.Visibility).
		WhereContains("Title", f.Title)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if u := values.Get("username"); u != "" {
		f.Username = &u
	}

	if v := values.Get("visibility"); v != "" {
		f.Visibility = &v
	}

	if t := values.Get("title"); t != "" {
		f.Title = &t
	}

	return f
}

func scanCourse(s repository.Scanner) (Course, error) {
	var c Course
	err := s.Scan(
		&c.ID,
		&c.Title,
		&c.Description,
		&c.GeneratedText,
		&c.Username,
		&c.Visibility,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}
