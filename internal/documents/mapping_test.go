package documents_test

import (
	"net/url"
	"testing"

	"github.com/docrelay/docrelay/internal/documents"
)

func TestFiltersFromQuery(t *testing.T) {
	values := url.Values{}
	values.Set("username", "alice")
	values.Set("filename", "report")
	values.Set("status", documents.StatusClassified)

	f := documents.FiltersFromQuery(values)

	if f.Username == nil || *f.Username != "alice" {
		t.Errorf("username = %v, want alice", f.Username)
	}
	if f.Filename == nil || *f.Filename != "report" {
		t.Errorf("filename = %v, want report", f.Filename)
	}
	if f.Status == nil || *f.Status != documents.StatusClassified {
		t.Errorf("status = %v, want classified", f.Status)
	}
	if f.Classification != nil {
		t.Errorf("classification = %v, want nil", f.Classification)
	}
}

func TestFiltersFromQueryEmpty(t *testing.T) {
	f := documents.FiltersFromQuery(url.Values{})

	if f.Username != nil || f.Filename != nil || f.Status != nil || f.Classification != nil {
		t.Errorf("filters = %+v, want all nil", f)
	}
}
