package documents

import (
	"errors"
	"testing"
)

func TestEffectiveStatus(t *testing.T) {
	errMsg := "workflow failed"
	empty := ""

	tests := []struct {
		name   string
		update StatusUpdate
		want   string
	}{
		{
			name:   "explicit status wins",
			update: StatusUpdate{Status: StatusUploaded, ErrorMessage: &errMsg},
			want:   StatusUploaded,
		},
		{
			name:   "no error infers classified",
			update: StatusUpdate{},
			want:   StatusClassified,
		},
		{
			name:   "empty error infers classified",
			update: StatusUpdate{ErrorMessage: &empty},
			want:   StatusClassified,
		},
		{
			name:   "error infers failure",
			update: StatusUpdate{ErrorMessage: &errMsg},
			want:   StatusClassificationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.update.effectiveStatus(); got != tt.want {
				t.Errorf("effectiveStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateExtension(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		allowed  map[string]bool
		wantErr  bool
	}{
		{name: "ingest pdf", filename: "report.pdf", allowed: ingestExtensions},
		{name: "ingest markdown", filename: "notes.md", allowed: ingestExtensions},
		{name: "case insensitive", filename: "REPORT.PDF", allowed: ingestExtensions},
		{name: "ingest rejects image", filename: "photo.png", allowed: ingestExtensions, wantErr: true},
		{name: "no extension", filename: "README", allowed: ingestExtensions, wantErr: true},
		{name: "replace rejects markdown", filename: "notes.md", allowed: replaceExtensions, wantErr: true},
		{name: "replace docx", filename: "draft.docx", allowed: replaceExtensions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateExtension(tt.filename, tt.allowed)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedType) {
					t.Errorf("error = %v, want ErrUnsupportedType", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
