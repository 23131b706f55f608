package classifier_test

import (
	"testing"

	"github.com/docrelay/docrelay/internal/classifier"
)

func TestParseClassification(t *testing.T) {
	tests := []struct {
		name string
		data classifier.WorkflowData
		want string
	}{
		{
			name: "json text with classification field",
			data: classifier.WorkflowData{
				Outputs: map[string]any{"text": `{"classification": "invoice"}`},
			},
			want: "invoice",
		},
		{
			name: "json text with type field",
			data: classifier.WorkflowData{
				Outputs: map[string]any{"text": `{"type": "contract"}`},
			},
			want: "contract",
		},
		{
			name: "classification field wins over type",
			data: classifier.WorkflowData{
				Outputs: map[string]any{"text": `{"classification": "invoice", "type": "contract"}`},
			},
			want: "invoice",
		},
		{
			name: "fenced json text",
			data: classifier.WorkflowData{
				Outputs: map[string]any{"text": "```json\n{\"classification\": \"report\"}\n```"},
			},
			want: "report",
		},
		{
			name: "json object without usable fields",
			data: classifier.WorkflowData{
				Outputs: map[string]any{"text": `{"confidence": 0.9}`},
			},
			want: classifier.LabelUnclassified,
		},
		{
			name: "non-json text taken verbatim",
			data: classifier.WorkflowData{
				Outputs: map[string]any{"text": "手册"},
			},
			want: "手册",
		},
		{
			name: "non-json text trimmed",
			data: classifier.WorkflowData{
				Outputs: map[string]any{"text": "  manual  "},
			},
			want: "manual",
		},
		{
			name: "empty text falls back to envelope type",
			data: classifier.WorkflowData{
				Outputs: map[string]any{"text": "   "},
				Type:    "spreadsheet",
			},
			want: "spreadsheet",
		},
		{
			name: "envelope classification when type empty",
			data: classifier.WorkflowData{
				Classification: "memo",
			},
			want: "memo",
		},
		{
			name: "nothing resolves",
			data: classifier.WorkflowData{},
			want: classifier.LabelUnclassified,
		},
		{
			name: "non-string text ignored",
			data: classifier.WorkflowData{
				Outputs: map[string]any{"text": 42},
				Type:    "ledger",
			},
			want: "ledger",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifier.ParseClassification(tt.data); got != tt.want {
				t.Errorf("ParseClassification() = %q, want %q", got, tt.want)
			}
		})
	}
}
