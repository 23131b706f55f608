package classifier

import (
	"strings"

	"github.com/docrelay/docrelay/pkg/formatting"
)

// Labels surfaced to callers when a workflow run yields no usable result.
// The values match what the downstream workflow emits.
const (
	LabelUnclassified = "未分类"
	LabelFailed       = "分类失败"
)

// WorkflowData is the data section of a workflow-run response.
type WorkflowData struct {
	Outputs        map[string]any `json:"outputs"`
	Type           string         `json:"type"`
	Classification string         `json:"classification"`
}

type classificationFields struct {
	Classification string `json:"classification"`
	Type           string `json:"type"`
}

// ParseClassification resolves a classification label from workflow output.
// The outputs.text value is tried first as JSON carrying a classification or
// type field, then taken verbatim as the label. Absent usable text, the
// envelope-level type and classification fields are consulted. When nothing
// resolves, the unclassified label is returned.
func ParseClassification(data WorkflowData) string {
	if text, ok := data.Outputs["text"].(string); ok && strings.TrimSpace(text) != "" {
		parsed, err := formatting.Parse[classificationFields](text)
		if err != nil {
			return strings.TrimSpace(text)
		}
		if parsed.Classification != "" {
			return parsed.Classification
		}
		if parsed.Type != "" {
			return parsed.Type
		}
		return LabelUnclassified
	}

	if data.Type != "" {
		return data.Type
	}
	if data.Classification != "" {
		return data.Classification
	}
	return LabelUnclassified
}
