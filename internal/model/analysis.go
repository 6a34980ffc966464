package model

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// OperationStatus is the state of an asynchronous analyze operation.
type OperationStatus string

const (
	OperationNotStarted OperationStatus = "NotStarted"
	OperationRunning    OperationStatus = "Running"
	OperationSucceeded  OperationStatus = "Succeeded"
	OperationFailed     OperationStatus = "Failed"
)

// Usage is the metered consumption the service reports for one analyzed
// document. Missing keys decode as zero.
type Usage struct {
	DocumentPages int        `json:"documentPages"`
	Tokens        TokenUsage `json:"tokens"`
}

// TokenUsage holds the token counts billed for field extraction and contextualization.
type TokenUsage struct {
	Input             int `json:"input"`
	Output            int `json:"output"`
	Contextualization int `json:"contextualization"`
}

// Total returns the sum of all token classes.
func (t TokenUsage) Total() int {
	return t.Input + t.Output + t.Contextualization
}

// AnalysisResult is the terminal payload of an analyze operation.
type AnalysisResult struct {
	ID     string          `json:"id"`
	Status OperationStatus `json:"status"`
	Result AnalysisPayload `json:"result"`
	Usage  Usage           `json:"usage"`
}

// AnalysisPayload is the "result" object of an analyze operation.
type AnalysisPayload struct {
	AnalyzerID string    `json:"analyzerId"`
	Contents   []Content `json:"contents"`
}

// Content is one analyzed content item. Only the field map is interpreted.
type Content struct {
	Markdown string                     `json:"markdown,omitempty"`
	Fields   map[string]json.RawMessage `json:"fields"`
}

// Fields decodes the extracted fields of the first content item. A result
// without contents has no fields.
func (r *AnalysisResult) Fields() (map[string]TypedValue, error) {
	if len(r.Result.Contents) == 0 {
		return map[string]TypedValue{}, nil
	}
	fields, err := DecodeFields(r.Result.Contents[0].Fields)
	if err != nil {
		return nil, eris.Wrapf(err, "model: analysis %s", r.ID)
	}
	return fields, nil
}

// ParseAnalysisResult decodes a raw operation response body.
func ParseAnalysisResult(data []byte) (*AnalysisResult, error) {
	var r AnalysisResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, eris.Wrap(err, "model: decode analysis result")
	}
	return &r, nil
}
