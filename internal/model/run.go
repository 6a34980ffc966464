package model

import "time"

// RunStatus represents the lifecycle state of an evaluation run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is the history record of one evaluation run.
type Run struct {
	ID           string    `json:"id"`
	Label        string    `json:"label"`
	AnalyzerID   string    `json:"analyzer_id"`
	Mode         string    `json:"mode"`
	Status       RunStatus `json:"status"`
	Documents    int       `json:"documents"`
	FieldsTested int       `json:"fields_tested"`
	Accuracy     float64   `json:"accuracy"`
	TotalCost    float64   `json:"total_cost"`
	ReportDir    string    `json:"report_dir,omitempty"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RunOutcome carries the figures recorded when a run completes.
type RunOutcome struct {
	Summary   Summary
	TotalCost float64
	ReportDir string
	Documents []DocumentRecord
}

// DocumentRecord is the per-document row stored with a completed run.
// Accuracy is nil for documents without ground truth.
type DocumentRecord struct {
	RunID         string   `json:"run_id"`
	Document      string   `json:"document"`
	Pages         int      `json:"pages"`
	InputTokens   int      `json:"input_tokens"`
	OutputTokens  int      `json:"output_tokens"`
	ContextTokens int      `json:"context_tokens"`
	Cost          float64  `json:"cost"`
	Accuracy      *float64 `json:"accuracy,omitempty"`
}
