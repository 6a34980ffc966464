// Package report assembles the evaluation report for a run and renders it
// as JSON, Markdown and XLSX artifacts.
package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sells-group/cu-eval/internal/cost"
	"github.com/sells-group/cu-eval/internal/model"
	"github.com/sells-group/cu-eval/internal/scorer"
)

const (
	timestampLayout = "20060102_150405"
	dateLayout      = "2006-01-02 15:04:05"
)

// Report is the full evaluation report of one run. It is built once and
// never mutated by the renderers.
type Report struct {
	Metadata       Metadata        `json:"metadata"`
	Summary        model.Summary   `json:"summary"`
	Costs          Costs           `json:"costs"`
	Results        Results         `json:"results"`
	AnalyzerConfig json.RawMessage `json:"analyzer_config"`

	// Spreadsheet marks that an XLSX artifact accompanies the report.
	Spreadsheet bool `json:"-"`
}

// Metadata identifies the run.
type Metadata struct {
	RunID      string `json:"run_id"`
	RunNumber  int    `json:"run_number"`
	Timestamp  string `json:"timestamp"`
	Date       string `json:"date"`
	AnalyzerID string `json:"analyzer_id"`
	Mode       string `json:"mode"`
	SchemaFile string `json:"schema_file"`
}

// Costs holds the aggregate and per-document cost figures.
type Costs struct {
	Aggregate   cost.Breakdown      `json:"aggregate"`
	PerDocument []cost.DocumentCost `json:"per_document"`
	Mode        string              `json:"mode"`
	Rates       cost.Rates          `json:"rates"`
}

// Results holds the accuracy figures.
type Results struct {
	DocumentLevel    []model.DocumentScoreSheet `json:"document_level"`
	FieldPerformance model.FieldPerformance     `json:"field_performance"`
}

// Input is everything Build needs from a finished run.
type Input struct {
	RunNumber      int
	At             time.Time
	AnalyzerID     string
	Mode           cost.Mode
	SchemaFile     string
	Rates          cost.Rates
	Sheets         []model.DocumentScoreSheet
	Costs          []cost.DocumentCost
	AnalyzerConfig json.RawMessage
}

// RunLabel formats a run number as run_NNN.
func RunLabel(n int) string {
	return fmt.Sprintf("run_%03d", n)
}

// Build derives the summary, field performance and aggregate cost from in
// and assembles the report.
func Build(in Input) *Report {
	sheets := in.Sheets
	if sheets == nil {
		sheets = []model.DocumentScoreSheet{}
	}
	costs := in.Costs
	if costs == nil {
		costs = []cost.DocumentCost{}
	}

	return &Report{
		Metadata: Metadata{
			RunID:      RunLabel(in.RunNumber),
			RunNumber:  in.RunNumber,
			Timestamp:  in.At.Format(timestampLayout),
			Date:       in.At.Format(dateLayout),
			AnalyzerID: in.AnalyzerID,
			Mode:       string(in.Mode),
			SchemaFile: in.SchemaFile,
		},
		Summary: scorer.Summarize(sheets, costs),
		Costs: Costs{
			Aggregate:   cost.Totals(costs),
			PerDocument: costs,
			Mode:        string(in.Mode),
			Rates:       in.Rates,
		},
		Results: Results{
			DocumentLevel:    sheets,
			FieldPerformance: scorer.AggregateFields(sheets),
		},
		AnalyzerConfig: in.AnalyzerConfig,
	}
}

// Scored reports whether any document was scored against ground truth.
func (r *Report) Scored() bool {
	return len(r.Results.DocumentLevel) > 0
}
