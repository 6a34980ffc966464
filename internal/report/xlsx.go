package report

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/cu-eval/internal/scorer"
)

// Workbook sheet names.
const (
	SheetSummary   = "Summary"
	SheetCosts     = "Costs"
	SheetDocuments = "Documents"
	SheetFields    = "Fields"
)

// RenderXLSX writes the report tables as a workbook with Summary, Costs,
// Documents and Fields sheets. Documents and Fields are empty apart from
// their header row when nothing was scored.
func RenderXLSX(w io.Writer, r *Report) error {
	f := xlsx.NewFile()

	summary, err := f.AddSheet(SheetSummary)
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}
	md, s := r.Metadata, r.Summary
	addStrings(summary, "Run ID", md.RunID)
	addStrings(summary, "Date", md.Date)
	addStrings(summary, "Analyzer ID", md.AnalyzerID)
	addStrings(summary, "Mode", md.Mode)
	addStrings(summary, "Schema", md.SchemaFile)
	addInt(summary, "Documents Analyzed", s.DocumentsAnalyzed)
	addInt(summary, "Total Fields Tested", s.TotalFieldsTested)
	addFloat(summary, "Overall Accuracy (%)", s.OverallAccuracy)
	addInt(summary, "Field Passes", s.FieldPasses)
	addInt(summary, "Field Failures", s.FieldFailures)
	addFloat(summary, "Total Cost (USD)", r.Costs.Aggregate.Total())

	costs, err := f.AddSheet(SheetCosts)
	if err != nil {
		return eris.Wrap(err, "report: add costs sheet")
	}
	addStrings(costs, "Document", "Pages", "Input Tokens", "Output Tokens", "Context Tokens",
		"Content Extraction", "Field Extraction", "Contextualization", "Total")
	for _, dc := range r.Costs.PerDocument {
		row := costs.AddRow()
		row.AddCell().SetString(dc.Document)
		row.AddCell().SetInt(dc.Usage.DocumentPages)
		row.AddCell().SetInt(dc.Usage.Tokens.Input)
		row.AddCell().SetInt(dc.Usage.Tokens.Output)
		row.AddCell().SetInt(dc.Usage.Tokens.Contextualization)
		row.AddCell().SetFloat(dc.Costs.ContentExtraction)
		row.AddCell().SetFloat(dc.Costs.FieldExtraction)
		row.AddCell().SetFloat(dc.Costs.Contextualization)
		row.AddCell().SetFloat(dc.Costs.Total())
	}
	agg := r.Costs.Aggregate
	row := costs.AddRow()
	row.AddCell().SetString("Total")
	for i := 0; i < 4; i++ {
		row.AddCell()
	}
	row.AddCell().SetFloat(agg.ContentExtraction)
	row.AddCell().SetFloat(agg.FieldExtraction)
	row.AddCell().SetFloat(agg.Contextualization)
	row.AddCell().SetFloat(agg.Total())

	docs, err := f.AddSheet(SheetDocuments)
	if err != nil {
		return eris.Wrap(err, "report: add documents sheet")
	}
	addStrings(docs, "Document", "Field", "Expected", "Actual", "Status")
	for _, sheet := range r.Results.DocumentLevel {
		for _, name := range sheet.FieldNames() {
			fs := sheet.Fields[name]
			addStrings(docs, sheet.Doc, name, scorer.StringForm(fs.Expected), scorer.StringForm(fs.Actual), string(fs.Status))
		}
	}

	fields, err := f.AddSheet(SheetFields)
	if err != nil {
		return eris.Wrap(err, "report: add fields sheet")
	}
	addStrings(fields, "Field", "Total Tests", "Accuracy (%)", "Passes", "Failures")
	for _, a := range r.Results.FieldPerformance {
		row := fields.AddRow()
		row.AddCell().SetString(a.Field)
		row.AddCell().SetInt(a.Total())
		row.AddCell().SetFloat(a.Accuracy())
		row.AddCell().SetInt(a.Passes)
		row.AddCell().SetInt(a.Fails)
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "report: write xlsx")
	}
	return nil
}

func addStrings(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func addInt(sheet *xlsx.Sheet, label string, v int) {
	row := sheet.AddRow()
	row.AddCell().SetString(label)
	row.AddCell().SetInt(v)
}

func addFloat(sheet *xlsx.Sheet, label string, v float64) {
	row := sheet.AddRow()
	row.AddCell().SetString(label)
	row.AddCell().SetFloat(v)
}
