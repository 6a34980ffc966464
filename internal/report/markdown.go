package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/cu-eval/internal/cost"
	"github.com/sells-group/cu-eval/internal/model"
	"github.com/sells-group/cu-eval/internal/scorer"
)

// Artifact file names inside a run folder.
const (
	MarkdownFile = "evaluation_report.md"
	JSONFile     = "evaluation_report.json"
	XLSXFile     = "evaluation_report.xlsx"
)

// tokenPrinter groups thousands in token counts.
var tokenPrinter = message.NewPrinter(language.English)

// mdWriter accumulates the first write error so the renderer reads as a
// straight sequence of lines.
type mdWriter struct {
	w   io.Writer
	err error
}

func (m *mdWriter) printf(format string, args ...any) {
	if m.err != nil {
		return
	}
	_, m.err = fmt.Fprintf(m.w, format, args...)
}

func (m *mdWriter) line(s string) {
	m.printf("%s\n", s)
}

// RenderMarkdown writes the human-readable report. Accuracy sections are
// emitted only when at least one document was scored.
func RenderMarkdown(w io.Writer, r *Report) error {
	m := &mdWriter{w: w}

	writeHeader(m, r)
	writeSummary(m, r)
	writeCosts(m, r)
	writePricing(m, r)

	if r.Scored() {
		writeDocumentResults(m, r)
		writeFieldPerformance(m, r.Results.FieldPerformance)
		writeDetails(m, r)
	}

	writeAnalyzerConfig(m, r.AnalyzerConfig)
	writeFiles(m, r)

	return m.err
}

func writeHeader(m *mdWriter, r *Report) {
	md := r.Metadata
	m.line("# Document Analyzer Evaluation Report")
	m.line("")
	m.printf("**Evaluation Run ID:** %s  \n", md.RunID)
	m.printf("**Date:** %s  \n", md.Date)
	m.printf("**Analyzer ID:** %s  \n", md.AnalyzerID)
	m.printf("**Mode:** %s  \n", md.Mode)
	m.printf("**Schema:** %s  \n", md.SchemaFile)
	m.line("")
}

func writeSummary(m *mdWriter, r *Report) {
	s := r.Summary
	m.line("## Summary")
	m.line("")
	m.printf("- **Documents Analyzed:** %d\n", s.DocumentsAnalyzed)
	m.printf("- **Total Fields Tested:** %d\n", s.TotalFieldsTested)
	m.printf("- **Overall Accuracy:** %s%%\n", percent(s.OverallAccuracy, s.TotalFieldsTested))
	m.printf("- **Field Passes:** %d\n", s.FieldPasses)
	m.printf("- **Field Failures:** %d\n", s.FieldFailures)
	m.line("")
}

func writeCosts(m *mdWriter, r *Report) {
	agg := r.Costs.Aggregate
	m.line("## Cost Analysis")
	m.line("")
	m.printf("**Total Cost:** %s\n", currency(agg.Total()))
	m.line("")
	m.line("| Cost Component | Amount | Percentage |")
	m.line("|----------------|--------|------------|")
	m.printf("| Content Extraction | %s | %.1f%% |\n", currency(agg.ContentExtraction), agg.Share(agg.ContentExtraction))
	m.printf("| Field Extraction | %s | %.1f%% |\n", currency(agg.FieldExtraction), agg.Share(agg.FieldExtraction))
	m.printf("| Contextualization | %s | %.1f%% |\n", currency(agg.Contextualization), agg.Share(agg.Contextualization))
	m.line("")
	m.line("### Per-Document Cost Breakdown")
	m.line("")
	m.line("| Document | Pages | Input Tokens | Output Tokens | Context Tokens | Cost |")
	m.line("|----------|-------|--------------|---------------|----------------|------|")
	for _, dc := range r.Costs.PerDocument {
		t := dc.Usage.Tokens
		m.printf("| %s | %d | %s | %s | %s | %s |\n",
			cell(dc.Document), dc.Usage.DocumentPages, grouped(t.Input), grouped(t.Output), grouped(t.Contextualization),
			currency(dc.Costs.Total()))
	}
	m.line("")
}

func writePricing(m *mdWriter, r *Report) {
	mode := cost.ParseMode(r.Costs.Mode)
	tier := r.Costs.Rates.Tier(mode)

	m.printf("### Pricing Details (%s Mode)\n", cases.Title(language.English).String(string(mode)))
	m.line("")
	m.printf("**Content Extraction:** %s per 1,000 pages  \n", currency(r.Costs.Rates.ContentPer1KPages))
	m.line("**Field Extraction:**")
	m.printf("- Input tokens: %s per 1M tokens\n", currency(tier.Input))
	m.printf("- Output tokens: %s per 1M tokens\n", currency(tier.Output))
	m.line("")
	m.printf("**Contextualization:** %s per 1M tokens\n", currency(tier.Contextualization))
	m.line("")
}

func writeDocumentResults(m *mdWriter, r *Report) {
	m.line("## Document-Level Results")
	m.line("")
	m.line("| Document | Fields Tested | Accuracy | Pass | Fail |")
	m.line("|----------|---------------|----------|------|------|")
	for _, sheet := range r.Results.DocumentLevel {
		total := len(sheet.Fields)
		passes := sheet.Passes()
		m.printf("| %s | %d | %s%% | %d | %d |\n",
			cell(sheet.Doc), total, percent(sheet.Accuracy(), total), passes, total-passes)
	}
	m.line("")
}

func writeFieldPerformance(m *mdWriter, perf model.FieldPerformance) {
	m.line("## Field-Level Performance")
	m.line("")
	m.line("| Field | Total Tests | Accuracy | Passes | Failures |")
	m.line("|-------|-------------|----------|--------|----------|")
	for _, a := range perf {
		m.printf("| %s | %d | %s%% | %d | %d |\n",
			cell(a.Field), a.Total(), percent(a.Accuracy(), a.Total()), a.Passes, a.Fails)
	}
	m.line("")
}

func writeDetails(m *mdWriter, r *Report) {
	m.line("## Detailed Results by Document")
	m.line("")
	for _, sheet := range r.Results.DocumentLevel {
		m.printf("### %s\n", sheet.Doc)
		m.line("")
		m.line("| Field | Expected | Actual | Status |")
		m.line("|-------|----------|--------|--------|")
		for _, name := range sheet.FieldNames() {
			fs := sheet.Fields[name]
			m.printf("| %s | %s | %s | %s |\n",
				cell(name), cell(scorer.StringForm(fs.Expected)), cell(scorer.StringForm(fs.Actual)), statusIcon(fs.Status))
		}
		m.line("")
	}
}

func writeAnalyzerConfig(m *mdWriter, cfg json.RawMessage) {
	m.line("## Analyzer Configuration")
	m.line("")
	m.line("```json")
	m.line(prettyJSON(cfg))
	m.line("```")
	m.line("")
}

func writeFiles(m *mdWriter, r *Report) {
	m.line("## Files Generated")
	m.line("")
	m.line("This evaluation run generated the following files:")
	m.line("")
	m.printf("- `%s` - This comprehensive markdown report\n", MarkdownFile)
	m.printf("- `%s` - Machine-readable JSON report for tooling/viewers\n", JSONFile)
	if r.Spreadsheet {
		m.printf("- `%s` - Spreadsheet workbook of the report tables\n", XLSXFile)
	}
	for _, dc := range r.Costs.PerDocument {
		m.printf("- `%s` - Analysis results for %s\n", RawFileName(dc.Document), dc.Document)
	}
}

// RawFileName is the name of the saved analysis result for a document.
func RawFileName(document string) string {
	return strings.TrimSuffix(document, filepath.Ext(document)) + ".json"
}

func prettyJSON(raw json.RawMessage) string {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "null"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

func statusIcon(s model.FieldStatus) string {
	if s == model.FieldPass {
		return "✅"
	}
	return "❌"
}

func currency(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

// percent renders an accuracy figure. A scored figure always carries a
// fractional digit ("100.0", "33.33"); a figure over zero fields is "0".
func percent(v float64, total int) string {
	if total == 0 {
		return "0"
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func grouped(n int) string {
	return tokenPrinter.Sprintf("%d", n)
}

// cell escapes table delimiters and flattens newlines.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
