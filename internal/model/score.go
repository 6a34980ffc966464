package model

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/rotisserie/eris"
)

// GroundTruth maps a field name to its hand-labeled expected value.
type GroundTruth map[string]any

// FieldStatus is the pass/fail outcome of comparing one field.
type FieldStatus string

const (
	FieldPass FieldStatus = "pass"
	FieldFail FieldStatus = "fail"
)

// FieldScore is the comparison result for one field of one document.
// Expected and Actual are plain normalized values; nil means absent.
type FieldScore struct {
	Status   FieldStatus `json:"status"`
	Expected any         `json:"expected"`
	Actual   any         `json:"actual"`
}

// DocumentScoreSheet holds every field score for one document.
type DocumentScoreSheet struct {
	Doc    string                `json:"doc"`
	Fields map[string]FieldScore `json:"fields"`
}

// FieldNames returns the scored field names in sorted order.
func (s DocumentScoreSheet) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Passes counts the passing fields.
func (s DocumentScoreSheet) Passes() int {
	n := 0
	for _, f := range s.Fields {
		if f.Status == FieldPass {
			n++
		}
	}
	return n
}

// Accuracy returns the sheet's pass percentage rounded to two decimals.
func (s DocumentScoreSheet) Accuracy() float64 {
	return Percentage(s.Passes(), len(s.Fields))
}

// FieldAggregate is the pass/fail tally for one field across documents.
type FieldAggregate struct {
	Field  string `json:"-"`
	Passes int    `json:"passes"`
	Fails  int    `json:"fails"`
}

// Total returns the number of documents that tested the field.
func (a FieldAggregate) Total() int {
	return a.Passes + a.Fails
}

// Accuracy returns the field's pass percentage rounded to two decimals.
func (a FieldAggregate) Accuracy() float64 {
	return Percentage(a.Passes, a.Total())
}

// FieldPerformance is an ordered list of field tallies. It serializes as a
// JSON object keyed by field name.
type FieldPerformance []FieldAggregate

// MarshalJSON implements json.Marshaler.
func (p FieldPerformance) MarshalJSON() ([]byte, error) {
	m := make(map[string]FieldAggregate, len(p))
	for _, a := range p {
		m[a.Field] = a
	}
	return json.Marshal(m)
}

// UnmarshalJSON implements json.Unmarshaler. Entries come back sorted by name.
func (p *FieldPerformance) UnmarshalJSON(data []byte) error {
	var m map[string]FieldAggregate
	if err := json.Unmarshal(data, &m); err != nil {
		return eris.Wrap(err, "model: decode field performance")
	}
	out := make(FieldPerformance, 0, len(m))
	for name, a := range m {
		a.Field = name
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	*p = out
	return nil
}

// Summary holds the run-level accuracy statistics.
type Summary struct {
	DocumentsAnalyzed int     `json:"documents_analyzed"`
	TotalFieldsTested int     `json:"total_fields_tested"`
	OverallAccuracy   float64 `json:"overall_accuracy"`
	FieldPasses       int     `json:"field_passes"`
	FieldFailures     int     `json:"field_failures"`
}

// Percentage returns 100*part/total rounded to two decimals, or 0 when total is 0.
func Percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*100*100) / 100
}
