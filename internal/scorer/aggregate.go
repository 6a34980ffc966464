package scorer

import (
	"github.com/sells-group/cu-eval/internal/cost"
	"github.com/sells-group/cu-eval/internal/model"
)

// AggregateFields tallies passes and fails per field across sheets. Fields
// appear in first-seen order (sheets in input order, names sorted within a
// sheet). A document that did not extract a field does not count against it.
func AggregateFields(sheets []model.DocumentScoreSheet) model.FieldPerformance {
	index := make(map[string]int)
	var perf model.FieldPerformance

	for _, sheet := range sheets {
		for _, name := range sheet.FieldNames() {
			i, ok := index[name]
			if !ok {
				i = len(perf)
				index[name] = i
				perf = append(perf, model.FieldAggregate{Field: name})
			}
			if sheet.Fields[name].Status == model.FieldPass {
				perf[i].Passes++
			} else {
				perf[i].Fails++
			}
		}
	}

	if perf == nil {
		perf = model.FieldPerformance{}
	}
	return perf
}

// Summarize derives the run-level statistics. The document count is the
// number of scored documents, or the number of cost entries when no
// document had ground truth.
func Summarize(sheets []model.DocumentScoreSheet, costs []cost.DocumentCost) model.Summary {
	var s model.Summary

	s.DocumentsAnalyzed = len(sheets)
	if s.DocumentsAnalyzed == 0 {
		s.DocumentsAnalyzed = len(costs)
	}

	for _, sheet := range sheets {
		s.TotalFieldsTested += len(sheet.Fields)
		s.FieldPasses += sheet.Passes()
	}
	s.FieldFailures = s.TotalFieldsTested - s.FieldPasses
	s.OverallAccuracy = model.Percentage(s.FieldPasses, s.TotalFieldsTested)

	return s
}
