package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/cu-eval/internal/cost"
	"github.com/sells-group/cu-eval/internal/model"
)

func sheet(doc string, statuses map[string]model.FieldStatus) model.DocumentScoreSheet {
	s := model.DocumentScoreSheet{Doc: doc, Fields: map[string]model.FieldScore{}}
	for name, st := range statuses {
		s.Fields[name] = model.FieldScore{Status: st}
	}
	return s
}

func TestAggregateFields_AcrossDocuments(t *testing.T) {
	t.Parallel()

	sheets := []model.DocumentScoreSheet{
		sheet("doc1", map[string]model.FieldStatus{"name": model.FieldPass, "total": model.FieldPass}),
		sheet("doc2", map[string]model.FieldStatus{"name": model.FieldFail}),
	}

	perf := AggregateFields(sheets)

	assert.Equal(t, model.FieldPerformance{
		{Field: "name", Passes: 1, Fails: 1},
		{Field: "total", Passes: 1, Fails: 0},
	}, perf)
	assert.Equal(t, 50.0, perf[0].Accuracy())
	assert.Equal(t, 2, perf[0].Total())
	assert.Equal(t, 100.0, perf[1].Accuracy())
}

func TestAggregateFields_FirstSeenOrder(t *testing.T) {
	t.Parallel()

	sheets := []model.DocumentScoreSheet{
		sheet("doc1", map[string]model.FieldStatus{"zeta": model.FieldPass}),
		sheet("doc2", map[string]model.FieldStatus{"alpha": model.FieldFail, "zeta": model.FieldFail}),
	}

	perf := AggregateFields(sheets)
	assert.Equal(t, "zeta", perf[0].Field)
	assert.Equal(t, "alpha", perf[1].Field)
}

func TestAggregateFields_OrderIndependentTotals(t *testing.T) {
	t.Parallel()

	a := sheet("a", map[string]model.FieldStatus{"x": model.FieldPass, "y": model.FieldFail})
	b := sheet("b", map[string]model.FieldStatus{"x": model.FieldFail})

	ab := AggregateFields([]model.DocumentScoreSheet{a, b})
	ba := AggregateFields([]model.DocumentScoreSheet{b, a})

	tally := func(p model.FieldPerformance) map[string]model.FieldAggregate {
		m := map[string]model.FieldAggregate{}
		for _, agg := range p {
			m[agg.Field] = agg
		}
		return m
	}
	assert.Equal(t, tally(ab), tally(ba))
}

func TestAggregateFields_Empty(t *testing.T) {
	t.Parallel()

	perf := AggregateFields(nil)
	assert.NotNil(t, perf)
	assert.Empty(t, perf)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	sheets := []model.DocumentScoreSheet{
		sheet("doc1", map[string]model.FieldStatus{"a": model.FieldPass, "b": model.FieldPass, "c": model.FieldFail}),
		sheet("doc2", map[string]model.FieldStatus{"a": model.FieldFail}),
	}
	costs := []cost.DocumentCost{{Document: "doc1"}, {Document: "doc2"}, {Document: "doc3"}}

	s := Summarize(sheets, costs)

	assert.Equal(t, model.Summary{
		DocumentsAnalyzed: 2,
		TotalFieldsTested: 4,
		OverallAccuracy:   50,
		FieldPasses:       2,
		FieldFailures:     2,
	}, s)
}

func TestSummarize_NoGroundTruth(t *testing.T) {
	t.Parallel()

	s := Summarize(nil, []cost.DocumentCost{{Document: "a"}, {Document: "b"}})

	assert.Equal(t, 2, s.DocumentsAnalyzed)
	assert.Equal(t, 0, s.TotalFieldsTested)
	assert.Equal(t, 0.0, s.OverallAccuracy)
}
