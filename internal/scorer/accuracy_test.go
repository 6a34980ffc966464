package scorer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/cu-eval/internal/model"
)

func str(s string) model.TypedValue  { return model.StringValue{Value: &s} }
func num(f float64) model.TypedValue { return model.NumberValue{Value: &f} }

func TestScoreDocument_CaseAndWhitespaceInsensitive(t *testing.T) {
	t.Parallel()

	fields := map[string]model.TypedValue{
		"name": str("Alice"),
		"age":  num(30),
	}
	truth := model.GroundTruth{"name": "alice ", "age": 30.0}

	acc, sheet := ScoreDocument("invoice.pdf", fields, truth)

	assert.Equal(t, 100.0, acc)
	assert.Equal(t, "invoice.pdf", sheet.Doc)
	assert.Len(t, sheet.Fields, 2)
	assert.Equal(t, model.FieldPass, sheet.Fields["name"].Status)
	assert.Equal(t, "alice ", sheet.Fields["name"].Expected)
	assert.Equal(t, "Alice", sheet.Fields["name"].Actual)
	assert.Equal(t, model.FieldPass, sheet.Fields["age"].Status)
}

func TestScoreDocument_Mismatch(t *testing.T) {
	t.Parallel()

	acc, sheet := ScoreDocument("doc", map[string]model.TypedValue{"name": str("Alice")}, model.GroundTruth{"name": "Bob"})

	assert.Equal(t, 0.0, acc)
	assert.Equal(t, model.FieldFail, sheet.Fields["name"].Status)
	assert.Equal(t, "Bob", sheet.Fields["name"].Expected)
	assert.Equal(t, "Alice", sheet.Fields["name"].Actual)
}

func TestScoreDocument_NoFields(t *testing.T) {
	t.Parallel()

	acc, sheet := ScoreDocument("empty", map[string]model.TypedValue{}, model.GroundTruth{"name": "Bob"})

	assert.Equal(t, 0.0, acc)
	assert.Empty(t, sheet.Fields)
}

func TestScoreDocument_OnlyExtractedFieldsAreScored(t *testing.T) {
	t.Parallel()

	fields := map[string]model.TypedValue{"total": num(12.5)}
	truth := model.GroundTruth{"total": 12.5, "vendor": "Contoso"}

	acc, sheet := ScoreDocument("doc", fields, truth)

	assert.Equal(t, 100.0, acc)
	assert.NotContains(t, sheet.Fields, "vendor")
}

func TestScoreDocument_MissingGroundTruth(t *testing.T) {
	t.Parallel()

	fields := map[string]model.TypedValue{
		"extra":   str("something"),
		"nothing": model.UnknownValue{Tag: "geometry"},
	}

	acc, sheet := ScoreDocument("doc", fields, model.GroundTruth{})

	// An absent expectation only matches an absent extraction.
	assert.Equal(t, model.FieldFail, sheet.Fields["extra"].Status)
	assert.Nil(t, sheet.Fields["extra"].Expected)
	assert.Equal(t, model.FieldPass, sheet.Fields["nothing"].Status)
	assert.Equal(t, 50.0, acc)
}

func TestScoreDocument_AccuracyRounding(t *testing.T) {
	t.Parallel()

	fields := map[string]model.TypedValue{"a": str("x"), "b": str("y"), "c": str("z")}
	truth := model.GroundTruth{"a": "x", "b": "y", "c": "nope"}

	acc, _ := ScoreDocument("doc", fields, truth)
	assert.Equal(t, 66.67, acc)
}

func TestScoreDocument_TimeNormalization(t *testing.T) {
	t.Parallel()

	v := "14:30:00"
	fields := map[string]model.TypedValue{"start": model.TimeValue{Value: &v}}

	acc, sheet := ScoreDocument("doc", fields, model.GroundTruth{"start": "14:30"})
	assert.Equal(t, 100.0, acc)
	assert.Equal(t, "14:30", sheet.Fields["start"].Actual)
}

func TestScoreDocument_TypedGroundTruth(t *testing.T) {
	t.Parallel()

	start := "09:00:00"
	fields := map[string]model.TypedValue{
		"start": model.TimeValue{Value: &start},
		"end":   str("17:30"),
	}
	truthEnd := "17:30:00"
	truth := model.GroundTruth{
		"start": "09",
		"end":   model.TimeValue{Value: &truthEnd},
	}

	acc, sheet := ScoreDocument("doc", fields, truth)
	assert.Equal(t, 100.0, acc)
	assert.Equal(t, "17:30", sheet.Fields["end"].Expected)
}

func TestScoreDocument_ObjectKeyOrderIgnored(t *testing.T) {
	t.Parallel()

	fields := map[string]model.TypedValue{
		"party": model.ObjectValue{Fields: map[string]model.TypedValue{
			"name": str("Acme"),
			"id":   num(7),
		}},
	}
	truth := model.GroundTruth{"party": map[string]any{"id": 7.0, "name": "acme"}}

	acc, _ := ScoreDocument("doc", fields, truth)
	assert.Equal(t, 100.0, acc)
}

func TestMatches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		expected any
		actual   any
		want     bool
	}{
		{"equal strings", "abc", "abc", true},
		{"case", "ABC", "abc", true},
		{"surrounding whitespace", "  abc\n", "abc", true},
		{"inner whitespace differs", "a bc", "abc", false},
		{"number vs numeric string", "3", 3.0, true},
		{"number vs decimal string", "3.0", 3.0, false},
		{"int vs float", 30, 30.0, true},
		{"integer payload", int64(7), "7", true},
		{"bool vs string", "true", true, true},
		{"bool case", "TRUE", true, true},
		{"both absent", nil, nil, true},
		{"absent vs empty", nil, "", false},
		{"absent vs value", nil, "x", false},
		{"array", []any{"a", "b"}, []any{"a", "b"}, true},
		{"array order", []any{"a", "b"}, []any{"b", "a"}, false},
		{"object key order", map[string]any{"b": 1.0, "a": "x"}, map[string]any{"a": "X", "b": 1.0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Matches(tt.expected, tt.actual))
		})
	}
}

func TestStringForm(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "null", StringForm(nil))
	assert.Equal(t, "12.5", StringForm(12.5))
	assert.Equal(t, "1000000", StringForm(1e6))
	assert.Equal(t, "false", StringForm(false))
	assert.Equal(t, `["a",null]`, StringForm([]any{"a", nil}))
	assert.Equal(t, `{"a":1,"b":"x"}`, StringForm(map[string]any{"b": "x", "a": 1.0}))
	assert.Equal(t, "2025-01-31", StringForm(time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)))
}
