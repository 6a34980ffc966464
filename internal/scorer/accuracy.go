// Package scorer compares extracted field values against hand-labeled ground
// truth and rolls the per-document results up into run-level statistics.
package scorer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/cu-eval/internal/model"
	"github.com/sells-group/cu-eval/internal/normalize"
)

// absentForm is the string form of a missing value.
const absentForm = "null"

// ScoreDocument scores every field present in the extraction result against
// truth. Ground-truth fields the extractor did not return are not scored.
// Typed records in truth are normalized the same way as extracted values.
// It returns the document accuracy (0 when no fields were extracted) and the
// per-field score sheet.
func ScoreDocument(doc string, fields map[string]model.TypedValue, truth model.GroundTruth) (float64, model.DocumentScoreSheet) {
	sheet := model.DocumentScoreSheet{
		Doc:    doc,
		Fields: make(map[string]model.FieldScore, len(fields)),
	}

	for name, actual := range normalize.Fields(fields) {
		expected := normalize.Plain(truth[name])

		status := model.FieldFail
		if Matches(expected, actual) {
			status = model.FieldPass
		}
		sheet.Fields[name] = model.FieldScore{
			Status:   status,
			Expected: expected,
			Actual:   actual,
		}
	}

	return sheet.Accuracy(), sheet
}

// Matches reports whether expected and actual have the same string form
// after trimming surrounding whitespace and lower-casing. Types are not
// compared, so 3 and "3" match while 3 and "3.0" do not.
func Matches(expected, actual any) bool {
	return canonical(expected) == canonical(actual)
}

func canonical(v any) string {
	return strings.ToLower(strings.TrimSpace(StringForm(v)))
}

// StringForm renders a plain value for comparison and display. Whole floats
// print without a fractional part, containers print as compact JSON with
// sorted keys, and an absent value prints as "null".
func StringForm(v any) string {
	switch x := v.(type) {
	case nil:
		return absentForm
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case json.Number:
		return x.String()
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.RFC3339)
	case []any, map[string]any:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(data)
	default:
		return fmt.Sprint(x)
	}
}
