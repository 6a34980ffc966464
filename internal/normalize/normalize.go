// Package normalize converts typed extraction records into plain values that
// can be compared against ground truth.
package normalize

import (
	"strings"

	"github.com/sells-group/cu-eval/internal/model"
)

// Normalize returns the plain value carried by v: string, float64, int64,
// bool, []any, map[string]any, or nil when the value is absent or its tag
// is not recognized.
func Normalize(v model.TypedValue) any {
	switch tv := v.(type) {
	case nil:
		return nil
	case model.StringValue:
		return deref(tv.Value)
	case model.NumberValue:
		return deref(tv.Value)
	case model.DateValue:
		return deref(tv.Value)
	case model.BooleanValue:
		return deref(tv.Value)
	case model.IntegerValue:
		return deref(tv.Value)
	case model.TimeValue:
		if tv.Value == nil {
			return nil
		}
		return trimSeconds(*tv.Value)
	case model.ArrayValue:
		out := make([]any, 0, len(tv.Items))
		for _, item := range tv.Items {
			out = append(out, Normalize(item))
		}
		return out
	case model.ObjectValue:
		out := make(map[string]any, len(tv.Fields))
		for k, item := range tv.Fields {
			out[k] = Normalize(item)
		}
		return out
	case model.PrimitiveValue:
		return tv.Value
	default:
		return nil
	}
}

// Plain normalizes v if it is a typed record and returns any other value
// unchanged, so applying it to an already-normalized value is a no-op.
func Plain(v any) any {
	if tv, ok := v.(model.TypedValue); ok {
		return Normalize(tv)
	}
	return v
}

// Fields normalizes every field of an extraction result.
func Fields(fields map[string]model.TypedValue) map[string]any {
	out := make(map[string]any, len(fields))
	for name, v := range fields {
		out[name] = Normalize(v)
	}
	return out
}

// trimSeconds drops one trailing ":00" so "14:30:00" compares equal to a
// hand-labeled "14:30". A bare "HH:00" loses its minutes too ("14:00" -> "14").
func trimSeconds(s string) string {
	if strings.HasSuffix(s, ":00") {
		return s[:len(s)-3]
	}
	return s
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
