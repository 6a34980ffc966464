package model

import (
	"bytes"
	"encoding/json"

	"github.com/rotisserie/eris"
)

// ValueType is the "type" tag the analysis service attaches to every extracted field.
type ValueType string

const (
	ValueTypeString  ValueType = "string"
	ValueTypeNumber  ValueType = "number"
	ValueTypeDate    ValueType = "date"
	ValueTypeBoolean ValueType = "boolean"
	ValueTypeInteger ValueType = "integer"
	ValueTypeTime    ValueType = "time"
	ValueTypeArray   ValueType = "array"
	ValueTypeObject  ValueType = "object"
)

// TypedValue is one extracted field as returned by the analysis service.
// The set of implementations is closed; see the Value types below.
type TypedValue interface {
	Type() ValueType
	typedValue()
}

// StringValue carries valueString. A nil Value means the payload key was missing.
type StringValue struct{ Value *string }

// NumberValue carries valueNumber.
type NumberValue struct{ Value *float64 }

// DateValue carries valueDate (ISO 8601 date string).
type DateValue struct{ Value *string }

// BooleanValue carries valueBoolean.
type BooleanValue struct{ Value *bool }

// IntegerValue carries valueInteger.
type IntegerValue struct{ Value *int64 }

// TimeValue carries valueTime (HH:MM:SS).
type TimeValue struct{ Value *string }

// ArrayValue carries valueArray.
type ArrayValue struct{ Items []TypedValue }

// ObjectValue carries valueObject.
type ObjectValue struct{ Fields map[string]TypedValue }

// UnknownValue is a record whose type tag is not recognized.
type UnknownValue struct{ Tag string }

// PrimitiveValue is a field slot that held a bare JSON value instead of a
// typed record. It is passed through unchanged by normalization.
type PrimitiveValue struct{ Value any }

func (StringValue) Type() ValueType    { return ValueTypeString }
func (NumberValue) Type() ValueType    { return ValueTypeNumber }
func (DateValue) Type() ValueType      { return ValueTypeDate }
func (BooleanValue) Type() ValueType   { return ValueTypeBoolean }
func (IntegerValue) Type() ValueType   { return ValueTypeInteger }
func (TimeValue) Type() ValueType      { return ValueTypeTime }
func (ArrayValue) Type() ValueType     { return ValueTypeArray }
func (ObjectValue) Type() ValueType    { return ValueTypeObject }
func (u UnknownValue) Type() ValueType { return ValueType(u.Tag) }
func (PrimitiveValue) Type() ValueType { return "" }

func (StringValue) typedValue()    {}
func (NumberValue) typedValue()    {}
func (DateValue) typedValue()      {}
func (BooleanValue) typedValue()   {}
func (IntegerValue) typedValue()   {}
func (TimeValue) typedValue()      {}
func (ArrayValue) typedValue()     {}
func (ObjectValue) typedValue()    {}
func (UnknownValue) typedValue()   {}
func (PrimitiveValue) typedValue() {}

// wireValue mirrors the service JSON for a typed field record.
type wireValue struct {
	Type         string                     `json:"type"`
	ValueString  *string                    `json:"valueString"`
	ValueNumber  *float64                   `json:"valueNumber"`
	ValueDate    *string                    `json:"valueDate"`
	ValueBoolean *bool                      `json:"valueBoolean"`
	ValueInteger *int64                     `json:"valueInteger"`
	ValueTime    *string                    `json:"valueTime"`
	ValueArray   []json.RawMessage          `json:"valueArray"`
	ValueObject  map[string]json.RawMessage `json:"valueObject"`
}

// DecodeTypedValue parses one field record from the service wire format.
// Malformed payloads never fail: a record with a payload of the wrong JSON
// type decodes to an UnknownValue so that it normalizes to absent. Only
// syntactically invalid JSON returns an error.
func DecodeTypedValue(raw json.RawMessage) (TypedValue, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return PrimitiveValue{}, nil
	}

	if trimmed[0] != '{' {
		var v any
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return nil, eris.Wrap(err, "model: decode primitive field")
		}
		return PrimitiveValue{Value: v}, nil
	}

	var w wireValue
	if err := json.Unmarshal(trimmed, &w); err != nil {
		var probe map[string]json.RawMessage
		if perr := json.Unmarshal(trimmed, &probe); perr != nil {
			return nil, eris.Wrap(perr, "model: decode field record")
		}
		var tag string
		_ = json.Unmarshal(probe["type"], &tag)
		return UnknownValue{Tag: tag}, nil
	}

	switch ValueType(w.Type) {
	case ValueTypeString:
		return StringValue{Value: w.ValueString}, nil
	case ValueTypeNumber:
		return NumberValue{Value: w.ValueNumber}, nil
	case ValueTypeDate:
		return DateValue{Value: w.ValueDate}, nil
	case ValueTypeBoolean:
		return BooleanValue{Value: w.ValueBoolean}, nil
	case ValueTypeInteger:
		return IntegerValue{Value: w.ValueInteger}, nil
	case ValueTypeTime:
		return TimeValue{Value: w.ValueTime}, nil
	case ValueTypeArray:
		items := make([]TypedValue, 0, len(w.ValueArray))
		for i, item := range w.ValueArray {
			tv, err := DecodeTypedValue(item)
			if err != nil {
				return nil, eris.Wrapf(err, "model: decode array item %d", i)
			}
			items = append(items, tv)
		}
		return ArrayValue{Items: items}, nil
	case ValueTypeObject:
		fields := make(map[string]TypedValue, len(w.ValueObject))
		for k, item := range w.ValueObject {
			tv, err := DecodeTypedValue(item)
			if err != nil {
				return nil, eris.Wrapf(err, "model: decode object member %q", k)
			}
			fields[k] = tv
		}
		return ObjectValue{Fields: fields}, nil
	default:
		return UnknownValue{Tag: w.Type}, nil
	}
}

// DecodeFields parses a service field map keyed by field name.
func DecodeFields(raw map[string]json.RawMessage) (map[string]TypedValue, error) {
	fields := make(map[string]TypedValue, len(raw))
	for name, rec := range raw {
		tv, err := DecodeTypedValue(rec)
		if err != nil {
			return nil, eris.Wrapf(err, "model: field %q", name)
		}
		fields[name] = tv
	}
	return fields, nil
}
