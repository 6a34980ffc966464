package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTypedValue_Tags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want ValueType
	}{
		{"string", `{"type":"string","valueString":"a"}`, ValueTypeString},
		{"number", `{"type":"number","valueNumber":1.5}`, ValueTypeNumber},
		{"date", `{"type":"date","valueDate":"2025-01-01"}`, ValueTypeDate},
		{"boolean", `{"type":"boolean","valueBoolean":false}`, ValueTypeBoolean},
		{"integer", `{"type":"integer","valueInteger":9}`, ValueTypeInteger},
		{"time", `{"type":"time","valueTime":"10:00:00"}`, ValueTypeTime},
		{"array", `{"type":"array","valueArray":[]}`, ValueTypeArray},
		{"object", `{"type":"object","valueObject":{}}`, ValueTypeObject},
		{"unknown", `{"type":"geometry"}`, ValueType("geometry")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tv, err := DecodeTypedValue(json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, tv.Type())
		})
	}
}

func TestDecodeTypedValue_Payloads(t *testing.T) {
	t.Parallel()

	tv, err := DecodeTypedValue(json.RawMessage(`{"type":"string","valueString":"Contoso","spans":[{"offset":0}],"confidence":0.91}`))
	require.NoError(t, err)
	sv, ok := tv.(StringValue)
	require.True(t, ok)
	require.NotNil(t, sv.Value)
	assert.Equal(t, "Contoso", *sv.Value)

	tv, err = DecodeTypedValue(json.RawMessage(`{"type":"integer"}`))
	require.NoError(t, err)
	assert.Nil(t, tv.(IntegerValue).Value)

	tv, err = DecodeTypedValue(json.RawMessage(`{"type":"object","valueObject":{"City":{"type":"string","valueString":"Paris"}}}`))
	require.NoError(t, err)
	ov := tv.(ObjectValue)
	require.Contains(t, ov.Fields, "City")
	assert.Equal(t, ValueTypeString, ov.Fields["City"].Type())
}

func TestDecodeTypedValue_Primitive(t *testing.T) {
	t.Parallel()

	tv, err := DecodeTypedValue(json.RawMessage(`"plain"`))
	require.NoError(t, err)
	assert.Equal(t, PrimitiveValue{Value: "plain"}, tv)

	tv, err = DecodeTypedValue(json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Equal(t, PrimitiveValue{Value: nil}, tv)
}

func TestDecodeTypedValue_WrongPayloadType(t *testing.T) {
	t.Parallel()

	tv, err := DecodeTypedValue(json.RawMessage(`{"type":"boolean","valueBoolean":"yes"}`))
	require.NoError(t, err)
	assert.Equal(t, UnknownValue{Tag: "boolean"}, tv)
}

func TestDecodeTypedValue_InvalidJSON(t *testing.T) {
	t.Parallel()

	_, err := DecodeTypedValue(json.RawMessage(`{"type":`))
	require.Error(t, err)
}

func TestAnalysisResult_Fields(t *testing.T) {
	t.Parallel()

	body := []byte(`{
		"id": "op-1",
		"status": "Succeeded",
		"result": {
			"analyzerId": "myAnalyzer",
			"contents": [{
				"markdown": "# Invoice",
				"fields": {
					"VendorName": {"type": "string", "valueString": "Contoso"},
					"Total": {"type": "number", "valueNumber": 12.5}
				}
			}]
		},
		"usage": {"documentPages": 2, "tokens": {"input": 100, "output": 20}}
	}`)

	r, err := ParseAnalysisResult(body)
	require.NoError(t, err)
	assert.Equal(t, OperationSucceeded, r.Status)
	assert.Equal(t, "myAnalyzer", r.Result.AnalyzerID)
	assert.Equal(t, 2, r.Usage.DocumentPages)
	assert.Equal(t, 100, r.Usage.Tokens.Input)
	assert.Equal(t, 0, r.Usage.Tokens.Contextualization)
	assert.Equal(t, 120, r.Usage.Tokens.Total())

	fields, err := r.Fields()
	require.NoError(t, err)
	assert.Len(t, fields, 2)
	assert.Equal(t, ValueTypeNumber, fields["Total"].Type())
}

func TestAnalysisResult_NoContents(t *testing.T) {
	t.Parallel()

	r, err := ParseAnalysisResult([]byte(`{"status":"Succeeded","result":{}}`))
	require.NoError(t, err)

	fields, err := r.Fields()
	require.NoError(t, err)
	assert.Empty(t, fields)
	assert.Equal(t, Usage{}, r.Usage)
}
