package dataset

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// fieldSchemaShape is the structural contract a field schema must satisfy
// before it is sent to the service.
const fieldSchemaShape = `{
	"type": "object",
	"required": ["fields"],
	"properties": {
		"name": {"type": "string"},
		"description": {"type": "string"},
		"fields": {
			"type": "object",
			"minProperties": 1,
			"additionalProperties": {
				"type": "object",
				"required": ["type"],
				"properties": {
					"type": {"enum": ["string", "number", "date", "boolean", "integer", "time", "array", "object"]},
					"method": {"enum": ["extract", "generate", "classify"]},
					"description": {"type": "string"}
				}
			}
		}
	}
}`

const fieldSchemaShapeURL = "https://github.com/sells-group/cu-eval/field-schema.json"

var compiledShape *jsonschema.Schema

func init() {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(fieldSchemaShape))
	if err != nil {
		panic(err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(fieldSchemaShapeURL, doc); err != nil {
		panic(err)
	}
	compiledShape = c.MustCompile(fieldSchemaShapeURL)
}

// LoadFieldSchema reads the analyzer field schema from path (JSON or YAML).
// The file may hold the schema itself or wrap it under "fieldSchema". The
// schema is validated structurally and returned as a generic JSON value.
func LoadFieldSchema(path string) (map[string]any, error) {
	var file map[string]any
	if err := decodeFile(path, &file); err != nil {
		return nil, eris.Wrap(err, "dataset: field schema")
	}

	schema := file
	if inner, ok := file["fieldSchema"].(map[string]any); ok {
		schema = inner
	}

	if err := ValidateFieldSchema(schema); err != nil {
		return nil, eris.Wrapf(err, "dataset: field schema %s", path)
	}
	return schema, nil
}

// ValidateFieldSchema checks that schema has a non-empty "fields" object whose
// entries each declare a supported type.
func ValidateFieldSchema(schema map[string]any) error {
	// Round-trip through JSON so YAML-decoded values match the validator's
	// expected representation.
	data, err := json.Marshal(schema)
	if err != nil {
		return eris.Wrap(err, "encode field schema")
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return eris.Wrap(err, "decode field schema")
	}
	if err := compiledShape.Validate(inst); err != nil {
		return eris.Wrap(err, "invalid field schema")
	}
	return nil
}
