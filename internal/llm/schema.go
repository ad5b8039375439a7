package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// FieldNames is the fixed set of fields requested from the provider.
var FieldNames = []string{
	"reference_id", "title", "doc_type", "jurisdiction", "court",
	"authority_level", "tags", "citation", "date", "legal_status",
}

var scalarTypes = []string{"string", "number", "integer", "boolean", "null"}

// BuildFieldSchema returns the JSON Schema a provider response must satisfy.
// Fields may be absent; present values must be scalars or arrays of scalars.
func BuildFieldSchema() map[string]any {
	value := map[string]any{
		"anyOf": []any{
			map[string]any{"type": scalarTypes},
			map[string]any{"type": "array", "items": map[string]any{"type": scalarTypes}},
		},
	}
	props := make(map[string]any, len(FieldNames))
	for _, f := range FieldNames {
		props[f] = value
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": value,
	}
}

func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

func validate(schema *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

var fieldSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return compileSchema(BuildFieldSchema())
})

// ValidateFields checks a recovered response object against the field schema.
func ValidateFields(data []byte) error {
	schema, err := fieldSchema()
	if err != nil {
		return err
	}
	return validate(schema, data)
}
