package ccprovider

import (
	"encoding/json"
	"fmt"
	"strings"

	genschema "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaFromType derives a JSON Schema from a Go type, for use in
// ResponseFormat.Schema. The zero value of T carries the structure.
//
//	schema, err := ccprovider.SchemaFromType(WeatherReport{})
func SchemaFromType(v any) (json.RawMessage, error) {
	reflector := &genschema.Reflector{
		// Inline all definitions so the upstream receives one self-contained
		// document rather than a $defs forest.
		ExpandedStruct:            true,
		DoNotReference:            true,
		AllowAdditionalProperties: false,
	}

	schema := reflector.Reflect(v)
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal reflected schema: %w", err)
	}
	return raw, nil
}

// CompileSchema compiles a raw JSON Schema document for validation.
func CompileSchema(raw json.RawMessage) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	const url = "inline://response-schema.json"
	if err := compiler.AddResource(url, strings.NewReader(string(raw))); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// SchemaIssue represents a single field-level validation problem.
type SchemaIssue struct {
	// Path is the JSON path to the problematic field ("" for root-level issues).
	Path string
	// Message describes the validation failure.
	Message string
}

// ValidateAgainstSchema checks a raw JSON payload against a compiled schema.
// Returns the flattened list of issues; an empty list means the payload
// conforms. A payload that fails to decode yields a single root issue.
func ValidateAgainstSchema(schema *jsonschema.Schema, rawJSON string) []SchemaIssue {
	var value interface{}
	if err := json.Unmarshal([]byte(rawJSON), &value); err != nil {
		return []SchemaIssue{{Message: fmt.Sprintf("payload is not valid JSON: %v", err)}}
	}

	err := schema.Validate(value)
	if err == nil {
		return nil
	}

	if validationErr, ok := err.(*jsonschema.ValidationError); ok {
		return extractSchemaIssues(validationErr)
	}
	return []SchemaIssue{{Message: err.Error()}}
}

// extractSchemaIssues recursively flattens jsonschema validation errors.
// Leaf causes carry the specific failures; branch nodes only aggregate.
func extractSchemaIssues(err *jsonschema.ValidationError) []SchemaIssue {
	if len(err.Causes) == 0 {
		return []SchemaIssue{{
			Path:    strings.TrimPrefix(err.InstanceLocation, "/"),
			Message: err.Message,
		}}
	}

	var issues []SchemaIssue
	for _, cause := range err.Causes {
		issues = append(issues, extractSchemaIssues(cause)...)
	}
	return issues
}
