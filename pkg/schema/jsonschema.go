package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"mercator-hq/exportable/pkg/record"
)

// JSONSchemaDraft is the dialect of generated documents.
const JSONSchemaDraft = "http://json-schema.org/draft-07/schema#"

// rootContext is how gojsonschema names the document root in field paths.
const rootContext = "(root)"

// JSONSchema renders t as a JSON Schema document for its source view.
func JSONSchema(t *record.Type) map[string]any {
	doc := objectSchema(t)
	doc["$schema"] = JSONSchemaDraft
	doc["title"] = t.Name()
	return doc
}

// JSONSchemaBytes renders t as indented JSON Schema text.
func JSONSchemaBytes(t *record.Type) ([]byte, error) {
	return json.MarshalIndent(JSONSchema(t), "", "  ")
}

func objectSchema(t *record.Type) map[string]any {
	props := make(map[string]any, len(t.Fields()))
	required := []string{}
	for _, f := range t.Fields() {
		props[f.Name] = fieldSchema(f)
		if f.Required {
			required = append(required, f.Name)
		}
	}
	doc := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return doc
}

func fieldSchema(f record.Field) map[string]any {
	var s map[string]any
	switch f.Kind {
	case record.KindRecord:
		s = objectSchema(f.Type)
	case record.KindList:
		s = map[string]any{"type": "array", "items": scalarSchema(f.Elem)}
	default:
		s = scalarSchema(f.Kind)
	}
	if f.Nullable {
		if f.Kind == record.KindRecord {
			return map[string]any{"oneOf": []any{map[string]any{"type": "null"}, s}}
		}
		s["type"] = []any{s["type"], "null"}
	}
	return s
}

func scalarSchema(k record.Kind) map[string]any {
	switch k {
	case record.KindInt:
		return map[string]any{"type": "integer"}
	case record.KindFloat:
		return map[string]any{"type": "number"}
	case record.KindBool:
		return map[string]any{"type": "boolean"}
	case record.KindTime:
		return map[string]any{"type": "string", "format": "date-time"}
	}
	return map[string]any{"type": "string"}
}

// JSONSchemaValidator validates raw input with gojsonschema against the
// schema generated for the record type. Compiled schemas are cached per
// type.
type JSONSchemaValidator struct {
	mu      sync.Mutex
	schemas map[*record.Type]*gojsonschema.Schema
}

// NewJSONSchemaValidator creates a JSON Schema validator.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{schemas: make(map[*record.Type]*gojsonschema.Schema)}
}

// Validate implements record.Validator.
func (v *JSONSchemaValidator) Validate(t *record.Type, raw map[string]any) error {
	schema, err := v.schema(t)
	if err != nil {
		return err
	}

	// The Go loader walks values through encoding/json, so json.Number and
	// time.Time arrive as numbers and RFC 3339 strings.
	result, err := schema.Validate(gojsonschema.NewGoLoader(raw))
	if err != nil {
		return record.NewValidationError(t.Name(), record.FieldError{Message: err.Error()})
	}
	if result.Valid() {
		return nil
	}

	errs := make([]record.FieldError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, record.FieldError{
			Path:    resultPath(desc),
			Message: desc.Description(),
		})
	}
	return record.NewValidationError(t.Name(), errs...)
}

func (v *JSONSchemaValidator) schema(t *record.Type) (*gojsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if s, ok := v.schemas[t]; ok {
		return s, nil
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(JSONSchema(t)))
	if err != nil {
		return nil, fmt.Errorf("compile JSON schema for %s: %w", t.Name(), err)
	}
	v.schemas[t] = s
	return s, nil
}

// resultPath returns the dotted field path of a result error. Missing
// required properties are reported on their parent; the property is
// appended.
func resultPath(desc gojsonschema.ResultError) string {
	path := desc.Field()
	if path == rootContext {
		path = ""
	}
	if desc.Type() == "required" {
		if prop, ok := desc.Details()["property"].(string); ok {
			if path == "" {
				return prop
			}
			return path + "." + prop
		}
	}
	return strings.TrimPrefix(path, rootContext+".")
}
