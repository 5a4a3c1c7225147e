package schema

import (
	"fmt"
	"strings"

	"mercator-hq/exportable/pkg/record"
)

// Validator names accepted by NewValidator.
const (
	ValidatorNone       = "none"
	ValidatorCUE        = "cue"
	ValidatorJSONSchema = "jsonschema"
)

// NewValidator returns the validator registered under name. "none" and ""
// return nil, which disables validation beyond type coercion.
func NewValidator(name string) (record.Validator, error) {
	switch strings.ToLower(name) {
	case "", ValidatorNone:
		return nil, nil
	case ValidatorCUE:
		return NewCUEValidator(), nil
	case ValidatorJSONSchema, "json-schema":
		return NewJSONSchemaValidator(), nil
	}
	return nil, fmt.Errorf("unknown validator %q (valid: %s, %s, %s)", name, ValidatorNone, ValidatorCUE, ValidatorJSONSchema)
}
