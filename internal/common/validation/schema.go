// Package validation checks job variables against declarative JSON schemas.
package validation

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// JSONSchema is the subset of JSON Schema the workers declare their inputs with.
type JSONSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties bool                `json:"additionalProperties"`
}

type Property struct {
	Type        string              `json:"type"`
	Description string              `json:"description,omitempty"`
	Minimum     *float64            `json:"minimum,omitempty"`
	Maximum     *float64            `json:"maximum,omitempty"`
	Enum        []string            `json:"enum,omitempty"`
	Pattern     *string             `json:"pattern,omitempty"`
	MinLength   *int                `json:"minLength,omitempty"`
	MaxLength   *int                `json:"maxLength,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
	Required    []string            `json:"required,omitempty"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

var errorCodes = map[string]string{
	"required":                        "REQUIRED_FIELD_MISSING",
	"additional_property_not_allowed": "EXTRA_FIELD",
	"invalid_type":                    "INVALID_TYPE",
	"string_gte":                      "MIN_LENGTH_VIOLATION",
	"string_lte":                      "MAX_LENGTH_VIOLATION",
	"pattern":                         "PATTERN_MISMATCH",
	"enum":                            "INVALID_ENUM_VALUE",
	"number_gte":                      "MINIMUM_VIOLATION",
	"number_lte":                      "MAXIMUM_VIOLATION",
}

// ValidateInput validates input against schema. A schema that cannot be
// compiled is reported as a single SCHEMA_INVALID error.
func ValidateInput(input map[string]interface{}, schema JSONSchema) *ValidationResult {
	if input == nil {
		input = map[string]interface{}{}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(input))
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{
			Field:   "(schema)",
			Message: err.Error(),
			Code:    "SCHEMA_INVALID",
		}}}
	}

	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, toValidationError(desc))
	}
	return &ValidationResult{Valid: result.Valid(), Errors: errs}
}

func toValidationError(desc gojsonschema.ResultError) ValidationError {
	field := desc.Field()
	if prop, ok := desc.Details()["property"].(string); ok {
		if field == "(root)" {
			field = prop
		} else {
			field = field + "." + prop
		}
	}

	code, ok := errorCodes[desc.Type()]
	if !ok {
		code = strings.ToUpper(desc.Type())
	}
	return ValidationError{Field: field, Message: desc.Description(), Code: code}
}

// DecodeInput validates vars and decodes them into out.
func DecodeInput(vars map[string]interface{}, schema JSONSchema, out interface{}) (*ValidationResult, error) {
	res := ValidateInput(vars, schema)
	if !res.Valid {
		return res, nil
	}
	raw, err := json.Marshal(vars)
	if err != nil {
		return res, fmt.Errorf("re-encode variables: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return res, fmt.Errorf("decode variables: %w", err)
	}
	return res, nil
}

func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors reports whether field, or anything nested under it, failed.
func (vr *ValidationResult) HasErrors(field string) bool {
	return len(vr.GetErrorsForField(field)) > 0
}

// FieldsWithErrors lists the schema's top-level properties that failed, sorted.
func (vr *ValidationResult) FieldsWithErrors(schema JSONSchema) []string {
	var fields []string
	for name := range schema.Properties {
		if vr.HasErrors(name) {
			fields = append(fields, name)
		}
	}
	sort.Strings(fields)
	return fields
}

// GetErrorsForField returns errors for field and anything nested under it.
func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}

func IntPtr(i int) *int { return &i }

func StringPtr(s string) *string { return &s }
