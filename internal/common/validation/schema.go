// Package validation checks job variables and application snapshots against
// JSON schemas before they reach the loan core.
package validation

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	apperrors "staff-loans/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Err folds the result into an INVALID_INPUT error, or nil when valid.
func (r *ValidationResult) Err() error {
	if r == nil || r.Valid {
		return nil
	}
	parts := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		parts[i] = e.Field + ": " + e.Message
	}
	return apperrors.NewInvalidInputError(strings.Join(parts, "; "))
}

// Schema is a compiled JSON schema.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

// Compile builds a schema from a decoded JSON document.
func Compile(name string, doc map[string]interface{}) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Schema{name: name, schema: s}, nil
}

// MustCompile builds a schema from JSON text and panics if it is invalid.
// It is meant for package-level schema literals.
func MustCompile(name, text string) *Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(text))
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return &Schema{name: name, schema: s}
}

func (s *Schema) Name() string { return s.name }

// Validate checks raw JSON, typically job variables.
func (s *Schema) Validate(raw []byte) *ValidationResult {
	if len(strings.TrimSpace(string(raw))) == 0 {
		raw = []byte("{}")
	}
	return s.check(gojsonschema.NewBytesLoader(raw))
}

// ValidateValue checks any value that marshals to JSON.
func (s *Schema) ValidateValue(v interface{}) *ValidationResult {
	raw, err := json.Marshal(v)
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{Field: "(root)", Message: err.Error(), Code: "UNENCODABLE"}}}
	}
	return s.Validate(raw)
}

// ValidateField checks the top-level property field of raw. An absent field
// passes; the enclosing schema decides whether it is required.
func (s *Schema) ValidateField(raw []byte, field string) *ValidationResult {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return &ValidationResult{Errors: []ValidationError{{Field: "(root)", Message: err.Error(), Code: "INVALID_JSON"}}}
	}
	value, ok := doc[field]
	if !ok || string(value) == "null" {
		return &ValidationResult{Valid: true}
	}

	result := s.Validate(value)
	for i := range result.Errors {
		if result.Errors[i].Field == "(root)" {
			result.Errors[i].Field = field
		} else {
			result.Errors[i].Field = field + "." + result.Errors[i].Field
		}
	}
	return result
}

func (s *Schema) check(doc gojsonschema.JSONLoader) *ValidationResult {
	result, err := s.schema.Validate(doc)
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{Field: "(root)", Message: err.Error(), Code: "INVALID_JSON"}}}
	}
	if result.Valid() {
		return &ValidationResult{Valid: true}
	}

	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, ValidationError{
			Field:   fieldOf(desc),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return &ValidationResult{Errors: errs}
}

// fieldOf names the offending property. For a missing required property
// gojsonschema reports the parent, so the property name is appended.
func fieldOf(desc gojsonschema.ResultError) string {
	field := desc.Field()
	if desc.Type() == "required" {
		if prop, ok := desc.Details()["property"].(string); ok {
			if field == "(root)" {
				return prop
			}
			return field + "." + prop
		}
	}
	return field
}
