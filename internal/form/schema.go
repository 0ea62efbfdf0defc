package form

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoFields       = errors.New("schema must have at least one field")
	ErrEmptyLabel     = errors.New("field label is required")
	ErrDuplicateLabel = errors.New("field label is duplicated")
)

// FieldError locates a schema problem by position and label.
type FieldError struct {
	Index int
	Label string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Label == "" {
		return fmt.Sprintf("field %d: %v", e.Index+1, e.Err)
	}
	return fmt.Sprintf("field %d (%q): %v", e.Index+1, e.Label, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// FieldDefinition is one entry of a template schema. Labels double as
// payload keys.
type FieldDefinition struct {
	Label    string `json:"label"`
	Kind     Kind   `json:"type"`
	Required bool   `json:"required"`
}

func (f *FieldDefinition) UnmarshalJSON(data []byte) error {
	var raw struct {
		Label          *string `json:"label"`
		Type           *Kind   `json:"type"`
		Required       *bool   `json:"required"`
		LegacyLabel    *string `json:"Etiqueta del Campo"`
		LegacyType     *Kind   `json:"Tipo de Campo"`
		LegacyRequired *bool   `json:"Requerido"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = FieldDefinition{}
	switch {
	case raw.Label != nil:
		f.Label = *raw.Label
	case raw.LegacyLabel != nil:
		f.Label = *raw.LegacyLabel
	}
	switch {
	case raw.Type != nil:
		f.Kind = *raw.Type
	case raw.LegacyType != nil:
		f.Kind = *raw.LegacyType
	}
	switch {
	case raw.Required != nil:
		f.Required = *raw.Required
	case raw.LegacyRequired != nil:
		f.Required = *raw.LegacyRequired
	}
	return nil
}

// Schema is the ordered field list of a template.
type Schema []FieldDefinition

// DecodeSchema parses a stored schema and checks it.
func DecodeSchema(data []byte) (Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	return s, s.Check()
}

// Normalized returns a copy with labels trimmed of surrounding whitespace.
func (s Schema) Normalized() Schema {
	out := make(Schema, len(s))
	for i, f := range s {
		f.Label = strings.TrimSpace(f.Label)
		out[i] = f
	}
	return out
}

// Check reports the first structural problem of the schema.
// Label uniqueness ignores case and surrounding whitespace.
func (s Schema) Check() error {
	if len(s) == 0 {
		return ErrNoFields
	}
	seen := make(map[string]struct{}, len(s))
	for i, f := range s {
		label := strings.TrimSpace(f.Label)
		if label == "" {
			return &FieldError{Index: i, Err: ErrEmptyLabel}
		}
		if !f.Kind.Valid() {
			return &FieldError{Index: i, Label: label, Err: ErrUnknownKind}
		}
		key := strings.ToLower(label)
		if _, dup := seen[key]; dup {
			return &FieldError{Index: i, Label: label, Err: ErrDuplicateLabel}
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Field looks up a definition by its exact label.
func (s Schema) Field(label string) (FieldDefinition, bool) {
	for _, f := range s {
		if f.Label == label {
			return f, true
		}
	}
	return FieldDefinition{}, false
}
