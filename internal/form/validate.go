package form

import (
	"fmt"
	"strings"
)

// MissingFieldError names a required field with no usable answer.
type MissingFieldError struct {
	Label string
}

func (e MissingFieldError) Error() string {
	return fmt.Sprintf("field %q is required", e.Label)
}

// ValidationError lists every missing required field in schema order.
type ValidationError struct {
	Missing []MissingFieldError
}

func (e *ValidationError) Error() string {
	labels := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		labels[i] = fmt.Sprintf("%q", m.Label)
	}
	return "required fields missing: " + strings.Join(labels, ", ")
}

// Unwrap exposes each MissingFieldError to errors.As; the first one found is
// the first missing field in schema order.
func (e *ValidationError) Unwrap() []error {
	out := make([]error, len(e.Missing))
	for i, m := range e.Missing {
		out[i] = m
	}
	return out
}

// Labels returns the missing labels.
func (e *ValidationError) Labels() []string {
	out := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		out[i] = m.Label
	}
	return out
}

// Validate checks that every required field of schema has a non-empty
// answer in payload. It reports all failures rather than stopping at the
// first one.
func Validate(payload Payload, schema Schema) error {
	var missing []MissingFieldError
	for _, f := range schema {
		if !f.Required {
			continue
		}
		v, ok := payload[f.Label]
		if !ok || v == nil || v.IsEmpty() {
			missing = append(missing, MissingFieldError{Label: f.Label})
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}
