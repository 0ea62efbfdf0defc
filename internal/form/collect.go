package form

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Payload is a submission's answers keyed by field label.
type Payload map[string]Value

// InvalidValueError reports a submitted value that does not match its
// field's shape.
type InvalidValueError struct {
	Label  string
	Reason string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Label, e.Reason)
}

// InvalidValues returns every *InvalidValueError joined into err.
func InvalidValues(err error) []*InvalidValueError {
	if iv, ok := err.(*InvalidValueError); ok {
		return []*InvalidValueError{iv}
	}
	j, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return nil
	}
	var out []*InvalidValueError
	for _, e := range j.Unwrap() {
		out = append(out, InvalidValues(e)...)
	}
	return out
}

// Collect decodes raw answers against schema. Labels not in the schema are
// dropped. A geolocation answer counts as a map click: a captured device
// position for the same label takes priority over it, and a remembered map
// click stands in when the answer is absent. All shape errors are joined.
func Collect(schema Schema, raw map[string]json.RawMessage, captures GeoCaptures) (Payload, error) {
	payload := make(Payload, len(schema))
	var errs []error
	for _, f := range schema {
		r := raw[f.Label]
		if f.Kind == KindGeolocation {
			v, err := collectGeo(f.Label, r, captures)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			payload[f.Label] = v
			continue
		}
		v, err := DecodeValue(f.Kind, r)
		if err != nil {
			errs = append(errs, &InvalidValueError{Label: f.Label, Reason: err.Error()})
			continue
		}
		payload[f.Label] = v
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return payload, nil
}

func collectGeo(label string, raw json.RawMessage, captures GeoCaptures) (Value, error) {
	g := captures[label]
	v, err := DecodeValue(KindGeolocation, raw)
	if err != nil {
		return nil, &InvalidValueError{Label: label, Reason: err.Error()}
	}
	if c := v.(*Coordinates); c != nil {
		g.Map = c
	}
	return g.Resolve(), nil
}

// DecodePayload reads a stored payload back into typed values. Stored labels
// missing from schema are skipped.
func DecodePayload(schema Schema, data []byte) (Payload, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	payload := make(Payload, len(raw))
	for _, f := range schema {
		r, ok := raw[f.Label]
		if !ok {
			continue
		}
		v, err := DecodeValue(f.Kind, r)
		if err != nil {
			return nil, fmt.Errorf("decode payload: field %q: %w", f.Label, err)
		}
		payload[f.Label] = v
	}
	return payload, nil
}

// Summary renders v as a single line of text, for listings and exports.
func Summary(v Value) string {
	switch t := v.(type) {
	case nil:
		return ""
	case Text:
		return string(t)
	case Date:
		if t.IsEmpty() {
			return ""
		}
		return t.Format(DateLayout)
	case Table:
		return fmt.Sprintf("%d rows", len(t))
	case *Coordinates:
		if t == nil {
			return ""
		}
		return fmt.Sprintf("%.6f, %.6f", t.Lat, t.Lng)
	case Raster:
		if t.IsEmpty() {
			return ""
		}
		return fmt.Sprintf("signature %dx%d", len(t[0]), len(t))
	case Images:
		names := make([]string, len(t))
		for i, img := range t {
			names[i] = img.Filename
		}
		return strings.Join(names, ", ")
	default:
		return ""
	}
}
