// Package form interprets stored template schemas: it decodes field
// definitions, renders them into concrete inputs with defaults, collects
// submitted values into typed payloads and validates required fields.
package form

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKind is returned when a field type is not one of the fixed kinds.
var ErrUnknownKind = errors.New("unknown field type")

// Kind is the closed set of field types a schema may use.
type Kind int

const (
	KindText Kind = iota + 1
	KindTextArea
	KindDate
	KindDynamicTable
	KindGeolocation
	KindSignature
	KindImageUpload
)

// Kinds lists every valid kind in declaration order.
var Kinds = []Kind{
	KindText,
	KindTextArea,
	KindDate,
	KindDynamicTable,
	KindGeolocation,
	KindSignature,
	KindImageUpload,
}

var kindCodes = map[Kind]string{
	KindText:         "text",
	KindTextArea:     "textarea",
	KindDate:         "date",
	KindDynamicTable: "dynamic_table",
	KindGeolocation:  "geolocation",
	KindSignature:    "signature",
	KindImageUpload:  "image_upload",
}

// Type names stored by earlier versions of the forms tool.
var legacyKinds = map[string]Kind{
	"texto":            KindText,
	"área de texto":    KindTextArea,
	"area de texto":    KindTextArea,
	"fecha":            KindDate,
	"tabla dinámica":   KindDynamicTable,
	"tabla dinamica":   KindDynamicTable,
	"geolocalización":  KindGeolocation,
	"geolocalizacion":  KindGeolocation,
	"firma":            KindSignature,
	"carga de imagen":  KindImageUpload,
}

// ParseKind resolves a type code or legacy type name.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, code := range kindCodes {
		if code == name {
			return k, nil
		}
	}
	if k, ok := legacyKinds[name]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) String() string {
	if code, ok := kindCodes[k]; ok {
		return code
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	_, ok := kindCodes[k]
	return ok
}

// Textual kinds hold a scalar string and accept prefill defaults.
func (k Kind) Textual() bool {
	return k == KindText || k == KindTextArea
}

func (k Kind) MarshalJSON() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return json.Marshal(k.String())
}

func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownKind, string(data))
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
