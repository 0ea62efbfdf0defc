package form

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Prefill maps field labels to default text.
type Prefill map[string]string

// centerColumns maps reference-dataset columns to the form labels they fill.
var centerColumns = []struct {
	Column string
	Label  string
}{
	{"CENTRO_EDUCATIVO", "Nombre del Centro"},
	{"PROVINCIA", "Provincia"},
	{"CANTON", "Cantón"},
	{"DISTRITO", "Distrito"},
	{"DIRECCION", "Dirección"},
	{"CODSABER", "Código Saber"},
}

// CenterPrefill builds defaults from a center record. Column keys match
// ignoring case and accents; unknown columns are ignored.
func CenterPrefill(record map[string]string) Prefill {
	if len(record) == 0 {
		return nil
	}
	byKey := make(map[string]string, len(record))
	for col, v := range record {
		byKey[columnKey(col)] = v
	}
	p := make(Prefill)
	for _, c := range centerColumns {
		if v, ok := byKey[columnKey(c.Column)]; ok {
			p[c.Label] = v
		}
	}
	return p
}

// Default returns the prefill for f. Only textual fields take defaults.
func (p Prefill) Default(f FieldDefinition) (string, bool) {
	if !f.Kind.Textual() {
		return "", false
	}
	v, ok := p[f.Label]
	return v, ok
}

// CenterNameColumn is the dataset column holding the center's name.
const CenterNameColumn = "CENTRO_EDUCATIVO"

// CenterCodeColumn is the dataset column holding the center's code.
const CenterCodeColumn = "CODSABER"

// Column reads a dataset column from record, matching keys like CenterPrefill.
func Column(record map[string]string, column string) string {
	want := columnKey(column)
	for k, v := range record {
		if columnKey(k) == want {
			return v
		}
	}
	return ""
}

func columnKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		out = strings.TrimSpace(s)
	}
	return strings.ToUpper(out)
}
