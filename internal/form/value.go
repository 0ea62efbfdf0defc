package form

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format of Date values.
const DateLayout = "2006-01-02"

// MaxImageBytes bounds a single uploaded image.
const MaxImageBytes = 10 << 20

// AcceptedImageTypes are the content types an image upload may carry.
var AcceptedImageTypes = []string{"image/png", "image/jpeg"}

// Value is a collected field value. The concrete type is fixed by the
// field's Kind: Text, Date, Table, *Coordinates, Raster or Images.
type Value interface {
	IsEmpty() bool
	sealed()
}

// Text holds Text and TextArea answers.
type Text string

func (v Text) IsEmpty() bool { return strings.TrimSpace(string(v)) == "" }
func (Text) sealed()         {}

// Date is a calendar day without time of day.
type Date struct {
	time.Time
}

func (v Date) IsEmpty() bool { return v.Time.IsZero() }
func (Date) sealed()         {}

func (v Date) MarshalJSON() ([]byte, error) {
	if v.IsEmpty() {
		return []byte("null"), nil
	}
	return json.Marshal(v.Format(DateLayout))
}

func (v *Date) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("expected a date string")
	}
	if s == nil || strings.TrimSpace(*s) == "" {
		*v = Date{}
		return nil
	}
	t, err := time.Parse(DateLayout, strings.TrimSpace(*s))
	if err != nil {
		return fmt.Errorf("expected a date as YYYY-MM-DD")
	}
	*v = Date{t}
	return nil
}

// Row is one line of a dynamic table, keyed by column name.
type Row map[string]string

// Table is a user-extensible list of rows.
type Table []Row

// IsEmpty reports whether no row carries a non-blank cell.
func (v Table) IsEmpty() bool {
	for _, row := range v {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				return false
			}
		}
	}
	return true
}

func (Table) sealed() {}

func (v *Table) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var rows []map[string]any
	if err := dec.Decode(&rows); err != nil {
		return fmt.Errorf("expected a list of rows")
	}
	out := make(Table, 0, len(rows))
	for i, row := range rows {
		r := make(Row, len(row))
		for col, cell := range row {
			switch c := cell.(type) {
			case nil:
				r[col] = ""
			case string:
				r[col] = c
			case json.Number:
				r[col] = c.String()
			case bool:
				r[col] = strconv.FormatBool(c)
			default:
				return fmt.Errorf("row %d column %q: expected a scalar", i+1, col)
			}
		}
		out = append(out, r)
	}
	*v = out
	return nil
}

// Coordinates is a WGS84 point. A nil *Coordinates is an absent location.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (c *Coordinates) IsEmpty() bool { return c == nil }
func (*Coordinates) sealed()         {}

func (c Coordinates) check() error {
	if c.Lat < -90 || c.Lat > 90 || c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("coordinates out of range")
	}
	return nil
}

// Pixel is one RGBA sample.
type Pixel [4]uint8

// Raster is a signature bitmap as rows of pixels.
type Raster [][]Pixel

// IsEmpty reports whether the raster holds no pixels, which includes rows
// of zero width.
func (v Raster) IsEmpty() bool {
	for _, row := range v {
		if len(row) > 0 {
			return false
		}
	}
	return true
}

func (Raster) sealed() {}

func (v Raster) check() error {
	for i, row := range v {
		if len(row) != len(v[0]) {
			return fmt.Errorf("row %d has %d pixels, want %d", i+1, len(row), len(v[0]))
		}
	}
	return nil
}

// ImageFile is an uploaded picture. Content is base64 on the wire.
type ImageFile struct {
	Filename string `json:"filename"`
	Content  []byte `json:"content"`
	MIMEType string `json:"mime_type"`
}

// Images holds zero or more uploads for an ImageUpload field.
type Images []ImageFile

func (v Images) IsEmpty() bool { return len(v) == 0 }
func (Images) sealed()         {}

func (v Images) check() (Images, error) {
	out := make(Images, 0, len(v))
	for i, img := range v {
		name := strings.TrimSpace(img.Filename)
		if name == "" {
			return nil, fmt.Errorf("image %d: filename is required", i+1)
		}
		if len(img.Content) == 0 {
			return nil, fmt.Errorf("image %q is empty", name)
		}
		if len(img.Content) > MaxImageBytes {
			return nil, fmt.Errorf("image %q exceeds %d bytes", name, MaxImageBytes)
		}
		sniffed := http.DetectContentType(img.Content)
		if !acceptedImage(sniffed) {
			return nil, fmt.Errorf("image %q is %s, want png or jpeg", name, sniffed)
		}
		out = append(out, ImageFile{Filename: name, Content: img.Content, MIMEType: sniffed})
	}
	return out, nil
}

func acceptedImage(mime string) bool {
	for _, t := range AcceptedImageTypes {
		if t == mime {
			return true
		}
	}
	return false
}

// DecodeValue parses a raw JSON value into the value type of kind.
// JSON null and absent values decode to the kind's empty value.
func DecodeValue(kind Kind, raw json.RawMessage) (Value, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage("null")
	}
	switch kind {
	case KindText, KindTextArea:
		var s *string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("expected text")
		}
		if s == nil {
			return Text(""), nil
		}
		return Text(*s), nil
	case KindDate:
		var d Date
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		return d, nil
	case KindDynamicTable:
		if isNull(raw) {
			return Table(nil), nil
		}
		var t Table
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		return t, nil
	case KindGeolocation:
		var p *struct {
			Lat *float64 `json:"lat"`
			Lng *float64 `json:"lng"`
		}
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("expected an object with lat and lng")
		}
		if p == nil {
			return (*Coordinates)(nil), nil
		}
		if p.Lat == nil || p.Lng == nil {
			return nil, fmt.Errorf("expected an object with lat and lng")
		}
		c := &Coordinates{Lat: *p.Lat, Lng: *p.Lng}
		if err := c.check(); err != nil {
			return nil, err
		}
		return c, nil
	case KindSignature:
		var r Raster
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("expected a pixel raster")
		}
		if err := r.check(); err != nil {
			return nil, err
		}
		return r, nil
	case KindImageUpload:
		var imgs Images
		if err := json.Unmarshal(raw, &imgs); err != nil {
			return nil, fmt.Errorf("expected a list of images")
		}
		return imgs.check()
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
	}
}

// Empty returns the empty value of kind.
func Empty(kind Kind) Value {
	switch kind {
	case KindText, KindTextArea:
		return Text("")
	case KindDate:
		return Date{}
	case KindDynamicTable:
		return Table(nil)
	case KindGeolocation:
		return (*Coordinates)(nil)
	case KindSignature:
		return Raster(nil)
	case KindImageUpload:
		return Images(nil)
	default:
		return nil
	}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
