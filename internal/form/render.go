package form

// Capabilities records which optional client integrations are available.
// They are resolved once at startup and select each field's widgets.
type Capabilities struct {
	Map             bool `json:"map"`
	DeviceLocation  bool `json:"device_location"`
	SignatureCanvas bool `json:"signature_canvas"`
}

// Widget names the input a client should present for a field.
type Widget string

const (
	WidgetTextInput        Widget = "text_input"
	WidgetTextArea         Widget = "text_area"
	WidgetDatePicker       Widget = "date_picker"
	WidgetTableEditor      Widget = "table_editor"
	WidgetMap              Widget = "map"
	WidgetDeviceLocation   Widget = "device_location"
	WidgetCoordinatesInput Widget = "coordinates_input"
	WidgetSignatureCanvas  Widget = "signature_canvas"
	WidgetRasterInput      Widget = "raster_input"
	WidgetFileUpload       Widget = "file_upload"
)

// RenderedField is a schema field resolved into a concrete input.
type RenderedField struct {
	Label    string   `json:"label"`
	Kind     Kind     `json:"type"`
	Required bool     `json:"required"`
	Widgets  []Widget `json:"widgets"`
	Default  Value    `json:"default,omitempty"`
	Accept   []string `json:"accept,omitempty"`
}

// Render produces the inputs for schema in order. Textual fields take their
// default from prefill; geolocation fields show the resolved capture; every
// other field starts empty.
func Render(schema Schema, prefill Prefill, captures GeoCaptures, caps Capabilities) []RenderedField {
	out := make([]RenderedField, 0, len(schema))
	for _, f := range schema {
		rf := RenderedField{Label: f.Label, Kind: f.Kind, Required: f.Required}
		switch f.Kind {
		case KindText:
			rf.Widgets = []Widget{WidgetTextInput}
			if v, ok := prefill.Default(f); ok {
				rf.Default = Text(v)
			}
		case KindTextArea:
			rf.Widgets = []Widget{WidgetTextArea}
			if v, ok := prefill.Default(f); ok {
				rf.Default = Text(v)
			}
		case KindDate:
			rf.Widgets = []Widget{WidgetDatePicker}
		case KindDynamicTable:
			rf.Widgets = []Widget{WidgetTableEditor}
		case KindGeolocation:
			rf.Widgets = geoWidgets(caps)
			if c := captures.Resolve(f.Label); c != nil {
				rf.Default = c
			}
		case KindSignature:
			if caps.SignatureCanvas {
				rf.Widgets = []Widget{WidgetSignatureCanvas}
			} else {
				rf.Widgets = []Widget{WidgetRasterInput}
			}
		case KindImageUpload:
			rf.Widgets = []Widget{WidgetFileUpload}
			rf.Accept = AcceptedImageTypes
		}
		out = append(out, rf)
	}
	return out
}

func geoWidgets(caps Capabilities) []Widget {
	var w []Widget
	if caps.DeviceLocation {
		w = append(w, WidgetDeviceLocation)
	}
	if caps.Map {
		w = append(w, WidgetMap)
	}
	if len(w) == 0 {
		w = append(w, WidgetCoordinatesInput)
	}
	return w
}
