package form

import "fmt"

// GeoSource names where a captured location came from.
type GeoSource string

const (
	SourceDevice GeoSource = "device"
	SourceMap    GeoSource = "map"
)

// ParseGeoSource validates a source name.
func ParseGeoSource(s string) (GeoSource, error) {
	switch GeoSource(s) {
	case SourceDevice, SourceMap:
		return GeoSource(s), nil
	}
	return "", fmt.Errorf("unknown location source %q", s)
}

// GeoCapture remembers the locations captured for one field.
type GeoCapture struct {
	Device *Coordinates `json:"device,omitempty"`
	Map    *Coordinates `json:"map,omitempty"`
}

// Resolve picks the device position over a map click, or nil when neither
// was captured.
func (g GeoCapture) Resolve() *Coordinates {
	if g.Device != nil {
		return g.Device
	}
	return g.Map
}

func (g GeoCapture) empty() bool { return g.Device == nil && g.Map == nil }

// GeoCaptures holds captures keyed by field label. Updates return a new map
// so a session's stored value is never mutated in place.
type GeoCaptures map[string]GeoCapture

// Resolve returns the effective location for label.
func (c GeoCaptures) Resolve(label string) *Coordinates {
	return c[label].Resolve()
}

// With records point as label's location from source.
func (c GeoCaptures) With(label string, source GeoSource, point Coordinates) (GeoCaptures, error) {
	if err := point.check(); err != nil {
		return nil, err
	}
	out := c.clone()
	g := out[label]
	p := point
	switch source {
	case SourceDevice:
		g.Device = &p
	case SourceMap:
		g.Map = &p
	default:
		return nil, fmt.Errorf("unknown location source %q", source)
	}
	out[label] = g
	return out, nil
}

// Without clears label's location from source, or from every source when
// source is empty.
func (c GeoCaptures) Without(label string, source GeoSource) GeoCaptures {
	out := c.clone()
	g := out[label]
	switch source {
	case SourceDevice:
		g.Device = nil
	case SourceMap:
		g.Map = nil
	default:
		g = GeoCapture{}
	}
	if g.empty() {
		delete(out, label)
	} else {
		out[label] = g
	}
	return out
}

func (c GeoCaptures) clone() GeoCaptures {
	out := make(GeoCaptures, len(c)+1)
	for k, v := range c {
		out[k] = v
	}
	return out
}
