package form

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func rawAnswers(t *testing.T, answers map[string]any) map[string]json.RawMessage {
	t.Helper()
	out := make(map[string]json.RawMessage, len(answers))
	for k, v := range answers {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		out[k] = b
	}
	return out
}

func TestValidateRequiredFields(t *testing.T) {
	schema := Schema{
		{Label: "A", Kind: KindText, Required: true},
		{Label: "B", Kind: KindText, Required: true},
		{Label: "C", Kind: KindText},
	}

	payload, err := Collect(schema, rawAnswers(t, map[string]any{"A": "x", "C": "y"}), nil)
	require.NoError(t, err)
	err = Validate(payload, schema)
	require.Error(t, err)
	var missing MissingFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "B", missing.Label)

	payload, err = Collect(schema, rawAnswers(t, map[string]any{"A": "x", "B": "z"}), nil)
	require.NoError(t, err)
	assert.NoError(t, Validate(payload, schema))
}

func TestValidateReportsEveryMissingFieldInOrder(t *testing.T) {
	schema := Schema{
		{Label: "Fecha de visita", Kind: KindDate, Required: true},
		{Label: "Observaciones", Kind: KindTextArea, Required: true},
		{Label: "Ubicación", Kind: KindGeolocation, Required: true},
		{Label: "Firma", Kind: KindSignature, Required: true},
		{Label: "Fotos", Kind: KindImageUpload, Required: true},
		{Label: "Asistentes", Kind: KindDynamicTable, Required: true},
	}
	payload, err := Collect(schema, rawAnswers(t, map[string]any{
		"Observaciones": "   ",
		"Asistentes":    []map[string]string{{"Columna 1": "", "Columna 2": " "}},
	}), nil)
	require.NoError(t, err)

	err = Validate(payload, schema)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"Fecha de visita", "Observaciones", "Ubicación", "Firma", "Fotos", "Asistentes"}, ve.Labels())

	var first MissingFieldError
	require.True(t, errors.As(err, &first))
	assert.Equal(t, "Fecha de visita", first.Label)
}

func TestSignatureWithoutPixelsIsMissing(t *testing.T) {
	schema := Schema{{Label: "Firma", Kind: KindSignature, Required: true}}
	for _, answer := range []any{[][]any{}, [][]any{{}}, [][]any{{}, {}}} {
		payload, err := Collect(schema, rawAnswers(t, map[string]any{"Firma": answer}), nil)
		require.NoError(t, err)
		var ve *ValidationError
		require.True(t, errors.As(Validate(payload, schema), &ve), "%v", answer)
		assert.Equal(t, []string{"Firma"}, ve.Labels())
	}
}

func TestCollectDecodesEveryKind(t *testing.T) {
	schema := Schema{
		{Label: "Nombre", Kind: KindText},
		{Label: "Notas", Kind: KindTextArea},
		{Label: "Fecha", Kind: KindDate},
		{Label: "Tabla", Kind: KindDynamicTable},
		{Label: "Ubicación", Kind: KindGeolocation},
		{Label: "Firma", Kind: KindSignature},
		{Label: "Fotos", Kind: KindImageUpload},
	}
	raw := rawAnswers(t, map[string]any{
		"Nombre":    "Escuela X",
		"Notas":     "todo bien",
		"Fecha":     "2024-03-01",
		"Tabla":     []map[string]any{{"Aula": "1", "Alumnos": 25}},
		"Ubicación": map[string]float64{"lat": 9.93, "lng": -84.08},
		"Firma":     [][][4]uint8{{{0, 0, 0, 255}, {255, 255, 255, 255}}},
		"Fotos":     []map[string]string{{"filename": "aula.png", "content": base64.StdEncoding.EncodeToString(pngHeader)}},
		"Ignorado":  "dropped",
	})

	payload, err := Collect(schema, raw, nil)
	require.NoError(t, err)
	require.NoError(t, Validate(payload, schema))

	assert.Equal(t, Text("Escuela X"), payload["Nombre"])
	assert.Equal(t, "2024-03-01", payload["Fecha"].(Date).Format(DateLayout))
	assert.Equal(t, Table{{"Aula": "1", "Alumnos": "25"}}, payload["Tabla"])
	assert.Equal(t, &Coordinates{Lat: 9.93, Lng: -84.08}, payload["Ubicación"])
	assert.Equal(t, Raster{{{0, 0, 0, 255}, {255, 255, 255, 255}}}, payload["Firma"])
	imgs := payload["Fotos"].(Images)
	require.Len(t, imgs, 1)
	assert.Equal(t, "image/png", imgs[0].MIMEType)
	assert.NotContains(t, payload, "Ignorado")

	// Stored payload reads back to the same typed values.
	stored, err := json.Marshal(payload)
	require.NoError(t, err)
	back, err := DecodePayload(schema, stored)
	require.NoError(t, err)
	assert.Equal(t, payload, back)
}

func TestCollectJoinsInvalidValues(t *testing.T) {
	schema := Schema{
		{Label: "Fecha", Kind: KindDate},
		{Label: "Ubicación", Kind: KindGeolocation},
		{Label: "Firma", Kind: KindSignature},
		{Label: "Fotos", Kind: KindImageUpload},
		{Label: "Nombre", Kind: KindText},
	}
	raw := rawAnswers(t, map[string]any{
		"Fecha":     "01/03/2024",
		"Ubicación": map[string]float64{"lat": 120, "lng": 0},
		"Firma":     [][][4]uint8{{{0, 0, 0, 0}}, {}},
		"Fotos":     []map[string]string{{"filename": "x.gif", "content": base64.StdEncoding.EncodeToString([]byte("GIF89a......"))}},
		"Nombre":    42,
	})

	_, err := Collect(schema, raw, nil)
	require.Error(t, err)
	invalid := InvalidValues(err)
	labels := make([]string, len(invalid))
	for i, iv := range invalid {
		labels[i] = iv.Label
	}
	assert.Equal(t, []string{"Fecha", "Ubicación", "Firma", "Fotos", "Nombre"}, labels)
}

func TestPrefillFromCenterRecord(t *testing.T) {
	schema := Schema{
		{Label: "Nombre del Centro", Kind: KindText},
		{Label: "Provincia", Kind: KindText},
		{Label: "Distrito", Kind: KindText},
		{Label: "Código Saber", Kind: KindDate},
	}
	prefill := CenterPrefill(map[string]string{
		"CENTRO_EDUCATIVO": "Escuela X",
		"provincia":        "San José",
		"CODSABER":         "1234",
	})

	fields := Render(schema, prefill, nil, Capabilities{})
	require.Len(t, fields, 4)
	assert.Equal(t, Text("Escuela X"), fields[0].Default)
	assert.Equal(t, Text("San José"), fields[1].Default)
	assert.Nil(t, fields[2].Default)
	// Only textual fields take prefill.
	assert.Nil(t, fields[3].Default)
}

func TestCenterPrefillIgnoresAccentsInColumns(t *testing.T) {
	p := CenterPrefill(map[string]string{"Cantón": "Escazú", "DIRECCIÓN": "200 m norte"})
	assert.Equal(t, Prefill{"Cantón": "Escazú", "Dirección": "200 m norte"}, p)
	assert.Nil(t, CenterPrefill(nil))
	assert.Equal(t, "Escuela X", Column(map[string]string{"centro_educativo": "Escuela X"}, CenterNameColumn))
}

func TestGeolocationPriority(t *testing.T) {
	schema := Schema{{Label: "Ubicación", Kind: KindGeolocation}}
	mapClick := Coordinates{Lat: 10.123456, Lng: -84.654321}
	device := Coordinates{Lat: 11.111111, Lng: -85.555555}

	captures, err := GeoCaptures(nil).With("Ubicación", SourceMap, mapClick)
	require.NoError(t, err)
	fields := Render(schema, nil, captures, Capabilities{Map: true})
	assert.Equal(t, &mapClick, fields[0].Default)

	captures, err = captures.With("Ubicación", SourceDevice, device)
	require.NoError(t, err)
	fields = Render(schema, nil, captures, Capabilities{Map: true})
	assert.Equal(t, &device, fields[0].Default)

	// A submitted map point does not override a captured device position.
	payload, err := Collect(schema, rawAnswers(t, map[string]any{"Ubicación": mapClick}), captures)
	require.NoError(t, err)
	assert.Equal(t, &device, payload["Ubicación"])

	captures = captures.Without("Ubicación", SourceDevice)
	fields = Render(schema, nil, captures, Capabilities{Map: true})
	assert.Equal(t, &mapClick, fields[0].Default)

	captures = captures.Without("Ubicación", "")
	assert.Empty(t, captures)
	fields = Render(schema, nil, captures, Capabilities{Map: true})
	assert.Nil(t, fields[0].Default)

	payload, err = Collect(schema, nil, captures)
	require.NoError(t, err)
	assert.True(t, payload["Ubicación"].IsEmpty())
}

func TestGeoCapturesDoNotMutateReceiver(t *testing.T) {
	orig := GeoCaptures{"A": {Map: &Coordinates{Lat: 1, Lng: 1}}}
	next, err := orig.With("A", SourceDevice, Coordinates{Lat: 2, Lng: 2})
	require.NoError(t, err)
	assert.Nil(t, orig["A"].Device)
	assert.NotNil(t, next["A"].Device)

	_, err = orig.With("A", SourceDevice, Coordinates{Lat: 91})
	assert.Error(t, err)
}

func TestRenderWidgetsFollowCapabilities(t *testing.T) {
	schema := Schema{
		{Label: "Ubicación", Kind: KindGeolocation},
		{Label: "Firma", Kind: KindSignature},
	}
	full := Render(schema, nil, nil, Capabilities{Map: true, DeviceLocation: true, SignatureCanvas: true})
	assert.Equal(t, []Widget{WidgetDeviceLocation, WidgetMap}, full[0].Widgets)
	assert.Equal(t, []Widget{WidgetSignatureCanvas}, full[1].Widgets)

	bare := Render(schema, nil, nil, Capabilities{})
	assert.Equal(t, []Widget{WidgetCoordinatesInput}, bare[0].Widgets)
	assert.Equal(t, []Widget{WidgetRasterInput}, bare[1].Widgets)
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "hola", Summary(Text("hola")))
	assert.Equal(t, "", Summary((*Coordinates)(nil)))
	assert.Equal(t, "9.930000, -84.080000", Summary(&Coordinates{Lat: 9.93, Lng: -84.08}))
	assert.Equal(t, "2 rows", Summary(Table{{}, {}}))
	assert.Equal(t, "a.png, b.jpg", Summary(Images{{Filename: "a.png"}, {Filename: "b.jpg"}}))
}
