package intake

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gestorcentros/internal/form"
	"gestorcentros/internal/models"
	"gestorcentros/internal/store"
)

type fixture struct {
	svc  *Service
	st   *store.Store
	user *models.User
	sess *models.Session
	tpl  *models.Template
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	dsn := "sqlite:file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	st := store.Open(ctx, dsn, zap.NewNop().Sugar())
	require.NoError(t, st.Ping(ctx))
	t.Cleanup(func() { _ = st.Close() })

	u := &models.User{Username: "ana", PasswordHash: "x", Role: models.RoleOperator, FullName: "Ana Mora"}
	require.NoError(t, st.CreateUser(ctx, u))
	area := &models.Area{Name: "Infraestructura"}
	require.NoError(t, st.CreateArea(ctx, area))
	tpl := &models.Template{
		Name: "Visita",
		Schema: form.Schema{
			{Label: "Nombre del Centro", Kind: form.KindText, Required: true},
			{Label: "Provincia", Kind: form.KindText, Required: true},
			{Label: "Observaciones", Kind: form.KindTextArea},
			{Label: "Ubicación", Kind: form.KindGeolocation, Required: true},
		},
		CreatedByID: u.ID,
		AreaID:      area.ID,
	}
	require.NoError(t, st.CreateTemplate(ctx, tpl))

	code := "1234"
	_, err := st.UpsertCenters(ctx, []models.Center{{
		Name:    "Escuela X",
		Code:    &code,
		Columns: map[string]string{"PROVINCIA": "San José", "CANTON": "Escazú"},
	}})
	require.NoError(t, err)

	now := time.Now()
	sess := &models.Session{JTI: uuid.NewString(), UserID: u.ID, ExpiresAt: now.Add(time.Hour), LastSeenAt: now}
	require.NoError(t, st.CreateSession(ctx, sess))

	caps := form.Capabilities{Map: true, DeviceLocation: true, SignatureCanvas: true}
	return &fixture{svc: NewService(st, caps, zap.NewNop().Sugar()), st: st, user: u, sess: sess, tpl: tpl}
}

func raw(t *testing.T, answers map[string]any) map[string]json.RawMessage {
	t.Helper()
	out := make(map[string]json.RawMessage, len(answers))
	for k, v := range answers {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		out[k] = b
	}
	return out
}

func TestRenderFormPrefillsFromAttachedCenter(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	err := fx.svc.AttachCenter(ctx, fx.sess, "Colegio Z")
	assert.ErrorIs(t, err, ErrUnknownCenter)

	require.NoError(t, fx.svc.AttachCenter(ctx, fx.sess, "Escuela X"))
	f, err := fx.svc.RenderForm(ctx, fx.sess, fx.tpl.ID)
	require.NoError(t, err)
	require.Len(t, f.Fields, 4)
	assert.Equal(t, form.Text("Escuela X"), f.Fields[0].Default)
	assert.Equal(t, form.Text("San José"), f.Fields[1].Default)
	assert.Nil(t, f.Fields[2].Default)
	assert.Nil(t, f.Fields[3].Default)

	// The attachment is persisted on the session.
	stored, err := fx.st.SessionByJTI(ctx, fx.sess.JTI)
	require.NoError(t, err)
	require.NotNil(t, stored.AttachedCenter)
	assert.Equal(t, "Escuela X", *stored.AttachedCenter)

	require.NoError(t, fx.svc.DetachCenter(ctx, fx.sess))
	f, err = fx.svc.RenderForm(ctx, fx.sess, fx.tpl.ID)
	require.NoError(t, err)
	assert.Nil(t, f.Fields[0].Default)
}

func TestCaptureGeoPrefersDevice(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	got, err := fx.svc.CaptureGeo(ctx, fx.sess, "Ubicación", form.SourceMap, form.Coordinates{Lat: 10, Lng: -84})
	require.NoError(t, err)
	assert.Equal(t, &form.Coordinates{Lat: 10, Lng: -84}, got)

	got, err = fx.svc.CaptureGeo(ctx, fx.sess, "Ubicación", form.SourceDevice, form.Coordinates{Lat: 11, Lng: -85})
	require.NoError(t, err)
	assert.Equal(t, &form.Coordinates{Lat: 11, Lng: -85}, got)

	f, err := fx.svc.RenderForm(ctx, fx.sess, fx.tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, &form.Coordinates{Lat: 11, Lng: -85}, f.Fields[3].Default)

	got, err = fx.svc.ClearGeo(ctx, fx.sess, "Ubicación", form.SourceDevice)
	require.NoError(t, err)
	assert.Equal(t, &form.Coordinates{Lat: 10, Lng: -84}, got)

	_, err = fx.svc.CaptureGeo(ctx, fx.sess, "Ubicación", form.SourceMap, form.Coordinates{Lat: 100})
	var iv *form.InvalidValueError
	assert.True(t, errors.As(err, &iv))
}

func TestSubmitRejectsMissingRequiredFields(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.svc.Submit(ctx, fx.sess, fx.tpl.ID, raw(t, map[string]any{"Nombre del Centro": "Escuela X"}))
	var ve *form.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"Provincia", "Ubicación"}, ve.Labels())

	n, err := fx.st.CountSubmissions(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSubmitStoresAndClearsFormState(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.svc.AttachCenter(ctx, fx.sess, "Escuela X"))
	_, err := fx.svc.CaptureGeo(ctx, fx.sess, "Ubicación", form.SourceDevice, form.Coordinates{Lat: 9.93, Lng: -84.08})
	require.NoError(t, err)

	sub, err := fx.svc.Submit(ctx, fx.sess, fx.tpl.ID, raw(t, map[string]any{
		"Nombre del Centro": "Escuela X",
		"Provincia":         "San José",
		"Ubicación":         map[string]float64{"lat": 1, "lng": 1},
		"Sobrante":          "ignored",
	}))
	require.NoError(t, err)
	assert.Nil(t, fx.sess.AttachedCenter)

	stored, err := fx.st.SessionByJTI(ctx, fx.sess.JTI)
	require.NoError(t, err)
	assert.Nil(t, stored.AttachedCenter)
	assert.Empty(t, stored.GeoCaptures)

	view, err := fx.svc.Submission(ctx, fx.user.ID, false, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "Visita", view.Template)
	assert.Equal(t, "Ana Mora", view.FullName)
	assert.Equal(t, &form.Coordinates{Lat: 9.93, Lng: -84.08}, view.Payload["Ubicación"])
	assert.Equal(t, form.Text(""), view.Payload["Observaciones"])
	assert.NotContains(t, view.Payload, "Sobrante")

	_, err = fx.svc.Submission(ctx, fx.user.ID+1, false, sub.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = fx.svc.Submission(ctx, fx.user.ID+1, true, sub.ID)
	assert.NoError(t, err)

	mine, err := fx.svc.Mine(ctx, fx.user.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, sub.ID, mine[0].ID)

	logs, err := fx.st.ListAudit(ctx, fx.user.ID, 10)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	assert.Equal(t, ActionSubmissionCreate, logs[0].Action)
}
