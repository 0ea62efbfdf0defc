// Package intake renders templates for operators, keeps the per-session
// form state and records validated submissions.
package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"gestorcentros/internal/form"
	"gestorcentros/internal/models"
	"gestorcentros/internal/store"
)

var (
	ErrUnknownCenter = errors.New("center not found")
	ErrEmptyLabel    = errors.New("field label is required")
)

const ActionSubmissionCreate = "SUBMISSION_CREATE"

type Store interface {
	TemplateByID(ctx context.Context, id uint) (*models.Template, error)
	CenterByName(ctx context.Context, name string) (*models.Center, error)
	SetAttachedCenter(ctx context.Context, jti string, center *string) error
	SetGeoCaptures(ctx context.Context, jti string, captures form.GeoCaptures) error
	CreateSubmission(ctx context.Context, sub *models.Submission, jti string) error
	SubmissionByID(ctx context.Context, id uint) (*models.Submission, error)
	ListSubmissionsByUser(ctx context.Context, userID uint) ([]store.UserSubmission, error)
	Audit(ctx context.Context, userID *uint, action string, metadata map[string]any) error
}

type Service struct {
	store Store
	caps  form.Capabilities
	lg    *zap.SugaredLogger
}

func NewService(st Store, caps form.Capabilities, lg *zap.SugaredLogger) *Service {
	return &Service{store: st, caps: caps, lg: lg}
}

// Form is a template rendered for one session.
type Form struct {
	TemplateID   uint                 `json:"template_id"`
	TemplateName string               `json:"template_name"`
	AreaID       uint                 `json:"area_id"`
	Center       *string              `json:"center,omitempty"`
	Capabilities form.Capabilities    `json:"capabilities"`
	Fields       []form.RenderedField `json:"fields"`
}

// RenderForm resolves the template's fields for sess: text fields are
// prefilled from the attached center and geolocation fields show the
// session's captured locations.
func (s *Service) RenderForm(ctx context.Context, sess *models.Session, templateID uint) (*Form, error) {
	t, err := s.store.TemplateByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	var prefill form.Prefill
	if sess.AttachedCenter != nil {
		c, err := s.store.CenterByName(ctx, *sess.AttachedCenter)
		switch {
		case err == nil:
			prefill = form.CenterPrefill(centerRecord(c))
		case errors.Is(err, store.ErrNotFound):
			s.lg.Warnw("attached center no longer exists", "center", *sess.AttachedCenter)
		default:
			return nil, err
		}
	}
	return &Form{
		TemplateID:   t.ID,
		TemplateName: t.Name,
		AreaID:       t.AreaID,
		Center:       sess.AttachedCenter,
		Capabilities: s.caps,
		Fields:       form.Render(t.Schema, prefill, sess.GeoCaptures, s.caps),
	}, nil
}

// centerRecord returns the center's columns, with its name and code filled
// in from the row itself when the dataset omitted them.
func centerRecord(c *models.Center) map[string]string {
	rec := make(map[string]string, len(c.Columns)+2)
	for k, v := range c.Columns {
		rec[k] = v
	}
	if form.Column(rec, form.CenterNameColumn) == "" {
		rec[form.CenterNameColumn] = c.Name
	}
	if c.Code != nil && form.Column(rec, form.CenterCodeColumn) == "" {
		rec[form.CenterCodeColumn] = *c.Code
	}
	return rec
}

// AttachCenter selects the center whose record prefills the session's forms.
func (s *Service) AttachCenter(ctx context.Context, sess *models.Session, name string) error {
	name = strings.TrimSpace(name)
	if _, err := s.store.CenterByName(ctx, name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %q", ErrUnknownCenter, name)
		}
		return err
	}
	if err := s.store.SetAttachedCenter(ctx, sess.JTI, &name); err != nil {
		return err
	}
	sess.AttachedCenter = &name
	return nil
}

func (s *Service) DetachCenter(ctx context.Context, sess *models.Session) error {
	if err := s.store.SetAttachedCenter(ctx, sess.JTI, nil); err != nil {
		return err
	}
	sess.AttachedCenter = nil
	return nil
}

// CaptureGeo remembers point as the location of label from source. It
// returns the location the form will now show for label.
func (s *Service) CaptureGeo(ctx context.Context, sess *models.Session, label string, source form.GeoSource, point form.Coordinates) (*form.Coordinates, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, ErrEmptyLabel
	}
	next, err := sess.GeoCaptures.With(label, source, point)
	if err != nil {
		return nil, &form.InvalidValueError{Label: label, Reason: err.Error()}
	}
	if err := s.store.SetGeoCaptures(ctx, sess.JTI, next); err != nil {
		return nil, err
	}
	sess.GeoCaptures = next
	return next.Resolve(label), nil
}

// ClearGeo forgets label's location from source, or from every source when
// source is empty.
func (s *Service) ClearGeo(ctx context.Context, sess *models.Session, label string, source form.GeoSource) (*form.Coordinates, error) {
	next := sess.GeoCaptures.Without(strings.TrimSpace(label), source)
	if err := s.store.SetGeoCaptures(ctx, sess.JTI, next); err != nil {
		return nil, err
	}
	sess.GeoCaptures = next
	return next.Resolve(label), nil
}

// Submit validates raw answers against the template and records them as one
// submission by the session's user. Nothing is stored when validation
// fails. A stored submission clears the session's attached center and
// captured locations.
func (s *Service) Submit(ctx context.Context, sess *models.Session, templateID uint, raw map[string]json.RawMessage) (*models.Submission, error) {
	t, err := s.store.TemplateByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	payload, err := form.Collect(t.Schema, raw, sess.GeoCaptures)
	if err != nil {
		return nil, err
	}
	if err := form.Validate(payload, t.Schema); err != nil {
		return nil, err
	}
	doc, err := models.MarshalJSONB(payload)
	if err != nil {
		return nil, err
	}
	sub := &models.Submission{TemplateID: t.ID, UserID: sess.UserID, Payload: doc}
	if err := s.store.CreateSubmission(ctx, sub, sess.JTI); err != nil {
		return nil, err
	}
	sess.AttachedCenter = nil
	sess.GeoCaptures = nil
	s.lg.Infow("submission recorded", "submission_id", sub.ID, "template_id", t.ID, "user_id", sess.UserID)
	if err := s.store.Audit(ctx, &sess.UserID, ActionSubmissionCreate, map[string]any{"submission_id": sub.ID, "template_id": t.ID}); err != nil {
		s.lg.Warnw("audit write failed", "action", ActionSubmissionCreate, "error", err)
	}
	return sub, nil
}

// SubmissionView is a stored submission with typed answers.
type SubmissionView struct {
	ID         uint         `json:"id"`
	TemplateID uint         `json:"template_id"`
	Template   string       `json:"template"`
	UserID     uint         `json:"user_id"`
	FullName   string       `json:"full_name"`
	CreatedAt  time.Time    `json:"created_at"`
	Payload    form.Payload `json:"payload"`
}

// Submission loads one submission. Operators only see their own; another
// user's submission reads as not found.
func (s *Service) Submission(ctx context.Context, viewerID uint, admin bool, id uint) (*SubmissionView, error) {
	sub, err := s.store.SubmissionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !admin && sub.UserID != viewerID {
		return nil, store.ErrNotFound
	}
	payload, err := form.DecodePayload(sub.Template.Schema, sub.Payload)
	if err != nil {
		return nil, err
	}
	return &SubmissionView{
		ID:         sub.ID,
		TemplateID: sub.TemplateID,
		Template:   sub.Template.Name,
		UserID:     sub.UserID,
		FullName:   sub.User.FullName,
		CreatedAt:  sub.CreatedAt,
		Payload:    payload,
	}, nil
}

func (s *Service) Mine(ctx context.Context, userID uint) ([]store.UserSubmission, error) {
	return s.store.ListSubmissionsByUser(ctx, userID)
}
