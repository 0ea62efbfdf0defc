// Package authoring validates and stores areas and form templates.
package authoring

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"gestorcentros/internal/form"
	"gestorcentros/internal/models"
	"gestorcentros/internal/store"
)

var (
	ErrEmptyName     = errors.New("name is required")
	ErrDuplicateName = errors.New("name already in use")
	ErrMissingArea   = errors.New("area does not exist")

	ErrNoFields       = form.ErrNoFields
	ErrEmptyLabel     = form.ErrEmptyLabel
	ErrDuplicateLabel = form.ErrDuplicateLabel
	ErrUnknownKind    = form.ErrUnknownKind
)

const ActionTemplateCreate = "TEMPLATE_CREATE"

type Store interface {
	CreateArea(ctx context.Context, a *models.Area) error
	ListAreas(ctx context.Context) ([]models.Area, error)
	AreaByID(ctx context.Context, id uint) (*models.Area, error)
	CreateTemplate(ctx context.Context, t *models.Template) error
	TemplateByID(ctx context.Context, id uint) (*models.Template, error)
	TemplatesByArea(ctx context.Context, areaID uint) ([]models.Template, error)
	Audit(ctx context.Context, userID *uint, action string, metadata map[string]any) error
}

type Service struct {
	store Store
	lg    *zap.SugaredLogger
}

func NewService(st Store, lg *zap.SugaredLogger) *Service {
	return &Service{store: st, lg: lg}
}

func (s *Service) CreateArea(ctx context.Context, name, description string) (*models.Area, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	a := &models.Area{Name: name, Description: strings.TrimSpace(description)}
	if err := s.store.CreateArea(ctx, a); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: area %q", ErrDuplicateName, name)
		}
		return nil, err
	}
	return a, nil
}

// CreateTemplate stores a new template under areaID. The schema must have
// at least one field, every label non-blank and unique ignoring case and
// surrounding spaces. Labels are stored trimmed.
func (s *Service) CreateTemplate(ctx context.Context, name string, schema form.Schema, authorID, areaID uint) (*models.Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if err := schema.Check(); err != nil {
		return nil, err
	}
	if _, err := s.store.AreaByID(ctx, areaID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrMissingArea, areaID)
		}
		return nil, err
	}
	t := &models.Template{Name: name, Schema: schema.Normalized(), CreatedByID: authorID, AreaID: areaID}
	if err := s.store.CreateTemplate(ctx, t); err != nil {
		if errors.Is(err, store.ErrIntegrityViolation) {
			// the area vanished between the check and the insert
			return nil, fmt.Errorf("%w: id %d", ErrMissingArea, areaID)
		}
		return nil, err
	}
	if err := s.store.Audit(ctx, &authorID, ActionTemplateCreate, map[string]any{"template_id": t.ID, "area_id": areaID}); err != nil {
		s.lg.Warnw("audit write failed", "action", ActionTemplateCreate, "error", err)
	}
	return t, nil
}

func (s *Service) ListAreas(ctx context.Context) ([]models.Area, error) {
	return s.store.ListAreas(ctx)
}

// ListTemplatesByArea fails with store.ErrNotFound for an unknown area.
func (s *Service) ListTemplatesByArea(ctx context.Context, areaID uint) ([]models.Template, error) {
	if _, err := s.store.AreaByID(ctx, areaID); err != nil {
		return nil, err
	}
	return s.store.TemplatesByArea(ctx, areaID)
}

func (s *Service) GetTemplate(ctx context.Context, id uint) (*models.Template, error) {
	return s.store.TemplateByID(ctx, id)
}
