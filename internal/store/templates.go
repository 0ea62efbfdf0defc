package store

import (
	"context"

	"gorm.io/gorm/clause"

	"gestorcentros/internal/models"
)

func (s *Store) CreateArea(ctx context.Context, a *models.Area) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return classify(db.Create(a).Error)
}

func (s *Store) ListAreas(ctx context.Context) ([]models.Area, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var areas []models.Area
	if err := db.Order("name").Find(&areas).Error; err != nil {
		return nil, classify(err)
	}
	return areas, nil
}

func (s *Store) AreaByID(ctx context.Context, id uint) (*models.Area, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var a models.Area
	if err := db.First(&a, "id = ?", id).Error; err != nil {
		return nil, classify(err)
	}
	return &a, nil
}

// CreateTemplate inserts t without touching its Area or CreatedBy rows.
func (s *Store) CreateTemplate(ctx context.Context, t *models.Template) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return classify(db.Omit(clause.Associations).Create(t).Error)
}

func (s *Store) TemplateByID(ctx context.Context, id uint) (*models.Template, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var t models.Template
	if err := db.First(&t, "id = ?", id).Error; err != nil {
		return nil, classify(err)
	}
	return &t, nil
}

func (s *Store) TemplatesByArea(ctx context.Context, areaID uint) ([]models.Template, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var ts []models.Template
	if err := db.Where("area_id = ?", areaID).Order("name, id").Find(&ts).Error; err != nil {
		return nil, classify(err)
	}
	return ts, nil
}
