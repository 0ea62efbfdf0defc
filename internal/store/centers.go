package store

import (
	"context"

	"gorm.io/gorm/clause"

	"gestorcentros/internal/models"
)

// UpsertCenters inserts centers, replacing the code and columns of any
// center whose name already exists.
func (s *Store) UpsertCenters(ctx context.Context, centers []models.Center) (int64, error) {
	if len(centers) == 0 {
		return 0, nil
	}
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "columns"}),
	}).CreateInBatches(centers, 200)
	if res.Error != nil {
		return 0, classify(res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) CenterByName(ctx context.Context, name string) (*models.Center, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var c models.Center
	if err := db.First(&c, "name = ?", name).Error; err != nil {
		return nil, classify(err)
	}
	return &c, nil
}

// CenterNames lists every center name in alphabetical order.
func (s *Store) CenterNames(ctx context.Context) ([]string, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var names []string
	if err := db.Model(&models.Center{}).Order("name").Pluck("name", &names).Error; err != nil {
		return nil, classify(err)
	}
	return names, nil
}
