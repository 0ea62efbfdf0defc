package store

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gestorcentros/internal/models"
)

// AreaCount is the number of submissions made against an area's templates.
type AreaCount struct {
	Area  string `json:"area"`
	Total int64  `json:"total"`
}

// UserCount is the number of submissions made by one user.
type UserCount struct {
	UserID   uint   `json:"user_id"`
	FullName string `json:"full_name"`
	Total    int64  `json:"total"`
}

// SubmissionDetail is one row of the admin submission listing.
type SubmissionDetail struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Template  string    `json:"template"`
	Area      string    `json:"area"`
	CreatedAt time.Time `json:"created_at"`
}

// UserSubmission is one of a user's own submissions, with its answers.
type UserSubmission struct {
	ID         uint         `json:"id"`
	TemplateID uint         `json:"template_id"`
	Template   string       `json:"template"`
	CreatedAt  time.Time    `json:"created_at"`
	Payload    models.JSONB `json:"payload"`
}

// CreateSubmission inserts sub. When jti is set, the same transaction clears
// that session's form state, so a submitted form never leaves a stale center
// or location behind.
func (s *Store) CreateSubmission(ctx context.Context, sub *models.Submission, jti string) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(sub).Error; err != nil {
			return err
		}
		if jti == "" {
			return nil
		}
		return tx.Table("sessions").Where("jti = ?", jti).
			Updates(map[string]any{"attached_center": nil, "geo_captures": nil}).Error
	})
	return classify(err)
}

func (s *Store) SubmissionByID(ctx context.Context, id uint) (*models.Submission, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var sub models.Submission
	if err := db.Preload("Template").Preload("User").First(&sub, "id = ?", id).Error; err != nil {
		return nil, classify(err)
	}
	return &sub, nil
}

func (s *Store) CountSubmissions(ctx context.Context) (int64, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := db.Model(&models.Submission{}).Count(&n).Error; err != nil {
		return 0, classify(err)
	}
	return n, nil
}

// CountByArea lists areas with at least one submission, busiest first.
func (s *Store) CountByArea(ctx context.Context) ([]AreaCount, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var out []AreaCount
	err = db.Table("submissions AS s").
		Select("a.name AS area, COUNT(s.id) AS total").
		Joins("JOIN templates AS t ON t.id = s.template_id").
		Joins("JOIN areas AS a ON a.id = t.area_id").
		Group("a.name").
		Order("total DESC, a.name").
		Scan(&out).Error
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// CountByUser lists users with at least one submission, busiest first.
// Users are grouped by id, so two users sharing a full name stay apart.
func (s *Store) CountByUser(ctx context.Context) ([]UserCount, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var out []UserCount
	err = db.Table("submissions AS s").
		Select("u.id AS user_id, u.full_name AS full_name, COUNT(s.id) AS total").
		Joins("JOIN users AS u ON u.id = s.user_id").
		Group("u.id, u.full_name").
		Order("total DESC, u.full_name").
		Scan(&out).Error
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// ListSubmissionDetails lists submissions newest first. limit <= 0 means no limit.
func (s *Store) ListSubmissionDetails(ctx context.Context, limit int) ([]SubmissionDetail, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	q := db.Table("submissions AS s").
		Select("s.id AS id, u.username AS username, u.full_name AS full_name, t.name AS template, a.name AS area, s.created_at AS created_at").
		Joins("JOIN users AS u ON u.id = s.user_id").
		Joins("JOIN templates AS t ON t.id = s.template_id").
		Joins("JOIN areas AS a ON a.id = t.area_id").
		Order("s.created_at DESC, s.id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []SubmissionDetail
	if err := q.Scan(&out).Error; err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// ListSubmissionsByUser lists the user's own submissions newest first.
func (s *Store) ListSubmissionsByUser(ctx context.Context, userID uint) ([]UserSubmission, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var out []UserSubmission
	err = db.Table("submissions AS s").
		Select("s.id AS id, s.template_id AS template_id, t.name AS template, s.created_at AS created_at, s.payload AS payload").
		Joins("JOIN templates AS t ON t.id = s.template_id").
		Where("s.user_id = ?", userID).
		Order("s.created_at DESC, s.id DESC").
		Scan(&out).Error
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}
