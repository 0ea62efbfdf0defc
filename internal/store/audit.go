package store

import (
	"context"

	"gestorcentros/internal/models"
)

// Audit appends one entry to the audit trail. userID is nil for events with
// no authenticated user, such as a failed login for an unknown name.
func (s *Store) Audit(ctx context.Context, userID *uint, action string, metadata map[string]any) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	meta, err := models.MarshalJSONB(metadata)
	if err != nil {
		return err
	}
	return classify(db.Create(&models.AuditLog{UserID: userID, Action: action, Metadata: meta}).Error)
}

// ListAudit returns the newest entries first. A userID of 0 lists every user.
func (s *Store) ListAudit(ctx context.Context, userID uint, limit int) ([]models.AuditLog, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	q := db.Order("created_at desc, id desc").Limit(limit)
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	var logs []models.AuditLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, classify(err)
	}
	return logs, nil
}
