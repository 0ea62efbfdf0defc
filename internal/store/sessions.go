package store

import (
	"context"
	"encoding/json"
	"time"

	"gestorcentros/internal/form"
	"gestorcentros/internal/models"
)

func (s *Store) CreateSession(ctx context.Context, sess *models.Session) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return classify(db.Create(sess).Error)
}

func (s *Store) SessionByJTI(ctx context.Context, jti string) (*models.Session, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var sess models.Session
	if err := db.First(&sess, "jti = ?", jti).Error; err != nil {
		return nil, classify(err)
	}
	return &sess, nil
}

// TouchSession records activity on a live session.
func (s *Store) TouchSession(ctx context.Context, jti string, at time.Time) error {
	return s.updateSession(ctx, jti, map[string]any{"last_seen_at": at})
}

// RevokeSession ends a session. Revoking twice keeps the first timestamp.
func (s *Store) RevokeSession(ctx context.Context, jti string, at time.Time) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	res := db.Table("sessions").Where("jti = ? AND revoked_at IS NULL", jti).Update("revoked_at", at)
	return classify(res.Error)
}

// SetAttachedCenter stores the center the session's forms prefill from; nil
// detaches it.
func (s *Store) SetAttachedCenter(ctx context.Context, jti string, center *string) error {
	return s.updateSession(ctx, jti, map[string]any{"attached_center": center})
}

func (s *Store) SetGeoCaptures(ctx context.Context, jti string, captures form.GeoCaptures) error {
	if len(captures) == 0 {
		return s.updateSession(ctx, jti, map[string]any{"geo_captures": nil})
	}
	b, err := json.Marshal(captures)
	if err != nil {
		return err
	}
	return s.updateSession(ctx, jti, map[string]any{"geo_captures": string(b)})
}

// ClearFormState detaches the center and forgets captured locations.
func (s *Store) ClearFormState(ctx context.Context, jti string) error {
	return s.updateSession(ctx, jti, map[string]any{"attached_center": nil, "geo_captures": nil})
}

func (s *Store) updateSession(ctx context.Context, jti string, fields map[string]any) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	res := db.Table("sessions").Where("jti = ?", jti).Updates(fields)
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
