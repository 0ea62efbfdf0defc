package store

import (
	"context"
	"time"

	"gestorcentros/internal/models"
)

// LoginFailure is the user's lockout state right after a failed attempt.
type LoginFailure struct {
	FailedAttempts int
	IsLocked       bool
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return classify(db.Create(u).Error)
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var u models.User
	if err := db.First(&u, "username = ?", username).Error; err != nil {
		return nil, classify(err)
	}
	return &u, nil
}

func (s *Store) UserByID(ctx context.Context, id uint) (*models.User, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var u models.User
	if err := db.First(&u, "id = ?", id).Error; err != nil {
		return nil, classify(err)
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := db.Order("username").Find(&users).Error; err != nil {
		return nil, classify(err)
	}
	return users, nil
}

// RegisterFailedLogin increments the user's failure counter and locks the
// account once the counter reaches threshold. The increment, the lock and
// the read of the new state happen in one statement, so concurrent failures
// cannot lose an increment or skip the lock.
func (s *Store) RegisterFailedLogin(ctx context.Context, username string, threshold int) (LoginFailure, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return LoginFailure{}, err
	}
	var out LoginFailure
	res := db.Raw(`UPDATE users
		SET failed_attempts = failed_attempts + 1,
		    is_locked = (is_locked OR failed_attempts + 1 >= ?),
		    updated_at = ?
		WHERE username = ?
		RETURNING failed_attempts, is_locked`, threshold, time.Now(), username).Scan(&out)
	if res.Error != nil {
		return LoginFailure{}, classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return LoginFailure{}, ErrNotFound
	}
	return out, nil
}

// ResetFailedLogins zeroes the failure counter of an unlocked user. It
// reports false when the account was locked in the meantime, leaving the
// counter untouched.
func (s *Store) ResetFailedLogins(ctx context.Context, id uint) (bool, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return false, err
	}
	res := db.Table("users").
		Where("id = ? AND NOT is_locked", id).
		Updates(map[string]any{"failed_attempts": 0, "updated_at": time.Now()})
	if res.Error != nil {
		return false, classify(res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Unlock clears the lock flag and the failure counter.
func (s *Store) Unlock(ctx context.Context, id uint) error {
	return s.updateUser(ctx, id, map[string]any{"failed_attempts": 0, "is_locked": false})
}

func (s *Store) SetPasswordHash(ctx context.Context, id uint, hash string) error {
	return s.updateUser(ctx, id, map[string]any{"password_hash": hash})
}

func (s *Store) updateUser(ctx context.Context, id uint, fields map[string]any) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	fields["updated_at"] = time.Now()
	res := db.Table("users").Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
