package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gestorcentros/internal/models"
	"gestorcentros/internal/store"
)

var (
	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password, so a caller cannot probe which usernames exist.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountLocked      = errors.New("account locked after too many failed attempts")
	ErrInvalidRole        = errors.New("role must be admin or operator")
	ErrEmptyUsername      = errors.New("username is required")
)

// Audit actions recorded by the authenticator.
const (
	ActionLogin          = "LOGIN"
	ActionLoginFailed    = "LOGIN_FAILED"
	ActionAccountLocked  = "ACCOUNT_LOCKED"
	ActionAccountUnlock  = "ACCOUNT_UNLOCK"
	ActionUserCreate     = "USER_CREATE"
	ActionPasswordChange = "PASSWORD_CHANGE"
	ActionLogout         = "LOGOUT"
)

// UserStore is the persistence the authenticator needs.
type UserStore interface {
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UserByID(ctx context.Context, id uint) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	RegisterFailedLogin(ctx context.Context, username string, threshold int) (store.LoginFailure, error)
	ResetFailedLogins(ctx context.Context, id uint) (bool, error)
	Unlock(ctx context.Context, id uint) error
	SetPasswordHash(ctx context.Context, id uint, hash string) error
	CreateSession(ctx context.Context, s *models.Session) error
	RevokeSession(ctx context.Context, jti string, at time.Time) error
	Audit(ctx context.Context, userID *uint, action string, metadata map[string]any) error
}

// Authenticator runs the login lockout state machine and user administration.
type Authenticator struct {
	users       UserStore
	signer      *Signer
	maxAttempts int
	lg          *zap.SugaredLogger
	now         func() time.Time
}

func NewAuthenticator(users UserStore, signer *Signer, maxAttempts int, lg *zap.SugaredLogger) *Authenticator {
	return &Authenticator{users: users, signer: signer, maxAttempts: maxAttempts, lg: lg, now: time.Now}
}

// LoginResult is an opened session.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// AttemptLogin checks username and password against the stored credentials.
// A locked account is rejected before its password is looked at. Each wrong
// password counts one failure; the failure that reaches the threshold locks
// the account and already reports ErrAccountLocked. A correct password
// resets the counter.
func (a *Authenticator) AttemptLogin(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	u, err := a.users.UserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		burnCompare(password)
		a.audit(ctx, nil, ActionLoginFailed, map[string]any{"username": username})
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if u.IsLocked {
		return nil, ErrAccountLocked
	}

	if CheckPassword(u.PasswordHash, password) != nil {
		f, err := a.users.RegisterFailedLogin(ctx, username, a.maxAttempts)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		if err != nil {
			return nil, err
		}
		if f.IsLocked {
			a.lg.Warnw("account locked", "user_id", u.ID, "failed_attempts", f.FailedAttempts)
			a.audit(ctx, &u.ID, ActionAccountLocked, map[string]any{"failed_attempts": f.FailedAttempts})
			return nil, ErrAccountLocked
		}
		a.audit(ctx, &u.ID, ActionLoginFailed, map[string]any{"failed_attempts": f.FailedAttempts})
		return nil, ErrInvalidCredentials
	}

	ok, err := a.users.ResetFailedLogins(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// locked by a concurrent failure between the read and the reset
		return nil, ErrAccountLocked
	}
	u.FailedAttempts = 0
	return u, nil
}

// Login authenticates and opens a session for the user.
func (a *Authenticator) Login(ctx context.Context, username, password string) (LoginResult, error) {
	u, err := a.AttemptLogin(ctx, username, password)
	if err != nil {
		return LoginResult{}, err
	}
	token, exp, err := a.OpenSession(ctx, u)
	if err != nil {
		return LoginResult{}, err
	}
	a.audit(ctx, &u.ID, ActionLogin, nil)
	return LoginResult{Token: token, ExpiresAt: exp, User: u}, nil
}

// OpenSession persists a new session for u and signs its token.
func (a *Authenticator) OpenSession(ctx context.Context, u *models.User) (string, time.Time, error) {
	now := a.now()
	c := Claims{UserID: u.ID, Role: u.Role, Name: u.FullName, JWTID: uuid.NewString()}
	token, exp, err := a.signer.Sign(c, now)
	if err != nil {
		return "", time.Time{}, err
	}
	sess := &models.Session{JTI: c.JWTID, UserID: u.ID, ExpiresAt: exp, LastSeenAt: now}
	if err := a.users.CreateSession(ctx, sess); err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

func (a *Authenticator) Logout(ctx context.Context, c Claims) error {
	if err := a.users.RevokeSession(ctx, c.JWTID, a.now()); err != nil {
		return err
	}
	a.audit(ctx, &c.UserID, ActionLogout, nil)
	return nil
}

// Unlock clears the lock and failure counter of userID.
func (a *Authenticator) Unlock(ctx context.Context, actorID, userID uint) error {
	if err := a.users.Unlock(ctx, userID); err != nil {
		return err
	}
	a.audit(ctx, &actorID, ActionAccountUnlock, map[string]any{"target_user_id": userID})
	return nil
}

// CreateUser registers a new account. Duplicate usernames fail with
// store.ErrAlreadyExists.
func (a *Authenticator) CreateUser(ctx context.Context, actorID uint, username, password, role, fullName string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrEmptyUsername
	}
	if role != models.RoleAdmin && role != models.RoleOperator {
		return nil, ErrInvalidRole
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		fullName = username
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{Username: username, PasswordHash: hash, Role: role, FullName: fullName}
	if err := a.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	a.audit(ctx, &actorID, ActionUserCreate, map[string]any{"target_user_id": u.ID, "role": role})
	return u, nil
}

// EnsureAdmin creates an administrator named username unless that username
// already exists. It reports whether a user was created.
func (a *Authenticator) EnsureAdmin(ctx context.Context, username, password, fullName string) (bool, error) {
	_, err := a.users.UserByUsername(ctx, strings.TrimSpace(username))
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, store.ErrNotFound):
		return false, err
	}
	if _, err := a.CreateUser(ctx, 0, username, password, models.RoleAdmin, fullName); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ChangePassword sets a new password for userID on an admin's behalf.
func (a *Authenticator) ChangePassword(ctx context.Context, actorID, userID uint, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := a.users.SetPasswordHash(ctx, userID, hash); err != nil {
		return err
	}
	a.audit(ctx, &actorID, ActionPasswordChange, map[string]any{"target_user_id": userID})
	return nil
}

// ChangeOwnPassword replaces the caller's password after checking the
// current one.
func (a *Authenticator) ChangeOwnPassword(ctx context.Context, userID uint, current, newPassword string) error {
	u, err := a.users.UserByID(ctx, userID)
	if err != nil {
		return err
	}
	if CheckPassword(u.PasswordHash, current) != nil {
		return ErrInvalidCredentials
	}
	return a.ChangePassword(ctx, userID, userID, newPassword)
}

// audit records an event without failing the operation that caused it.
func (a *Authenticator) audit(ctx context.Context, userID *uint, action string, meta map[string]any) {
	if err := a.users.Audit(ctx, userID, action, meta); err != nil {
		a.lg.Warnw("audit write failed", "action", action, "error", err)
	}
}
