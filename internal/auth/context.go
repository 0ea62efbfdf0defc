package auth

import (
	"context"

	"gestorcentros/internal/models"
)

type ctxKey string

const (
	userKey    ctxKey = "userClaims"
	sessionKey ctxKey = "session"
)

// Claims identify the user behind a request.
type Claims struct {
	UserID uint
	Role   string
	Name   string
	JWTID  string
}

func (c Claims) HasRole(role string) bool {
	return c.Role == role
}

func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, userKey, c)
}

func FromContext(ctx context.Context) Claims {
	if v, ok := ctx.Value(userKey).(Claims); ok {
		return v
	}
	return Claims{}
}

// WithSession stores the request's live session.
func WithSession(ctx context.Context, s *models.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext returns the session loaded by JWTAuth, or nil.
func SessionFromContext(ctx context.Context) *models.Session {
	s, _ := ctx.Value(sessionKey).(*models.Session)
	return s
}
