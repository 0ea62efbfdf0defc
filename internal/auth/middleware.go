package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"gestorcentros/internal/models"
	"gestorcentros/internal/store"
)

// SessionStore is the session persistence JWTAuth needs.
type SessionStore interface {
	SessionByJTI(ctx context.Context, jti string) (*models.Session, error)
	TouchSession(ctx context.Context, jti string, at time.Time) error
	RevokeSession(ctx context.Context, jti string, at time.Time) error
}

// JWTAuth admits requests carrying a valid bearer token whose session is
// live. A session idle for longer than idle is revoked and rejected;
// otherwise its activity time is refreshed. While the session store is
// unreachable a valid token is admitted on its own.
func JWTAuth(signer *Signer, sessions SessionStore, idle time.Duration, lg *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			claims, err := signer.Verify(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			ctx := r.Context()
			sess, err := sessions.SessionByJTI(ctx, claims.JWTID)
			switch {
			case errors.Is(err, store.ErrConnectionUnavailable):
				// The token alone vouches for the caller until the database
				// is back; reads degrade and writes fail on their own.
				lg.Warnw("session store unavailable, trusting token", "jti", claims.JWTID)
				sess := &models.Session{JTI: claims.JWTID, UserID: claims.UserID}
				next.ServeHTTP(w, r.WithContext(WithSession(WithClaims(ctx, claims), sess)))
				return
			case err != nil:
				if !errors.Is(err, store.ErrNotFound) {
					lg.Errorw("session lookup failed", "error", err)
				}
				http.Error(w, "session not found", http.StatusUnauthorized)
				return
			}
			now := time.Now()
			if sess.RevokedAt != nil || now.After(sess.ExpiresAt) || sess.UserID != claims.UserID {
				http.Error(w, "session expired/revoked", http.StatusUnauthorized)
				return
			}
			if idle > 0 && now.Sub(sess.LastSeenAt) > idle {
				if err := sessions.RevokeSession(ctx, sess.JTI, now); err != nil {
					lg.Warnw("revoke idle session failed", "jti", sess.JTI, "error", err)
				}
				http.Error(w, "session expired/revoked", http.StatusUnauthorized)
				return
			}
			if err := sessions.TouchSession(ctx, sess.JTI, now); err != nil {
				lg.Warnw("touch session failed", "jti", sess.JTI, "error", err)
			}
			sess.LastSeenAt = now
			ctx = WithSession(WithClaims(ctx, claims), sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !FromContext(r.Context()).HasRole(role) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
