package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"gestorcentros/internal/auth"
	"gestorcentros/internal/models"
	"gestorcentros/internal/store"
)

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func Login(a *auth.Authenticator, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Username == "" || req.Password == "" {
			respondError(w, r, http.StatusBadRequest, "username and password required")
			return
		}
		res, err := a.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			respondServiceError(w, r, lg, "login failed", err)
			return
		}
		lg.Infow("login", "user_id", res.User.ID, "role", res.User.Role)
		respondJSON(w, r, http.StatusOK, res)
	}
}

func Me(st *store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := auth.FromContext(r.Context())
		u, err := st.UserByID(r.Context(), c.UserID)
		if err != nil {
			respondServiceError(w, r, lg, "load current user failed", err)
			return
		}
		sess := auth.SessionFromContext(r.Context())
		respondJSON(w, r, http.StatusOK, map[string]any{
			"user":            u,
			"attached_center": sess.AttachedCenter,
			"geo_captures":    sess.GeoCaptures,
		})
	}
}

func Logout(a *auth.Authenticator, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := a.Logout(r.Context(), auth.FromContext(r.Context())); err != nil {
			respondServiceError(w, r, lg, "logout failed", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type changePasswordReq struct {
	Current string `json:"current_password"`
	New     string `json:"new_password"`
}

func ChangePassword(a *auth.Authenticator, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req changePasswordReq
		if !decodeJSON(w, r, &req) {
			return
		}
		c := auth.FromContext(r.Context())
		if err := a.ChangeOwnPassword(r.Context(), c.UserID, req.Current, req.New); err != nil {
			respondServiceError(w, r, lg, "change password failed", err)
			return
		}
		respondJSON(w, r, http.StatusOK, map[string]any{"updated": true})
	}
}

// currentUser is a convenience for handlers acting on behalf of the caller.
func currentUser(r *http.Request) (auth.Claims, bool) {
	c := auth.FromContext(r.Context())
	return c, c.Role == models.RoleAdmin
}
