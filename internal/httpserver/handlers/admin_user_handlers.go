package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"gestorcentros/internal/auth"
	"gestorcentros/internal/models"
	"gestorcentros/internal/store"
)

func ListUsers(st *store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := st.ListUsers(r.Context())
		if err != nil {
			if respondDegraded(w, r, lg, err, []models.User{}) {
				return
			}
			respondServiceError(w, r, lg, "list users failed", err)
			return
		}
		respondList(w, r, users)
	}
}

type createUserReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	FullName string `json:"full_name"`
}

func CreateUser(a *auth.Authenticator, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createUserReq
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Role == "" {
			req.Role = models.RoleOperator
		}
		actor, _ := currentUser(r)
		u, err := a.CreateUser(r.Context(), actor.UserID, req.Username, req.Password, req.Role, req.FullName)
		if err != nil {
			respondServiceError(w, r, lg, "create user failed", err)
			return
		}
		lg.Infow("user created", "user_id", u.ID, "role", u.Role, "by", actor.UserID)
		respondJSON(w, r, http.StatusCreated, u)
	}
}

func UnlockUser(a *auth.Authenticator, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		actor, _ := currentUser(r)
		if err := a.Unlock(r.Context(), actor.UserID, id); err != nil {
			respondServiceError(w, r, lg, "unlock user failed", err)
			return
		}
		lg.Infow("user unlocked", "user_id", id, "by", actor.UserID)
		respondJSON(w, r, http.StatusOK, map[string]any{"unlocked": true})
	}
}

type setPasswordReq struct {
	Password string `json:"password"`
}

func SetUserPassword(a *auth.Authenticator, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		var req setPasswordReq
		if !decodeJSON(w, r, &req) {
			return
		}
		actor, _ := currentUser(r)
		if err := a.ChangePassword(r.Context(), actor.UserID, id, req.Password); err != nil {
			respondServiceError(w, r, lg, "set user password failed", err)
			return
		}
		respondJSON(w, r, http.StatusOK, map[string]any{"updated": true})
	}
}
