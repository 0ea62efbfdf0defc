package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"gestorcentros/internal/models"
	"gestorcentros/internal/store"
)

const auditPageSize = 200

// AuditLog lists recent audit entries, optionally for one user_id.
func AuditLog(st *store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var userID uint
		if s := r.URL.Query().Get("user_id"); s != "" {
			id, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				respondError(w, r, http.StatusBadRequest, "invalid user_id")
				return
			}
			userID = uint(id)
		}
		logs, err := st.ListAudit(r.Context(), userID, auditPageSize)
		if err != nil {
			if respondDegraded(w, r, lg, err, []models.AuditLog{}) {
				return
			}
			respondServiceError(w, r, lg, "list audit failed", err)
			return
		}
		respondList(w, r, logs)
	}
}
