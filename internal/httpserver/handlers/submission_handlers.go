package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"gestorcentros/internal/auth"
	"gestorcentros/internal/services/export"
	"gestorcentros/internal/services/intake"
	"gestorcentros/internal/store"
)

type submitReq struct {
	Answers map[string]json.RawMessage `json:"answers"`
}

func Submit(svc *intake.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		var req submitReq
		if !decodeJSON(w, r, &req) {
			return
		}
		sub, err := svc.Submit(r.Context(), auth.SessionFromContext(r.Context()), id, req.Answers)
		if err != nil {
			respondServiceError(w, r, lg, "submit failed", err)
			return
		}
		respondJSON(w, r, http.StatusCreated, map[string]any{"id": sub.ID, "created_at": sub.CreatedAt})
	}
}

func MySubmissions(svc *intake.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := auth.FromContext(r.Context())
		subs, err := svc.Mine(r.Context(), c.UserID)
		if err != nil {
			if respondDegraded(w, r, lg, err, []store.UserSubmission{}) {
				return
			}
			respondServiceError(w, r, lg, "list own submissions failed", err)
			return
		}
		respondList(w, r, subs)
	}
}

func GetSubmission(svc *intake.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		c, admin := currentUser(r)
		view, err := svc.Submission(r.Context(), c.UserID, admin, id)
		if err != nil {
			respondServiceError(w, r, lg, "get submission failed", err)
			return
		}
		respondJSON(w, r, http.StatusOK, view)
	}
}

// ListSubmissions is the admin audit listing, newest first.
func ListSubmissions(st *store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		details, err := st.ListSubmissionDetails(r.Context(), 0)
		if err != nil {
			if respondDegraded(w, r, lg, err, []store.SubmissionDetail{}) {
				return
			}
			respondServiceError(w, r, lg, "list submissions failed", err)
			return
		}
		respondList(w, r, details)
	}
}

func ExportSubmissions(st *store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		details, err := st.ListSubmissionDetails(r.Context(), 0)
		if err != nil {
			respondServiceError(w, r, lg, "export submissions failed", err)
			return
		}
		name := fmt.Sprintf("envios-%s.xlsx", time.Now().Format("20060102"))
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		if err := export.WriteSubmissions(w, details); err != nil {
			lg.Errorw("write export failed", "error", err)
		}
	}
}
