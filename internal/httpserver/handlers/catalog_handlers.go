package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"gestorcentros/internal/form"
	"gestorcentros/internal/models"
	"gestorcentros/internal/services/authoring"
)

func ListAreas(svc *authoring.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		areas, err := svc.ListAreas(r.Context())
		if err != nil {
			if respondDegraded(w, r, lg, err, []models.Area{}) {
				return
			}
			respondServiceError(w, r, lg, "list areas failed", err)
			return
		}
		respondList(w, r, areas)
	}
}

type createAreaReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func CreateArea(svc *authoring.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createAreaReq
		if !decodeJSON(w, r, &req) {
			return
		}
		a, err := svc.CreateArea(r.Context(), req.Name, req.Description)
		if err != nil {
			respondServiceError(w, r, lg, "create area failed", err)
			return
		}
		respondJSON(w, r, http.StatusCreated, a)
	}
}

func ListAreaTemplates(svc *authoring.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		ts, err := svc.ListTemplatesByArea(r.Context(), id)
		if err != nil {
			if respondDegraded(w, r, lg, err, []models.Template{}) {
				return
			}
			respondServiceError(w, r, lg, "list templates failed", err)
			return
		}
		respondList(w, r, ts)
	}
}

func GetTemplate(svc *authoring.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		t, err := svc.GetTemplate(r.Context(), id)
		if err != nil {
			respondServiceError(w, r, lg, "get template failed", err)
			return
		}
		respondJSON(w, r, http.StatusOK, t)
	}
}

type createTemplateReq struct {
	Name   string      `json:"name"`
	AreaID uint        `json:"area_id"`
	Schema form.Schema `json:"schema"`
}

func CreateTemplate(svc *authoring.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTemplateReq
		if !decodeJSON(w, r, &req) {
			return
		}
		actor, _ := currentUser(r)
		t, err := svc.CreateTemplate(r.Context(), req.Name, req.Schema, actor.UserID, req.AreaID)
		if err != nil {
			respondServiceError(w, r, lg, "create template failed", err)
			return
		}
		lg.Infow("template created", "template_id", t.ID, "area_id", t.AreaID, "fields", len(t.Schema))
		respondJSON(w, r, http.StatusCreated, t)
	}
}
