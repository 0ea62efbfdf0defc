package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"gestorcentros/internal/form"
	"gestorcentros/internal/models"
	"gestorcentros/internal/store"
)

func ListCenters(st *store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, err := st.CenterNames(r.Context())
		if err != nil {
			if respondDegraded(w, r, lg, err, []string{}) {
				return
			}
			respondServiceError(w, r, lg, "list centers failed", err)
			return
		}
		respondList(w, r, names)
	}
}

type upsertCentersReq struct {
	Records []map[string]string `json:"records"`
}

// UpsertCenters loads reference records, each a map of dataset column to
// value. The center name comes from the CENTRO_EDUCATIVO column and the
// code from CODSABER; records without a name are rejected. When a name
// repeats within one request the last record wins and the name is listed
// under "duplicates".
func UpsertCenters(st *store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req upsertCentersReq
		if !decodeJSON(w, r, &req) {
			return
		}
		centers := make([]models.Center, 0, len(req.Records))
		index := make(map[string]int, len(req.Records))
		duplicates := []string{}
		for i, rec := range req.Records {
			name := strings.TrimSpace(form.Column(rec, form.CenterNameColumn))
			if name == "" {
				respondJSON(w, r, http.StatusBadRequest, errorBody{
					Error:   "record without center name",
					Invalid: []invalidDetail{{Label: form.CenterNameColumn, Reason: "missing in record " + strconv.Itoa(i+1)}},
				})
				return
			}
			c := models.Center{Name: name, Columns: rec}
			if code := strings.TrimSpace(form.Column(rec, form.CenterCodeColumn)); code != "" {
				c.Code = &code
			}
			if j, ok := index[name]; ok {
				centers[j] = c
				duplicates = append(duplicates, name)
				continue
			}
			index[name] = len(centers)
			centers = append(centers, c)
		}
		n, err := st.UpsertCenters(r.Context(), centers)
		if err != nil {
			respondServiceError(w, r, lg, "upsert centers failed", err)
			return
		}
		lg.Infow("centers loaded", "records", len(centers), "duplicates", len(duplicates))
		respondJSON(w, r, http.StatusOK, map[string]any{"upserted": n, "duplicates": duplicates})
	}
}
