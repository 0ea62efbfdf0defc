package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"gestorcentros/internal/store"
)

const recentSubmissions = 20

type dashboard struct {
	Total   int64                    `json:"total_submissions"`
	ByArea  []store.AreaCount        `json:"by_area"`
	ByUser  []store.UserCount        `json:"by_user"`
	Recent  []store.SubmissionDetail `json:"recent"`
	Warning string                   `json:"warning,omitempty"`
}

// Dashboard aggregates submission counts. While the database is down it
// answers zeros with a warning instead of failing.
func Dashboard(st *store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var d dashboard
		var err error
		if d.Total, err = st.CountSubmissions(ctx); err == nil {
			if d.ByArea, err = st.CountByArea(ctx); err == nil {
				if d.ByUser, err = st.CountByUser(ctx); err == nil {
					d.Recent, err = st.ListSubmissionDetails(ctx, recentSubmissions)
				}
			}
		}
		switch {
		case errors.Is(err, store.ErrConnectionUnavailable):
			lg.Warnw("serving degraded dashboard", "error", err)
			d = dashboard{Warning: degradedWarning}
		case err != nil:
			respondServiceError(w, r, lg, "dashboard failed", err)
			return
		}
		if d.ByArea == nil {
			d.ByArea = []store.AreaCount{}
		}
		if d.ByUser == nil {
			d.ByUser = []store.UserCount{}
		}
		if d.Recent == nil {
			d.Recent = []store.SubmissionDetail{}
		}
		respondJSON(w, r, http.StatusOK, d)
	}
}
