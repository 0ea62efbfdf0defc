package handlers

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"gestorcentros/internal/auth"
	"gestorcentros/internal/form"
	"gestorcentros/internal/services/intake"
)

type attachCenterReq struct {
	Center string `json:"center"`
}

func AttachCenter(svc *intake.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req attachCenterReq
		if !decodeJSON(w, r, &req) {
			return
		}
		sess := auth.SessionFromContext(r.Context())
		if err := svc.AttachCenter(r.Context(), sess, req.Center); err != nil {
			respondServiceError(w, r, lg, "attach center failed", err)
			return
		}
		respondJSON(w, r, http.StatusOK, map[string]any{"attached_center": sess.AttachedCenter})
	}
}

func DetachCenter(svc *intake.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DetachCenter(r.Context(), auth.SessionFromContext(r.Context())); err != nil {
			respondServiceError(w, r, lg, "detach center failed", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type captureGeoReq struct {
	Source string  `json:"source"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
}

func CaptureGeo(svc *intake.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req captureGeoReq
		if !decodeJSON(w, r, &req) {
			return
		}
		source, err := form.ParseGeoSource(req.Source)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		label := labelParam(r)
		point := form.Coordinates{Lat: req.Lat, Lng: req.Lng}
		resolved, err := svc.CaptureGeo(r.Context(), auth.SessionFromContext(r.Context()), label, source, point)
		if err != nil {
			respondServiceError(w, r, lg, "capture location failed", err)
			return
		}
		respondJSON(w, r, http.StatusOK, map[string]any{"label": label, "location": resolved})
	}
}

// ClearGeo forgets a captured location. The optional source query parameter
// limits the clear to one source.
func ClearGeo(svc *intake.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var source form.GeoSource
		if s := r.URL.Query().Get("source"); s != "" {
			parsed, err := form.ParseGeoSource(s)
			if err != nil {
				respondError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			source = parsed
		}
		label := labelParam(r)
		resolved, err := svc.ClearGeo(r.Context(), auth.SessionFromContext(r.Context()), label, source)
		if err != nil {
			respondServiceError(w, r, lg, "clear location failed", err)
			return
		}
		respondJSON(w, r, http.StatusOK, map[string]any{"label": label, "location": resolved})
	}
}

func RenderForm(svc *intake.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		f, err := svc.RenderForm(r.Context(), auth.SessionFromContext(r.Context()), id)
		if err != nil {
			respondServiceError(w, r, lg, "render form failed", err)
			return
		}
		respondJSON(w, r, http.StatusOK, f)
	}
}

// labelParam returns the {label} URL parameter decoded, since chi matches on
// the raw path when the request carries one.
func labelParam(r *http.Request) string {
	raw := chi.URLParam(r, "label")
	if r.URL.RawPath == "" {
		return raw
	}
	if label, err := url.PathUnescape(raw); err == nil {
		return label
	}
	return raw
}
