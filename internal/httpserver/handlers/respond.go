package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"gestorcentros/internal/auth"
	"gestorcentros/internal/form"
	"gestorcentros/internal/services/authoring"
	"gestorcentros/internal/services/intake"
	"gestorcentros/internal/store"
)

// degradedWarning accompanies read views served while the database is down.
const degradedWarning = "database unavailable; showing no data"

type errorBody struct {
	Error   string          `json:"error"`
	Missing []string        `json:"missing,omitempty"`
	Invalid []invalidDetail `json:"invalid,omitempty"`
}

type invalidDetail struct {
	Label  string `json:"label"`
	Reason string `json:"reason"`
}

// listBody wraps read views so a degraded answer keeps the same shape.
type listBody struct {
	Data    any    `json:"data"`
	Warning string `json:"warning,omitempty"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func respondError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	respondJSON(w, r, status, errorBody{Error: msg})
}

func respondList(w http.ResponseWriter, r *http.Request, v any) {
	respondJSON(w, r, http.StatusOK, listBody{Data: v})
}

// respondDegraded answers a read view with empty data when err means the
// database is down. It reports whether it wrote a response.
func respondDegraded(w http.ResponseWriter, r *http.Request, lg *zap.SugaredLogger, err error, empty any) bool {
	if !errors.Is(err, store.ErrConnectionUnavailable) {
		return false
	}
	lg.Warnw("serving degraded view", "path", r.URL.Path, "error", err)
	respondJSON(w, r, http.StatusOK, listBody{Data: empty, Warning: degradedWarning})
	return true
}

// respondServiceError maps a domain or storage error to a status code and a
// short message. Unexpected errors are logged and answered as 500.
func respondServiceError(w http.ResponseWriter, r *http.Request, lg *zap.SugaredLogger, op string, err error) {
	var ve *form.ValidationError
	if errors.As(err, &ve) {
		respondJSON(w, r, http.StatusUnprocessableEntity, errorBody{Error: "required fields missing", Missing: ve.Labels()})
		return
	}
	if invalid := form.InvalidValues(err); len(invalid) > 0 {
		body := errorBody{Error: "invalid field values"}
		for _, iv := range invalid {
			body.Invalid = append(body.Invalid, invalidDetail{Label: iv.Label, Reason: iv.Reason})
		}
		respondJSON(w, r, http.StatusBadRequest, body)
		return
	}

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, r, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
	case errors.Is(err, auth.ErrAccountLocked):
		respondError(w, r, http.StatusLocked, auth.ErrAccountLocked.Error())
	case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrPasswordTooLong),
		errors.Is(err, auth.ErrInvalidRole),
		errors.Is(err, auth.ErrEmptyUsername), errors.Is(err, authoring.ErrEmptyName),
		errors.Is(err, form.ErrNoFields), errors.Is(err, form.ErrEmptyLabel),
		errors.Is(err, form.ErrDuplicateLabel), errors.Is(err, form.ErrUnknownKind),
		errors.Is(err, intake.ErrEmptyLabel):
		respondError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, authoring.ErrMissingArea), errors.Is(err, intake.ErrUnknownCenter):
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, authoring.ErrDuplicateName):
		respondError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrAlreadyExists):
		respondError(w, r, http.StatusConflict, "already exists")
	case errors.Is(err, store.ErrIntegrityViolation):
		respondError(w, r, http.StatusConflict, "conflicts with existing data")
	case errors.Is(err, store.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrConnectionUnavailable):
		lg.Warnw(op, "error", err)
		respondError(w, r, http.StatusServiceUnavailable, "database unavailable, try again later")
	default:
		lg.Errorw(op, "error", err)
		respondError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON reads the request body into v, answering 400 on failure and
// 413 when the body exceeds the route's size limit.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, http.StatusRequestEntityTooLarge, "request body exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes")
			return false
		}
		if errors.Is(err, form.ErrUnknownKind) {
			respondError(w, r, http.StatusBadRequest, err.Error())
			return false
		}
		respondError(w, r, http.StatusBadRequest, "malformed JSON body")
		return false
	}
	return true
}

// idParam parses a positive numeric URL parameter, answering 400 on failure.
func idParam(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || id == 0 {
		respondError(w, r, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
