package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"gestorcentros/internal/auth"
	"gestorcentros/internal/form"
	"gestorcentros/internal/httpserver/handlers"
	"gestorcentros/internal/models"
	"gestorcentros/internal/services/authoring"
	"gestorcentros/internal/services/intake"
	"gestorcentros/internal/store"
)

// defaultMaxSubmitBody bounds a submission body: a few base64 images at
// the per-image limit plus the text answers.
const defaultMaxSubmitBody = 4 * form.MaxImageBytes * 4 / 3

// Deps are the collaborators the HTTP API is built from.
type Deps struct {
	Store       *store.Store
	Auth        *auth.Authenticator
	Signer      *auth.Signer
	Authoring   *authoring.Service
	Intake      *intake.Service
	IdleTimeout time.Duration
	Logger      *zap.SugaredLogger

	// MaxSubmitBody caps submission request bodies; zero selects the default.
	MaxSubmitBody int64
}

func NewRouter(d Deps) http.Handler {
	lg := d.Logger
	maxSubmit := d.MaxSubmitBody
	if maxSubmit <= 0 {
		maxSubmit = defaultMaxSubmitBody
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, requestLogger(lg))
	r.Post("/v1/auth/login", handlers.Login(d.Auth, lg))
	r.Group(func(protected chi.Router) {
		protected.Use(auth.JWTAuth(d.Signer, d.Store, d.IdleTimeout, lg))
		protected.Get("/v1/me", handlers.Me(d.Store, lg))
		protected.Post("/v1/auth/logout", handlers.Logout(d.Auth, lg))
		protected.Post("/v1/auth/password", handlers.ChangePassword(d.Auth, lg))

		protected.Get("/v1/areas", handlers.ListAreas(d.Authoring, lg))
		protected.Get("/v1/areas/{id}/templates", handlers.ListAreaTemplates(d.Authoring, lg))
		protected.Get("/v1/templates/{id}", handlers.GetTemplate(d.Authoring, lg))
		protected.Get("/v1/centers", handlers.ListCenters(d.Store, lg))

		protected.Put("/v1/session/center", handlers.AttachCenter(d.Intake, lg))
		protected.Delete("/v1/session/center", handlers.DetachCenter(d.Intake, lg))
		protected.Put("/v1/session/geo/{label}", handlers.CaptureGeo(d.Intake, lg))
		protected.Delete("/v1/session/geo/{label}", handlers.ClearGeo(d.Intake, lg))

		protected.Get("/v1/templates/{id}/form", handlers.RenderForm(d.Intake, lg))
		protected.With(middleware.RequestSize(maxSubmit)).
			Post("/v1/templates/{id}/submissions", handlers.Submit(d.Intake, lg))
		protected.Get("/v1/submissions/mine", handlers.MySubmissions(d.Intake, lg))
		protected.Get("/v1/submissions/{id}", handlers.GetSubmission(d.Intake, lg))

		protected.Group(func(admin chi.Router) {
			admin.Use(auth.RequireRole(models.RoleAdmin))
			admin.Post("/v1/admin/areas", handlers.CreateArea(d.Authoring, lg))
			admin.Post("/v1/admin/templates", handlers.CreateTemplate(d.Authoring, lg))
			admin.Get("/v1/admin/users", handlers.ListUsers(d.Store, lg))
			admin.Post("/v1/admin/users", handlers.CreateUser(d.Auth, lg))
			admin.Post("/v1/admin/users/{id}/unlock", handlers.UnlockUser(d.Auth, lg))
			admin.Post("/v1/admin/users/{id}/password", handlers.SetUserPassword(d.Auth, lg))
			admin.Get("/v1/admin/dashboard", handlers.Dashboard(d.Store, lg))
			admin.Get("/v1/admin/submissions", handlers.ListSubmissions(d.Store, lg))
			admin.Get("/v1/admin/submissions/export", handlers.ExportSubmissions(d.Store, lg))
			admin.Put("/v1/admin/centers", handlers.UpsertCenters(d.Store, lg))
			admin.Get("/v1/admin/audit", handlers.AuditLog(d.Store, lg))
		})
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		if err := d.Store.Ping(r.Context()); err != nil {
			status = "degraded"
		}
		render.JSON(w, r, map[string]string{"status": status})
	})
	return r
}

// requestLogger logs one line per request with its outcome.
func requestLogger(lg *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				lg.Infow("request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
