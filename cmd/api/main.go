package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"gestorcentros/internal/auth"
	"gestorcentros/internal/config"
	"gestorcentros/internal/form"
	"gestorcentros/internal/httpserver"
	"gestorcentros/internal/logger"
	"gestorcentros/internal/services/authoring"
	"gestorcentros/internal/services/intake"
	"gestorcentros/internal/store"
)

const bootstrapRetry = 5 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; relying on existing environment")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	lg := logger.New(cfg.LogLevel)
	defer lg.Sync()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	st := store.Open(ctx, cfg.DatabaseURL, lg)
	defer st.Close()

	signer := auth.NewSigner(cfg.JWTSecret, cfg.JWTTTL)
	authn := auth.NewAuthenticator(st, signer, cfg.MaxLoginAttempts, lg)
	go seedDefaultAdmin(ctx, authn, cfg.BootstrapAdmin, bootstrapRetry, lg)

	caps := form.Capabilities{
		Map:             cfg.MapAvailable,
		DeviceLocation:  cfg.DeviceLocationAvailable,
		SignatureCanvas: cfg.SignatureCanvasAvailable,
	}
	router := httpserver.NewRouter(httpserver.Deps{
		Store:       st,
		Auth:        authn,
		Signer:      signer,
		Authoring:   authoring.NewService(st, lg),
		Intake:      intake.NewService(st, caps, lg),
		IdleTimeout: cfg.SessionIdleTimeout,
		Logger:      lg,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		lg.Infow("listening", "addr", srv.Addr, "capabilities", caps)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatalw("http server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		lg.Errorw("graceful shutdown error", "error", err)
	}
}

// seedDefaultAdmin creates the bootstrap administrator when a password is
// configured and the username is still free. While the database is
// unreachable it retries until ctx is done.
func seedDefaultAdmin(ctx context.Context, authn *auth.Authenticator, admin config.BootstrapAdmin, retry time.Duration, lg *zap.SugaredLogger) {
	if admin.Password == "" {
		return
	}
	for {
		created, err := authn.EnsureAdmin(ctx, admin.Username, admin.Password, admin.FullName)
		switch {
		case err == nil:
			if created {
				lg.Infow("seeded default admin", "username", admin.Username)
			}
			return
		case !errors.Is(err, store.ErrConnectionUnavailable):
			lg.Errorw("seed default admin failed", "error", err)
			return
		}
		lg.Warnw("database unavailable, retrying admin bootstrap", "in", retry, "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(retry):
		}
	}
}
