package main

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gestorcentros/internal/auth"
	"gestorcentros/internal/config"
	"gestorcentros/internal/models"
	"gestorcentros/internal/store"
)

func TestSeedDefaultAdmin(t *testing.T) {
	ctx := context.Background()
	lg := zap.NewNop().Sugar()
	st := store.Open(ctx, "sqlite:file:"+uuid.NewString()+"?mode=memory&cache=shared&_foreign_keys=on", lg)
	t.Cleanup(func() { _ = st.Close() })
	authn := auth.NewAuthenticator(st, auth.NewSigner("s", time.Hour), 5, lg)

	seedDefaultAdmin(ctx, authn, config.BootstrapAdmin{Username: "admin"}, time.Millisecond, lg)
	_, err := st.UserByUsername(ctx, "admin")
	assert.ErrorIs(t, err, store.ErrNotFound)

	seedDefaultAdmin(ctx, authn, config.BootstrapAdmin{Username: "admin", Password: "admin-12345", FullName: "Admin"}, time.Millisecond, lg)
	u, err := st.UserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
}

func TestSeedDefaultAdminRetriesUntilCancelled(t *testing.T) {
	lg := zap.NewNop().Sugar()
	st := store.Open(context.Background(), "postgres://nobody@127.0.0.1:1/none?connect_timeout=1", lg)
	t.Cleanup(func() { _ = st.Close() })
	authn := auth.NewAuthenticator(st, auth.NewSigner("s", time.Hour), 5, lg)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	done := make(chan struct{})
	go func() {
		seedDefaultAdmin(ctx, authn, config.BootstrapAdmin{Username: "admin", Password: "admin-12345"}, 10*time.Millisecond, lg)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("bootstrap did not stop after cancellation")
	}
	assert.Error(t, ctx.Err())
}
