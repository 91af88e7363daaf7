package app

import (
	"context"
	"testing"
	"time"

	"invoicely-service/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestServer_ShutdownWaitsForStartup(t *testing.T) {
	srv := NewServer(config.AppConfig{DatabaseURL: "not a dsn"}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, srv.Shutdown(ctx), context.DeadlineExceeded)

	done := make(chan error, 1)
	go func() {
		done <- srv.Shutdown(context.Background())
	}()

	require.Error(t, srv.Start())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("shutdown did not return after a failed start")
	}
}
