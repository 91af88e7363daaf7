package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"invoicely-service/internal/domain/auth"
	"invoicely-service/internal/middleware"
	"invoicely-service/internal/pkg/jwt"
	authUsecase "invoicely-service/internal/service/auth"
	"invoicely-service/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type nopMailer struct{}

func (nopMailer) SendPasswordReset(context.Context, string, string, string) error { return nil }
func (nopMailer) SendWelcome(context.Context, string, string) error { return nil }

type nopLogout struct{}

func (nopLogout) ForceLogout(string, string) {}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	manager := &jwt.Manager{
		Generator: jwt.NewGenerator(key, "invoicely", "invoicely-users", "test", time.Hour),
		Verifier:  jwt.NewVerifier(&key.PublicKey, "invoicely", "invoicely-users"),
	}

	users := testutil.NewInMemoryUserStore()
	sessions := testutil.NewInMemorySessionStore()
	svc := authUsecase.NewAuthService(users, authUsecase.NewLocalProvider(users), manager, sessions,
		testutil.NewInMemoryLimiter(), nopMailer{}, nopLogout{}, "https://app.invoicely.test/reset", zap.NewNop())
	h := NewAuthHandler(svc, zap.NewNop())
	mw := middleware.NewAuthMiddleware(manager.Verifier, sessions)

	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	protected := r.Group("/auth", mw.Auth())
	protected.GET("/session", h.Session)
	protected.POST("/logout", h.Logout)
	protected.PUT("/profile", h.UpdateProfile)
	return r
}

func call(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSessionLifecycle(t *testing.T) {
	r := newRouter(t)

	w := call(r, http.MethodPost, "/auth/register", "", `{"email":"ana@example.com","password":"correct horse","full_name":"Ana Diaz"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var reg struct {
		Data auth.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reg))
	token := reg.Data.AccessToken
	require.NotEmpty(t, token)

	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, "/auth/session", "", "").Code)
	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/auth/session", token, "").Code)

	w = call(r, http.MethodPut, "/auth/profile", token, `{"full_name":"Ana María Diaz"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Ana María Diaz")

	assert.Equal(t, http.StatusOK, call(r, http.MethodPost, "/auth/logout", token, "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, "/auth/session", token, "").Code)
}

func TestLogin(t *testing.T) {
	r := newRouter(t)
	require.Equal(t, http.StatusCreated,
		call(r, http.MethodPost, "/auth/register", "", `{"email":"ana@example.com","password":"correct horse","full_name":"Ana Diaz"}`).Code)

	assert.Equal(t, http.StatusOK,
		call(r, http.MethodPost, "/auth/login", "", `{"email":"ana@example.com","password":"correct horse"}`).Code)
	assert.Equal(t, http.StatusUnauthorized,
		call(r, http.MethodPost, "/auth/login", "", `{"email":"ana@example.com","password":"wrong"}`).Code)
	assert.Equal(t, http.StatusBadRequest,
		call(r, http.MethodPost, "/auth/login", "", `{"email":"not-an-email","password":"x"}`).Code)
}

func TestRegister_Duplicate(t *testing.T) {
	r := newRouter(t)
	body := `{"email":"ana@example.com","password":"correct horse","full_name":"Ana Diaz"}`

	require.Equal(t, http.StatusCreated, call(r, http.MethodPost, "/auth/register", "", body).Code)
	assert.Equal(t, http.StatusConflict, call(r, http.MethodPost, "/auth/register", "", body).Code)
}
