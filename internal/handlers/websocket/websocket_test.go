package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"invoicely-service/internal/testutil"
	ws "invoicely-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHandleConnection_RequiresToken(t *testing.T) {
	hub := ws.NewHub(nil, testutil.NewInMemorySessionStore(), zap.NewNop())
	h := NewWebSocketHandler(hub, []string{"http://localhost:5173"}, zap.NewNop())

	r := gin.New()
	r.GET("/ws", h.HandleConnection)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCheckOrigin(t *testing.T) {
	h := NewWebSocketHandler(nil, []string{"http://localhost:5173"}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, h.upgrader.CheckOrigin(req), "no origin header")

	req.Header.Set("Origin", "http://localhost:5173")
	assert.True(t, h.upgrader.CheckOrigin(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, h.upgrader.CheckOrigin(req))

	open := NewWebSocketHandler(nil, []string{"*"}, zap.NewNop())
	assert.True(t, open.upgrader.CheckOrigin(req))
}

func TestExtractToken(t *testing.T) {
	h := NewWebSocketHandler(nil, nil, zap.NewNop())

	tests := []struct {
		name   string
		target string
		header string
		want   string
	}{
		{"query param", "/ws?token=abc", "", "abc"},
		{"bearer header", "/ws", "Bearer xyz", "xyz"},
		{"query wins over header", "/ws?token=abc", "Bearer xyz", "abc"},
		{"missing", "/ws", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				c.Request.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, h.extractToken(c))
		})
	}
}
