package paymentmethod

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"invoicely-service/internal/domain/paymentmethod"
	pmUsecase "invoicely-service/internal/service/paymentmethod"
	"invoicely-service/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter() *gin.Engine {
	h := NewPaymentMethodHandler(pmUsecase.NewPaymentMethodService(testutil.NewInMemoryPaymentMethodStore(), zap.NewNop()), zap.NewNop())

	r := gin.New()
	g := r.Group("/payment-methods", func(c *gin.Context) { c.Set("user_id", "u1") })
	g.GET("", h.List)
	g.POST("", h.Create)
	g.PUT("/reorder", h.Reorder)
	g.PATCH("/:id/toggle", h.ToggleActive)
	g.DELETE("/:id", h.Delete)
	return r
}

func call(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var body struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Data
}

func TestCreate(t *testing.T) {
	r := newRouter()

	w := call(r, http.MethodPost, "/payment-methods", `{"type":"upi","details":{"upi_id":" shop@bank ","extra":"x"}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	pm := decode[paymentmethod.PaymentMethod](t, w)
	assert.Equal(t, map[string]string{"upi_id": "shop@bank"}, pm.Details)

	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodPost, "/payment-methods", `{"type":"upi","details":{}}`).Code)
	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodPost, "/payment-methods", `{"type":"paypal","details":{"email":"a@b.io"}}`).Code)
}

func TestReorder(t *testing.T) {
	r := newRouter()
	var created []string
	for _, id := range []string{"a", "b", "c"} {
		w := call(r, http.MethodPost, "/payment-methods", `{"type":"upi","details":{"upi_id":"`+id+`"}}`)
		require.Equal(t, http.StatusCreated, w.Code)
		created = append(created, decode[paymentmethod.PaymentMethod](t, w).ID)
	}

	w := call(r, http.MethodPut, "/payment-methods/reorder", `{"ordered_ids":["`+created[2]+`","`+created[0]+`","`+created[1]+`"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	methods := decode[[]paymentmethod.PaymentMethod](t, w)
	require.Len(t, methods, 3)
	assert.Equal(t, created[2], methods[0].ID)

	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodPut, "/payment-methods/reorder", `{"ordered_ids":["`+created[0]+`"]}`).Code)
	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodPut, "/payment-methods/reorder", `{"ordered_ids":[]}`).Code)
}

func TestToggleAndDelete(t *testing.T) {
	r := newRouter()
	w := call(r, http.MethodPost, "/payment-methods", `{"type":"upi","details":{"upi_id":"a"}}`)
	id := decode[paymentmethod.PaymentMethod](t, w).ID

	w = call(r, http.MethodPatch, "/payment-methods/"+id+"/toggle", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode[map[string]any](t, w)["is_active"])

	assert.Equal(t, http.StatusOK, call(r, http.MethodDelete, "/payment-methods/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, call(r, http.MethodDelete, "/payment-methods/"+id, "").Code)
}
