package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"invoicely-service/internal/domain/analytics"
	"invoicely-service/internal/domain/invoice"
	"invoicely-service/internal/pkg/sequence"
	analyticsUsecase "invoicely-service/internal/service/analytics"
	"invoicely-service/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T, seeded bool) *gin.Engine {
	t.Helper()
	store := testutil.NewInMemoryInvoiceStore()
	if seeded {
		require.NoError(t, store.Create(context.Background(), &invoice.Invoice{
			ID:            "i1",
			UserID:        "u1",
			InvoiceNumber: "INV-1",
			ClientName:    "Acme",
			ClientEmail:   "billing@acme.io",
			Status:        invoice.StatusPaid,
			Total:         decimal.NewFromInt(250),
			Currency:      "USD",
			CreatedAt:     time.Now().UTC(),
		}))
	}

	h := NewAnalyticsHandler(analyticsUsecase.NewAnalyticsService(store, sequence.New(), zap.NewNop()), zap.NewNop())
	r := gin.New()
	g := r.Group("/analytics", func(c *gin.Context) { c.Set("user_id", "u1") })
	g.GET("", h.Snapshot)
	g.GET("/export/csv", h.ExportCSV)
	g.GET("/export/pdf", h.ExportReport)
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestSnapshot_DefaultsToSixMonths(t *testing.T) {
	w := get(newRouter(t, true), "/analytics")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Data analytics.Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 6, body.Data.Window)
	assert.Len(t, body.Data.Buckets, 6)
	assert.Equal(t, 1, body.Data.PaidInvoices)
}

func TestSnapshot_TwelveMonths(t *testing.T) {
	w := get(newRouter(t, true), "/analytics?range=12")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data analytics.Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data.Buckets, 12)
}

func TestSnapshot_InvalidRange(t *testing.T) {
	r := newRouter(t, true)
	for _, q := range []string{"3", "abc", "-6"} {
		assert.Equal(t, http.StatusBadRequest, get(r, "/analytics?range="+q).Code, q)
	}
}

func TestExportCSV(t *testing.T) {
	w := get(newRouter(t, true), "/analytics/export/csv")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "analytics-")
	assert.True(t, strings.HasPrefix(w.Body.String(), "month,revenue,invoice_count\n"))
}

func TestExportReport(t *testing.T) {
	w := get(newRouter(t, true), "/analytics/export/pdf?range=12")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))
}

func TestExport_NothingToExport(t *testing.T) {
	r := newRouter(t, false)
	for _, path := range []string{"/analytics/export/csv", "/analytics/export/pdf"} {
		w := get(r, path)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), "nothing to export", path)
	}
}
