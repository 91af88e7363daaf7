package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	xerrors "invoicely-service/internal/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", xerrors.Invalid("plan %q", "gold"), http.StatusBadRequest},
		{"wrapped not found", fmt.Errorf("lookup: %w", xerrors.ErrNotFound), http.StatusNotFound},
		{"stale", xerrors.ErrStaleRequest, http.StatusConflict},
		{"banned", xerrors.ErrAccountBanned, http.StatusForbidden},
		{"rate limited", xerrors.ErrRateLimited, http.StatusTooManyRequests},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestHandleError_WritesEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	HandleError(c, "failed to update plan", xerrors.Invalid("unknown plan"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, c.IsAborted())

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "failed to update plan", body.Message)
	assert.Contains(t, body.Error, "unknown plan")
}

func TestHandleExportError_EmptyIsNotAFailure(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	HandleExportError(c, fmt.Errorf("csv: %w", xerrors.ErrNothingToExport))

	assert.Equal(t, http.StatusOK, w.Code)
	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "csv: nothing to export", body.Message)
}

func TestAttachment(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Attachment(c, "users-2026-03-15.csv", "text/csv; charset=utf-8", []byte("id\n\"1\""))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="users-2026-03-15.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "id\n\"1\"", w.Body.String())
}
