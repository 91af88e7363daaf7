// internal/pkg/response/response.go
package response

import (
	"fmt"
	"net/http"

	xerrors "invoicely-service/internal/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Response defines the standard API response format.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Success sends a successful response with a message and optional data.
func Success(c *gin.Context, status int, message string, data interface{}) {
	if status == 0 {
		status = http.StatusOK
	}

	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error sends a standardized error response.
func Error(c *gin.Context, code int, message string, err error, data ...interface{}) {
	// abort before writing so later handlers in the chain never run
	c.Abort()

	response := Response{
		Success: false,
		Message: message,
	}

	if err != nil {
		response.Error = err.Error()
	}

	if len(data) > 0 {
		response.Data = data[0]
	}

	c.JSON(code, response)
}

// HandleError maps application sentinel errors to an HTTP status.
func HandleError(c *gin.Context, message string, err error) {
	Error(c, StatusFor(err), message, err)
}

// StatusFor returns the HTTP status that corresponds to err.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case xerrors.Is(err, xerrors.ErrInvalidInput):
		return http.StatusBadRequest
	case xerrors.Is(err, xerrors.ErrNotFound):
		return http.StatusNotFound
	case xerrors.Is(err, xerrors.ErrUnauthorized), xerrors.Is(err, xerrors.ErrSessionExpired):
		return http.StatusUnauthorized
	case xerrors.Is(err, xerrors.ErrForbidden), xerrors.Is(err, xerrors.ErrAccountBanned):
		return http.StatusForbidden
	case xerrors.Is(err, xerrors.ErrConflict), xerrors.Is(err, xerrors.ErrStaleRequest):
		return http.StatusConflict
	case xerrors.Is(err, xerrors.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// ValidationError sends a 400 Bad Request response for invalid input.
func ValidationError(c *gin.Context, message string, err error) {
	Error(c, http.StatusBadRequest, message, err)
}

// Unauthorized sends a 401 Unauthorized response.
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message, nil)
}

// Forbidden sends a 403 Forbidden response.
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message, nil)
}

// Attachment sends body as a file download.
func Attachment(c *gin.Context, filename, contentType string, body []byte) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentType, body)
}

// HandleExportError reports an empty export as a successful no-op.
func HandleExportError(c *gin.Context, err error) {
	if xerrors.Is(err, xerrors.ErrNothingToExport) {
		Success(c, http.StatusOK, err.Error(), nil)
		return
	}
	HandleError(c, "export failed", err)
}
