// internal/middleware/recovery_middleware.go
package middleware

import (
	"errors"
	"net"
	"net/http"
	"os"
	"syscall"

	"invoicely-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryMiddleware turns a handler panic into a 500 envelope. When the client
// has already gone away nothing is written back.
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			fields := []zap.Field{
				zap.Any("panic", rec),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
			}
			if userID, ok := GetUserID(c); ok {
				fields = append(fields, zap.String("user_id", userID))
			}

			if err, ok := rec.(error); ok && brokenConnection(err) {
				logger.Warn("client connection lost", fields...)
				c.Abort()
				return
			}

			logger.Error("panic recovered", append(fields, zap.Stack("stack"))...)
			response.Error(c, http.StatusInternalServerError, "internal server error", nil)
		}()
		c.Next()
	}
}

func brokenConnection(err error) bool {
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		return false
	}
	var sysErr *os.SyscallError
	if errors.As(opErr, &sysErr) {
		return errors.Is(sysErr.Err, syscall.EPIPE) || errors.Is(sysErr.Err, syscall.ECONNRESET)
	}
	return false
}
