// internal/handlers/analytics/analytics_handler.go
package analytics

import (
	"net/http"
	"strconv"

	"invoicely-service/internal/domain/analytics"
	"invoicely-service/internal/middleware"
	xerrors "invoicely-service/internal/pkg/errors"
	"invoicely-service/internal/pkg/response"
	analyticsUsecase "invoicely-service/internal/service/analytics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AnalyticsHandler struct {
	analyticsService *analyticsUsecase.AnalyticsService
	logger           *zap.Logger
}

func NewAnalyticsHandler(analyticsService *analyticsUsecase.AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		logger:           logger,
	}
}

// Snapshot returns the rollup for ?range=6|12 (default 6). A request overtaken
// by a newer one from the same user answers 409 and should be ignored.
func (h *AnalyticsHandler) Snapshot(c *gin.Context) {
	window, err := parseRange(c)
	if err != nil {
		response.ValidationError(c, "invalid range", err)
		return
	}

	snapshot, err := h.analyticsService.GetSnapshot(c.Request.Context(), middleware.MustGetUserID(c), window)
	if err != nil {
		response.HandleError(c, "failed to compute analytics", err)
		return
	}
	response.Success(c, http.StatusOK, "analytics computed", snapshot)
}

func (h *AnalyticsHandler) ExportCSV(c *gin.Context) {
	window, err := parseRange(c)
	if err != nil {
		response.ValidationError(c, "invalid range", err)
		return
	}

	file, err := h.analyticsService.ExportCSV(c.Request.Context(), middleware.MustGetUserID(c), window)
	if err != nil {
		response.HandleExportError(c, err)
		return
	}
	response.Attachment(c, file.Name, file.ContentType, file.Body)
}

func (h *AnalyticsHandler) ExportReport(c *gin.Context) {
	window, err := parseRange(c)
	if err != nil {
		response.ValidationError(c, "invalid range", err)
		return
	}

	file, err := h.analyticsService.ExportReport(c.Request.Context(), middleware.MustGetUserID(c), window)
	if err != nil {
		response.HandleExportError(c, err)
		return
	}
	response.Attachment(c, file.Name, file.ContentType, file.Body)
}

func parseRange(c *gin.Context) (int, error) {
	raw := c.DefaultQuery("range", strconv.Itoa(analytics.Window6))
	window, err := strconv.Atoi(raw)
	if err != nil || !analyticsUsecase.ValidWindow(window) {
		return 0, xerrors.Invalid("range must be %d or %d months", analytics.Window6, analytics.Window12)
	}
	return window, nil
}
