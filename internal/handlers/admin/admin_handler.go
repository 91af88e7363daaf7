// internal/handlers/admin/admin_handler.go
package admin

import (
	"net/http"

	"invoicely-service/internal/domain/admin"
	"invoicely-service/internal/domain/support"
	"invoicely-service/internal/domain/user"
	"invoicely-service/internal/pkg/response"
	adminUsecase "invoicely-service/internal/service/admin"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	adminService *adminUsecase.AdminService
	logger       *zap.Logger
}

func NewAdminHandler(adminService *adminUsecase.AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		logger:       logger,
	}
}

// Overview returns platform stats and the four collections, narrowed by ?search=.
func (h *AdminHandler) Overview(c *gin.Context) {
	overview, err := h.adminService.GetOverview(c.Request.Context(), c.Query("search"))
	if err != nil {
		h.logger.Error("failed to build admin overview", zap.Error(err))
		response.HandleError(c, "failed to load overview", err)
		return
	}

	message := "overview retrieved"
	if len(overview.Warnings) > 0 {
		message = "overview retrieved with missing collections"
	}
	response.Success(c, http.StatusOK, message, overview)
}

// ========== Users ==========

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.adminService.ListUsers(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.HandleError(c, "failed to list users", err)
		return
	}
	response.Success(c, http.StatusOK, "users retrieved", users)
}

func (h *AdminHandler) UpdateUserPlan(c *gin.Context) {
	var req user.UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	updated, err := h.adminService.UpdateUserPlan(c.Request.Context(), c.Param("id"), req.Plan)
	if err != nil {
		response.HandleError(c, "failed to update plan", err)
		return
	}
	response.Success(c, http.StatusOK, "plan updated", updated)
}

func (h *AdminHandler) ToggleUserBan(c *gin.Context) {
	result, err := h.adminService.ToggleUserBan(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.HandleError(c, "failed to update ban status", err)
		return
	}

	message := "user unbanned"
	if result.IsBanned {
		message = "user banned"
	}
	response.Success(c, http.StatusOK, message, result)
}

// ========== Invoices ==========

func (h *AdminHandler) ListInvoices(c *gin.Context) {
	invoices, err := h.adminService.ListInvoices(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.HandleError(c, "failed to list invoices", err)
		return
	}
	response.Success(c, http.StatusOK, "invoices retrieved", invoices)
}

// ========== Support ==========

func (h *AdminHandler) ListTickets(c *gin.Context) {
	tickets, err := h.adminService.ListTickets(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.HandleError(c, "failed to list tickets", err)
		return
	}
	response.Success(c, http.StatusOK, "tickets retrieved", tickets)
}

func (h *AdminHandler) UpdateTicketStatus(c *gin.Context) {
	var req support.UpdateTicketStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	if err := h.adminService.UpdateTicketStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		response.HandleError(c, "failed to update ticket", err)
		return
	}
	response.Success(c, http.StatusOK, "ticket updated", gin.H{"id": c.Param("id"), "status": req.Status})
}

func (h *AdminHandler) ListFeedback(c *gin.Context) {
	feedback, err := h.adminService.ListFeedback(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.HandleError(c, "failed to list feedback", err)
		return
	}
	response.Success(c, http.StatusOK, "feedback retrieved", feedback)
}

func (h *AdminHandler) UpdateFeedbackStatus(c *gin.Context) {
	var req support.UpdateFeedbackStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	if err := h.adminService.UpdateFeedbackStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		response.HandleError(c, "failed to update feedback", err)
		return
	}
	response.Success(c, http.StatusOK, "feedback updated", gin.H{"id": c.Param("id"), "status": req.Status})
}

// ========== Export ==========

// Export downloads one collection as CSV, filtered by ?search=.
func (h *AdminHandler) Export(c *gin.Context) {
	file, err := h.adminService.Export(c.Request.Context(), admin.Collection(c.Param("collection")), c.Query("search"))
	if err != nil {
		response.HandleExportError(c, err)
		return
	}
	response.Attachment(c, file.Name, file.ContentType, file.Body)
}
