// internal/handlers/support/support_handler.go
package support

import (
	"net/http"

	"invoicely-service/internal/domain/support"
	"invoicely-service/internal/middleware"
	"invoicely-service/internal/pkg/response"
	supportUsecase "invoicely-service/internal/service/support"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SupportHandler struct {
	supportService *supportUsecase.SupportService
	logger         *zap.Logger
}

func NewSupportHandler(supportService *supportUsecase.SupportService, logger *zap.Logger) *SupportHandler {
	return &SupportHandler{
		supportService: supportService,
		logger:         logger,
	}
}

// CreateTicket is public; a signed-in caller's ticket is linked to their account.
func (h *SupportHandler) CreateTicket(c *gin.Context) {
	var req support.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	userID, _ := middleware.GetUserID(c)
	ticket, err := h.supportService.CreateTicket(c.Request.Context(), userID, &req)
	if err != nil {
		response.HandleError(c, "failed to create ticket", err)
		return
	}
	response.Success(c, http.StatusCreated, "ticket created", ticket)
}

func (h *SupportHandler) ListMyTickets(c *gin.Context) {
	tickets, err := h.supportService.ListMyTickets(c.Request.Context(), middleware.MustGetUserID(c))
	if err != nil {
		response.HandleError(c, "failed to list tickets", err)
		return
	}
	response.Success(c, http.StatusOK, "tickets retrieved", tickets)
}

func (h *SupportHandler) SubmitFeedback(c *gin.Context) {
	var req support.SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	feedback, err := h.supportService.SubmitFeedback(c.Request.Context(), middleware.MustGetUserID(c), &req)
	if err != nil {
		response.HandleError(c, "failed to submit feedback", err)
		return
	}
	response.Success(c, http.StatusCreated, "feedback submitted", feedback)
}

func (h *SupportHandler) ListMyFeedback(c *gin.Context) {
	feedback, err := h.supportService.ListMyFeedback(c.Request.Context(), middleware.MustGetUserID(c))
	if err != nil {
		response.HandleError(c, "failed to list feedback", err)
		return
	}
	response.Success(c, http.StatusOK, "feedback retrieved", feedback)
}
