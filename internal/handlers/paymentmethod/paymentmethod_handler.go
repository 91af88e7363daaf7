// internal/handlers/paymentmethod/paymentmethod_handler.go
package paymentmethod

import (
	"net/http"

	"invoicely-service/internal/domain/paymentmethod"
	"invoicely-service/internal/middleware"
	"invoicely-service/internal/pkg/response"
	pmUsecase "invoicely-service/internal/service/paymentmethod"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PaymentMethodHandler struct {
	service *pmUsecase.PaymentMethodService
	logger  *zap.Logger
}

func NewPaymentMethodHandler(service *pmUsecase.PaymentMethodService, logger *zap.Logger) *PaymentMethodHandler {
	return &PaymentMethodHandler{
		service: service,
		logger:  logger,
	}
}

func (h *PaymentMethodHandler) List(c *gin.Context) {
	methods, err := h.service.List(c.Request.Context(), middleware.MustGetUserID(c))
	if err != nil {
		response.HandleError(c, "failed to list payment methods", err)
		return
	}
	response.Success(c, http.StatusOK, "payment methods retrieved", methods)
}

func (h *PaymentMethodHandler) Create(c *gin.Context) {
	var req paymentmethod.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	pm, err := h.service.Create(c.Request.Context(), middleware.MustGetUserID(c), &req)
	if err != nil {
		response.HandleError(c, "failed to add payment method", err)
		return
	}
	response.Success(c, http.StatusCreated, "payment method added", pm)
}

func (h *PaymentMethodHandler) Update(c *gin.Context) {
	var req paymentmethod.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	pm, err := h.service.Update(c.Request.Context(), middleware.MustGetUserID(c), c.Param("id"), &req)
	if err != nil {
		response.HandleError(c, "failed to update payment method", err)
		return
	}
	response.Success(c, http.StatusOK, "payment method updated", pm)
}

func (h *PaymentMethodHandler) ToggleActive(c *gin.Context) {
	active, err := h.service.ToggleActive(c.Request.Context(), middleware.MustGetUserID(c), c.Param("id"))
	if err != nil {
		response.HandleError(c, "failed to toggle payment method", err)
		return
	}
	response.Success(c, http.StatusOK, "payment method updated", gin.H{"id": c.Param("id"), "is_active": active})
}

func (h *PaymentMethodHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), middleware.MustGetUserID(c), c.Param("id")); err != nil {
		response.HandleError(c, "failed to delete payment method", err)
		return
	}
	response.Success(c, http.StatusOK, "payment method deleted", nil)
}

// Reorder takes the complete new order; a partial or unknown list changes nothing.
func (h *PaymentMethodHandler) Reorder(c *gin.Context) {
	var req paymentmethod.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	methods, err := h.service.Reorder(c.Request.Context(), middleware.MustGetUserID(c), req.OrderedIDs)
	if err != nil {
		response.HandleError(c, "failed to reorder payment methods", err)
		return
	}
	response.Success(c, http.StatusOK, "payment methods reordered", methods)
}
