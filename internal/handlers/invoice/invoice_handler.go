// internal/handlers/invoice/invoice_handler.go
package invoice

import (
	"net/http"

	"invoicely-service/internal/domain/invoice"
	"invoicely-service/internal/middleware"
	"invoicely-service/internal/pkg/response"
	invoiceUsecase "invoicely-service/internal/service/invoice"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type InvoiceHandler struct {
	invoiceService *invoiceUsecase.InvoiceService
	logger         *zap.Logger
}

func NewInvoiceHandler(invoiceService *invoiceUsecase.InvoiceService, logger *zap.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		logger:         logger,
	}
}

func (h *InvoiceHandler) Create(c *gin.Context) {
	var req invoice.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	inv, err := h.invoiceService.Create(c.Request.Context(), middleware.MustGetUserID(c), &req)
	if err != nil {
		response.HandleError(c, "failed to create invoice", err)
		return
	}
	response.Success(c, http.StatusCreated, "invoice created", inv)
}

func (h *InvoiceHandler) Get(c *gin.Context) {
	inv, err := h.invoiceService.Get(c.Request.Context(), middleware.MustGetUserID(c), c.Param("id"))
	if err != nil {
		response.HandleError(c, "invoice not found", err)
		return
	}
	response.Success(c, http.StatusOK, "invoice retrieved", inv)
}

// List supports ?status=paid&status=sent and ?search=.
func (h *InvoiceHandler) List(c *gin.Context) {
	var filters invoice.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid filters", err)
		return
	}

	invoices, err := h.invoiceService.List(c.Request.Context(), middleware.MustGetUserID(c), &filters)
	if err != nil {
		response.HandleError(c, "failed to list invoices", err)
		return
	}
	response.Success(c, http.StatusOK, "invoices retrieved", invoices)
}

func (h *InvoiceHandler) Update(c *gin.Context) {
	var req invoice.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	inv, err := h.invoiceService.Update(c.Request.Context(), middleware.MustGetUserID(c), c.Param("id"), &req)
	if err != nil {
		response.HandleError(c, "failed to update invoice", err)
		return
	}
	response.Success(c, http.StatusOK, "invoice updated", inv)
}

func (h *InvoiceHandler) UpdateStatus(c *gin.Context) {
	var req invoice.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	if err := h.invoiceService.UpdateStatus(c.Request.Context(), middleware.MustGetUserID(c), c.Param("id"), req.Status); err != nil {
		response.HandleError(c, "failed to update invoice status", err)
		return
	}
	response.Success(c, http.StatusOK, "invoice status updated", gin.H{"id": c.Param("id"), "status": req.Status})
}

func (h *InvoiceHandler) Delete(c *gin.Context) {
	if err := h.invoiceService.Delete(c.Request.Context(), middleware.MustGetUserID(c), c.Param("id")); err != nil {
		response.HandleError(c, "failed to delete invoice", err)
		return
	}
	response.Success(c, http.StatusOK, "invoice deleted", nil)
}

// Export downloads the filtered invoice list as CSV.
func (h *InvoiceHandler) Export(c *gin.Context) {
	var filters invoice.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid filters", err)
		return
	}

	file, err := h.invoiceService.ExportCSV(c.Request.Context(), middleware.MustGetUserID(c), &filters)
	if err != nil {
		response.HandleExportError(c, err)
		return
	}
	response.Attachment(c, file.Name, file.ContentType, file.Body)
}
