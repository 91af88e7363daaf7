// internal/app/router.go
package app

import (
	"net/http"

	adminHandler "invoicely-service/internal/handlers/admin"
	analyticsHandler "invoicely-service/internal/handlers/analytics"
	authHandler "invoicely-service/internal/handlers/auth"
	invoiceHandler "invoicely-service/internal/handlers/invoice"
	pmHandler "invoicely-service/internal/handlers/paymentmethod"
	supportHandler "invoicely-service/internal/handlers/support"
	wsHandler "invoicely-service/internal/handlers/websocket"
	"invoicely-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	AuthHandler          *authHandler.AuthHandler
	AdminHandler         *adminHandler.AdminHandler
	InvoiceHandler       *invoiceHandler.InvoiceHandler
	AnalyticsHandler     *analyticsHandler.AnalyticsHandler
	PaymentMethodHandler *pmHandler.PaymentMethodHandler
	SupportHandler       *supportHandler.SupportHandler
	WSHandler            *wsHandler.WebSocketHandler
	AuthMiddleware       *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== Metrics & WebSocket ====================
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", h.WSHandler.HandleConnection)

	// ==================== Public Auth Routes ====================
	authPublic := api.Group("/auth")
	{
		authPublic.POST("/register", h.AuthHandler.Register)
		authPublic.POST("/login", h.AuthHandler.Login)
		authPublic.POST("/forgot-password", h.AuthHandler.ForgotPassword)
		authPublic.POST("/reset-password", h.AuthHandler.ResetPassword)
	}

	// ==================== Authenticated Auth Routes ====================
	authProtected := api.Group("/auth")
	authProtected.Use(h.AuthMiddleware.Auth())
	{
		authProtected.GET("/session", h.AuthHandler.Session)
		authProtected.POST("/logout", h.AuthHandler.Logout)
		authProtected.POST("/logout-all", h.AuthHandler.LogoutAll)
		authProtected.PUT("/profile", h.AuthHandler.UpdateProfile)
	}

	// ==================== Invoices ====================
	invoices := api.Group("/invoices")
	invoices.Use(h.AuthMiddleware.Auth())
	{
		invoices.GET("", h.InvoiceHandler.List)
		invoices.POST("", h.InvoiceHandler.Create)
		invoices.GET("/export", h.InvoiceHandler.Export)
		invoices.GET("/:id", h.InvoiceHandler.Get)
		invoices.PUT("/:id", h.InvoiceHandler.Update)
		invoices.PUT("/:id/status", h.InvoiceHandler.UpdateStatus)
		invoices.DELETE("/:id", h.InvoiceHandler.Delete)
	}

	// ==================== Analytics ====================
	analytics := api.Group("/analytics")
	analytics.Use(h.AuthMiddleware.Auth())
	{
		analytics.GET("", h.AnalyticsHandler.Snapshot)
		analytics.GET("/export/csv", h.AnalyticsHandler.ExportCSV)
		analytics.GET("/export/report", h.AnalyticsHandler.ExportReport)
	}

	// ==================== Payment Methods ====================
	paymentMethods := api.Group("/payment-methods")
	paymentMethods.Use(h.AuthMiddleware.Auth())
	{
		paymentMethods.GET("", h.PaymentMethodHandler.List)
		paymentMethods.POST("", h.PaymentMethodHandler.Create)
		paymentMethods.PUT("/reorder", h.PaymentMethodHandler.Reorder)
		paymentMethods.PUT("/:id", h.PaymentMethodHandler.Update)
		paymentMethods.PUT("/:id/toggle", h.PaymentMethodHandler.ToggleActive)
		paymentMethods.DELETE("/:id", h.PaymentMethodHandler.Delete)
	}

	// ==================== Support ====================
	api.POST("/support/tickets", h.AuthMiddleware.OptionalAuth(), h.SupportHandler.CreateTicket)

	support := api.Group("")
	support.Use(h.AuthMiddleware.Auth())
	{
		support.GET("/support/tickets", h.SupportHandler.ListMyTickets)
		support.POST("/feedback", h.SupportHandler.SubmitFeedback)
		support.GET("/feedback", h.SupportHandler.ListMyFeedback)
	}

	// ==================== Admin ====================
	admin := api.Group("/admin")
	admin.Use(h.AuthMiddleware.AdminOnly()...)
	{
		admin.GET("/overview", h.AdminHandler.Overview)
		admin.GET("/users", h.AdminHandler.ListUsers)
		admin.PUT("/users/:id/plan", h.AdminHandler.UpdateUserPlan)
		admin.PUT("/users/:id/ban", h.AdminHandler.ToggleUserBan)
		admin.GET("/invoices", h.AdminHandler.ListInvoices)
		admin.GET("/tickets", h.AdminHandler.ListTickets)
		admin.PUT("/tickets/:id/status", h.AdminHandler.UpdateTicketStatus)
		admin.GET("/feedback", h.AdminHandler.ListFeedback)
		admin.PUT("/feedback/:id/status", h.AdminHandler.UpdateFeedbackStatus)
		admin.GET("/export/:collection", h.AdminHandler.Export)
		admin.GET("/ws/stats", h.WSHandler.GetStats)
	}
}
