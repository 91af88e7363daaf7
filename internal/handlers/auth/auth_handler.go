// internal/handlers/auth/auth_handler.go
package auth

import (
	"net/http"

	"invoicely-service/internal/domain/auth"
	"invoicely-service/internal/middleware"
	"invoicely-service/internal/pkg/response"
	authUsecase "invoicely-service/internal/service/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *authUsecase.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService *authUsecase.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// ========== Registration ==========

func (h *AuthHandler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	req.IPAddress = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	loginResp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		h.logger.Warn("registration failed", zap.String("email", req.Email), zap.Error(err))
		response.HandleError(c, "registration failed", err)
		return
	}

	response.Success(c, http.StatusCreated, "registration successful", loginResp)
}

// ========== Login ==========

func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	req.IPAddress = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	loginResp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		response.HandleError(c, "login failed", err)
		return
	}

	response.Success(c, http.StatusOK, "login successful", loginResp)
}

// ========== Session ==========

// Session restores the signed-in user's context.
func (h *AuthHandler) Session(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	jti, _ := middleware.GetJTI(c)

	sess, err := h.authService.Session(c.Request.Context(), userID, jti)
	if err != nil {
		response.HandleError(c, "session unavailable", err)
		return
	}

	response.Success(c, http.StatusOK, "session restored", sess)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	jti, _ := middleware.GetJTI(c)

	if err := h.authService.Logout(c.Request.Context(), userID, jti, middleware.TokenExpiry(c)); err != nil {
		h.logger.Error("logout failed", zap.String("user_id", userID), zap.Error(err))
		response.HandleError(c, "logout failed", err)
		return
	}

	response.Success(c, http.StatusOK, "logout successful", nil)
}

func (h *AuthHandler) LogoutAll(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	if err := h.authService.LogoutAll(c.Request.Context(), userID); err != nil {
		h.logger.Error("logout all failed", zap.String("user_id", userID), zap.Error(err))
		response.HandleError(c, "logout all failed", err)
		return
	}

	response.Success(c, http.StatusOK, "all sessions logged out", nil)
}

// ========== Password Management ==========

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req auth.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.logger.Error("forgot password failed", zap.Error(err))
		response.HandleError(c, "could not start password reset", err)
		return
	}

	response.Success(c, http.StatusOK, "if the account exists, a reset link has been sent", nil)
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req auth.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), &req); err != nil {
		response.HandleError(c, "password reset failed", err)
		return
	}

	response.Success(c, http.StatusOK, "password updated, please sign in again", nil)
}

// ========== Profile ==========

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req auth.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	info, err := h.authService.UpdateProfile(c.Request.Context(), middleware.MustGetUserID(c), &req)
	if err != nil {
		response.HandleError(c, "failed to update profile", err)
		return
	}

	response.Success(c, http.StatusOK, "profile updated", info)
}
