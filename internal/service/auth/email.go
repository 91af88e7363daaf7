// internal/service/auth/email.go
package auth

import (
	"context"
	"fmt"
	"html"

	"go.uber.org/zap"
)

// Sender delivers one HTML email.
type Sender interface {
	Send(to, subject, bodyHTML string) error
}

// EmailHelper renders the auth emails and hands them to a Sender.
type EmailHelper struct {
	sender   Sender
	logger   *zap.Logger
	loginURL string
}

func NewEmailHelper(sender Sender, logger *zap.Logger, loginURL string) *EmailHelper {
	return &EmailHelper{
		sender:   sender,
		logger:   logger,
		loginURL: loginURL,
	}
}

// ========== Password Reset ==========

// PasswordResetEmail builds a password reset email
func (h *EmailHelper) PasswordResetEmail(fullName, link string) (string, string) {
	subject := "Reset your Invoicely password"
	body := fmt.Sprintf(`
		<h2>Password reset</h2>
		<p>Hello %s,</p>
		<p>We received a request to reset the password of your Invoicely account.</p>
		<p><a href="%s" class="button">Reset Password</a></p>
		<p>Or paste this link into your browser:</p>
		<p><a href="%s">%s</a></p>
		<p>The link expires in 30 minutes and works once. If you did not ask for it, ignore this email.</p>
	`, html.EscapeString(fullName), link, link, html.EscapeString(link))

	return subject, body
}

func (h *EmailHelper) SendPasswordReset(_ context.Context, to, fullName, link string) error {
	subject, body := h.PasswordResetEmail(fullName, link)
	if err := h.sender.Send(to, subject, body); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	h.logger.Info("password reset email sent", zap.String("email", to))
	return nil
}

// ========== Welcome ==========

// WelcomeEmail builds the email sent after registration
func (h *EmailHelper) WelcomeEmail(fullName, email string) (string, string) {
	subject := "Welcome to Invoicely"
	body := fmt.Sprintf(`
		<h2>Welcome to Invoicely</h2>
		<p>Hello %s,</p>
		<p>Your account is ready. Create your first invoice and set up how clients pay you.</p>
		<p><a href="%s" class="button">Sign in</a></p>
		<p><strong>Your login email:</strong> %s</p>
	`, html.EscapeString(fullName), h.loginURL, html.EscapeString(email))

	return subject, body
}

// SendWelcome sends the welcome email in the background; delivery problems are only logged.
func (h *EmailHelper) SendWelcome(_ context.Context, to, fullName string) error {
	go func() {
		subject, body := h.WelcomeEmail(fullName, to)
		if err := h.sender.Send(to, subject, body); err != nil {
			h.logger.Error("failed to send welcome email",
				zap.String("email", to),
				zap.Error(err),
			)
			return
		}
		h.logger.Info("welcome email sent", zap.String("email", to))
	}()
	return nil
}
