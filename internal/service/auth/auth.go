// internal/service/auth/auth.go
package auth

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"invoicely-service/internal/domain/auth"
	"invoicely-service/internal/domain/user"
	xerrors "invoicely-service/internal/pkg/errors"
	"invoicely-service/internal/pkg/jwt"
	"invoicely-service/internal/pkg/session"

	"go.uber.org/zap"
)

// Mailer sends the transactional emails the auth flows need.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, fullName, link string) error
	SendWelcome(ctx context.Context, to, fullName string) error
}

// SessionNotifier pushes a forced logout to the user's open sockets.
type SessionNotifier interface {
	ForceLogout(userID, reason string)
}

type AuthService struct {
	users      user.Repository
	provider   Provider
	jwtManager *jwt.Manager
	sessions   session.Store
	limiter    session.Limiter
	mailer     Mailer
	notifier   SessionNotifier
	resetURL   string
	logger     *zap.Logger
	now        func() time.Time
}

func NewAuthService(
	users user.Repository,
	provider Provider,
	jwtManager *jwt.Manager,
	sessions session.Store,
	limiter session.Limiter,
	mailer Mailer,
	notifier SessionNotifier,
	resetURL string,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		provider:   provider,
		jwtManager: jwtManager,
		sessions:   sessions,
		limiter:    limiter,
		mailer:     mailer,
		notifier:   notifier,
		resetURL:   resetURL,
		logger:     logger,
		now:        time.Now,
	}
}

// ========== Registration ==========

// Register creates the account with the configured provider and signs the user in.
func (s *AuthService) Register(ctx context.Context, req *auth.RegisterRequest) (*auth.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, xerrors.Wrap(xerrors.ErrConflict, "email already registered")
	}

	identity, err := s.provider.SignUp(ctx, email, req.Password)
	if err != nil {
		return nil, err
	}

	u := &user.User{
		ID:           identity.ExternalID,
		FullName:     strings.TrimSpace(req.FullName),
		Email:        email,
		Plan:         user.PlanFree,
		Role:         user.RoleUser,
		AuthProvider: s.provider.Name(),
		PasswordHash: identity.PasswordHash,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.mailer.SendWelcome(ctx, u.Email, u.FullName); err != nil {
		s.logger.Error("failed to send welcome email", zap.String("email", u.Email), zap.Error(err))
	}

	s.logger.Info("user registered",
		zap.String("user_id", u.ID),
		zap.String("provider", u.AuthProvider),
	)

	return s.loginUser(ctx, u, req.Device, req.IPAddress, req.UserAgent)
}

// ========== Login ==========

// Login checks credentials with the provider and opens a session.
func (s *AuthService) Login(ctx context.Context, req *auth.LoginRequest) (*auth.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	allowed, _, err := s.limiter.CheckLoginAttempt(ctx, req.IPAddress, email)
	if err != nil {
		s.logger.Error("failed to check login rate limit", zap.Error(err))
	} else if !allowed {
		return nil, xerrors.ErrRateLimited
	}

	identity, err := s.provider.SignIn(ctx, email, req.Password)
	if err != nil {
		s.logger.Warn("failed login attempt", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	u, err := s.users.FindByID(ctx, identity.ExternalID)
	if xerrors.Is(err, xerrors.ErrNotFound) && s.provider.Name() == ProviderSupabase {
		// hosted accounts created outside this service get a local row on first sign-in
		u = &user.User{
			ID:           identity.ExternalID,
			Email:        strings.ToLower(identity.Email),
			FullName:     identity.Email,
			Plan:         user.PlanFree,
			Role:         user.RoleUser,
			AuthProvider: ProviderSupabase,
		}
		err = s.users.Create(ctx, u)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if u.IsBanned {
		return nil, xerrors.ErrAccountBanned
	}

	if err := s.limiter.ResetLoginAttempts(ctx, req.IPAddress, email); err != nil {
		s.logger.Warn("failed to reset login attempts", zap.Error(err))
	}

	return s.loginUser(ctx, u, req.Device, req.IPAddress, req.UserAgent)
}

func (s *AuthService) loginUser(ctx context.Context, u *user.User, device, ip, userAgent string) (*auth.LoginResponse, error) {
	token, jti, err := s.jwtManager.Generator.GenerateAccessToken(u.ID, u.Email, string(u.Role), device)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	now := s.now()
	ttl := s.jwtManager.Generator.Ttl
	sd := &session.SessionData{
		JTI:            jti,
		UserID:         u.ID,
		Email:          u.Email,
		FullName:       u.FullName,
		Role:           string(u.Role),
		Plan:           string(u.Plan),
		Device:         device,
		IPAddress:      ip,
		UserAgent:      userAgent,
		Provider:       u.AuthProvider,
		LoginAt:        now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(ttl),
	}
	if err := s.sessions.CreateSession(ctx, sd); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("user logged in", zap.String("user_id", u.ID), zap.String("jti", jti))

	return &auth.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(ttl.Seconds()),
		ExpiresAt:   sd.ExpiresAt,
		User:        userInfo(u),
	}, nil
}

// ========== Session ==========

// Session restores the signed-in user's context. Plan and role are re-read so a
// client always sees the current server-side state.
func (s *AuthService) Session(ctx context.Context, userID, jti string) (*auth.SessionResponse, error) {
	sd, err := s.sessions.GetSession(ctx, userID, jti)
	if err != nil {
		return nil, err
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if u.IsBanned {
		if err := s.sessions.InvalidateAllUserSessions(ctx, userID); err != nil {
			s.logger.Error("failed to clear banned user sessions", zap.String("user_id", userID), zap.Error(err))
		}
		return nil, xerrors.ErrAccountBanned
	}

	return &auth.SessionResponse{
		User:      userInfo(u),
		LoginAt:   sd.LoginAt,
		ExpiresAt: sd.ExpiresAt,
	}, nil
}

// Logout tears down one session and blacklists its token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, userID, jti string, expiresAt time.Time) error {
	if err := s.sessions.InvalidateSession(ctx, userID, jti); err != nil {
		return fmt.Errorf("failed to invalidate session: %w", err)
	}

	if err := s.sessions.BlacklistToken(ctx, jti, expiresAt.Sub(s.now())); err != nil {
		s.logger.Warn("failed to blacklist token", zap.String("jti", jti), zap.Error(err))
	}

	s.logger.Info("user logged out", zap.String("user_id", userID), zap.String("jti", jti))
	return nil
}

// LogoutAll ends every session of the user.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	if err := s.sessions.InvalidateAllUserSessions(ctx, userID); err != nil {
		return fmt.Errorf("failed to invalidate sessions: %w", err)
	}
	s.notifier.ForceLogout(userID, "signed out everywhere")
	return nil
}

// ========== Password Reset ==========

// ForgotPassword starts a reset. Unknown emails succeed silently so the endpoint
// does not reveal which accounts exist.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	allowed, err := s.limiter.CheckPasswordResetAttempt(ctx, email)
	if err != nil {
		s.logger.Error("failed to check reset rate limit", zap.Error(err))
	} else if !allowed {
		return xerrors.ErrRateLimited
	}

	handled, err := s.provider.SendPasswordReset(ctx, email, s.resetURL)
	if err != nil {
		return fmt.Errorf("failed to request password reset: %w", err)
	}
	if handled {
		return nil
	}

	u, err := s.users.FindByEmail(ctx, email)
	if xerrors.Is(err, xerrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}

	token, _, err := s.jwtManager.Generator.GeneratePasswordResetToken(u.ID, u.Email)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	link := s.resetURL + "?token=" + url.QueryEscape(token)
	if err := s.mailer.SendPasswordReset(ctx, u.Email, u.FullName, link); err != nil {
		s.logger.Error("failed to send password reset email", zap.String("user_id", u.ID), zap.Error(err))
	}
	return nil
}

// ResetPassword sets a new password from a single-use reset token and ends all sessions.
func (s *AuthService) ResetPassword(ctx context.Context, req *auth.ResetPasswordRequest) error {
	claims, err := s.jwtManager.Verifier.VerifyPasswordResetToken(req.Token)
	if err != nil {
		return xerrors.Wrap(xerrors.ErrUnauthorized, err.Error())
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	fresh, err := s.sessions.ConsumeOnce(ctx, claims.ID, ttl)
	if err != nil {
		return fmt.Errorf("failed to consume reset token: %w", err)
	}
	if !fresh {
		return xerrors.Wrap(xerrors.ErrUnauthorized, "reset token already used")
	}

	hash, err := s.provider.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, claims.UserID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.Info("password reset", zap.String("user_id", claims.UserID))
	return s.LogoutAll(ctx, claims.UserID)
}

// ========== Profile ==========

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, req *auth.UpdateProfileRequest) (*auth.UserInfo, error) {
	name := strings.TrimSpace(req.FullName)
	if name == "" {
		return nil, xerrors.Invalid("full name is required")
	}

	u, err := s.users.UpdateProfile(ctx, userID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	if err := s.sessions.UpdateSessions(ctx, userID, func(sd *session.SessionData) {
		sd.FullName = u.FullName
	}); err != nil {
		s.logger.Warn("failed to refresh sessions", zap.String("user_id", userID), zap.Error(err))
	}

	info := userInfo(u)
	return &info, nil
}

// ========== Admin bootstrap ==========

// PromoteBootstrapAdmins grants the admin role to existing accounts listed in
// configuration. Missing accounts are skipped; nothing is created.
func (s *AuthService) PromoteBootstrapAdmins(ctx context.Context, emails []string) {
	for _, email := range emails {
		promoted, err := s.users.PromoteByEmail(ctx, email, user.RoleAdmin)
		switch {
		case err != nil:
			s.logger.Error("failed to promote bootstrap admin", zap.String("email", email), zap.Error(err))
		case promoted:
			s.logger.Info("promoted bootstrap admin", zap.String("email", email))
		default:
			s.logger.Warn("bootstrap admin skipped: no account or already admin", zap.String("email", email))
		}
	}
}

func userInfo(u *user.User) auth.UserInfo {
	return auth.UserInfo{
		ID:            u.ID,
		Email:         u.Email,
		FullName:      u.FullName,
		Role:          string(u.Role),
		Plan:          string(u.Plan),
		PlanExpiresAt: u.PlanExpiresAt,
	}
}
