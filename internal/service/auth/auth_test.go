package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"invoicely-service/internal/domain/auth"
	"invoicely-service/internal/domain/user"
	xerrors "invoicely-service/internal/pkg/errors"
	"invoicely-service/internal/pkg/jwt"
	"invoicely-service/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type sentMail struct {
	to, name, link string
}

type recordingMailer struct {
	mu      sync.Mutex
	resets  []sentMail
	welcome []string
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, to, fullName, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets = append(m.resets, sentMail{to, fullName, link})
	return nil
}

func (m *recordingMailer) SendWelcome(_ context.Context, to, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.welcome = append(m.welcome, to)
	return nil
}

type logoutRecorder struct {
	users []string
}

func (r *logoutRecorder) ForceLogout(userID, _ string) {
	r.users = append(r.users, userID)
}

type authFixture struct {
	svc      *AuthService
	users    *testutil.InMemoryUserStore
	sessions *testutil.InMemorySessionStore
	limiter  *testutil.InMemoryLimiter
	mailer   *recordingMailer
	logouts  *logoutRecorder
	jwt      *jwt.Manager
}

var (
	keyOnce sync.Once
	testKey *rsa.PrivateKey
)

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	keyOnce.Do(func() {
		var err error
		testKey, err = rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
	})

	manager := &jwt.Manager{
		Generator: jwt.NewGenerator(testKey, "invoicely", "invoicely-users", "test", time.Hour),
		Verifier:  jwt.NewVerifier(&testKey.PublicKey, "invoicely", "invoicely-users"),
	}

	users := testutil.NewInMemoryUserStore()
	provider := NewLocalProvider(users)
	provider.cost = bcrypt.MinCost

	f := &authFixture{
		users:    users,
		sessions: testutil.NewInMemorySessionStore(),
		limiter:  testutil.NewInMemoryLimiter(),
		mailer:   &recordingMailer{},
		logouts:  &logoutRecorder{},
		jwt:      manager,
	}
	f.svc = NewAuthService(users, provider, manager, f.sessions, f.limiter, f.mailer, f.logouts,
		"https://app.invoicely.test/reset", zap.NewNop())
	return f
}

func (f *authFixture) register(t *testing.T, email string) *auth.LoginResponse {
	t.Helper()
	resp, err := f.svc.Register(context.Background(), &auth.RegisterRequest{
		Email:    email,
		Password: "correct horse",
		FullName: "Ana Diaz",
	})
	require.NoError(t, err)
	return resp
}

func TestRegister_CreatesFreeUserAndSession(t *testing.T) {
	f := newAuthFixture(t)

	resp := f.register(t, "Ana@Example.com")

	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, "ana@example.com", resp.User.Email)
	assert.Equal(t, "free", resp.User.Plan)
	assert.Equal(t, "user", resp.User.Role)
	assert.Nil(t, resp.User.PlanExpiresAt)
	assert.Equal(t, 1, f.sessions.CountSessions(resp.User.ID))
	assert.Equal(t, []string{"ana@example.com"}, f.mailer.welcome)

	claims, err := f.jwt.Verifier.VerifyAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "user", claims.Role)

	stored, err := f.users.FindByID(context.Background(), resp.User.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", stored.PasswordHash)
	assert.Equal(t, ProviderLocal, stored.AuthProvider)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "ana@example.com")

	_, err := f.svc.Register(context.Background(), &auth.RegisterRequest{
		Email: "ANA@example.com", Password: "another one", FullName: "Other",
	})
	assert.ErrorIs(t, err, xerrors.ErrConflict)
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "ana@example.com")
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		resp, err := f.svc.Login(ctx, &auth.LoginRequest{Email: "ana@example.com", Password: "correct horse", IPAddress: "10.0.0.1"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.svc.Login(ctx, &auth.LoginRequest{Email: "ana@example.com", Password: "nope", IPAddress: "10.0.0.1"})
		assert.ErrorIs(t, err, xerrors.ErrUnauthorized)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := f.svc.Login(ctx, &auth.LoginRequest{Email: "ghost@example.com", Password: "correct horse", IPAddress: "10.0.0.1"})
		assert.ErrorIs(t, err, xerrors.ErrUnauthorized)
	})
}

func TestLogin_RoleComesFromStoredUser(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "ops@example.com")
	ctx := context.Background()

	f.svc.PromoteBootstrapAdmins(ctx, []string{"ops@example.com", "missing@example.com"})

	resp, err := f.svc.Login(ctx, &auth.LoginRequest{Email: "ops@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "admin", resp.User.Role)

	claims, err := f.jwt.Verifier.VerifyAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin())

	exists, err := f.users.ExistsByEmail(ctx, "missing@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLogin_BannedUser(t *testing.T) {
	f := newAuthFixture(t)
	resp := f.register(t, "ana@example.com")
	_, err := f.users.ToggleBan(context.Background(), resp.User.ID)
	require.NoError(t, err)

	_, err = f.svc.Login(context.Background(), &auth.LoginRequest{Email: "ana@example.com", Password: "correct horse"})
	assert.ErrorIs(t, err, xerrors.ErrAccountBanned)
}

func TestLogin_RateLimited(t *testing.T) {
	f := newAuthFixture(t)
	f.limiter.MaxLogin = 2
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.svc.Login(ctx, &auth.LoginRequest{Email: "ana@example.com", Password: "x", IPAddress: "1.1.1.1"})
		assert.ErrorIs(t, err, xerrors.ErrUnauthorized)
	}

	_, err := f.svc.Login(ctx, &auth.LoginRequest{Email: "ana@example.com", Password: "x", IPAddress: "1.1.1.1"})
	assert.ErrorIs(t, err, xerrors.ErrRateLimited)
}

func TestSession_RestoresCurrentPlan(t *testing.T) {
	f := newAuthFixture(t)
	resp := f.register(t, "ana@example.com")
	ctx := context.Background()

	claims, err := f.jwt.Verifier.VerifyAccessToken(resp.AccessToken)
	require.NoError(t, err)

	expires := time.Now().Add(user.PlanDuration)
	_, err = f.users.UpdatePlan(ctx, resp.User.ID, user.PlanPro, &expires)
	require.NoError(t, err)

	sess, err := f.svc.Session(ctx, claims.UserID, claims.ID)
	require.NoError(t, err)
	assert.Equal(t, "pro", sess.User.Plan)
	require.NotNil(t, sess.User.PlanExpiresAt)
}

func TestSession_BannedUserIsSignedOut(t *testing.T) {
	f := newAuthFixture(t)
	resp := f.register(t, "ana@example.com")
	ctx := context.Background()
	claims, err := f.jwt.Verifier.VerifyAccessToken(resp.AccessToken)
	require.NoError(t, err)

	_, err = f.users.ToggleBan(ctx, resp.User.ID)
	require.NoError(t, err)

	_, err = f.svc.Session(ctx, claims.UserID, claims.ID)
	assert.ErrorIs(t, err, xerrors.ErrAccountBanned)
	assert.Zero(t, f.sessions.CountSessions(resp.User.ID))
}

func TestLogout_ClearsSessionAndBlacklists(t *testing.T) {
	f := newAuthFixture(t)
	resp := f.register(t, "ana@example.com")
	ctx := context.Background()
	claims, err := f.jwt.Verifier.VerifyAccessToken(resp.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, claims.UserID, claims.ID, claims.ExpiresAt.Time))

	_, err = f.svc.Session(ctx, claims.UserID, claims.ID)
	assert.ErrorIs(t, err, xerrors.ErrSessionExpired)

	blacklisted, err := f.sessions.IsTokenBlacklisted(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, blacklisted)
}

func TestForgotAndResetPassword(t *testing.T) {
	f := newAuthFixture(t)
	resp := f.register(t, "ana@example.com")
	ctx := context.Background()

	require.NoError(t, f.svc.ForgotPassword(ctx, "ANA@example.com"))
	require.Len(t, f.mailer.resets, 1)
	sent := f.mailer.resets[0]
	assert.Equal(t, "ana@example.com", sent.to)
	assert.True(t, strings.HasPrefix(sent.link, "https://app.invoicely.test/reset?token="))

	link, err := url.Parse(sent.link)
	require.NoError(t, err)
	token := link.Query().Get("token")

	require.NoError(t, f.svc.ResetPassword(ctx, &auth.ResetPasswordRequest{Token: token, NewPassword: "brand new pass"}))
	assert.Zero(t, f.sessions.CountSessions(resp.User.ID))
	assert.Equal(t, []string{resp.User.ID}, f.logouts.users)

	_, err = f.svc.Login(ctx, &auth.LoginRequest{Email: "ana@example.com", Password: "brand new pass"})
	assert.NoError(t, err)

	err = f.svc.ResetPassword(ctx, &auth.ResetPasswordRequest{Token: token, NewPassword: "third password"})
	assert.ErrorIs(t, err, xerrors.ErrUnauthorized)
}

func TestForgotPassword_UnknownEmailIsSilent(t *testing.T) {
	f := newAuthFixture(t)

	assert.NoError(t, f.svc.ForgotPassword(context.Background(), "ghost@example.com"))
	assert.Empty(t, f.mailer.resets)
}

func TestResetPassword_RejectsAccessToken(t *testing.T) {
	f := newAuthFixture(t)
	resp := f.register(t, "ana@example.com")

	err := f.svc.ResetPassword(context.Background(), &auth.ResetPasswordRequest{Token: resp.AccessToken, NewPassword: "whatever123"})
	assert.ErrorIs(t, err, xerrors.ErrUnauthorized)
}

func TestUpdateProfile(t *testing.T) {
	f := newAuthFixture(t)
	resp := f.register(t, "ana@example.com")
	ctx := context.Background()

	info, err := f.svc.UpdateProfile(ctx, resp.User.ID, &auth.UpdateProfileRequest{FullName: "  Ana María Díaz "})
	require.NoError(t, err)
	assert.Equal(t, "Ana María Díaz", info.FullName)

	sessions, err := f.sessions.GetUserActiveSessions(ctx, resp.User.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "Ana María Díaz", sessions[0].FullName)

	_, err = f.svc.UpdateProfile(ctx, resp.User.ID, &auth.UpdateProfileRequest{FullName: "   "})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}
