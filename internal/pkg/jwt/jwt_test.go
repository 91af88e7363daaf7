package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	return &Manager{
		Generator: NewGenerator(key, "invoicely", "invoicely-users", "test", time.Hour),
		Verifier:  NewVerifier(&key.PublicKey, "invoicely", "invoicely-users"),
	}
}

func TestAccessToken_RoundTrip(t *testing.T) {
	m := newTestManager(t)

	token, jti, err := m.Generator.GenerateAccessToken("user-1", "a@example.com", "admin", "web")
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	claims, err := m.Verifier.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, jti, claims.ID)
	assert.True(t, claims.IsAdmin())
}

func TestVerify_RejectsWrongPurpose(t *testing.T) {
	m := newTestManager(t)

	reset, _, err := m.Generator.GeneratePasswordResetToken("user-1", "a@example.com")
	require.NoError(t, err)

	_, err = m.Verifier.VerifyAccessToken(reset)
	assert.Error(t, err)

	claims, err := m.Verifier.VerifyPasswordResetToken(reset)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestVerify_RejectsForeignIssuer(t *testing.T) {
	m := newTestManager(t)
	other := newTestManager(t)

	token, _, err := other.Generator.GenerateAccessToken("user-1", "", "user", "")
	require.NoError(t, err)

	_, err = m.Verifier.Verify(token)
	assert.Error(t, err)
}

func writeKeyPair(t *testing.T, dir, name string) (string, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	priv := filepath.Join(dir, name+"_private.pem")
	pub := filepath.Join(dir, name+"_public.pem")
	require.NoError(t, os.WriteFile(priv, pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}), 0o600))
	require.NoError(t, os.WriteFile(pub, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}), 0o600))
	return priv, pub
}

func TestLoadAndBuild(t *testing.T) {
	dir := t.TempDir()
	privA, pubA := writeKeyPair(t, dir, "a")
	_, pubB := writeKeyPair(t, dir, "b")

	m, err := LoadAndBuild(Config{PrivPath: privA, PubPath: pubA, Issuer: "invoicely", Audience: "invoicely-users"})
	require.NoError(t, err)
	token, _, err := m.Generator.GenerateAccessToken("u1", "ana@example.com", "user", "web")
	require.NoError(t, err)
	_, err = m.Verifier.VerifyAccessToken(token)
	assert.NoError(t, err)
	assert.Equal(t, defaultTTL, m.Generator.Ttl)

	_, err = LoadAndBuild(Config{PrivPath: privA, PubPath: pubB, Issuer: "invoicely", Audience: "invoicely-users"})
	assert.ErrorContains(t, err, "does not match")

	_, err = LoadAndBuild(Config{PrivPath: filepath.Join(dir, "missing.pem"), PubPath: pubA, Issuer: "invoicely", Audience: "invoicely-users"})
	assert.Error(t, err)

	_, err = LoadAndBuild(Config{PrivPath: privA, PubPath: pubA})
	assert.Error(t, err)
}
