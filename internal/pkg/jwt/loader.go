package jwt

import (
	"errors"
	"fmt"
	"time"
)

const defaultTTL = 24 * time.Hour

type Config struct {
	PrivPath string
	PubPath  string
	Issuer   string
	Audience string
	TTL      time.Duration
	KID      string
}

// Manager pairs the signer and verifier built from one key pair.
type Manager struct {
	Generator *Generator
	Verifier  *Verifier
}

// LoadAndBuild reads both PEM files and refuses a public key that does not
// belong to the private key.
func LoadAndBuild(cfg Config) (*Manager, error) {
	if cfg.Issuer == "" || cfg.Audience == "" {
		return nil, errors.New("jwt issuer and audience are required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}

	priv, err := LoadRSAPrivateKeyFromPEM(cfg.PrivPath)
	if err != nil {
		return nil, fmt.Errorf("private key %s: %w", cfg.PrivPath, err)
	}
	pub, err := LoadRSAPublicKeyFromPEM(cfg.PubPath)
	if err != nil {
		return nil, fmt.Errorf("public key %s: %w", cfg.PubPath, err)
	}
	if !priv.PublicKey.Equal(pub) {
		return nil, fmt.Errorf("public key %s does not match private key %s", cfg.PubPath, cfg.PrivPath)
	}

	return &Manager{
		Generator: NewGenerator(priv, cfg.Issuer, cfg.Audience, cfg.KID, ttl),
		Verifier:  NewVerifier(pub, cfg.Issuer, cfg.Audience),
	}, nil
}
