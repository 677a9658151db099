package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuerConfig configures a TokenIssuer.
type TokenIssuerConfig struct {
	// Secret is the shared HMAC key.
	Secret []byte

	// Issuer, Audience and Subject fill the iss, aud and sub claims.
	Issuer   string
	Audience string
	Subject  string

	// TTL is the lifetime of a minted token.
	// Default: 5 minutes
	TTL time.Duration
}

// TokenIssuer mints short-lived HS256 tokens and reuses each one until
// it is close to expiry. It is safe for concurrent use.
type TokenIssuer struct {
	config TokenIssuerConfig
	now    func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewTokenIssuer creates a token issuer.
func NewTokenIssuer(config TokenIssuerConfig) (*TokenIssuer, error) {
	if len(config.Secret) == 0 {
		return nil, errors.Join(ErrInvalidConfig, errors.New("token secret is required"))
	}
	if config.TTL <= 0 {
		config.TTL = 5 * time.Minute
	}
	return &TokenIssuer{config: config, now: time.Now}, nil
}

// Token returns a valid signed token, minting a new one when the cached
// token has less than a fifth of its lifetime left.
func (i *TokenIssuer) Token(context.Context) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.now()
	if i.token != "" && now.Add(i.config.TTL/5).Before(i.expires) {
		return i.token, nil
	}

	expires := now.Add(i.config.TTL)
	claims := jwt.RegisteredClaims{
		Issuer:    i.config.Issuer,
		Subject:   i.config.Subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	if i.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{i.config.Audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.config.Secret)
	if err != nil {
		return "", err
	}
	i.token = signed
	i.expires = expires
	return signed, nil
}
