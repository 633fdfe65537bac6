// Package auth issues and verifies the bearer tokens that identify an owner.
//
// Tokens are HS256 JWTs whose subject is the owner ID. The owner travels through a
// request in its context and is passed explicitly into every service call.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rezkam/compass/internal/domain"
	"github.com/rezkam/compass/internal/infrastructure/keygen"
)

// Default configuration values.
const (
	DefaultIssuer   = "compass"
	DefaultTokenTTL = 24 * time.Hour
	DefaultLeeway   = 30 * time.Second
)

// ErrWeakSecret is returned for a signing secret shorter than keygen.MinSecretLength.
var ErrWeakSecret = errors.New("signing secret is too short")

// Config holds configuration for the Authenticator.
type Config struct {
	Secret string
	Issuer string
	Leeway time.Duration // Allowed clock skew when checking exp/nbf
}

// Claims are the JWT claims of an owner token.
type Claims struct {
	jwt.RegisteredClaims
}

// Authenticator signs and validates owner tokens.
type Authenticator struct {
	secret []byte
	keyID  string
	issuer string
	leeway time.Duration
	clock  domain.Clock
}

// NewAuthenticator validates the secret and applies defaults for empty config values.
func NewAuthenticator(config Config, clock domain.Clock) (*Authenticator, error) {
	if len(config.Secret) < keygen.MinSecretLength {
		return nil, fmt.Errorf("%w: need at least %d bytes", ErrWeakSecret, keygen.MinSecretLength)
	}
	if config.Issuer == "" {
		config.Issuer = DefaultIssuer
	}
	if config.Leeway <= 0 {
		config.Leeway = DefaultLeeway
	}
	if clock == nil {
		clock = domain.SystemClock
	}

	return &Authenticator{
		secret: []byte(config.Secret),
		keyID:  keygen.KeyID(config.Secret),
		issuer: config.Issuer,
		leeway: config.Leeway,
		clock:  clock,
	}, nil
}

// KeyID returns the public identifier of the signing secret.
func (a *Authenticator) KeyID() string {
	return a.keyID
}

// IssueToken signs a token for ownerID valid for ttl (DefaultTokenTTL when zero).
func (a *Authenticator) IssueToken(ownerID string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(ownerID) == "" {
		return "", fmt.Errorf("%w: owner is required", domain.ErrInvalidID)
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := a.clock().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    a.issuer,
			Subject:   ownerID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = a.keyID

	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies a token and returns the owner ID it was issued for.
// Every failure is reported as domain.ErrUnauthorized with the cause attached.
func (a *Authenticator) ValidateToken(ctx context.Context, raw string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		if kid, _ := token.Header["kid"].(string); kid != a.keyID {
			return nil, fmt.Errorf("unknown signing key %q", kid)
		}
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(a.leeway),
		jwt.WithTimeFunc(a.clock),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("%w: token has no subject", domain.ErrUnauthorized)
	}
	return claims.Subject, nil
}
