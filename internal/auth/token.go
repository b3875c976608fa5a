// Package auth issues and verifies bearer tokens and evaluates the route
// authorization policy. Nothing in this package keeps per-request state:
// a Principal is always rebuilt from the token alone.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/civicpulse/grievance-server/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// Token verification failures. The gate treats all of them as anonymous.
var (
	ErrMalformed        = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrExpired          = errors.New("token expired")
)

// Claims is the JWT payload
type Claims struct {
	UserID      int64  `json:"uid"`
	Role        string `json:"role"`
	DisplayName string `json:"name"`
	Department  string `json:"dept,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies HS256 tokens with a process-wide key.
// It is safe for concurrent use.
type Codec struct {
	key    []byte
	ttl    time.Duration
	issuer string
}

// NewCodec creates a codec. The secret must not be empty.
func NewCodec(secret string, ttl time.Duration, issuer string) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret is empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	return &Codec{key: []byte(secret), ttl: ttl, issuer: issuer}, nil
}

// TTL returns the lifetime given to issued tokens
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue encodes p into a signed token valid from now for the codec TTL.
func (c *Codec) Issue(p models.Principal, now time.Time) (string, error) {
	claims := Claims{
		UserID:      p.UserID,
		Role:        string(p.Role),
		DisplayName: p.DisplayName,
		Department:  p.Department,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Subject,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the token signature, issuer and expiry as of now and
// returns the Principal it carries. A token is still valid at exactly its
// expiry instant and expired from the next moment on.
func (c *Codec) Verify(tokenStr string, now time.Time) (models.Principal, error) {
	var claims Claims
	// jwt treats exp as exclusive, so its claim checks are skipped and
	// expiry is compared below once the signature has verified.
	_, err := jwt.ParseWithClaims(tokenStr, &claims,
		func(t *jwt.Token) (interface{}, error) { return c.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return models.Principal{}, classify(err)
	}

	if claims.ExpiresAt == nil {
		return models.Principal{}, fmt.Errorf("%w: missing exp", ErrMalformed)
	}
	if now.After(claims.ExpiresAt.Time) {
		return models.Principal{}, ErrExpired
	}
	if c.issuer != "" && claims.Issuer != c.issuer {
		return models.Principal{}, fmt.Errorf("%w: unexpected issuer %q", ErrMalformed, claims.Issuer)
	}

	role, ok := models.ParseRole(claims.Role)
	if !ok || claims.Subject == "" {
		return models.Principal{}, ErrMalformed
	}

	return models.Principal{
		Subject:     claims.Subject,
		UserID:      claims.UserID,
		Role:        role,
		DisplayName: claims.DisplayName,
		Department:  claims.Department,
	}, nil
}

// classify maps jwt parse errors onto the verification failures
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
