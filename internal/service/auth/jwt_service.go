// Package auth issues and validates the HMAC-signed JWTs that guard the
// operational API.
package auth

import (
	"context"
	"time"
)

// TokenTypeOps is the "type" claim of operational tokens.
const TokenTypeOps = "ops"

// JWTService defines operations for managing operational tokens.
type JWTService interface {
	// GenerateToken creates a signed ops token for the given subject, usually
	// an operator name or a service identity.
	GenerateToken(ctx context.Context, subject string) (string, error)

	// ValidateToken validates the token and returns its claims. Returns
	// ErrExpiredToken, ErrTokenNotYetValid, ErrWrongTokenType or
	// ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the validated content of an ops token.
type Claims struct {
	TokenType string    `json:"type,omitempty"`
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
