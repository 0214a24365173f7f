package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Claims are the validated contents of an access token. AccountID is the
// acting account every engine operation is scoped by; the token itself
// is issued by the out-of-process authentication service.
type Claims struct {
	AccountID uuid.UUID
	TokenType string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}

// JWTService issues and validates the HMAC-signed access tokens the API
// authenticates requests with.
type JWTService interface {
	// GenerateToken creates a signed access token for the given account.
	GenerateToken(ctx context.Context, accountID uuid.UUID) (string, error)

	// ValidateToken verifies a token's signature, expiry and type claim
	// and returns its claims. Returns ErrExpiredToken, ErrInvalidToken,
	// ErrTokenNotYetValid or ErrWrongTokenType on failure.
	ValidateToken(ctx context.Context, token string) (*Claims, error)
}
