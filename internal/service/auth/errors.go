package auth

import "errors"

// Token validation errors
var (
	// ErrInvalidToken is returned when a token is malformed or its
	// signature does not verify.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken is returned when a token's expiry has passed.
	ErrExpiredToken = errors.New("token expired")

	// ErrTokenNotYetValid is returned when a token's not-before time is
	// in the future.
	ErrTokenNotYetValid = errors.New("token not yet valid")

	// ErrWrongTokenType is returned when a token carries an unexpected
	// type claim.
	ErrWrongTokenType = errors.New("wrong token type")
)
