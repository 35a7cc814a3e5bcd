package auth

import "errors"

// Each failure of Service maps to exactly one of these; the text is safe to
// show to clients.
var (
	ErrValidation         = errors.New("invalid request")
	ErrDuplicateIdentity  = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrBadRequest         = errors.New("refresh token is required")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrWrongTokenType     = errors.New("invalid token type")
	ErrAccountNotFound    = errors.New("account not found")
	ErrTokenExpired       = errors.New("refresh token expired")
	ErrTokenNotFound      = errors.New("refresh token not found or revoked")
)
