package auth

import "errors"

var (
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrInvalidToken      = errors.New("magic link is invalid or expired")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailExists       = errors.New("email already exists")
	ErrDevOnly           = errors.New("only available outside production")
)
