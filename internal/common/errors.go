// Package common defines sentinel errors and small helpers shared by the
// regkeeper packages. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Token lifecycle errors.
	ErrTokenNotFound       = errors.New("token not found")
	ErrTokenExpired        = errors.New("token expired")
	ErrCredentialsNotFound = errors.New("no predefined credentials for user")

	// ErrAuthFailed is matched by every registry or LMS authentication failure.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrAuthRequired is returned when an operation needs a valid current
	// registry token and there is none.
	ErrAuthRequired = errors.New("registry authentication required")

	ErrorUnauthorized = errors.New("unauthorized")
	ErrInvalidToken   = errors.New("invalid token")
)
