package client

import (
	"fmt"

	"github.com/dmitrijs2005/regkeeper/internal/common"
)

// AuthError is a failed login against the LMS or the registry. Message is
// meant for people; Cause, when set, is the underlying transport or decode
// error.
type AuthError struct {
	Message string
	Cause   error
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return e.Cause }

// Is makes every AuthError match common.ErrAuthFailed.
func (e *AuthError) Is(target error) bool { return target == common.ErrAuthFailed }

// APIError is a non-2xx answer from the registry API.
type APIError struct {
	StatusCode int
	Status     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

// Is maps 401 and 403 to common.ErrorUnauthorized.
func (e *APIError) Is(target error) bool {
	return target == common.ErrorUnauthorized && (e.StatusCode == 401 || e.StatusCode == 403)
}

// ResponseError is a 2xx registry answer whose isSuccess flag was false.
type ResponseError struct {
	Message  string
	Failures []string
}

func (e *ResponseError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Failures) > 0 {
		return e.Failures[0]
	}
	return "registry rejected the request"
}
